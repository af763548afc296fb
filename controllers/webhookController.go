package controllers

import (
	"KwanNurse/handlers"
	"KwanNurse/middlewares"

	"github.com/gin-gonic/gin"
)

// SetupWebhookRoute registers the Dialogflow fulfillment endpoint. The NLU
// platform authenticates with a shared bearer token on every call.
func SetupWebhookRoute(router *gin.Engine, webhookHandler *handlers.WebhookHandler, bearerToken string) {
	webhookGroup := router.Group("/").Use(middlewares.ValidateBearerToken(bearerToken))
	{
		webhookGroup.POST("/webhook", webhookHandler.HandleWebhook)
	}
}
