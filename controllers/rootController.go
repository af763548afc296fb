package controllers

import (
	"KwanNurse/config"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// rootHandler reports service health for uptime monitors.
func rootHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "KwanNurse-Bot",
		"features": []string{
			"ReportSymptoms",
			"AssessRisk",
			"RequestAppointment",
			"ContactNurse",
		},
		"timestamp": time.Now().In(config.LocalTZ()).Format(time.RFC3339),
	})
}

// SetupRootRoute sets up the health check route
func SetupRootRoute(router *gin.Engine) {
	router.GET("/", rootHandler)
	router.HEAD("/", rootHandler)
}
