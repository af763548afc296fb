package controllers

import (
	"KwanNurse/handlers"
	"KwanNurse/middlewares"

	"github.com/gin-gonic/gin"
)

// SetupStaffRoutes registers the nurse-facing API. Everything here requires
// a staff token.
func SetupStaffRoutes(router *gin.Engine, staffHandler *handlers.StaffHandler) {
	staffGroup := router.Group("/staff").Use(middlewares.TokenAuthMiddleware())
	{
		staffGroup.GET("/queue", staffHandler.GetQueue)
		staffGroup.PATCH("/sessions/:session_id", staffHandler.UpdateSession)
		staffGroup.GET("/deferred", staffHandler.GetDeferred)
		staffGroup.PATCH("/deferred/:id", staffHandler.UpdateDeferred)
		staffGroup.GET("/patients/:user_id", staffHandler.GetPatientHistory)
		staffGroup.GET("/appointments", staffHandler.GetAppointments)
		staffGroup.PATCH("/appointments/:appointment_id", staffHandler.UpdateAppointment)
	}
}
