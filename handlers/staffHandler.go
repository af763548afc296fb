package handlers

import (
	"KwanNurse/middlewares"
	"KwanNurse/services"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

// StaffHandler serves the nurse-facing API: the live queue, session
// transitions, after-hours follow-ups, and appointment management.
type StaffHandler struct {
	teleconsultService services.TeleconsultService
	appointmentService services.AppointmentService
	riskService        services.RiskService
}

func NewStaffHandler(teleconsultService services.TeleconsultService, appointmentService services.AppointmentService, riskService services.RiskService) *StaffHandler {
	return &StaffHandler{
		teleconsultService: teleconsultService,
		appointmentService: appointmentService,
		riskService:        riskService,
	}
}

// GetQueue returns the current waiting line, highest priority first.
func (h *StaffHandler) GetQueue(c *gin.Context) {
	entries, err := h.teleconsultService.ListQueue(c.Request.Context())
	if err != nil {
		middlewares.HttpError(c, "Failed to list queue", 500, err)
		return
	}
	middlewares.RespondJSON(c, gin.H{"total": len(entries), "queue": entries}, 200)
}

// UpdateSession transitions a consult session (accept, complete, cancel).
func (h *StaffHandler) UpdateSession(c *gin.Context) {
	sessionID := c.Param("session_id")

	var body struct {
		Status        string `json:"status"`
		AssignedNurse string `json:"assigned_nurse"`
		Notes         string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.teleconsultService.UpdateSessionStatus(c.Request.Context(), sessionID, body.Status, body.AssignedNurse, body.Notes); err != nil {
		c.JSON(400, gin.H{"error": fmt.Sprintf("Failed to update session: %v", err)})
		return
	}
	c.Status(200)
}

// GetDeferred lists after-hours requests awaiting a callback. An optional
// status query filters to new or contacted.
func (h *StaffHandler) GetDeferred(c *gin.Context) {
	status := c.DefaultQuery("status", "")
	requests, err := h.teleconsultService.ListDeferred(c.Request.Context(), status)
	if err != nil {
		middlewares.HttpError(c, "Failed to list deferred requests", 500, err)
		return
	}
	middlewares.RespondJSON(c, requests, 200)
}

// UpdateDeferred marks an after-hours request as contacted.
func (h *StaffHandler) UpdateDeferred(c *gin.Context) {
	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		c.JSON(400, gin.H{"error": "Invalid request ID"})
		return
	}

	if err := h.teleconsultService.MarkDeferredContacted(c.Request.Context(), uint(id)); err != nil {
		c.JSON(400, gin.H{"error": fmt.Sprintf("Failed to update deferred request: %v", err)})
		return
	}
	c.Status(200)
}

// GetPatientHistory returns one patient's risk profile, recent symptom
// reports, and appointment requests.
func (h *StaffHandler) GetPatientHistory(c *gin.Context) {
	userID := c.Param("user_id")

	overview, err := h.riskService.PatientHistory(c.Request.Context(), userID)
	if err != nil {
		middlewares.HttpError(c, "Failed to load patient history", 500, err)
		return
	}
	appointments, err := h.appointmentService.ListByUser(c.Request.Context(), userID)
	if err != nil {
		middlewares.HttpError(c, "Failed to load appointments", 500, err)
		return
	}

	middlewares.RespondJSON(c, gin.H{
		"user_id":        userID,
		"profile":        overview.Profile,
		"latest_report":  overview.LatestReport,
		"recent_reports": overview.RecentReports,
		"appointments":   appointments,
	}, 200)
}

// GetAppointments lists appointment requests by status, defaulting to New.
func (h *StaffHandler) GetAppointments(c *gin.Context) {
	status := c.DefaultQuery("status", "New")
	appointments, err := h.appointmentService.ListByStatus(c.Request.Context(), status)
	if err != nil {
		middlewares.HttpError(c, "Failed to list appointments", 500, err)
		return
	}
	middlewares.RespondJSON(c, appointments, 200)
}

// UpdateAppointment moves an appointment through its workflow.
func (h *StaffHandler) UpdateAppointment(c *gin.Context) {
	idStr := c.Param("appointment_id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		c.JSON(400, gin.H{"error": "Invalid appointment ID"})
		return
	}

	var body struct {
		Status     string `json:"status"`
		AssignedTo string `json:"assigned_to"`
		Notes      string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.appointmentService.UpdateStatus(c.Request.Context(), uint(id), body.Status, body.AssignedTo, body.Notes); err != nil {
		c.JSON(400, gin.H{"error": fmt.Sprintf("Failed to update appointment: %v", err)})
		return
	}
	c.Status(200)
}
