package handlers

import (
	"KwanNurse/services"
	"KwanNurse/utils"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"
)

// WebhookHandler is the Dialogflow fulfillment endpoint. Every reply goes
// back with status 200 and a fulfillmentText; the NLU platform treats any
// other status as a dead webhook.
type WebhookHandler struct {
	riskService        services.RiskService
	teleconsultService services.TeleconsultService
	appointmentService services.AppointmentService
	nurseGroupID       string
}

func NewWebhookHandler(
	riskService services.RiskService,
	teleconsultService services.TeleconsultService,
	appointmentService services.AppointmentService,
	nurseGroupID string,
) *WebhookHandler {
	return &WebhookHandler{
		riskService:        riskService,
		teleconsultService: teleconsultService,
		appointmentService: appointmentService,
		nurseGroupID:       nurseGroupID,
	}
}

type webhookRequest struct {
	QueryResult struct {
		QueryText string `json:"queryText"`
		Intent    struct {
			DisplayName string `json:"displayName"`
		} `json:"intent"`
		Parameters map[string]interface{} `json:"parameters"`
	} `json:"queryResult"`
	Session string `json:"session"`
}

func fulfillment(c *gin.Context, text string) {
	c.JSON(200, gin.H{"fulfillmentText": text})
}

// HandleWebhook parses the fulfillment payload and dispatches on intent name.
func (h *WebhookHandler) HandleWebhook(c *gin.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Panic handling webhook: %v", r)
			fulfillment(c, "เกิดข้อผิดพลาดในการประมวลผล กรุณาลองใหม่อีกครั้ง")
		}
	}()

	var req webhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"fulfillmentText": "Request body empty"})
		return
	}

	intent := req.QueryResult.Intent.DisplayName
	params := req.QueryResult.Parameters
	if params == nil {
		params = map[string]interface{}{}
	}

	// The session path's last segment is the LINE user ID.
	userID := "unknown"
	if req.Session != "" {
		parts := strings.Split(req.Session, "/")
		userID = parts[len(parts)-1]
	}

	log.Printf("Intent: %s | User: %s", intent, userID)

	switch intent {
	case "ReportSymptoms":
		h.handleReportSymptoms(c, userID, params)
	case "AssessRisk", "AssessPersonalRisk":
		h.handleAssessRisk(c, userID, params)
	case "RequestAppointment":
		h.handleRequestAppointment(c, userID, params)
	case "ContactNurse":
		h.handleContactNurse(c, userID, params)
	case "AfterHoursChoice":
		h.handleAfterHoursChoice(c, userID, params, req.QueryResult.QueryText)
	case "CancelConsultation":
		h.handleCancelConsultation(c, userID)
	case "QueueStatus":
		fulfillment(c, h.teleconsultService.QueueStatusMessage(c.Request.Context()))
	case "GetGroupID":
		fulfillment(c, fmt.Sprintf("🔧 Debug Info:\nNURSE_GROUP_ID: %s", h.nurseGroupID))
	default:
		h.handleUnknownIntent(c, intent)
	}
}

func (h *WebhookHandler) handleReportSymptoms(c *gin.Context, userID string, params map[string]interface{}) {
	pain := params["pain_score"]
	wound := params["wound_status"]
	fever := params["fever_check"]
	mobility := params["mobility_status"]

	var missing []string
	if utils.IsBlankParam(pain) {
		missing = append(missing, "ระดับความปวด (0-10)")
	}
	if utils.IsBlankParam(wound) {
		missing = append(missing, "สภาพแผล")
	}
	if utils.IsBlankParam(fever) {
		missing = append(missing, "อาการไข้")
	}
	if utils.IsBlankParam(mobility) {
		missing = append(missing, "การเคลื่อนไหว")
	}
	if len(missing) > 0 {
		fulfillment(c, "กรุณาระบุ "+strings.Join(missing, " และ ")+" ด้วยค่ะ")
		return
	}

	painVal, _ := utils.ParseIntParam(pain)
	result := h.riskService.AssessSymptoms(c.Request.Context(), userID,
		painVal,
		utils.DisplayString(wound),
		utils.DisplayString(fever),
		utils.DisplayString(mobility))
	fulfillment(c, result)
}

func (h *WebhookHandler) handleAssessRisk(c *gin.Context, userID string, params map[string]interface{}) {
	age := params["age"]
	weight := params["weight"]
	height := params["height"]
	disease := params["disease"]
	if utils.IsBlankParam(disease) {
		disease = params["diseases"]
	}

	var missing []string
	if utils.IsBlankParam(age) {
		missing = append(missing, "อายุ")
	}
	if utils.IsBlankParam(weight) {
		missing = append(missing, "น้ำหนัก (กิโลกรัม)")
	}
	if utils.IsBlankParam(height) {
		missing = append(missing, "ส่วนสูง (เซนติเมตร)")
	}
	if utils.IsBlankParam(disease) {
		missing = append(missing, "โรคประจำตัว (หรือพิมพ์ 'ไม่มี')")
	}
	if len(missing) > 0 {
		fulfillment(c, "กรุณาระบุ "+strings.Join(missing, " และ ")+" ด้วยค่ะ")
		return
	}

	var agePtr *int
	if v, ok := utils.ParseIntParam(age); ok {
		agePtr = &v
	}
	var weightPtr, heightPtr *float64
	if v, ok := utils.ParseFloatParam(weight); ok {
		weightPtr = &v
	}
	if v, ok := utils.ParseFloatParam(height); ok {
		heightPtr = &v
	}

	rawDiseases := make([]string, 0)
	for _, item := range utils.AsList(disease) {
		if s := utils.DisplayString(item); s != "" {
			rawDiseases = append(rawDiseases, s)
		}
	}
	diseases := services.NormalizeDiseases(rawDiseases)

	result := h.riskService.AssessPersonal(c.Request.Context(), userID, agePtr, weightPtr, heightPtr, diseases)
	fulfillment(c, result)
}

func (h *WebhookHandler) handleRequestAppointment(c *gin.Context, userID string, params map[string]interface{}) {
	dateRaw := firstParam(params, "date", "preferred_date", "date-original")
	timeRaw := firstParam(params, "time", "preferred_time")
	timeOfDayRaw := firstParam(params, "timeofday", "time_of_day")
	reason := utils.DisplayString(firstParam(params, "reason", "symptom", "description"))
	name := utils.DisplayString(params["name"])
	phoneRaw := utils.DisplayString(firstParam(params, "phone-number", "phone"))

	preferredDate, dateOK := utils.ParseDateISO(dateRaw)
	preferredTime := utils.ResolveTime(timeRaw, timeOfDayRaw)

	var missing []string
	if !dateOK {
		missing = append(missing, "วันที่นัด (เช่น 25 มกราคม หรือ 2026-01-25)")
	}
	if preferredTime == "" {
		missing = append(missing, "เวลานัด (เช่น 09:00 หรือ 'เช้า'/'บ่าย')")
	}
	if reason == "" {
		missing = append(missing, "เหตุผลการนัด (เช่น เปลี่ยนผ้าพันแผล, ตรวจแผล)")
	}

	phone := ""
	if phoneRaw != "" {
		phone = utils.NormalizePhoneNumber(phoneRaw)
		if !utils.IsValidThaiMobile(phone) {
			fulfillment(c, "⚠️ เบอร์โทรศัพท์ไม่ถูกต้อง กรุณาพิมพ์เป็นตัวเลข 10 หลัก (เช่น 0812345678)")
			return
		}
	}

	if len(missing) > 0 {
		fulfillment(c, "กรุณาระบุ "+strings.Join(missing, " และ ")+" ด้วยค่ะ")
		return
	}

	ok, message := h.appointmentService.CreateAppointment(c.Request.Context(), userID,
		name, phone, preferredDate.Format("2006-01-02"), preferredTime, reason)
	if !ok && strings.Contains(message, "ย้อนหลัง") {
		fulfillment(c, "⚠️ วันที่ที่เลือกเป็นอดีตแล้ว กรุณาเลือกวันที่ในอนาคตค่ะ")
		return
	}
	fulfillment(c, message)
}

func (h *WebhookHandler) handleContactNurse(c *gin.Context, userID string, params map[string]interface{}) {
	categoryRaw := utils.DisplayString(firstParam(params, "issue_category", "category", "issue_type"))
	description := utils.DisplayString(firstParam(params, "description", "detail", "symptom"))

	if categoryRaw == "" {
		fulfillment(c, h.teleconsultService.CategoryMenu())
		return
	}
	category, ok := h.teleconsultService.ParseCategoryChoice(categoryRaw)
	if !ok {
		fulfillment(c, h.teleconsultService.CategoryMenu())
		return
	}

	result := h.teleconsultService.StartTeleconsult(c.Request.Context(), userID, category, description)
	fulfillment(c, result.Message)
}

func (h *WebhookHandler) handleAfterHoursChoice(c *gin.Context, userID string, params map[string]interface{}, queryText string) {
	choice := utils.DisplayString(firstParam(params, "choice", "number"))
	if choice == "" {
		choice = strings.TrimSpace(queryText)
	}
	issueType := utils.DisplayString(firstParam(params, "issue_category", "category", "issue_type"))
	description := utils.DisplayString(firstParam(params, "description", "detail"))

	result := h.teleconsultService.AfterHoursChoice(c.Request.Context(), userID, choice, issueType, description)
	fulfillment(c, result.Message)
}

func (h *WebhookHandler) handleCancelConsultation(c *gin.Context, userID string) {
	result := h.teleconsultService.CancelConsultation(c.Request.Context(), userID)
	fulfillment(c, result.Message)
}

func (h *WebhookHandler) handleUnknownIntent(c *gin.Context, intent string) {
	log.Printf("Unhandled intent: %s", intent)
	fulfillment(c, fmt.Sprintf(
		"ขอโทษค่ะ บอทยังไม่รองรับคำสั่ง '%s' ในขณะนี้\n\n"+
			"คุณสามารถใช้ฟีเจอร์หลักได้:\n"+
			"• รายงานอาการ\n"+
			"• ประเมินความเสี่ยง\n"+
			"• นัดหมายพยาบาล\n"+
			"• ปรึกษาพยาบาล", intent))
}

// firstParam returns the first non-blank parameter among the given keys.
func firstParam(params map[string]interface{}, keys ...string) interface{} {
	for _, key := range keys {
		if v, ok := params[key]; ok && !utils.IsBlankParam(v) {
			return v
		}
	}
	return nil
}
