package services

import (
	"KwanNurse/config"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// Notifier pushes text messages to LINE recipients. The nurse group is the
// default target for staff alerts.
type Notifier interface {
	PushToNurseGroup(ctx context.Context, message string) error
	PushTo(ctx context.Context, targetID, message string) error
}

type lineNotifier struct {
	apiURL      string
	accessToken string
	groupID     string
	client      *http.Client
}

// NewLineNotifier builds the LINE push client. The 8 second timeout keeps a
// slow LINE API from stalling webhook replies.
func NewLineNotifier(cfg *config.AppConfig) Notifier {
	return &lineNotifier{
		apiURL:      cfg.LineAPIURL,
		accessToken: cfg.LineAccessToken,
		groupID:     cfg.NurseGroupID,
		client:      &http.Client{Timeout: 8 * time.Second},
	}
}

type linePushPayload struct {
	To       string        `json:"to"`
	Messages []lineMessage `json:"messages"`
}

type lineMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func (n *lineNotifier) PushToNurseGroup(ctx context.Context, message string) error {
	return n.PushTo(ctx, n.groupID, message)
}

func (n *lineNotifier) PushTo(ctx context.Context, targetID, message string) error {
	if n.accessToken == "" || targetID == "" {
		log.Println("LINE token or target ID not configured; skipping push")
		return nil
	}

	payload := linePushPayload{
		To:       targetID,
		Messages: []lineMessage{{Type: "text", Text: message}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+n.accessToken)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send LINE push: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("Failed to close LINE response body: %v", err)
		}
	}()

	if resp.StatusCode/100 != 2 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("LINE push failed: %d %s", resp.StatusCode, string(respBody))
	}

	log.Printf("Push notification sent to %s", targetID)
	return nil
}

// BuildSymptomNotification formats the staff alert for a high-risk symptom
// report.
func BuildSymptomNotification(userID, pain, wound, fever, mobility, riskLevel string, riskScore int, worksheetLink string) string {
	return fmt.Sprintf(
		"🚨 รายงานอาการเร่งด่วน!\n"+
			"━━━━━━━━━━━━━━━━━━━━\n"+
			"👤 User ID: %s\n"+
			"⚠️ ความเสี่ยง: %s\n"+
			"📊 คะแนน: %d\n\n"+
			"📋 อาการ:\n"+
			"  • ความปวด: %s/10\n"+
			"  • แผล: %s\n"+
			"  • ไข้: %s\n"+
			"  • เคลื่อนไหว: %s\n\n"+
			"⚡ กรุณาตรวจสอบทันที!\n"+
			"📊 ดูข้อมูล: %s",
		userID, riskLevel, riskScore, pain, wound, fever, mobility, worksheetLink)
}

// BuildRiskNotification formats the staff alert for a high-risk personal
// profile.
func BuildRiskNotification(userID string, age string, bmi float64, diseases, riskLevel string, riskScore int, worksheetLink string) string {
	return fmt.Sprintf(
		"🆕 ผู้ป่วยกลุ่มเสี่ยงสูง!\n"+
			"━━━━━━━━━━━━━━━━━━━━\n"+
			"👤 User ID: %s\n"+
			"⚠️ ระดับ: %s\n"+
			"📊 คะแนน: %d\n\n"+
			"📋 ข้อมูล:\n"+
			"  • อายุ: %s ปี\n"+
			"  • BMI: %.1f\n"+
			"  • โรค: %s\n\n"+
			"⚡ โปรดวางแผนติดตามใกล้ชิด\n"+
			"📊 ดูข้อมูล: %s",
		userID, riskLevel, riskScore, age, bmi, diseases, worksheetLink)
}

// thaiDayNames index by time.Weekday.
var thaiDayNames = [7]string{"อาทิตย์", "จันทร์", "อังคาร", "พุธ", "พฤหัสบดี", "ศุกร์", "เสาร์"}

// FormatThaiDate renders an ISO date as "<day name> DD/MM/YYYY". Unparsable
// input passes through unchanged.
func FormatThaiDate(isoDate string) string {
	d, err := time.Parse("2006-01-02", isoDate)
	if err != nil {
		return isoDate
	}
	return fmt.Sprintf("%s %s", thaiDayNames[d.Weekday()], d.Format("02/01/2006"))
}

// BuildAppointmentNotification formats the staff alert for a new appointment
// request. Name and phone lines are omitted when unknown.
func BuildAppointmentNotification(userID, name, phone, preferredDate, preferredTime, reason, worksheetLink string) string {
	var b strings.Builder
	b.WriteString("📅 การนัดหมายใหม่!\n")
	b.WriteString("━━━━━━━━━━━━━━━━━━━━\n")
	fmt.Fprintf(&b, "👤 User ID: %s\n", userID)
	if name != "" {
		fmt.Fprintf(&b, "📝 ชื่อ: %s\n", name)
	}
	if phone != "" {
		fmt.Fprintf(&b, "📞 เบอร์: %s\n", phone)
	}
	fmt.Fprintf(&b, "📆 วัน: %s\n", FormatThaiDate(preferredDate))
	fmt.Fprintf(&b, "🕐 เวลา: %s น.\n", preferredTime)
	fmt.Fprintf(&b, "💬 เรื่อง: %s\n\n", reason)
	b.WriteString("⚡ โปรดตรวจสอบและยืนยันนัด\n")
	fmt.Fprintf(&b, "📊 ดูรายละเอียด: %s", worksheetLink)
	return b.String()
}
