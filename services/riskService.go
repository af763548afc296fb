package services

import (
	"KwanNurse/models"
	"KwanNurse/repositories"
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
)

// Notification thresholds. Scores at or above these trigger a staff push;
// below them the reply to the patient is the only output.
const (
	SymptomNotifyThreshold  = 3
	PersonalNotifyThreshold = 4
)

// SymptomAssessment is the outcome of scoring one symptom report.
type SymptomAssessment struct {
	Score   int
	Level   string
	Emoji   string
	Color   string
	Action  string
	Details []string
}

// PersonalAssessment is the outcome of scoring one personal risk profile.
type PersonalAssessment struct {
	Score    int
	Level    string
	Emoji    string
	Desc     string
	BMI      float64
	Diseases []string
	Factors  []string
	Advice   []string
}

type RiskService interface {
	AssessSymptoms(ctx context.Context, userID string, pain int, wound, fever, mobility string) string
	AssessPersonal(ctx context.Context, userID string, age *int, weight, height *float64, diseases []string) string
	PatientHistory(ctx context.Context, userID string) (PatientOverview, error)
}

// PatientOverview is the staff view of one patient's assessment history.
type PatientOverview struct {
	Profile       *models.RiskProfile    `json:"profile"`
	LatestReport  *models.SymptomReport  `json:"latest_report"`
	RecentReports []models.SymptomReport `json:"recent_reports"`
}

type riskService struct {
	repo          repositories.AssessmentRepository
	notifier      Notifier
	worksheetLink string
}

func NewRiskService(repo repositories.AssessmentRepository, notifier Notifier, worksheetLink string) RiskService {
	return &riskService{repo: repo, notifier: notifier, worksheetLink: worksheetLink}
}

// containsAny reports whether s contains any of the substrings.
func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// ScoreSymptoms computes the symptom risk score from the four reported
// dimensions. Pure function; persistence and notification live in
// AssessSymptoms.
func ScoreSymptoms(pain int, wound, fever, mobility string) SymptomAssessment {
	score := 0
	var details []string

	if pain >= 8 {
		score += 3
		details = append(details, fmt.Sprintf("🔴 ความปวดระดับสูง (%d/10)", pain))
	} else if pain >= 6 {
		score++
		details = append(details, fmt.Sprintf("🟡 ความปวดปานกลาง (%d/10)", pain))
	} else if pain > 0 {
		details = append(details, fmt.Sprintf("🟢 ความปวดเล็กน้อย (%d/10)", pain))
	}

	woundText := strings.ToLower(wound)
	if containsAny(woundText, "หนอง", "มีกลิ่น", "แฉะ", "pus", "discharge") {
		score += 3
		details = append(details, "🔴 แผลมีหนองหรือมีกลิ่น - ต้องพบแพทย์ทันที!")
	} else if containsAny(woundText, "บวมแดง", "อักเสบ", "swelling", "red", "inflamed") {
		score += 2
		details = append(details, "🟡 แผลบวมแดงอักเสบ")
	} else if containsAny(woundText, "ปกติ", "ดี", "แห้ง", "normal", "dry", "good") {
		details = append(details, "🟢 สภาพแผลปกติ")
	}

	// Negation wins over the fever keywords: "ไม่มีไข้" must not score as
	// fever even though it embeds "มี".
	feverText := strings.ToLower(fever)
	if containsAny(feverText, "ไม่มี", "ไม่", "no") {
		details = append(details, "🟢 ไม่มีไข้")
	} else if containsAny(feverText, "มี", "ตัวร้อน", "fever", "hot", "ไข้") {
		score += 2
		details = append(details, "🔴 มีไข้ - อาจมีการติดเชื้อ")
	} else {
		details = append(details, "🟢 ไม่มีไข้")
	}

	mobilityText := strings.ToLower(mobility)
	if containsAny(mobilityText, "ไม่ได้", "ติดเตียง", "ไม่เดิน", "cannot", "bedridden") {
		score++
		details = append(details, "🟡 เคลื่อนไหวลำบาก")
	} else if containsAny(mobilityText, "เดินได้", "ปกติ", "normal", "can walk") {
		details = append(details, "🟢 เคลื่อนไหวได้ปกติ")
	}

	a := SymptomAssessment{Score: score, Details: details}
	switch {
	case score >= 5:
		a.Level = "🚨 อันตราย - ต้องพบแพทย์ทันที!"
		a.Emoji = "🚨"
		a.Action = "กรุณาติดต่อพยาบาลหรือมาโรงพยาบาลทันที!"
		a.Color = "🔴"
	case score >= 3:
		a.Level = "⚠️ เสี่ยงสูง"
		a.Emoji = "⚠️"
		a.Action = "กรุณากดปุ่ม 'ปรึกษาพยาบาล' หรือโทรติดต่อทันที"
		a.Color = "🟠"
	case score >= 2:
		a.Level = "🟡 เสี่ยงปานกลาง"
		a.Emoji = "🟡"
		a.Action = "เฝ้าระวังอาการใกล้ชิด 24 ชม. ถ้าอาการแย่กรุณาติดต่อ"
		a.Color = "🟡"
	case score == 1:
		a.Level = "🟢 เสี่ยงต่ำ (เฝ้าระวัง)"
		a.Emoji = "🟢"
		a.Action = "โดยรวมปกติดี แต่ต้องสังเกตอาการต่อไป"
		a.Color = "🟢"
	default:
		a.Level = "✅ ปกติดี"
		a.Emoji = "✅"
		a.Action = "แผลหายดี ยอดเยี่ยมมาก! กรุณารายงานอาการต่อเนื่อง"
		a.Color = "🟢"
	}
	return a
}

// AssessSymptoms scores a report, appends it to the symptom log, alerts the
// nurse group on high risk, and returns the patient-facing reply. Persistence
// and push failures are logged, not surfaced; the patient always gets their
// assessment.
func (s *riskService) AssessSymptoms(ctx context.Context, userID string, pain int, wound, fever, mobility string) string {
	a := ScoreSymptoms(pain, wound, fever, mobility)

	var b strings.Builder
	fmt.Fprintf(&b, "%s ผลประเมินอาการ\n", a.Emoji)
	b.WriteString(strings.Repeat("=", 30) + "\n\n")
	b.WriteString("📋 รายละเอียด:\n")
	for _, detail := range a.Details {
		fmt.Fprintf(&b, "  %s\n", detail)
	}
	fmt.Fprintf(&b, "\n%s ระดับความเสี่ยง: %s\n", a.Color, a.Level)
	fmt.Fprintf(&b, "(คะแนนรวม: %d)\n\n", a.Score)
	fmt.Fprintf(&b, "💡 คำแนะนำ:\n%s", a.Action)

	report := &models.SymptomReport{
		UserID:    userID,
		Pain:      strconv.Itoa(pain),
		Wound:     wound,
		Fever:     fever,
		Mobility:  mobility,
		RiskLevel: a.Level,
		RiskScore: a.Score,
	}
	if err := s.repo.CreateSymptomReport(ctx, report); err != nil {
		log.Printf("Failed to save symptom report for %s: %v", userID, err)
	}

	if a.Score >= SymptomNotifyThreshold {
		notifyMsg := BuildSymptomNotification(
			userID, strconv.Itoa(pain), wound, fever, mobility, a.Level, a.Score, s.worksheetLink)
		if err := s.notifier.PushToNurseGroup(ctx, notifyMsg); err != nil {
			log.Printf("Failed to send symptom alert for %s: %v", userID, err)
		}
	}

	return b.String()
}

// ScorePersonal computes the personal risk score from demographics and
// chronic diseases. The diseases argument must already be normalized.
func ScorePersonal(age *int, weight, height *float64, diseases []string) PersonalAssessment {
	score := 0
	var factors []string

	bmi := 0.0
	if weight != nil && height != nil && *height > 0 {
		heightM := *height / 100.0
		bmi = *weight / (heightM * heightM)
	}

	if age != nil {
		switch {
		case *age >= 70:
			score += 2
			factors = append(factors, fmt.Sprintf("🔴 อายุ %d ปี (สูงอายุมาก)", *age))
		case *age >= 60:
			score++
			factors = append(factors, fmt.Sprintf("🟡 อายุ %d ปี (สูงอายุ)", *age))
		default:
			factors = append(factors, fmt.Sprintf("🟢 อายุ %d ปี (ปกติ)", *age))
		}
	}

	if bmi > 0 {
		switch {
		case bmi >= 35:
			score += 2
			factors = append(factors, fmt.Sprintf("🔴 BMI %.1f (อ้วนมาก)", bmi))
		case bmi >= 30:
			score++
			factors = append(factors, fmt.Sprintf("🟡 BMI %.1f (อ้วน)", bmi))
		case bmi < 18.5:
			score++
			factors = append(factors, fmt.Sprintf("🟡 BMI %.1f (ผอมเกินไป)", bmi))
		case bmi < 23:
			factors = append(factors, fmt.Sprintf("🟢 BMI %.1f (ปกติดี)", bmi))
		case bmi < 25:
			factors = append(factors, fmt.Sprintf("🟢 BMI %.1f (ค่อนข้างมาตรฐาน)", bmi))
		default:
			factors = append(factors, fmt.Sprintf("🟡 BMI %.1f (น้ำหนักเกิน)", bmi))
		}
	}

	highRisk := RiskDiseaseSubset(diseases)
	switch {
	case len(highRisk) >= 2:
		score += 3
		factors = append(factors, fmt.Sprintf("🔴 มีโรคประจำตัวหลายโรค: %s", strings.Join(highRisk, ", ")))
	case len(highRisk) == 1:
		score += 2
		factors = append(factors, fmt.Sprintf("🟡 มีโรคประจำตัว: %s", highRisk[0]))
	case len(diseases) > 0:
		factors = append(factors, fmt.Sprintf("🟡 โรคอื่นๆ: %s", strings.Join(diseases, ", ")))
	default:
		factors = append(factors, "🟢 ไม่มีโรคประจำตัว")
	}

	a := PersonalAssessment{Score: score, BMI: bmi, Diseases: diseases, Factors: factors}
	switch {
	case score >= 5:
		a.Level = "🔴 สูงมาก (Very High Risk)"
		a.Emoji = "🚨"
		a.Desc = "มีความเสี่ยงสูงมากต่อภาวะแทรกซ้อน"
		a.Advice = []string{
			"• พยาบาลจะติดตามใกล้ชิดเป็นพิเศษ",
			"• รายงานอาการทุกวัน",
			"• ปฏิบัติตามคำแนะนำอย่างเคร่งครัด",
			"• หากมีอาการผิดปกติให้รีบติดต่อทันที",
		}
	case score >= 4:
		a.Level = "🟠 สูง (High Risk)"
		a.Emoji = "⚠️"
		a.Desc = "มีความเสี่ยงสูงต่อภาวะแทรกซ้อน"
		a.Advice = []string{
			"• พยาบาลจะติดตามใกล้ชิดเป็นพิเศษ",
			"• คุมโรคประจำตัวให้ดี",
			"• รายงานอาการสม่ำเสมอ",
			"• ระวังสัญญาณเตือน",
		}
	case score >= 2:
		a.Level = "🟡 ปานกลาง (Moderate Risk)"
		a.Emoji = "🟡"
		a.Desc = "มีความเสี่ยงปานกลาง"
		a.Advice = []string{
			"• คุมโรคประจำตัวและรายงานอาการสม่ำเสมอ",
			"• ดูแลสุขภาพให้ดี",
			"• ออกกำลังกายตามที่แนะนำ",
			"• รับประทานยาตรงเวลา",
		}
	default:
		a.Level = "🟢 ต่ำ (Low Risk)"
		a.Emoji = "✅"
		a.Desc = "ความเสี่ยงเกณฑ์ปกติ"
		a.Advice = []string{
			"• ปฏิบัติตัวตามคำแนะนำทั่วไป",
			"• ดูแลสุขภาพให้ดี",
			"• รายงานอาการถ้ามีอาการผิดปกติ",
		}
	}
	return a
}

// AssessPersonal scores a profile, appends it to the risk profile log, alerts
// the nurse group on high risk, and returns the patient-facing reply.
func (s *riskService) AssessPersonal(ctx context.Context, userID string, age *int, weight, height *float64, diseases []string) string {
	a := ScorePersonal(age, weight, height, diseases)

	diseasesStr := "ไม่มีโรคประจำตัว"
	if len(diseases) > 0 {
		diseasesStr = strings.Join(diseases, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s ผลประเมินความเสี่ยงส่วนบุคคล\n", a.Emoji)
	b.WriteString(strings.Repeat("=", 35) + "\n\n")
	b.WriteString("👤 ข้อมูลพื้นฐาน:\n")
	fmt.Fprintf(&b, "  • อายุ: %s ปี\n", intOrDash(age))
	fmt.Fprintf(&b, "  • น้ำหนัก: %s กก.\n", floatOrDash(weight))
	fmt.Fprintf(&b, "  • ส่วนสูง: %s ซม.\n", floatOrDash(height))
	fmt.Fprintf(&b, "  • BMI: %.1f\n", a.BMI)
	fmt.Fprintf(&b, "  • โรคประจำตัว: %s\n\n", diseasesStr)
	b.WriteString("📊 ปัจจัยความเสี่ยง:\n")
	for _, factor := range a.Factors {
		fmt.Fprintf(&b, "  %s\n", factor)
	}
	fmt.Fprintf(&b, "\n⚠️ ระดับความเสี่ยง: %s\n", a.Level)
	fmt.Fprintf(&b, "(คะแนนรวม: %d)\n\n", a.Score)
	fmt.Fprintf(&b, "📝 %s\n\n", a.Desc)
	b.WriteString("💡 คำแนะนำ:\n")
	for _, adv := range a.Advice {
		fmt.Fprintf(&b, "  %s\n", adv)
	}

	profile := &models.RiskProfile{
		UserID:    userID,
		Age:       intOrDash(age),
		Weight:    floatOrDash(weight),
		Height:    floatOrDash(height),
		BMI:       fmt.Sprintf("%.1f", a.BMI),
		Diseases:  diseasesStr,
		RiskLevel: a.Level,
		RiskScore: a.Score,
	}
	if err := s.repo.CreateRiskProfile(ctx, profile); err != nil {
		log.Printf("Failed to save risk profile for %s: %v", userID, err)
	}

	if a.Score >= PersonalNotifyThreshold {
		notifyMsg := BuildRiskNotification(
			userID, intOrDash(age), a.BMI, diseasesStr, a.Level, a.Score, s.worksheetLink)
		if err := s.notifier.PushToNurseGroup(ctx, notifyMsg); err != nil {
			log.Printf("Failed to send risk alert for %s: %v", userID, err)
		}
	}

	return b.String()
}

// PatientHistory assembles the latest risk profile and recent symptom reports
// for the staff dashboard.
func (s *riskService) PatientHistory(ctx context.Context, userID string) (PatientOverview, error) {
	profile, err := s.repo.LatestRiskProfile(ctx, userID)
	if err != nil {
		return PatientOverview{}, err
	}
	latest, err := s.repo.LatestSymptomReport(ctx, userID)
	if err != nil {
		return PatientOverview{}, err
	}
	reports, err := s.repo.ListSymptomReports(ctx, userID, 10)
	if err != nil {
		return PatientOverview{}, err
	}
	return PatientOverview{Profile: profile, LatestReport: latest, RecentReports: reports}, nil
}

func intOrDash(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

func floatOrDash(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
