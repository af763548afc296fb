package services

import (
	"KwanNurse/models"
	"context"
	"strings"
	"testing"
)

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func TestScoreSymptomsLowRisk(t *testing.T) {
	a := ScoreSymptoms(2, "แห้ง ปกติ", "ไม่มี", "เดินได้ปกติ")
	if a.Score != 0 {
		t.Fatalf("score = %d, want 0", a.Score)
	}
	if a.Level != "✅ ปกติดี" {
		t.Errorf("level = %q, want ปกติดี", a.Level)
	}
}

func TestScoreSymptomsCritical(t *testing.T) {
	// pain 9 (+3), purulent wound (+3), fever (+2), bedridden (+1)
	a := ScoreSymptoms(9, "มีหนอง", "มีไข้", "ติดเตียง")
	if a.Score != 9 {
		t.Fatalf("score = %d, want 9", a.Score)
	}
	if !strings.Contains(a.Level, "อันตราย") {
		t.Errorf("level = %q, want critical tier", a.Level)
	}
	if a.Score < SymptomNotifyThreshold {
		t.Error("critical score must cross the notification threshold")
	}
}

func TestScoreSymptomsTiers(t *testing.T) {
	tests := []struct {
		name     string
		pain     int
		wound    string
		fever    string
		mobility string
		score    int
		level    string
	}{
		{"moderate from swollen wound", 0, "บวมแดง", "no", "เดินได้", 2, "🟡 เสี่ยงปานกลาง"},
		{"low from moderate pain", 6, "แห้ง", "no", "ปกติ", 1, "🟢 เสี่ยงต่ำ (เฝ้าระวัง)"},
		{"critical at five", 8, "อักเสบ", "no", "ปกติ", 5, "🚨 อันตราย - ต้องพบแพทย์ทันที!"},
		{"high tier at three", 6, "swelling and red", "no", "เดินได้", 3, "⚠️ เสี่ยงสูง"},
		{"fever in english", 0, "dry", "has fever", "can walk", 2, "🟡 เสี่ยงปานกลาง"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := ScoreSymptoms(tt.pain, tt.wound, tt.fever, tt.mobility)
			if a.Score != tt.score {
				t.Errorf("score = %d, want %d", a.Score, tt.score)
			}
			if a.Level != tt.level {
				t.Errorf("level = %q, want %q", a.Level, tt.level)
			}
		})
	}
}

func TestScoreSymptomsDeterministic(t *testing.T) {
	first := ScoreSymptoms(7, "บวมแดง", "มีไข้", "ติดเตียง")
	for i := 0; i < 5; i++ {
		again := ScoreSymptoms(7, "บวมแดง", "มีไข้", "ติดเตียง")
		if again.Score != first.Score || again.Level != first.Level {
			t.Fatalf("scoring not deterministic: (%d, %q) vs (%d, %q)",
				first.Score, first.Level, again.Score, again.Level)
		}
	}
}

func TestScorePersonalVeryHigh(t *testing.T) {
	// age 72 (+2), BMI 90/1.6^2 ≈ 35.2 (+2), two risk diseases (+3) = 7
	a := ScorePersonal(intPtr(72), floatPtr(90), floatPtr(160), []string{"เบาหวาน", "ความดัน"})
	if a.Score != 7 {
		t.Fatalf("score = %d, want 7", a.Score)
	}
	if !strings.Contains(a.Level, "Very High") {
		t.Errorf("level = %q, want very high tier", a.Level)
	}
	if a.BMI < 35.0 || a.BMI > 35.3 {
		t.Errorf("BMI = %.2f, want ~35.16", a.BMI)
	}
	if a.Score < PersonalNotifyThreshold {
		t.Error("very-high score must cross the notification threshold")
	}
}

func TestScorePersonalLowRisk(t *testing.T) {
	// age 45, BMI 22, no diseases
	a := ScorePersonal(intPtr(45), floatPtr(60), floatPtr(165), nil)
	if a.Score != 0 {
		t.Fatalf("score = %d, want 0", a.Score)
	}
	if !strings.Contains(a.Level, "Low") {
		t.Errorf("level = %q, want low tier", a.Level)
	}
}

func TestScorePersonalFactors(t *testing.T) {
	tests := []struct {
		name     string
		age      *int
		weight   *float64
		height   *float64
		diseases []string
		score    int
	}{
		{"elderly only", intPtr(65), nil, nil, nil, 1},
		{"very elderly", intPtr(80), nil, nil, nil, 2},
		{"underweight", nil, floatPtr(45), floatPtr(165), nil, 1},
		{"obese", nil, floatPtr(85), floatPtr(165), nil, 1},
		{"one risk disease", nil, nil, nil, []string{"ไต"}, 2},
		{"non-risk disease scores nothing", nil, nil, nil, []string{"โรคเกาต์"}, 0},
		{"zero height skips bmi", nil, floatPtr(70), floatPtr(0), nil, 0},
		{"missing everything", nil, nil, nil, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := ScorePersonal(tt.age, tt.weight, tt.height, tt.diseases)
			if a.Score != tt.score {
				t.Errorf("score = %d, want %d", a.Score, tt.score)
			}
		})
	}
}

type fakeAssessmentRepo struct {
	symptomReports []models.SymptomReport
	riskProfiles   []models.RiskProfile
}

func (r *fakeAssessmentRepo) CreateSymptomReport(ctx context.Context, report *models.SymptomReport) error {
	r.symptomReports = append(r.symptomReports, *report)
	return nil
}

func (r *fakeAssessmentRepo) CreateRiskProfile(ctx context.Context, profile *models.RiskProfile) error {
	r.riskProfiles = append(r.riskProfiles, *profile)
	return nil
}

func (r *fakeAssessmentRepo) LatestSymptomReport(ctx context.Context, userID string) (*models.SymptomReport, error) {
	for i := len(r.symptomReports) - 1; i >= 0; i-- {
		if r.symptomReports[i].UserID == userID {
			cp := r.symptomReports[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeAssessmentRepo) LatestRiskProfile(ctx context.Context, userID string) (*models.RiskProfile, error) {
	for i := len(r.riskProfiles) - 1; i >= 0; i-- {
		if r.riskProfiles[i].UserID == userID {
			cp := r.riskProfiles[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeAssessmentRepo) ListSymptomReports(ctx context.Context, userID string, limit int) ([]models.SymptomReport, error) {
	var out []models.SymptomReport
	for _, s := range r.symptomReports {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func TestAssessSymptomsPersistsAndNotifies(t *testing.T) {
	repo := &fakeAssessmentRepo{}
	notifier := &fakeNotifier{}
	svc := &riskService{repo: repo, notifier: notifier, worksheetLink: "link"}

	reply := svc.AssessSymptoms(context.Background(), "U1", 9, "มีหนอง", "มีไข้", "ติดเตียง")
	if !strings.Contains(reply, "อันตราย") {
		t.Errorf("reply missing risk level: %q", reply)
	}
	if len(repo.symptomReports) != 1 {
		t.Fatalf("expected one persisted report, got %d", len(repo.symptomReports))
	}
	if repo.symptomReports[0].RiskScore != 9 || repo.symptomReports[0].Pain != "9" {
		t.Errorf("unexpected report: %+v", repo.symptomReports[0])
	}
	if len(notifier.pushes) != 1 {
		t.Errorf("high score should alert the nurse group, got %d pushes", len(notifier.pushes))
	}
}

func TestAssessSymptomsLowScoreSkipsAlert(t *testing.T) {
	repo := &fakeAssessmentRepo{}
	notifier := &fakeNotifier{}
	svc := &riskService{repo: repo, notifier: notifier, worksheetLink: "link"}

	svc.AssessSymptoms(context.Background(), "U1", 2, "แห้ง ปกติ", "ไม่มี", "เดินได้ปกติ")
	// Reports below the alert threshold are still persisted.
	if len(repo.symptomReports) != 1 {
		t.Fatalf("expected one persisted report, got %d", len(repo.symptomReports))
	}
	if len(notifier.pushes) != 0 {
		t.Errorf("low score must not alert, got %d pushes", len(notifier.pushes))
	}
}

func TestAssessPersonalPersistsAndNotifies(t *testing.T) {
	repo := &fakeAssessmentRepo{}
	notifier := &fakeNotifier{}
	svc := &riskService{repo: repo, notifier: notifier, worksheetLink: "link"}

	reply := svc.AssessPersonal(context.Background(), "U1",
		intPtr(72), floatPtr(90), floatPtr(160), []string{"เบาหวาน", "ความดัน"})
	if !strings.Contains(reply, "Very High") {
		t.Errorf("reply missing risk level: %q", reply)
	}
	if len(repo.riskProfiles) != 1 {
		t.Fatalf("expected one persisted profile, got %d", len(repo.riskProfiles))
	}
	if repo.riskProfiles[0].RiskScore != 7 || repo.riskProfiles[0].Age != "72" {
		t.Errorf("unexpected profile: %+v", repo.riskProfiles[0])
	}
	if len(notifier.pushes) != 1 {
		t.Errorf("very-high score should alert the nurse group, got %d pushes", len(notifier.pushes))
	}
}

func TestAssessPersonalModerateSkipsAlert(t *testing.T) {
	repo := &fakeAssessmentRepo{}
	notifier := &fakeNotifier{}
	svc := &riskService{repo: repo, notifier: notifier, worksheetLink: "link"}

	// age 65 (+1), one risk disease (+2) = 3: moderate, below the threshold
	svc.AssessPersonal(context.Background(), "U1", intPtr(65), floatPtr(60), floatPtr(165), []string{"ไต"})
	if len(repo.riskProfiles) != 1 {
		t.Fatalf("expected one persisted profile, got %d", len(repo.riskProfiles))
	}
	if len(notifier.pushes) != 0 {
		t.Errorf("moderate score must not alert, got %d pushes", len(notifier.pushes))
	}
}

func TestScorePersonalMonotonicTiers(t *testing.T) {
	// Adding a risk factor never lowers the tier.
	base := ScorePersonal(intPtr(65), floatPtr(60), floatPtr(165), nil)
	worse := ScorePersonal(intPtr(65), floatPtr(60), floatPtr(165), []string{"เบาหวาน"})
	if worse.Score <= base.Score {
		t.Errorf("adding a disease should raise the score: %d vs %d", base.Score, worse.Score)
	}
}
