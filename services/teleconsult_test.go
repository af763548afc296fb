package services

import (
	"KwanNurse/config"
	"KwanNurse/models"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

type fakeTeleconsultRepo struct {
	sessions      map[string]*models.TeleconsultSession
	queue         map[string]*models.QueueEntry
	deferred      []*models.DeferredRequest
	statusUpdates int
}

func newFakeTeleconsultRepo() *fakeTeleconsultRepo {
	return &fakeTeleconsultRepo{
		sessions: make(map[string]*models.TeleconsultSession),
		queue:    make(map[string]*models.QueueEntry),
	}
}

func (r *fakeTeleconsultRepo) CreateSession(ctx context.Context, session *models.TeleconsultSession) error {
	cp := *session
	r.sessions[session.SessionID] = &cp
	return nil
}

func (r *fakeTeleconsultRepo) GetSessionByID(ctx context.Context, sessionID string) (*models.TeleconsultSession, error) {
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *fakeTeleconsultRepo) GetUserActiveSession(ctx context.Context, userID string) (*models.TeleconsultSession, error) {
	for _, s := range r.sessions {
		if s.UserID == userID && s.IsActive() {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeTeleconsultRepo) UpdateSessionStatus(ctx context.Context, sessionID, status, assignedNurse, notes string) error {
	r.statusUpdates++
	s, ok := r.sessions[sessionID]
	if !ok {
		return errors.New("session not found")
	}
	s.Status = status
	now := time.Now()
	switch status {
	case models.SessionInProgress:
		s.StartedAt = &now
		s.QueuePosition = nil
	case models.SessionCompleted, models.SessionCancelled:
		s.CompletedAt = &now
		s.QueuePosition = nil
	}
	if assignedNurse != "" {
		s.AssignedNurse = assignedNurse
	}
	if notes != "" {
		s.Notes = notes
	}
	return nil
}

func (r *fakeTeleconsultRepo) AddQueueEntry(ctx context.Context, entry *models.QueueEntry) error {
	cp := *entry
	r.queue[entry.SessionID] = &cp
	return nil
}

func (r *fakeTeleconsultRepo) GetQueueEntryBySession(ctx context.Context, sessionID string) (*models.QueueEntry, error) {
	e, ok := r.queue[sessionID]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (r *fakeTeleconsultRepo) RetireQueueEntry(ctx context.Context, sessionID, status string) error {
	if e, ok := r.queue[sessionID]; ok && e.Status == models.QueueWaiting {
		e.Status = status
	}
	return nil
}

func (r *fakeTeleconsultRepo) CountWaiting(ctx context.Context) (int, error) {
	count := 0
	for _, e := range r.queue {
		if e.Status == models.QueueWaiting {
			count++
		}
	}
	return count, nil
}

func (r *fakeTeleconsultRepo) WaitingByCategory(ctx context.Context) (map[string]int, error) {
	byCategory := make(map[string]int)
	for _, e := range r.queue {
		if e.Status == models.QueueWaiting {
			byCategory[e.IssueType]++
		}
	}
	return byCategory, nil
}

func (r *fakeTeleconsultRepo) ListWaiting(ctx context.Context) ([]models.QueueEntry, error) {
	var entries []models.QueueEntry
	for _, e := range r.queue {
		if e.Status == models.QueueWaiting {
			entries = append(entries, *e)
		}
	}
	return entries, nil
}

func (r *fakeTeleconsultRepo) CreateDeferred(ctx context.Context, req *models.DeferredRequest) error {
	cp := *req
	r.deferred = append(r.deferred, &cp)
	return nil
}

func (r *fakeTeleconsultRepo) ListDeferred(ctx context.Context, status string) ([]models.DeferredRequest, error) {
	var out []models.DeferredRequest
	for _, d := range r.deferred {
		if status == "" || d.Status == status {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (r *fakeTeleconsultRepo) UpdateDeferredStatus(ctx context.Context, id uint, status string) error {
	for _, d := range r.deferred {
		if d.ID == id {
			d.Status = status
			return nil
		}
	}
	return errors.New("deferred request not found")
}

type fakeNotifier struct {
	pushes []string
}

func (n *fakeNotifier) PushToNurseGroup(ctx context.Context, message string) error {
	n.pushes = append(n.pushes, message)
	return nil
}

func (n *fakeNotifier) PushTo(ctx context.Context, targetID, message string) error {
	n.pushes = append(n.pushes, message)
	return nil
}

type fakeLocker struct{}

func (fakeLocker) Acquire(ctx context.Context, key, value string, expiration time.Duration) (bool, error) {
	return true, nil
}

func (fakeLocker) Release(ctx context.Context, key, value string) error {
	return nil
}

// officeTime is a Wednesday 10:00 in the clinic zone; nightTime the same day
// at 20:00; weekendTime a Saturday morning.
var (
	officeTime  = time.Date(2026, 1, 7, 10, 0, 0, 0, config.LocalTZ())
	nightTime   = time.Date(2026, 1, 7, 20, 0, 0, 0, config.LocalTZ())
	weekendTime = time.Date(2026, 1, 10, 10, 0, 0, 0, config.LocalTZ())
)

func newTestTeleconsultService(repo *fakeTeleconsultRepo, notifier *fakeNotifier, at time.Time) (*teleconsultService, *[]string) {
	var mails []string
	svc := &teleconsultService{
		repo:     repo,
		notifier: notifier,
		locker:   fakeLocker{},
		mailer: func(mailbox, userID, issueType, description string) error {
			mails = append(mails, fmt.Sprintf("%s|%s|%s", userID, issueType, description))
			return nil
		},
		nurseMailbox: "nurses@clinic.test",
		now:          func() time.Time { return at },
	}
	return svc, &mails
}

func TestStartTeleconsultQueued(t *testing.T) {
	repo := newFakeTeleconsultRepo()
	notifier := &fakeNotifier{}
	svc, _ := newTestTeleconsultService(repo, notifier, officeTime)

	result := svc.StartTeleconsult(context.Background(), "U1", "wound", "แผลซึม")
	if !result.Success {
		t.Fatalf("expected success, got message %q", result.Message)
	}
	if result.Session == nil || result.Session.Status != models.SessionQueued {
		t.Fatal("expected a queued session")
	}
	if result.Queue == nil || result.Queue.Status != models.QueueWaiting {
		t.Fatal("expected a waiting queue entry")
	}
	// First in line: position 1, ETA = 1 x wound max wait.
	if *result.Session.QueuePosition != 1 {
		t.Errorf("position = %d, want 1", *result.Session.QueuePosition)
	}
	if result.Queue.EstimatedWait != config.IssueCategories["wound"].MaxWaitMinutes {
		t.Errorf("estimated wait = %d, want %d", result.Queue.EstimatedWait, config.IssueCategories["wound"].MaxWaitMinutes)
	}
	if !strings.Contains(result.Message, "ตำแหน่งในคิว: 1") {
		t.Errorf("message missing queue position: %q", result.Message)
	}
	if len(notifier.pushes) != 1 {
		t.Errorf("expected one nurse alert, got %d", len(notifier.pushes))
	}
	if !strings.HasPrefix(result.Session.SessionID, "TC") {
		t.Errorf("session ID %q should start with TC", result.Session.SessionID)
	}
	if !strings.HasPrefix(result.Queue.QueueID, "Q") {
		t.Errorf("queue ID %q should start with Q", result.Queue.QueueID)
	}
}

func TestStartTeleconsultSingleActiveSession(t *testing.T) {
	repo := newFakeTeleconsultRepo()
	svc, _ := newTestTeleconsultService(repo, &fakeNotifier{}, officeTime)

	first := svc.StartTeleconsult(context.Background(), "U1", "wound", "")
	if !first.Success {
		t.Fatalf("first request should succeed: %q", first.Message)
	}

	second := svc.StartTeleconsult(context.Background(), "U1", "medication", "")
	if second.Success {
		t.Fatal("second request should be rejected while the first is active")
	}
	if !strings.Contains(second.Message, "กำลังดำเนินการอยู่แล้ว") {
		t.Errorf("unexpected rejection message: %q", second.Message)
	}
	if !strings.Contains(second.Message, "เวลารอโดยประมาณ: 20 นาที") {
		t.Errorf("rejection should echo the standing wait estimate: %q", second.Message)
	}
	if len(repo.sessions) != 1 {
		t.Errorf("expected one session, got %d", len(repo.sessions))
	}
}

func TestMarkDeferredContacted(t *testing.T) {
	repo := newFakeTeleconsultRepo()
	svc, _ := newTestTeleconsultService(repo, &fakeNotifier{}, nightTime)

	svc.AfterHoursChoice(context.Background(), "U1", "2", "other", "ยาหมด")
	repo.deferred[0].ID = 1

	if err := svc.MarkDeferredContacted(context.Background(), 1); err != nil {
		t.Fatalf("mark contacted failed: %v", err)
	}
	if repo.deferred[0].Status != "contacted" {
		t.Errorf("status = %q, want contacted", repo.deferred[0].Status)
	}

	if err := svc.MarkDeferredContacted(context.Background(), 99); err == nil {
		t.Error("unknown deferred ID should be rejected")
	}
}

func TestStartTeleconsultEmergencyBypass(t *testing.T) {
	repo := newFakeTeleconsultRepo()
	notifier := &fakeNotifier{}
	// Outside office hours on purpose: emergencies are never deferred.
	svc, _ := newTestTeleconsultService(repo, notifier, nightTime)

	result := svc.StartTeleconsult(context.Background(), "U1", "emergency", "หายใจไม่ออก")
	if !result.Success || !result.IsEmergency {
		t.Fatalf("expected emergency success, got %+v", result)
	}
	stored := repo.sessions[result.Session.SessionID]
	if stored.Status != models.SessionInProgress {
		t.Errorf("emergency session status = %q, want in_progress", stored.Status)
	}
	if stored.StartedAt == nil {
		t.Error("emergency session should be created with started_at stamped")
	}
	if repo.statusUpdates != 0 {
		t.Errorf("emergency admission took %d status updates, want the session written in_progress directly", repo.statusUpdates)
	}
	if stored.QueuePosition != nil {
		t.Error("emergency session must not hold a queue position")
	}
	if len(repo.queue) != 0 {
		t.Error("emergency must not create a queue entry")
	}
	if len(notifier.pushes) != 1 || !strings.Contains(notifier.pushes[0], "ฉุกเฉิน") {
		t.Errorf("expected urgent nurse alert, got %v", notifier.pushes)
	}
}

func TestStartTeleconsultQueueFull(t *testing.T) {
	repo := newFakeTeleconsultRepo()
	for i := 0; i < config.MaxQueueSize; i++ {
		repo.queue[fmt.Sprintf("S%d", i)] = &models.QueueEntry{
			QueueID:   fmt.Sprintf("Q%d", i),
			SessionID: fmt.Sprintf("S%d", i),
			UserID:    fmt.Sprintf("other%d", i),
			IssueType: "other",
			Status:    models.QueueWaiting,
		}
	}
	svc, _ := newTestTeleconsultService(repo, &fakeNotifier{}, officeTime)

	result := svc.StartTeleconsult(context.Background(), "U1", "wound", "")
	if result.Success {
		t.Fatal("expected rejection when the queue is full")
	}
	if !strings.Contains(result.Message, "คิวเต็ม") {
		t.Errorf("unexpected message: %q", result.Message)
	}
	if len(repo.sessions) != 0 {
		t.Error("a full queue must not leave a session behind")
	}
}

func TestStartTeleconsultAfterHours(t *testing.T) {
	repo := newFakeTeleconsultRepo()
	svc, _ := newTestTeleconsultService(repo, &fakeNotifier{}, nightTime)

	result := svc.StartTeleconsult(context.Background(), "U1", "medication", "")
	if !result.IsAfterHours || !result.AwaitingChoice {
		t.Fatalf("expected after-hours prompt, got %+v", result)
	}
	if len(repo.sessions) != 0 || len(repo.queue) != 0 {
		t.Error("after-hours prompt must not create session or queue rows")
	}
	if !strings.Contains(result.Message, "นอกเวลาทำการ") {
		t.Errorf("unexpected message: %q", result.Message)
	}
}

func TestAfterHoursChoiceDeferred(t *testing.T) {
	repo := newFakeTeleconsultRepo()
	svc, mails := newTestTeleconsultService(repo, &fakeNotifier{}, nightTime)

	result := svc.AfterHoursChoice(context.Background(), "U1", "2", "medication", "ยาหมด")
	if !result.Success {
		t.Fatalf("expected success, got %q", result.Message)
	}
	if len(repo.deferred) != 1 {
		t.Fatalf("expected one deferred request, got %d", len(repo.deferred))
	}
	if repo.deferred[0].Status != "new" || repo.deferred[0].IssueType != "medication" {
		t.Errorf("unexpected deferred row: %+v", repo.deferred[0])
	}
	if len(*mails) != 1 {
		t.Errorf("expected one staff email, got %d", len(*mails))
	}
}

func TestAfterHoursChoiceEmergency(t *testing.T) {
	repo := newFakeTeleconsultRepo()
	svc, _ := newTestTeleconsultService(repo, &fakeNotifier{}, nightTime)

	result := svc.AfterHoursChoice(context.Background(), "U1", "1", "other", "เจ็บมาก")
	if !result.Success || !result.IsEmergency {
		t.Fatalf("choice 1 should escalate to emergency, got %+v", result)
	}
	if len(repo.deferred) != 0 {
		t.Error("emergency escalation must not record a deferred request")
	}
}

func TestAfterHoursChoiceEmergencyWithActiveSession(t *testing.T) {
	repo := newFakeTeleconsultRepo()
	svc, _ := newTestTeleconsultService(repo, &fakeNotifier{}, nightTime)
	ctx := context.Background()

	position := 1
	repo.sessions["TCexisting"] = &models.TeleconsultSession{
		SessionID:     "TCexisting",
		UserID:        "U1",
		IssueType:     "wound",
		Priority:      config.IssueCategories["wound"].Priority,
		Status:        models.SessionQueued,
		QueuePosition: &position,
	}

	result := svc.AfterHoursChoice(ctx, "U1", "1", "wound", "เจ็บมาก")
	if result.Success {
		t.Fatal("escalation must be rejected while another session is active")
	}
	if !strings.Contains(result.Message, "กำลังดำเนินการอยู่แล้ว") {
		t.Errorf("unexpected rejection message: %q", result.Message)
	}
	if len(repo.sessions) != 1 {
		t.Errorf("expected the one existing session, got %d", len(repo.sessions))
	}
}

func TestAfterHoursChoiceInvalid(t *testing.T) {
	repo := newFakeTeleconsultRepo()
	svc, _ := newTestTeleconsultService(repo, &fakeNotifier{}, nightTime)

	result := svc.AfterHoursChoice(context.Background(), "U1", "ok", "other", "")
	if result.Success || !result.AwaitingChoice {
		t.Fatalf("invalid choice should re-prompt, got %+v", result)
	}
}

func TestCancelConsultation(t *testing.T) {
	repo := newFakeTeleconsultRepo()
	svc, _ := newTestTeleconsultService(repo, &fakeNotifier{}, officeTime)

	started := svc.StartTeleconsult(context.Background(), "U1", "wound", "")
	if !started.Success {
		t.Fatalf("setup failed: %q", started.Message)
	}

	cancelled := svc.CancelConsultation(context.Background(), "U1")
	if !cancelled.Success {
		t.Fatalf("expected cancel to succeed: %q", cancelled.Message)
	}
	stored := repo.sessions[started.Session.SessionID]
	if stored.Status != models.SessionCancelled {
		t.Errorf("session status = %q, want cancelled", stored.Status)
	}
	if repo.queue[started.Session.SessionID].Status != models.QueueRemoved {
		t.Error("queue entry should be marked removed")
	}

	// Cancelling again finds nothing active.
	again := svc.CancelConsultation(context.Background(), "U1")
	if again.Success {
		t.Error("second cancel should find no active session")
	}
	if !strings.Contains(again.Message, "ไม่พบคำขอ") {
		t.Errorf("unexpected message: %q", again.Message)
	}
}

func TestUpdateSessionStatusTransitions(t *testing.T) {
	repo := newFakeTeleconsultRepo()
	svc, _ := newTestTeleconsultService(repo, &fakeNotifier{}, officeTime)
	ctx := context.Background()

	started := svc.StartTeleconsult(ctx, "U1", "wound", "")
	sessionID := started.Session.SessionID

	// queued -> completed skips in_progress and is rejected.
	if err := svc.UpdateSessionStatus(ctx, sessionID, models.SessionCompleted, "", ""); err == nil {
		t.Error("queued -> completed should be rejected")
	}

	if err := svc.UpdateSessionStatus(ctx, sessionID, models.SessionInProgress, "พยาบาลเอ", ""); err != nil {
		t.Fatalf("queued -> in_progress failed: %v", err)
	}
	if repo.sessions[sessionID].StartedAt == nil {
		t.Error("starting a session should stamp started_at")
	}
	if repo.queue[sessionID].Status != models.QueueServed {
		t.Error("starting a session should mark the queue entry served")
	}

	if err := svc.UpdateSessionStatus(ctx, sessionID, models.SessionCompleted, "", "done"); err != nil {
		t.Fatalf("in_progress -> completed failed: %v", err)
	}
	if repo.sessions[sessionID].CompletedAt == nil {
		t.Error("completing a session should stamp completed_at")
	}

	// Terminal states accept no further transitions.
	if err := svc.UpdateSessionStatus(ctx, sessionID, models.SessionCancelled, "", ""); err == nil {
		t.Error("completed -> cancelled should be rejected")
	}

	if err := svc.UpdateSessionStatus(ctx, "missing", models.SessionInProgress, "", ""); err == nil {
		t.Error("unknown session should be rejected")
	}

	if err := svc.UpdateSessionStatus(ctx, sessionID, "archived", "", ""); err == nil {
		t.Error("unknown status value should be rejected")
	}
}

func TestEstimatedWaitScalesWithPosition(t *testing.T) {
	repo := newFakeTeleconsultRepo()
	svc, _ := newTestTeleconsultService(repo, &fakeNotifier{}, officeTime)
	ctx := context.Background()

	svc.StartTeleconsult(ctx, "U1", "medication", "")
	svc.StartTeleconsult(ctx, "U2", "medication", "")
	third := svc.StartTeleconsult(ctx, "U3", "medication", "")

	if !third.Success {
		t.Fatalf("third request should queue: %q", third.Message)
	}
	if *third.Session.QueuePosition != 3 {
		t.Errorf("position = %d, want 3", *third.Session.QueuePosition)
	}
	want := 3 * config.IssueCategories["medication"].MaxWaitMinutes
	if third.Queue.EstimatedWait != want {
		t.Errorf("estimated wait = %d, want %d", third.Queue.EstimatedWait, want)
	}
}

func TestQueueStatusMessage(t *testing.T) {
	repo := newFakeTeleconsultRepo()
	svc, _ := newTestTeleconsultService(repo, &fakeNotifier{}, officeTime)
	ctx := context.Background()

	if msg := svc.QueueStatusMessage(ctx); !strings.Contains(msg, "ไม่มีคิว") {
		t.Errorf("empty queue message = %q", msg)
	}

	svc.StartTeleconsult(ctx, "U1", "wound", "")
	svc.StartTeleconsult(ctx, "U2", "other", "")

	msg := svc.QueueStatusMessage(ctx)
	if !strings.Contains(msg, "รวมทั้งหมด: 2 คน") {
		t.Errorf("queue status missing total: %q", msg)
	}
	if !strings.Contains(msg, "⚠️ กลาง: 1 คน") || !strings.Contains(msg, "📝 ต่ำ: 1 คน") {
		t.Errorf("queue status missing priority breakdown: %q", msg)
	}
}

func TestIsOfficeHours(t *testing.T) {
	repo := newFakeTeleconsultRepo()

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"weekday mid-morning", officeTime, true},
		{"weekday evening", nightTime, false},
		{"weekend", weekendTime, false},
		{"opening minute", time.Date(2026, 1, 7, 8, 0, 0, 0, config.LocalTZ()), true},
		{"closing minute", time.Date(2026, 1, 7, 17, 0, 0, 0, config.LocalTZ()), true},
		{"just before opening", time.Date(2026, 1, 7, 7, 59, 0, 0, config.LocalTZ()), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestTeleconsultService(repo, &fakeNotifier{}, tt.at)
			if got := svc.IsOfficeHours(); got != tt.want {
				t.Errorf("IsOfficeHours() at %v = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}

func TestParseCategoryChoice(t *testing.T) {
	repo := newFakeTeleconsultRepo()
	svc, _ := newTestTeleconsultService(repo, &fakeNotifier{}, officeTime)

	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"1", "emergency", true},
		{"5", "other", true},
		{"6", "", false},
		{"0", "", false},
		{"medication", "medication", true},
		{"ปัญหาแผล", "wound", true},
		{"💊", "medication", true},
		{"อยากนัดหมาย", "appointment", true},
		{"", "", false},
		{"hello", "", false},
	}

	for _, tt := range tests {
		got, ok := svc.ParseCategoryChoice(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseCategoryChoice(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestCategoryMenu(t *testing.T) {
	repo := newFakeTeleconsultRepo()
	svc, _ := newTestTeleconsultService(repo, &fakeNotifier{}, officeTime)

	menu := svc.CategoryMenu()
	for i, key := range config.CategoryOrder {
		cat := config.IssueCategories[key]
		if !strings.Contains(menu, fmt.Sprintf("%d. %s %s", i+1, cat.Icon, cat.NameTH)) {
			t.Errorf("menu missing entry for %s: %q", key, menu)
		}
	}
}
