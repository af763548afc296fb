package services

import (
	"KwanNurse/config"
	"KwanNurse/database"
	"KwanNurse/models"
	"KwanNurse/repositories"
	"KwanNurse/utils"
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Locker is the distributed-lock surface the consult flow needs. The redis
// implementation backs production; tests swap in an in-memory one.
type Locker interface {
	Acquire(ctx context.Context, key, value string, expiration time.Duration) (bool, error)
	Release(ctx context.Context, key, value string) error
}

type redisLocker struct{}

func NewRedisLocker() Locker {
	return redisLocker{}
}

func (redisLocker) Acquire(ctx context.Context, key, value string, expiration time.Duration) (bool, error) {
	return database.NewLock(ctx, key, value, expiration)
}

func (redisLocker) Release(ctx context.Context, key, value string) error {
	return database.ReleaseLock(ctx, key, value)
}

// DeferredMailer sends the after-hours follow-up email to the nurse mailbox.
type DeferredMailer func(mailbox, userID, issueType, description string) error

// ConsultResult is what the webhook layer relays back to the patient.
type ConsultResult struct {
	Success        bool
	Message        string
	IsEmergency    bool
	IsAfterHours   bool
	AwaitingChoice bool
	Session        *models.TeleconsultSession
	Queue          *models.QueueEntry
}

type TeleconsultService interface {
	StartTeleconsult(ctx context.Context, userID, issueType, description string) ConsultResult
	AfterHoursChoice(ctx context.Context, userID, choice, issueType, description string) ConsultResult
	CancelConsultation(ctx context.Context, userID string) ConsultResult
	UpdateSessionStatus(ctx context.Context, sessionID, status, assignedNurse, notes string) error
	QueueStatusMessage(ctx context.Context) string
	ListQueue(ctx context.Context) ([]models.QueueEntry, error)
	ListDeferred(ctx context.Context, status string) ([]models.DeferredRequest, error)
	MarkDeferredContacted(ctx context.Context, id uint) error
	IsOfficeHours() bool
	CategoryMenu() string
	ParseCategoryChoice(choice string) (string, bool)
}

type teleconsultService struct {
	repo         repositories.TeleconsultRepository
	notifier     Notifier
	locker       Locker
	mailer       DeferredMailer
	nurseMailbox string
	now          func() time.Time
}

func NewTeleconsultService(repo repositories.TeleconsultRepository, notifier Notifier, locker Locker, nurseMailbox string) TeleconsultService {
	return &teleconsultService{
		repo:         repo,
		notifier:     notifier,
		locker:       locker,
		mailer:       utils.SendDeferredRequestEmail,
		nurseMailbox: nurseMailbox,
		now:          time.Now,
	}
}

const errRetryMessage = "เกิดข้อผิดพลาด กรุณาลองใหม่ภายหลัง"

// IsOfficeHours reports whether the clinic is currently staffed.
func (s *teleconsultService) IsOfficeHours() bool {
	now := s.now().In(config.LocalTZ())
	hours := config.ClinicOfficeHours

	if !hours.Weekdays[now.Weekday()] {
		return false
	}

	current := now.Format("15:04")
	return hours.Start <= current && current <= hours.End
}

// CategoryMenu renders the numbered issue-category picker.
func (s *teleconsultService) CategoryMenu() string {
	var b strings.Builder
	b.WriteString("📋 เลือกเรื่องที่ต้องการปรึกษา:\n\n")
	for i, key := range config.CategoryOrder {
		cat := config.IssueCategories[key]
		fmt.Fprintf(&b, "%d. %s %s\n", i+1, cat.Icon, cat.NameTH)
	}
	fmt.Fprintf(&b, "\nพิมพ์หมายเลข (1-%d) เพื่อเลือก", len(config.CategoryOrder))
	return b.String()
}

// ParseCategoryChoice resolves a menu number, category key, Thai name, or
// icon into a category key.
func (s *teleconsultService) ParseCategoryChoice(choice string) (string, bool) {
	trimmed := strings.TrimSpace(choice)
	if trimmed == "" {
		return "", false
	}

	if n, err := strconv.Atoi(trimmed); err == nil {
		if n >= 1 && n <= len(config.CategoryOrder) {
			return config.CategoryOrder[n-1], true
		}
		return "", false
	}

	lower := strings.ToLower(trimmed)
	for _, key := range config.CategoryOrder {
		cat := config.IssueCategories[key]
		if strings.Contains(lower, key) ||
			strings.Contains(trimmed, cat.NameTH) ||
			strings.Contains(trimmed, cat.Icon) {
			return key, true
		}
	}
	return "", false
}

// StartTeleconsult admits a patient into the consult flow. Emergencies bypass
// the queue; after-hours requests get a disambiguation prompt; everything
// else joins the waiting line.
func (s *teleconsultService) StartTeleconsult(ctx context.Context, userID, issueType, description string) ConsultResult {
	log.Printf("Starting teleconsult for %s, type: %s", userID, issueType)

	return s.admitSingleSession(ctx, userID, func() ConsultResult {
		if issueType == "emergency" {
			return s.handleEmergency(ctx, userID, description)
		}
		if !s.IsOfficeHours() {
			return s.handleAfterHours()
		}
		return s.enqueue(ctx, userID, issueType, description)
	})
}

// admitSingleSession serializes admission per user: it holds the user lock
// across the active-session check and whatever admit creates, so two quick
// requests cannot both pass the check. Every path that creates a session goes
// through here.
func (s *teleconsultService) admitSingleSession(ctx context.Context, userID string, admit func() ConsultResult) ConsultResult {
	userLockKey := "teleconsult:user:" + userID
	userLockValue := uuid.New().String()
	locked, err := s.locker.Acquire(ctx, userLockKey, userLockValue, 30*time.Second)
	if err != nil || !locked {
		log.Printf("Failed to acquire user lock for %s: %v", userID, err)
		return ConsultResult{Message: errRetryMessage}
	}
	defer func() {
		if err := s.locker.Release(ctx, userLockKey, userLockValue); err != nil {
			log.Printf("Failed to release user lock: %v", err)
		}
	}()

	existing, err := s.repo.GetUserActiveSession(ctx, userID)
	if err != nil {
		log.Printf("Failed to look up active session for %s: %v", userID, err)
		return ConsultResult{Message: errRetryMessage}
	}
	if existing != nil {
		position := "?"
		if existing.QueuePosition != nil {
			position = strconv.Itoa(*existing.QueuePosition)
		}
		waitLine := ""
		if entry, err := s.repo.GetQueueEntryBySession(ctx, existing.SessionID); err == nil && entry != nil {
			waitLine = fmt.Sprintf("⏱️ เวลารอโดยประมาณ: %d นาที\n", entry.EstimatedWait)
		}
		return ConsultResult{
			Message: fmt.Sprintf(
				"⚠️ คุณมีคำขอปรึกษาที่กำลังดำเนินการอยู่แล้วค่ะ\n\n"+
					"📊 ตำแหน่งในคิว: %s\n"+
					"📋 ประเภท: %s\n"+
					"%s\n"+
					"กรุณารอพยาบาลติดต่อกลับนะคะ\n"+
					"หรือพิมพ์ 'ยกเลิก' เพื่อยกเลิกคำขอเดิม",
				position, existing.IssueType, waitLine),
		}
	}

	return admit()
}

// enqueue places a request on the waiting line. Caller holds the user lock.
func (s *teleconsultService) enqueue(ctx context.Context, userID, issueType, description string) ConsultResult {
	cat := config.CategoryByKey(issueType)

	queueLockKey := "teleconsult:queue"
	queueLockValue := uuid.New().String()
	locked, err := s.locker.Acquire(ctx, queueLockKey, queueLockValue, 30*time.Second)
	if err != nil || !locked {
		log.Printf("Failed to acquire queue lock: %v", err)
		return ConsultResult{Message: errRetryMessage}
	}
	defer func() {
		if err := s.locker.Release(ctx, queueLockKey, queueLockValue); err != nil {
			log.Printf("Failed to release queue lock: %v", err)
		}
	}()

	waiting, err := s.repo.CountWaiting(ctx)
	if err != nil {
		log.Printf("Failed to count waiting entries: %v", err)
		return ConsultResult{Message: errRetryMessage}
	}
	if waiting >= config.MaxQueueSize {
		return ConsultResult{
			Message: "😔 ขออภัยค่ะ\n\n" +
				"ขณะนี้คิวเต็มแล้ว\n" +
				"กรุณาลองใหม่อีกครั้งในอีก 15-30 นาที\n\n" +
				"หรือหากเป็นเรื่องฉุกเฉิน\n" +
				"โปรดโทร 1669 ทันทีค่ะ",
		}
	}

	position := waiting + 1
	session := &models.TeleconsultSession{
		SessionID:     s.newSessionID(),
		UserID:        userID,
		IssueType:     cat.Key,
		Priority:      cat.Priority,
		Status:        models.SessionQueued,
		Description:   description,
		QueuePosition: &position,
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		log.Printf("Failed to create session: %v", err)
		return ConsultResult{Message: "เกิดข้อผิดพลาด กรุณาลองใหม่อีกครั้ง"}
	}

	entry := &models.QueueEntry{
		QueueID:       s.newQueueID(),
		SessionID:     session.SessionID,
		UserID:        userID,
		IssueType:     cat.Key,
		Priority:      cat.Priority,
		Status:        models.QueueWaiting,
		EstimatedWait: position * cat.MaxWaitMinutes,
	}
	if err := s.repo.AddQueueEntry(ctx, entry); err != nil {
		log.Printf("Failed to add queue entry: %v", err)
		return ConsultResult{Message: "เกิดข้อผิดพลาดในการเข้าคิว กรุณาลองใหม่"}
	}

	s.alertNurseNewRequest(ctx, session, entry, waiting+1)

	waitText := strconv.Itoa(entry.EstimatedWait)
	if position == 1 {
		waitText = fmt.Sprintf("%d-%d", cat.MaxWaitMinutes, cat.MaxWaitMinutes+10)
	}
	message := fmt.Sprintf(
		"✅ รับเรื่องแล้วค่ะ\n\n"+
			"📋 ประเภท: %s %s\n"+
			"📊 ตำแหน่งในคิว: %d\n"+
			"⏱️ เวลารอโดยประมาณ: %s นาที\n\n"+
			"พยาบาลจะติดต่อกลับโดยเร็วนะคะ 💚\n\n"+
			"💡 พิมพ์ 'ยกเลิก' ถ้าต้องการยกเลิกคำขอ",
		cat.Icon, cat.NameTH, position, waitText)

	return ConsultResult{Success: true, Message: message, Session: session, Queue: entry}
}

// handleEmergency admits an emergency straight into in_progress, skipping the
// queue, and pages the nurse group. Caller holds the user lock.
func (s *teleconsultService) handleEmergency(ctx context.Context, userID, description string) ConsultResult {
	log.Printf("EMERGENCY request from %s: %s", userID, description)

	startedAt := s.now().In(config.LocalTZ())
	session := &models.TeleconsultSession{
		SessionID:   s.newSessionID(),
		UserID:      userID,
		IssueType:   "emergency",
		Priority:    config.IssueCategories["emergency"].Priority,
		Status:      models.SessionInProgress,
		Description: description,
		StartedAt:   &startedAt,
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		log.Printf("Failed to create emergency session: %v", err)
		return ConsultResult{Message: "เกิดข้อผิดพลาด กรุณาโทร 1669 ทันที"}
	}

	desc := description
	if desc == "" {
		desc = "(ไม่ระบุ)"
	}
	alert := fmt.Sprintf(
		"🚨🚨 เรื่องฉุกเฉิน 🚨🚨\n\n"+
			"👤 ผู้ป่วย: %s\n"+
			"💬 อาการ: %s\n"+
			"🕐 เวลา: %s น.\n\n"+
			"⚠️ กรุณาติดต่อกลับภายใน 5 นาที\n"+
			"Session ID: %s",
		userID, desc, s.now().In(config.LocalTZ()).Format("15:04"), session.SessionID)
	if err := s.notifier.PushToNurseGroup(ctx, alert); err != nil {
		log.Printf("Failed to send emergency alert: %v", err)
	}

	return ConsultResult{
		Success: true,
		Message: "🚨 รับเรื่องฉุกเฉินแล้วค่ะ\n\n" +
			"📞 กำลังติดต่อพยาบาลด่วน...\n\n" +
			"⚠️ ถ้าอาการรุนแรงมาก\n" +
			"โปรดโทร 1669 ทันทีค่ะ\n\n" +
			"พยาบาลจะติดต่อกลับภายใน 5 นาที",
		Session:     session,
		IsEmergency: true,
	}
}

// handleAfterHours asks the patient whether their request can wait for the
// next business day.
func (s *teleconsultService) handleAfterHours() ConsultResult {
	now := s.now().In(config.LocalTZ())
	hours := config.ClinicOfficeHours

	message := fmt.Sprintf(
		"สวัสดีค่ะ 😊\n\n"+
			"⏰ ขณะนี้นอกเวลาทำการ (เวลา %s น.)\n"+
			"🕐 เวลาทำการ: %s-%s น. (จันทร์-ศุกร์)\n\n"+
			"📌 คำถามของคุณสำคัญมากไหมคะ?\n\n"+
			"1. 🚨 ฉุกเฉิน (ติดต่อเจ้าหน้าที่เวร)\n"+
			"2. 📝 ไม่เร่งด่วน (บันทึกไว้ติดต่อพรุ่งนี้)\n\n"+
			"พิมพ์หมายเลข 1 หรือ 2",
		now.Format("15:04"), hours.Start, hours.End)

	return ConsultResult{Success: true, Message: message, IsAfterHours: true, AwaitingChoice: true}
}

// AfterHoursChoice resolves the after-hours prompt: 1 escalates to the
// emergency path, 2 records a deferred request and emails the nurse mailbox.
func (s *teleconsultService) AfterHoursChoice(ctx context.Context, userID, choice, issueType, description string) ConsultResult {
	switch strings.TrimSpace(choice) {
	case "1":
		// Escalation creates a session, so it passes through the same
		// per-user admission guard as a direct emergency request.
		return s.admitSingleSession(ctx, userID, func() ConsultResult {
			return s.handleEmergency(ctx, userID, description)
		})
	case "2":
		req := &models.DeferredRequest{
			UserID:      userID,
			IssueType:   config.CategoryByKey(issueType).Key,
			Description: description,
			Status:      "new",
		}
		if err := s.repo.CreateDeferred(ctx, req); err != nil {
			log.Printf("Failed to record deferred request: %v", err)
			return ConsultResult{Message: errRetryMessage}
		}
		if s.nurseMailbox != "" {
			if err := s.mailer(s.nurseMailbox, userID, req.IssueType, description); err != nil {
				log.Printf("Failed to email deferred request: %v", err)
			}
		}
		return ConsultResult{
			Success: true,
			Message: "📝 บันทึกคำขอของคุณแล้วค่ะ\n\n" +
				"พยาบาลจะติดต่อกลับในวันทำการถัดไป\n" +
				fmt.Sprintf("ช่วงเวลา %s-%s น.\n\n", config.ClinicOfficeHours.Start, config.ClinicOfficeHours.End) +
				"หากอาการแย่ลงระหว่างนี้\n" +
				"โปรดโทร 1669 ทันทีค่ะ",
		}
	default:
		return ConsultResult{
			Message:        "กรุณาพิมพ์หมายเลข 1 หรือ 2 ค่ะ",
			AwaitingChoice: true,
		}
	}
}

// CancelConsultation cancels the user's active session and retires its queue
// entry. Cancelling with nothing active is not an error worth surfacing.
func (s *teleconsultService) CancelConsultation(ctx context.Context, userID string) ConsultResult {
	session, err := s.repo.GetUserActiveSession(ctx, userID)
	if err != nil {
		log.Printf("Failed to look up active session for %s: %v", userID, err)
		return ConsultResult{Message: "เกิดข้อผิดพลาดในการยกเลิก กรุณาลองใหม่"}
	}
	if session == nil {
		return ConsultResult{Message: "ไม่พบคำขอปรึกษาที่กำลังดำเนินการค่ะ"}
	}

	if err := s.repo.UpdateSessionStatus(ctx, session.SessionID, models.SessionCancelled, "", "Cancelled by user"); err != nil {
		log.Printf("Failed to cancel session %s: %v", session.SessionID, err)
		return ConsultResult{Message: "เกิดข้อผิดพลาดในการยกเลิก กรุณาลองใหม่"}
	}
	if err := s.repo.RetireQueueEntry(ctx, session.SessionID, models.QueueRemoved); err != nil {
		log.Printf("Failed to retire queue entry for %s: %v", session.SessionID, err)
	}

	log.Printf("Cancelled session %s for user %s", session.SessionID, userID)
	return ConsultResult{
		Success: true,
		Message: "✅ ยกเลิกคำขอแล้วค่ะ\n\n" +
			"หากต้องการปรึกษาอีกครั้ง\n" +
			"สามารถเลือก 'ปรึกษาพยาบาล' ใหม่ได้เลยค่ะ",
	}
}

// UpdateSessionStatus is the staff transition path. Completion marks the
// queue entry served; cancellation marks it removed.
func (s *teleconsultService) UpdateSessionStatus(ctx context.Context, sessionID, status, assignedNurse, notes string) error {
	if err := utils.ValidateSessionUpdate(status, assignedNurse); err != nil {
		return err
	}

	session, err := s.repo.GetSessionByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return errors.New("session not found")
	}
	if !validTransition(session.Status, status) {
		return fmt.Errorf("cannot transition session from %s to %s", session.Status, status)
	}

	if err := s.repo.UpdateSessionStatus(ctx, sessionID, status, assignedNurse, notes); err != nil {
		return err
	}

	// Starting or completing a consult takes the entry off the waiting
	// line as served; cancelling marks it removed.
	switch status {
	case models.SessionInProgress, models.SessionCompleted:
		if err := s.repo.RetireQueueEntry(ctx, sessionID, models.QueueServed); err != nil {
			log.Printf("Failed to mark queue entry served for %s: %v", sessionID, err)
		}
	case models.SessionCancelled:
		if err := s.repo.RetireQueueEntry(ctx, sessionID, models.QueueRemoved); err != nil {
			log.Printf("Failed to retire queue entry for %s: %v", sessionID, err)
		}
	}
	return nil
}

// validTransition enforces the session state machine: queued may start,
// complete only follows in_progress, and cancellation is allowed until the
// session reaches a terminal state.
func validTransition(from, to string) bool {
	switch from {
	case models.SessionQueued:
		return to == models.SessionInProgress || to == models.SessionCancelled
	case models.SessionInProgress:
		return to == models.SessionCompleted || to == models.SessionCancelled
	}
	return false
}

// QueueStatusMessage renders the current queue load for the patient.
func (s *teleconsultService) QueueStatusMessage(ctx context.Context) string {
	byCategory, err := s.repo.WaitingByCategory(ctx)
	if err != nil {
		log.Printf("Failed to get queue status: %v", err)
		return "ไม่สามารถดูสถานะคิวได้ในขณะนี้"
	}

	total := 0
	byPriority := make(map[int]int)
	for key, count := range byCategory {
		total += count
		byPriority[config.CategoryByKey(key).Priority] += count
	}

	if total == 0 {
		return "📊 ขณะนี้ไม่มีคิวรอค่ะ"
	}

	return fmt.Sprintf(
		"📊 สถานะคิวปัจจุบัน\n\n"+
			"รวมทั้งหมด: %d คน\n\n"+
			"🚨 ฉุกเฉิน: %d คน\n"+
			"⚠️ กลาง: %d คน\n"+
			"📝 ต่ำ: %d คน",
		total, byPriority[1], byPriority[2], byPriority[3])
}

func (s *teleconsultService) ListQueue(ctx context.Context) ([]models.QueueEntry, error) {
	return s.repo.ListWaiting(ctx)
}

func (s *teleconsultService) ListDeferred(ctx context.Context, status string) ([]models.DeferredRequest, error) {
	return s.repo.ListDeferred(ctx, status)
}

// MarkDeferredContacted closes out an after-hours request once a nurse has
// called the patient back.
func (s *teleconsultService) MarkDeferredContacted(ctx context.Context, id uint) error {
	return s.repo.UpdateDeferredStatus(ctx, id, "contacted")
}

// alertNurseNewRequest pages the nurse group about a freshly queued request.
func (s *teleconsultService) alertNurseNewRequest(ctx context.Context, session *models.TeleconsultSession, entry *models.QueueEntry, total int) {
	cat := config.CategoryByKey(session.IssueType)
	priorityText := map[int]string{1: "สูง", 2: "กลาง", 3: "ต่ำ"}[session.Priority]
	if priorityText == "" {
		priorityText = "กลาง"
	}
	desc := session.Description
	if desc == "" {
		desc = "(ไม่มี)"
	}

	message := fmt.Sprintf(
		"🔔 คำขอปรึกษาใหม่\n\n"+
			"👤 ผู้ป่วย: %s\n"+
			"📋 ประเภท: %s %s\n"+
			"⚠️ ระดับ: %s\n"+
			"💬 รายละเอียด: %s\n\n"+
			"📊 คิวปัจจุบัน: %d คน\n"+
			"⏱️ เวลารอ: %d นาที\n\n"+
			"Session ID: %s",
		session.UserID, cat.Icon, cat.NameTH, priorityText, desc,
		total, entry.EstimatedWait, session.SessionID)

	if err := s.notifier.PushToNurseGroup(ctx, message); err != nil {
		log.Printf("Failed to send nurse alert for session %s: %v", session.SessionID, err)
	}
}

func (s *teleconsultService) newSessionID() string {
	return "TC" + s.now().In(config.LocalTZ()).Format("20060102150405") + uuid.New().String()[:8]
}

func (s *teleconsultService) newQueueID() string {
	return "Q" + s.now().In(config.LocalTZ()).Format("20060102150405") + uuid.New().String()[:6]
}
