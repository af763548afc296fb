package services

import (
	"KwanNurse/config"
	"KwanNurse/models"
	"KwanNurse/repositories"
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

type AppointmentService interface {
	CreateAppointment(ctx context.Context, userID, name, phone, preferredDate, preferredTime, reason string) (bool, string)
	ListByStatus(ctx context.Context, status string) ([]models.Appointment, error)
	ListByUser(ctx context.Context, userID string) ([]models.Appointment, error)
	UpdateStatus(ctx context.Context, id uint, status, assignedTo, notes string) error
}

type appointmentService struct {
	repo          repositories.AppointmentRepository
	notifier      Notifier
	worksheetLink string
	now           func() time.Time
}

func NewAppointmentService(repo repositories.AppointmentRepository, notifier Notifier, worksheetLink string) AppointmentService {
	return &appointmentService{
		repo:          repo,
		notifier:      notifier,
		worksheetLink: worksheetLink,
		now:           time.Now,
	}
}

// CreateAppointment records a nurse-visit request and alerts the nurse group.
// Dates in the past are rejected before anything is persisted.
func (s *appointmentService) CreateAppointment(ctx context.Context, userID, name, phone, preferredDate, preferredTime, reason string) (bool, string) {
	requested, err := time.Parse("2006-01-02", preferredDate)
	if err != nil {
		return false, "❌ รูปแบบวันที่ไม่ถูกต้องค่ะ กรุณาระบุวันที่ใหม่อีกครั้ง"
	}
	today := s.now().In(config.LocalTZ()).Format("2006-01-02")
	if requested.Format("2006-01-02") < today {
		return false, "❌ ไม่สามารถนัดหมายย้อนหลังได้ค่ะ กรุณาเลือกวันที่ใหม่อีกครั้ง"
	}

	appointment := &models.Appointment{
		UserID:        userID,
		Name:          name,
		Phone:         phone,
		PreferredDate: preferredDate,
		PreferredTime: preferredTime,
		Reason:        reason,
		Status:        "New",
	}
	if err := s.repo.Create(ctx, appointment); err != nil {
		log.Printf("Failed to create appointment for %s: %v", userID, err)
		return false, "❌ เกิดปัญหาในการบันทึกนัดหมาย กรุณาลองใหม่อีกครั้งหรือติดต่อพยาบาลโดยตรงค่ะ"
	}

	notifyMsg := BuildAppointmentNotification(userID, name, phone, preferredDate, preferredTime, reason, s.worksheetLink)
	if err := s.notifier.PushToNurseGroup(ctx, notifyMsg); err != nil {
		log.Printf("Failed to send appointment alert for %s: %v", userID, err)
	}

	confirmMsg := fmt.Sprintf(
		"✅ รับเรื่องการนัดหมายเรียบร้อยแล้วค่ะ\n\n"+
			"📅 วันที่: %s\n"+
			"🕐 เวลา: %s น.\n"+
			"💬 เรื่อง: %s\n\n"+
			"ทีมพยาบาลจะติดต่อกลับเพื่อยืนยันวันเวลาภายใน 24 ชั่วโมง\n"+
			"หากมีข้อสงสัยกรุณากดปุ่ม 'ปรึกษาพยาบาล' ค่ะ",
		FormatThaiDate(preferredDate), preferredTime, reason)

	return true, confirmMsg
}

func (s *appointmentService) ListByStatus(ctx context.Context, status string) ([]models.Appointment, error) {
	return s.repo.ListByStatus(ctx, status)
}

func (s *appointmentService) ListByUser(ctx context.Context, userID string) ([]models.Appointment, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *appointmentService) UpdateStatus(ctx context.Context, id uint, status, assignedTo, notes string) error {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return errors.New("appointment not found")
	}
	return s.repo.UpdateStatus(ctx, id, status, assignedTo, notes)
}
