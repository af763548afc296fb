package models

import (
	"time"
)

// Teleconsult session status values. A session is "active" while queued or
// in progress; completed and cancelled are terminal.
const (
	SessionQueued     = "queued"
	SessionInProgress = "in_progress"
	SessionCompleted  = "completed"
	SessionCancelled  = "cancelled"
)

// Queue entry status values.
const (
	QueueWaiting = "waiting"
	QueueRemoved = "removed"
	QueueServed  = "served"
)

// TeleconsultSession is a patient's consultation request. Sessions are only
// ever status-transitioned, never deleted; history stays queryable.
type TeleconsultSession struct {
	SessionID     string     `gorm:"primaryKey;column:session_id" json:"session_id"`
	UserID        string     `gorm:"column:user_id;not null;index" json:"user_id"`
	IssueType     string     `gorm:"column:issue_type;not null" json:"issue_type"`
	Priority      int        `gorm:"column:priority;not null" json:"priority"`
	Status        string     `gorm:"column:status;check:status IN ('queued', 'in_progress', 'completed', 'cancelled');not null;index" json:"status"`
	Description   string     `gorm:"column:description" json:"description"`
	QueuePosition *int       `gorm:"column:queue_position" json:"queue_position"`
	AssignedNurse string     `gorm:"column:assigned_nurse" json:"assigned_nurse"`
	StartedAt     *time.Time `gorm:"column:started_at" json:"started_at"`
	CompletedAt   *time.Time `gorm:"column:completed_at" json:"completed_at"`
	Notes         string     `gorm:"column:notes" json:"notes"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime;index" json:"created_at"`
}

func (TeleconsultSession) TableName() string {
	return "teleconsult_session"
}

// IsActive reports whether the session still occupies the per-user slot.
func (s *TeleconsultSession) IsActive() bool {
	return s.Status == SessionQueued || s.Status == SessionInProgress
}

// QueueEntry is the waiting-line row owned by a session. EstimatedWait is a
// static snapshot taken at insertion; it is not revised as the queue drains.
type QueueEntry struct {
	QueueID       string    `gorm:"primaryKey;column:queue_id" json:"queue_id"`
	SessionID     string    `gorm:"column:session_id;not null;index" json:"session_id"`
	UserID        string    `gorm:"column:user_id;not null;index" json:"user_id"`
	IssueType     string    `gorm:"column:issue_type;not null" json:"issue_type"`
	Priority      int       `gorm:"column:priority;not null" json:"priority"`
	Status        string    `gorm:"column:status;check:status IN ('waiting', 'removed', 'served');not null;index" json:"status"`
	EstimatedWait int       `gorm:"column:estimated_wait;not null" json:"estimated_wait"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (QueueEntry) TableName() string {
	return "teleconsult_queue"
}

// DeferredRequest records a non-urgent request made outside office hours.
// The nursing staff follows these up on the next business day.
type DeferredRequest struct {
	ID          uint      `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	UserID      string    `gorm:"column:user_id;not null;index" json:"user_id"`
	IssueType   string    `gorm:"column:issue_type;not null" json:"issue_type"`
	Description string    `gorm:"column:description" json:"description"`
	Status      string    `gorm:"column:status;check:status IN ('new', 'contacted');not null" json:"status"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime;index" json:"created_at"`
}

func (DeferredRequest) TableName() string {
	return "deferred_request"
}
