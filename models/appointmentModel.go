package models

import (
	"time"
)

// Appointment is a nurse-visit request captured from the webhook.
type Appointment struct {
	ID            uint      `gorm:"primaryKey;autoIncrement;column:id;index" json:"id"`
	UserID        string    `gorm:"column:user_id;not null;index" json:"user_id"`
	Name          string    `gorm:"column:name" json:"name"`
	Phone         string    `gorm:"column:phone" json:"phone"`
	PreferredDate string    `gorm:"column:preferred_date;not null;index" json:"preferred_date"`
	PreferredTime string    `gorm:"column:preferred_time;not null" json:"preferred_time"`
	Reason        string    `gorm:"column:reason;not null" json:"reason"`
	Status        string    `gorm:"column:status;check:status IN ('New', 'Confirmed', 'Done', 'Cancelled');not null" json:"status"`
	AssignedTo    string    `gorm:"column:assigned_to" json:"assigned_to"`
	Notes         string    `gorm:"column:notes" json:"notes"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Appointment) TableName() string {
	return "appointment"
}
