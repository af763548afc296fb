package models

import (
	"time"
)

// SymptomReport is one row of the symptom log. Reports are append-only: each
// webhook call produces a new immutable row, never an update.
type SymptomReport struct {
	ID        uint      `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	UserID    string    `gorm:"column:user_id;not null;index" json:"user_id"`
	Pain      string    `gorm:"column:pain" json:"pain"`
	Wound     string    `gorm:"column:wound" json:"wound"`
	Fever     string    `gorm:"column:fever" json:"fever"`
	Mobility  string    `gorm:"column:mobility" json:"mobility"`
	RiskLevel string    `gorm:"column:risk_level;not null" json:"risk_level"`
	RiskScore int       `gorm:"column:risk_score;not null" json:"risk_score"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index" json:"created_at"`
}

func (SymptomReport) TableName() string {
	return "symptom_log"
}

// RiskProfile is one row of the personal risk-assessment log. Like symptom
// reports, profiles are appended per request and never mutated.
type RiskProfile struct {
	ID        uint      `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	UserID    string    `gorm:"column:user_id;not null;index" json:"user_id"`
	Age       string    `gorm:"column:age" json:"age"`
	Weight    string    `gorm:"column:weight" json:"weight"`
	Height    string    `gorm:"column:height" json:"height"`
	BMI       string    `gorm:"column:bmi" json:"bmi"`
	Diseases  string    `gorm:"column:diseases" json:"diseases"`
	RiskLevel string    `gorm:"column:risk_level;not null" json:"risk_level"`
	RiskScore int       `gorm:"column:risk_score;not null" json:"risk_score"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index" json:"created_at"`
}

func (RiskProfile) TableName() string {
	return "risk_profile"
}
