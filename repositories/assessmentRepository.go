package repositories

import (
	"KwanNurse/cache"
	"KwanNurse/models"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

const (
	AssessmentCacheExpiry = 1 * time.Hour
)

type AssessmentRepository interface {
	CreateSymptomReport(ctx context.Context, report *models.SymptomReport) error
	CreateRiskProfile(ctx context.Context, profile *models.RiskProfile) error
	LatestSymptomReport(ctx context.Context, userID string) (*models.SymptomReport, error)
	LatestRiskProfile(ctx context.Context, userID string) (*models.RiskProfile, error)
	ListSymptomReports(ctx context.Context, userID string, limit int) ([]models.SymptomReport, error)
}

type assessmentRepository struct {
	db    *gorm.DB
	cache *cache.Cache
}

func NewAssessmentRepository(db *gorm.DB, cache *cache.Cache) AssessmentRepository {
	return &assessmentRepository{db: db, cache: cache}
}

func (r *assessmentRepository) CreateSymptomReport(ctx context.Context, report *models.SymptomReport) error {
	err := r.db.Create(report).Error
	if err != nil {
		return fmt.Errorf("failed to create symptom report: %w", err)
	}
	if err := r.cache.Delete(ctx, r.getSymptomCacheKey(report.UserID)); err != nil {
		log.Printf("Failed to delete symptom cache: %v", err)
	}
	return nil
}

func (r *assessmentRepository) CreateRiskProfile(ctx context.Context, profile *models.RiskProfile) error {
	err := r.db.Create(profile).Error
	if err != nil {
		return fmt.Errorf("failed to create risk profile: %w", err)
	}
	if err := r.cache.Delete(ctx, r.getProfileCacheKey(profile.UserID)); err != nil {
		log.Printf("Failed to delete risk profile cache: %v", err)
	}
	return nil
}

func (r *assessmentRepository) LatestSymptomReport(ctx context.Context, userID string) (*models.SymptomReport, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cacheKey := r.getSymptomCacheKey(userID)
	cachedReport, err := r.cache.Get(ctx, cacheKey)
	if err == nil && cachedReport != "" {
		var report models.SymptomReport
		if err := json.Unmarshal([]byte(cachedReport), &report); err == nil {
			return &report, nil
		}
	} else if err != nil && err != redis.Nil {
		log.Printf("Failed to get symptom report from cache: %v", err)
	}

	var report models.SymptomReport
	err = r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&report).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest symptom report: %w", err)
	}

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal symptom report: %w", err)
	}
	if err := r.cache.Set(ctx, cacheKey, reportJSON, AssessmentCacheExpiry); err != nil {
		log.Printf("Failed to set symptom report in cache: %v", err)
	}

	return &report, nil
}

func (r *assessmentRepository) LatestRiskProfile(ctx context.Context, userID string) (*models.RiskProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cacheKey := r.getProfileCacheKey(userID)
	cachedProfile, err := r.cache.Get(ctx, cacheKey)
	if err == nil && cachedProfile != "" {
		var profile models.RiskProfile
		if err := json.Unmarshal([]byte(cachedProfile), &profile); err == nil {
			return &profile, nil
		}
	} else if err != nil && err != redis.Nil {
		log.Printf("Failed to get risk profile from cache: %v", err)
	}

	var profile models.RiskProfile
	err = r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest risk profile: %w", err)
	}

	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal risk profile: %w", err)
	}
	if err := r.cache.Set(ctx, cacheKey, profileJSON, AssessmentCacheExpiry); err != nil {
		log.Printf("Failed to set risk profile in cache: %v", err)
	}

	return &profile, nil
}

func (r *assessmentRepository) ListSymptomReports(ctx context.Context, userID string, limit int) ([]models.SymptomReport, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var reports []models.SymptomReport
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&reports).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list symptom reports: %w", err)
	}
	return reports, nil
}

func (r *assessmentRepository) getSymptomCacheKey(userID string) string {
	return fmt.Sprintf("symptom_cache:%s", userID)
}

func (r *assessmentRepository) getProfileCacheKey(userID string) string {
	return fmt.Sprintf("risk_profile_cache:%s", userID)
}
