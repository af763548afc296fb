package repositories

import (
	"KwanNurse/cache"
	"KwanNurse/config"
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
	// Queue status snapshots go stale fast; keep the cache short.
	QueueStatusCacheExpiry = 30 * time.Second
	queueStatusCacheKey    = "teleconsult_queue_status"
)

type TeleconsultRepository interface {
	CreateSession(ctx context.Context, session *models.TeleconsultSession) error
	GetSessionByID(ctx context.Context, sessionID string) (*models.TeleconsultSession, error)
	GetUserActiveSession(ctx context.Context, userID string) (*models.TeleconsultSession, error)
	UpdateSessionStatus(ctx context.Context, sessionID, status, assignedNurse, notes string) error
	AddQueueEntry(ctx context.Context, entry *models.QueueEntry) error
	GetQueueEntryBySession(ctx context.Context, sessionID string) (*models.QueueEntry, error)
	RetireQueueEntry(ctx context.Context, sessionID, status string) error
	CountWaiting(ctx context.Context) (int, error)
	WaitingByCategory(ctx context.Context) (map[string]int, error)
	ListWaiting(ctx context.Context) ([]models.QueueEntry, error)
	CreateDeferred(ctx context.Context, req *models.DeferredRequest) error
	ListDeferred(ctx context.Context, status string) ([]models.DeferredRequest, error)
	UpdateDeferredStatus(ctx context.Context, id uint, status string) error
}

type teleconsultRepository struct {
	db    *gorm.DB
	cache *cache.Cache
}

func NewTeleconsultRepository(db *gorm.DB, cache *cache.Cache) TeleconsultRepository {
	return &teleconsultRepository{db: db, cache: cache}
}

func (r *teleconsultRepository) CreateSession(ctx context.Context, session *models.TeleconsultSession) error {
	err := r.db.Create(session).Error
	if err != nil {
		return fmt.Errorf("failed to create teleconsult session: %w", err)
	}
	return r.invalidateQueueStatus(ctx)
}

func (r *teleconsultRepository) GetSessionByID(ctx context.Context, sessionID string) (*models.TeleconsultSession, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var session models.TeleconsultSession
	err := r.db.First(&session, "session_id = ?", sessionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

func (r *teleconsultRepository) GetUserActiveSession(ctx context.Context, userID string) (*models.TeleconsultSession, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var session models.TeleconsultSession
	err := r.db.Where("user_id = ? AND status IN ?", userID,
		[]string{models.SessionQueued, models.SessionInProgress}).
		Order("created_at DESC").
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active session: %w", err)
	}
	return &session, nil
}

// UpdateSessionStatus transitions a session and stamps started_at or
// completed_at on the transitions that define them.
func (r *teleconsultRepository) UpdateSessionStatus(ctx context.Context, sessionID, status, assignedNurse, notes string) error {
	updates := map[string]interface{}{"status": status}
	now := time.Now()
	switch status {
	case models.SessionInProgress:
		updates["started_at"] = &now
		updates["queue_position"] = nil
	case models.SessionCompleted, models.SessionCancelled:
		updates["completed_at"] = &now
		updates["queue_position"] = nil
	}
	if assignedNurse != "" {
		updates["assigned_nurse"] = assignedNurse
	}
	if notes != "" {
		updates["notes"] = notes
	}

	result := r.db.Model(&models.TeleconsultSession{}).
		Where("session_id = ?", sessionID).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update session status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.New("session not found")
	}
	return r.invalidateQueueStatus(ctx)
}

func (r *teleconsultRepository) AddQueueEntry(ctx context.Context, entry *models.QueueEntry) error {
	err := r.db.Create(entry).Error
	if err != nil {
		return fmt.Errorf("failed to add queue entry: %w", err)
	}
	return r.invalidateQueueStatus(ctx)
}

func (r *teleconsultRepository) GetQueueEntryBySession(ctx context.Context, sessionID string) (*models.QueueEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var entry models.QueueEntry
	err := r.db.First(&entry, "session_id = ?", sessionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get queue entry: %w", err)
	}
	return &entry, nil
}

// RetireQueueEntry marks a waiting entry served or removed. Entries are never
// deleted; the line's history stays queryable.
func (r *teleconsultRepository) RetireQueueEntry(ctx context.Context, sessionID, status string) error {
	result := r.db.Model(&models.QueueEntry{}).
		Where("session_id = ? AND status = ?", sessionID, models.QueueWaiting).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("failed to retire queue entry: %w", result.Error)
	}
	return r.invalidateQueueStatus(ctx)
}

func (r *teleconsultRepository) CountWaiting(ctx context.Context) (int, error) {
	var count int64
	err := r.db.Model(&models.QueueEntry{}).
		Where("status = ?", models.QueueWaiting).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count waiting entries: %w", err)
	}
	return int(count), nil
}

func (r *teleconsultRepository) WaitingByCategory(ctx context.Context) (map[string]int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cachedStatus, err := r.cache.Get(ctx, queueStatusCacheKey)
	if err == nil && cachedStatus != "" {
		var byCategory map[string]int
		if err := json.Unmarshal([]byte(cachedStatus), &byCategory); err == nil {
			return byCategory, nil
		}
	} else if err != nil && err != redis.Nil {
		log.Printf("Failed to get queue status from cache: %v", err)
	}

	type row struct {
		IssueType string
		Count     int
	}
	var rows []row
	err = r.db.Model(&models.QueueEntry{}).
		Select("issue_type, COUNT(*) as count").
		Where("status = ?", models.QueueWaiting).
		Group("issue_type").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to group waiting entries: %w", err)
	}

	byCategory := make(map[string]int, len(config.IssueCategories))
	for _, r := range rows {
		byCategory[r.IssueType] = r.Count
	}

	statusJSON, err := json.Marshal(byCategory)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal queue status: %w", err)
	}
	if err := r.cache.Set(ctx, queueStatusCacheKey, statusJSON, QueueStatusCacheExpiry); err != nil {
		log.Printf("Failed to set queue status in cache: %v", err)
	}

	return byCategory, nil
}

func (r *teleconsultRepository) ListWaiting(ctx context.Context) ([]models.QueueEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var entries []models.QueueEntry
	err := r.db.Where("status = ?", models.QueueWaiting).
		Order("priority ASC, created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list waiting entries: %w", err)
	}
	return entries, nil
}

func (r *teleconsultRepository) CreateDeferred(ctx context.Context, req *models.DeferredRequest) error {
	err := r.db.Create(req).Error
	if err != nil {
		return fmt.Errorf("failed to create deferred request: %w", err)
	}
	return nil
}

func (r *teleconsultRepository) ListDeferred(ctx context.Context, status string) ([]models.DeferredRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := r.db.Order("created_at ASC")
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var requests []models.DeferredRequest
	if err := query.Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("failed to list deferred requests: %w", err)
	}
	return requests, nil
}

func (r *teleconsultRepository) UpdateDeferredStatus(ctx context.Context, id uint, status string) error {
	result := r.db.Model(&models.DeferredRequest{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("failed to update deferred request: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.New("deferred request not found")
	}
	return nil
}

func (r *teleconsultRepository) invalidateQueueStatus(ctx context.Context) error {
	if err := r.cache.Delete(ctx, queueStatusCacheKey); err != nil {
		log.Printf("Failed to invalidate queue status cache: %v", err)
	}
	return nil
}
