package persistence

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/andrescamacho/shippingmanager-go/internal/domain/shared"
	"gorm.io/gorm"
)

// DefaultDedupWindow suppresses identical status lines within this window
const DefaultDedupWindow = 60 * time.Second

// StatusLogRepository manages status line persistence
type StatusLogRepository interface {
	// Log writes a status line with deduplication
	Log(ctx context.Context, cycleID, message, level string, metadata map[string]interface{}) error

	// Recent retrieves the newest lines, optionally filtered by level and age
	Recent(ctx context.Context, limit, offset int, level *string, since *time.Time) ([]StatusLogEntry, error)
}

// StatusLogEntry represents a persisted status line
type StatusLogEntry struct {
	ID        int
	CycleID   string
	Timestamp time.Time
	Level     string
	Message   string
	Metadata  map[string]interface{}
}

// GormStatusLogRepository is a GORM-based implementation
type GormStatusLogRepository struct {
	db    *gorm.DB
	clock shared.Clock

	// key: level+message, value: last time it was written
	dedupCache   map[string]time.Time
	dedupMu      sync.Mutex
	dedupWindow  time.Duration
	dedupMaxSize int
}

// NewGormStatusLogRepository creates a new status log repository
// If clock is nil, uses RealClock (production behavior)
func NewGormStatusLogRepository(db *gorm.DB, clock shared.Clock) *GormStatusLogRepository {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &GormStatusLogRepository{
		db:           db,
		clock:        clock,
		dedupCache:   make(map[string]time.Time),
		dedupWindow:  DefaultDedupWindow,
		dedupMaxSize: 10000,
	}
}

// SetDedupWindow changes the suppression window; zero or less disables it
func (r *GormStatusLogRepository) SetDedupWindow(window time.Duration) {
	r.dedupMu.Lock()
	defer r.dedupMu.Unlock()
	r.dedupWindow = window
}

// Log writes a status line with time-windowed deduplication. The same
// message at the same level is stored at most once per window, so a
// repeating skip line does not grow the table every cycle.
func (r *GormStatusLogRepository) Log(ctx context.Context, cycleID, message, level string, metadata map[string]interface{}) error {
	now := r.clock.Now()
	cacheKey := level + "|" + message

	r.dedupMu.Lock()
	if lastLogged, exists := r.dedupCache[cacheKey]; exists && now.Sub(lastLogged) < r.dedupWindow {
		r.dedupMu.Unlock()
		return nil
	}
	if len(r.dedupCache) >= r.dedupMaxSize {
		r.cleanupDedupCache(now)
	}
	r.dedupCache[cacheKey] = now
	r.dedupMu.Unlock()

	var metadataJSON string
	if len(metadata) > 0 {
		if jsonBytes, err := json.Marshal(metadata); err == nil {
			metadataJSON = string(jsonBytes)
		}
	}

	entry := &StatusLogModel{
		CycleID:   cycleID,
		Timestamp: now,
		Level:     level,
		Message:   message,
		Metadata:  metadataJSON,
	}

	return r.db.WithContext(ctx).Create(entry).Error
}

// cleanupDedupCache removes expired entries
// Must be called while holding dedupMu lock
func (r *GormStatusLogRepository) cleanupDedupCache(now time.Time) {
	cutoff := now.Add(-r.dedupWindow)
	for key, timestamp := range r.dedupCache {
		if timestamp.Before(cutoff) {
			delete(r.dedupCache, key)
		}
	}
}

// Recent retrieves status lines newest first
func (r *GormStatusLogRepository) Recent(ctx context.Context, limit, offset int, level *string, since *time.Time) ([]StatusLogEntry, error) {
	var models []StatusLogModel

	query := r.db.WithContext(ctx)
	if level != nil {
		query = query.Where("level = ?", *level)
	}
	if since != nil {
		query = query.Where("timestamp > ?", *since)
	}

	query = query.Order("timestamp DESC").Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	entries := make([]StatusLogEntry, len(models))
	for i, model := range models {
		var metadata map[string]interface{}
		if model.Metadata != "" {
			if err := json.Unmarshal([]byte(model.Metadata), &metadata); err != nil {
				metadata = nil
			}
		}

		entries[i] = StatusLogEntry{
			ID:        model.ID,
			CycleID:   model.CycleID,
			Timestamp: model.Timestamp,
			Level:     model.Level,
			Message:   model.Message,
			Metadata:  metadata,
		}
	}

	return entries, nil
}
