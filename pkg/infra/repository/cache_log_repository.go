package repository

import (
	"context"
	"fmt"

	"github.com/smartcache/smartcache/pkg/domain/accessevent"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CacheLogRepository struct {
	db *gorm.DB
}

func NewCacheLogRepository(db *gorm.DB) accessevent.Repository {
	return &CacheLogRepository{
		db: db,
	}
}

// Save inserts the event. Redelivered events hit the (resource_id, timestamp)
// key and are ignored.
func (r *CacheLogRepository) Save(ctx context.Context, event accessevent.AccessEvent) error {
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&event).Error; err != nil {
		return fmt.Errorf("failed to save access event %s/%s: %w", event.ResourceID, event.Action, err)
	}
	return nil
}
