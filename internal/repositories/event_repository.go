package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/eventhub/eventhub/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxListedEvents = 100

// EventRepository is the read-only event directory the ticketing core
// consults for eligibility.
type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var event models.Event
	err := r.db.WithContext(ctx).Preload("Organisation").Where("id = ?", id).First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &event, nil
}

type EventFilter struct {
	Search    string
	StartFrom *time.Time
	Limit     int
}

// ListPublished returns public, published events ordered by start time.
func (r *EventRepository) ListPublished(ctx context.Context, filter EventFilter) ([]models.Event, error) {
	query := r.db.WithContext(ctx).Model(&models.Event{}).
		Where("status = ? AND visibility = ?", models.EventPublished, models.VisibilityPublic)
	if filter.Search != "" {
		query = query.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.StartFrom != nil {
		query = query.Where("start_at >= ?", *filter.StartFrom)
	}

	limit := filter.Limit
	if limit <= 0 || limit > maxListedEvents {
		limit = maxListedEvents
	}

	var events []models.Event
	err := query.Preload("Organisation").Order("start_at ASC").Limit(limit).Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}
