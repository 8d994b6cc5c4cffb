package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EventStatus string

const (
	EventDraft     EventStatus = "draft"
	EventPublished EventStatus = "published"
	EventCancelled EventStatus = "cancelled"
)

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

type Event struct {
	ID             uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	OrganisationID uuid.UUID      `gorm:"type:uuid;not null;index" json:"organisation_id"`
	Organisation   *Organisation  `json:"organisation,omitempty"`
	Title          string         `gorm:"not null" json:"title"`
	Description    string         `json:"description"`
	Venue          string         `gorm:"not null" json:"venue"`
	StartAt        time.Time      `gorm:"not null;index" json:"start_at"`
	EndAt          time.Time      `gorm:"not null" json:"end_at"`
	Capacity       int            `gorm:"not null;check:capacity > 0" json:"capacity"`
	AllowWaitlist  bool           `gorm:"not null" json:"allow_waitlist"`
	Status         EventStatus    `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	Visibility     Visibility     `gorm:"type:varchar(20);not null;default:'public';index" json:"visibility"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (event *Event) BeforeCreate(tx *gorm.DB) (err error) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	return
}

// Ended reports whether the event has finished at the given instant.
func (event *Event) Ended(now time.Time) bool {
	return !now.Before(event.EndAt)
}
