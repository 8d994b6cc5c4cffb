package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Organisation struct {
	ID          uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Name        string         `gorm:"unique;not null" json:"name"`
	Description string         `json:"description"`
	Approved    bool           `gorm:"not null;default:false;index" json:"approved"`
	OwnerID     uuid.UUID      `gorm:"type:uuid" json:"owner_id"`
	Events      []Event        `json:"-"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (org *Organisation) BeforeCreate(tx *gorm.DB) (err error) {
	if org.ID == uuid.Nil {
		org.ID = uuid.New()
	}
	return
}
