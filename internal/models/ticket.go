package models

import (
	"time"

	"github.com/google/uuid"
)

type TicketStatus string

const (
	TicketActive     TicketStatus = "active"
	TicketWaitlisted TicketStatus = "waitlisted"
	TicketCancelled  TicketStatus = "cancelled"
	TicketCheckedIn  TicketStatus = "checked_in"
)

// Occupying reports whether the status counts against event capacity.
func (s TicketStatus) Occupying() bool {
	return s == TicketActive || s == TicketCheckedIn
}

// OccupyingStatuses lists the statuses that count against event capacity.
var OccupyingStatuses = []TicketStatus{TicketActive, TicketCheckedIn}

// Ticket is never deleted; cancellation is a status change so the signed
// credential survives reactivation.
type Ticket struct {
	ID          uuid.UUID    `gorm:"type:uuid;primary_key" json:"id"`
	EventID     uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_tickets_event_user;index" json:"event_id"`
	Event       *Event       `json:"event,omitempty"`
	UserID      uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_tickets_event_user;index" json:"user_id"`
	User        *User        `json:"user,omitempty"`
	Status      TicketStatus `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	QRCode      string       `gorm:"not null" json:"qr_code"`
	IssuedAt    time.Time    `gorm:"not null" json:"issued_at"`
	CheckedInAt *time.Time   `json:"checked_in_at,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}
