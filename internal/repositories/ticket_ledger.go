package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/eventhub/eventhub/internal/clock"
	"github.com/eventhub/eventhub/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxTxAttempts = 3

// TicketLedger owns ticket rows and the capacity accounting for an event.
//
// Reads and writes that decide admission must run inside Transaction after
// LockEvent; the event row lock serializes every admission for that event
// so occupying tickets never exceed capacity. The unique (event_id, user_id)
// index is the final authority on one ticket per user per event.
type TicketLedger struct {
	db    *gorm.DB
	clock clock.Clock
}

func NewTicketLedger(db *gorm.DB, c clock.Clock) *TicketLedger {
	return &TicketLedger{db: db, clock: c}
}

// NewTicket describes a ticket to insert. The caller assigns the id so the
// signed credential can be computed before the row is written.
type NewTicket struct {
	ID      uuid.UUID
	EventID uuid.UUID
	UserID  uuid.UUID
	Status  models.TicketStatus
	QRCode  string
}

// Transaction runs fn against a ledger bound to a single store transaction.
// Transactions aborted by a serialization failure or deadlock are retried.
func (l *TicketLedger) Transaction(ctx context.Context, fn func(ledger *TicketLedger) error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(&TicketLedger{db: tx, clock: l.clock})
		})
		if !isRetryable(err) {
			return err
		}
	}
	return fmt.Errorf("ticket transaction failed after %d attempts: %w", maxTxAttempts, err)
}

// LockEvent re-reads the event and holds its row lock until the enclosing
// transaction ends.
func (l *TicketLedger) LockEvent(ctx context.Context, eventID uuid.UUID) (*models.Event, error) {
	var event models.Event
	err := l.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", eventID).
		First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock event: %w", err)
	}
	return &event, nil
}

// CountOccupying counts tickets that hold a capacity slot.
func (l *TicketLedger) CountOccupying(ctx context.Context, eventID uuid.UUID) (int64, error) {
	var count int64
	err := l.db.WithContext(ctx).Model(&models.Ticket{}).
		Where("event_id = ? AND status IN ?", eventID, models.OccupyingStatuses).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count occupying tickets: %w", err)
	}
	return count, nil
}

// FindExisting returns the ticket for the pair, or nil when none exists.
func (l *TicketLedger) FindExisting(ctx context.Context, eventID, userID uuid.UUID) (*models.Ticket, error) {
	var ticket models.Ticket
	err := l.db.WithContext(ctx).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		First(&ticket).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find ticket: %w", err)
	}
	return &ticket, nil
}

func (l *TicketLedger) FindByID(ctx context.Context, ticketID uuid.UUID) (*models.Ticket, error) {
	var ticket models.Ticket
	err := l.db.WithContext(ctx).Where("id = ?", ticketID).First(&ticket).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find ticket: %w", err)
	}
	return &ticket, nil
}

func (l *TicketLedger) Create(ctx context.Context, req NewTicket) (*models.Ticket, error) {
	if req.Status != models.TicketActive && req.Status != models.TicketWaitlisted {
		return nil, fmt.Errorf("%w: cannot issue a %s ticket", ErrInvalidStatus, req.Status)
	}
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}

	ticket := models.Ticket{
		ID:       req.ID,
		EventID:  req.EventID,
		UserID:   req.UserID,
		Status:   req.Status,
		QRCode:   req.QRCode,
		IssuedAt: l.clock.Now(),
	}
	if err := l.db.WithContext(ctx).Omit(clause.Associations).Create(&ticket).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateTicket
		}
		return nil, fmt.Errorf("insert ticket: %w", err)
	}
	return &ticket, nil
}

// Reactivate moves a cancelled ticket back to active or waitlisted in place,
// refreshing issuedAt and replacing the credential with qrCode.
func (l *TicketLedger) Reactivate(ctx context.Context, ticket *models.Ticket, status models.TicketStatus, qrCode string) (*models.Ticket, error) {
	if status != models.TicketActive && status != models.TicketWaitlisted {
		return nil, fmt.Errorf("%w: cannot reactivate as %s", ErrInvalidStatus, status)
	}
	if ticket.Status != models.TicketCancelled {
		return nil, fmt.Errorf("%w: ticket is %s, not cancelled", ErrInvalidStatus, ticket.Status)
	}

	issuedAt := l.clock.Now()
	result := l.db.WithContext(ctx).Model(&models.Ticket{}).
		Where("id = ? AND status = ?", ticket.ID, models.TicketCancelled).
		Updates(map[string]interface{}{
			"status":        status,
			"qr_code":       qrCode,
			"issued_at":     issuedAt,
			"checked_in_at": nil,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("reactivate ticket: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: ticket changed concurrently", ErrInvalidStatus)
	}
	return l.FindByID(ctx, ticket.ID)
}

// SetStatus applies a cancellation or check-in transition. Moving to
// checked_in stamps checkedInAt.
func (l *TicketLedger) SetStatus(ctx context.Context, ticketID uuid.UUID, status models.TicketStatus) (*models.Ticket, error) {
	ticket, err := l.FindByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !canTransition(ticket.Status, status) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidStatus, ticket.Status, status)
	}

	updates := map[string]interface{}{"status": status}
	if status == models.TicketCheckedIn {
		updates["checked_in_at"] = l.clock.Now()
	}
	result := l.db.WithContext(ctx).Model(&models.Ticket{}).
		Where("id = ? AND status = ?", ticketID, ticket.Status).
		Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("update ticket status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: ticket changed concurrently", ErrInvalidStatus)
	}
	return l.FindByID(ctx, ticketID)
}

// ListByUser returns the user's non-cancelled tickets with their events.
func (l *TicketLedger) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := l.db.WithContext(ctx).Preload("Event").
		Where("user_id = ? AND status <> ?", userID, models.TicketCancelled).
		Order("issued_at DESC").
		Find(&tickets).Error
	if err != nil {
		return nil, fmt.Errorf("list user tickets: %w", err)
	}
	return tickets, nil
}

// ListByEvent returns every ticket for the event with its holder, oldest
// first.
func (l *TicketLedger) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := l.db.WithContext(ctx).Preload("User").
		Where("event_id = ?", eventID).
		Order("issued_at ASC").
		Find(&tickets).Error
	if err != nil {
		return nil, fmt.Errorf("list event tickets: %w", err)
	}
	return tickets, nil
}

// Reactivation of cancelled tickets goes through Reactivate, which needs a
// fresh credential.
func canTransition(from, to models.TicketStatus) bool {
	switch from {
	case models.TicketActive, models.TicketWaitlisted:
		return to == models.TicketCancelled || to == models.TicketCheckedIn
	default:
		return false
	}
}
