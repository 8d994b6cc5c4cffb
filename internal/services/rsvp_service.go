package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/eventhub/eventhub/internal/clock"
	"github.com/eventhub/eventhub/internal/helpers"
	"github.com/eventhub/eventhub/internal/models"
	"github.com/eventhub/eventhub/internal/repositories"
	"github.com/google/uuid"
)

type RSVPResult struct {
	TicketID    uuid.UUID           `json:"ticket_id"`
	Status      models.TicketStatus `json:"status"`
	Reactivated bool                `json:"-"`
}

// RSVPService issues, reactivates and cancels tickets.
type RSVPService struct {
	events  *repositories.EventRepository
	tickets *repositories.TicketLedger
	signer  *helpers.PayloadSigner
	clock   clock.Clock
	logger  *slog.Logger
}

func NewRSVPService(
	events *repositories.EventRepository,
	tickets *repositories.TicketLedger,
	signer *helpers.PayloadSigner,
	c clock.Clock,
	logger *slog.Logger,
) *RSVPService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RSVPService{events: events, tickets: tickets, signer: signer, clock: c, logger: logger}
}

// RSVP claims a slot for the user. A cancelled ticket for the same pair is
// reactivated in place with a freshly signed credential; any other existing
// ticket is rejected with ErrAlreadyRegistered.
//
// Capacity is evaluated under the event row lock, so the status decided here
// is the status written.
func (s *RSVPService) RSVP(ctx context.Context, eventID, userID uuid.UUID) (*RSVPResult, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("load event: %w", err)
	}
	if err := s.checkEligible(event); err != nil {
		return nil, err
	}

	var result *RSVPResult
	err = s.tickets.Transaction(ctx, func(ledger *repositories.TicketLedger) error {
		locked, err := ledger.LockEvent(ctx, eventID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrEventNotFound
			}
			return err
		}
		if err := s.checkEligible(locked); err != nil {
			return err
		}

		existing, err := ledger.FindExisting(ctx, eventID, userID)
		if err != nil {
			return err
		}
		if existing != nil && existing.Status != models.TicketCancelled {
			return ErrAlreadyRegistered
		}

		occupying, err := ledger.CountOccupying(ctx, eventID)
		if err != nil {
			return err
		}
		status, err := admissionStatus(locked, occupying)
		if err != nil {
			return err
		}

		if existing != nil {
			ticket, err := ledger.Reactivate(ctx, existing, status, s.signTicket(eventID, existing.ID))
			if err != nil {
				return err
			}
			result = &RSVPResult{TicketID: ticket.ID, Status: ticket.Status, Reactivated: true}
			return nil
		}

		ticketID := uuid.New()
		ticket, err := ledger.Create(ctx, repositories.NewTicket{
			ID:      ticketID,
			EventID: eventID,
			UserID:  userID,
			Status:  status,
			QRCode:  s.signTicket(eventID, ticketID),
		})
		if err != nil {
			if errors.Is(err, repositories.ErrDuplicateTicket) {
				return ErrAlreadyRegistered
			}
			return err
		}
		result = &RSVPResult{TicketID: ticket.ID, Status: ticket.Status}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("rsvp recorded",
		"event_id", eventID,
		"user_id", userID,
		"ticket_id", result.TicketID,
		"status", result.Status,
		"reactivated", result.Reactivated,
	)
	return result, nil
}

// Cancel releases the holder's ticket. Cancelling a cancelled ticket is a
// no-op. Waitlisted tickets are not promoted into the freed slot.
func (s *RSVPService) Cancel(ctx context.Context, ticketID, userID uuid.UUID) (*models.Ticket, error) {
	var cancelled *models.Ticket
	err := s.tickets.Transaction(ctx, func(ledger *repositories.TicketLedger) error {
		ticket, err := ledger.FindByID(ctx, ticketID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrTicketNotFound
			}
			return err
		}
		if ticket.UserID != userID {
			return ErrTicketNotFound
		}

		if _, err := ledger.LockEvent(ctx, ticket.EventID); err != nil {
			return err
		}
		if ticket, err = ledger.FindByID(ctx, ticketID); err != nil {
			return err
		}

		switch ticket.Status {
		case models.TicketCancelled:
			cancelled = ticket
			return nil
		case models.TicketCheckedIn:
			return ErrTicketCheckedIn
		}

		cancelled, err = ledger.SetStatus(ctx, ticketID, models.TicketCancelled)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("ticket cancelled", "ticket_id", ticketID, "user_id", userID)
	return cancelled, nil
}

func (s *RSVPService) checkEligible(event *models.Event) error {
	if event.Status != models.EventPublished {
		return ErrEventUnavailable
	}
	if event.Ended(s.clock.Now()) {
		return ErrEventEnded
	}
	return nil
}

func (s *RSVPService) signTicket(eventID, ticketID uuid.UUID) string {
	return s.signer.Sign(helpers.ComposeTicketPayload(eventID, ticketID))
}

// admissionStatus admits while occupying tickets are below capacity, then
// waitlists when the event allows it, and otherwise refuses.
func admissionStatus(event *models.Event, occupying int64) (models.TicketStatus, error) {
	if occupying < int64(event.Capacity) {
		return models.TicketActive, nil
	}
	if event.AllowWaitlist {
		return models.TicketWaitlisted, nil
	}
	return "", ErrEventFull
}
