package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/eventhub/eventhub/internal/helpers"
	"github.com/eventhub/eventhub/internal/models"
	"github.com/eventhub/eventhub/internal/repositories"
	"github.com/google/uuid"
)

// TicketService serves read-side ticket queries: a holder's tickets, QR
// images and event rosters.
type TicketService struct {
	events  *repositories.EventRepository
	tickets *repositories.TicketLedger
}

func NewTicketService(events *repositories.EventRepository, tickets *repositories.TicketLedger) *TicketService {
	return &TicketService{events: events, tickets: tickets}
}

func (s *TicketService) ListMine(ctx context.Context, userID uuid.UUID) ([]models.Ticket, error) {
	return s.tickets.ListByUser(ctx, userID)
}

// QRImage renders the stored credential of a ticket as PNG. Holders may
// fetch their own; check-in staff may fetch any.
func (s *TicketService) QRImage(ctx context.Context, ticketID uuid.UUID, caller models.Identity) ([]byte, error) {
	ticket, err := s.tickets.FindByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	if ticket.UserID != caller.UserID && !caller.Role.Can(models.CapCheckIn) {
		return nil, ErrTicketNotFound
	}

	png, err := helpers.RenderQR(ticket.QRCode)
	if err != nil {
		return nil, fmt.Errorf("render ticket %s: %w", ticket.ID, err)
	}
	return png, nil
}

// Roster lists every ticket of an event for the organisation that owns it.
func (s *TicketService) Roster(ctx context.Context, eventID uuid.UUID, caller models.Identity) ([]models.Ticket, error) {
	if !caller.Role.Can(models.CapViewRoster) {
		return nil, ErrForbidden
	}
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	if !caller.Manages(event.OrganisationID) {
		return nil, ErrForbidden
	}
	return s.tickets.ListByEvent(ctx, eventID)
}
