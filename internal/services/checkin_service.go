package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/eventhub/eventhub/internal/helpers"
	"github.com/eventhub/eventhub/internal/models"
	"github.com/eventhub/eventhub/internal/repositories"
	"github.com/google/uuid"
)

const (
	CheckInStatusCheckedIn        = "checked_in"
	CheckInStatusAlreadyCheckedIn = "already_checked_in"
)

// RejectReason records why a scan was refused. It is logged for operators
// and never returned to the scanning client.
type RejectReason string

const (
	ReasonMalformedPayload RejectReason = "malformed_payload"
	ReasonInvalidSignature RejectReason = "invalid_signature"
	ReasonInvalidTicket    RejectReason = "invalid_ticket"
	ReasonTicketCancelled  RejectReason = "ticket_cancelled"
	ReasonNoCapacity       RejectReason = "waitlisted_no_capacity"
)

type CheckInResult struct {
	Valid        bool         `json:"valid"`
	TicketStatus string       `json:"ticket_status,omitempty"`
	CheckedInAt  *time.Time   `json:"checked_in_at,omitempty"`
	TicketID     uuid.UUID    `json:"-"`
	Reason       RejectReason `json:"-"`
}

// CheckInService verifies scanned ticket payloads and checks tickets in.
type CheckInService struct {
	tickets *repositories.TicketLedger
	signer  *helpers.PayloadSigner
	logger  *slog.Logger
}

func NewCheckInService(tickets *repositories.TicketLedger, signer *helpers.PayloadSigner, logger *slog.Logger) *CheckInService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CheckInService{tickets: tickets, signer: signer, logger: logger}
}

// CheckIn validates a raw QR payload and moves the ticket to checked_in.
// Business rejections come back as an invalid result; only store failures
// are returned as errors. Repeated scans of a checked-in ticket report
// already_checked_in without writing.
func (s *CheckInService) CheckIn(ctx context.Context, raw string) (*CheckInResult, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return s.reject(ctx, ReasonMalformedPayload, slog.LevelInfo), nil
	}

	data, ok := s.signer.Verify(raw)
	if !ok {
		return s.reject(ctx, ReasonInvalidSignature, slog.LevelWarn, "payload_length", len(raw)), nil
	}
	eventID, ticketID, err := helpers.ParseTicketPayload(data)
	if err != nil {
		return s.reject(ctx, ReasonMalformedPayload, slog.LevelWarn), nil
	}

	var result *CheckInResult
	err = s.tickets.Transaction(ctx, func(ledger *repositories.TicketLedger) error {
		event, err := ledger.LockEvent(ctx, eventID)
		if errors.Is(err, repositories.ErrNotFound) {
			result = s.reject(ctx, ReasonInvalidTicket, slog.LevelWarn, "event_id", eventID, "ticket_id", ticketID)
			return nil
		}
		if err != nil {
			return err
		}

		ticket, err := ledger.FindByID(ctx, ticketID)
		if errors.Is(err, repositories.ErrNotFound) {
			result = s.reject(ctx, ReasonInvalidTicket, slog.LevelWarn, "event_id", eventID, "ticket_id", ticketID)
			return nil
		}
		if err != nil {
			return err
		}
		// The signature only vouches for the pair; the stored linkage is
		// what proves the ticket belongs to this event.
		if ticket.EventID != eventID {
			result = s.reject(ctx, ReasonInvalidTicket, slog.LevelWarn,
				"event_id", eventID, "ticket_id", ticketID, "stored_event_id", ticket.EventID)
			return nil
		}

		switch ticket.Status {
		case models.TicketCheckedIn:
			result = &CheckInResult{
				Valid:        true,
				TicketStatus: CheckInStatusAlreadyCheckedIn,
				CheckedInAt:  ticket.CheckedInAt,
				TicketID:     ticket.ID,
			}
			return nil
		case models.TicketCancelled:
			result = s.reject(ctx, ReasonTicketCancelled, slog.LevelInfo, "ticket_id", ticketID)
			return nil
		case models.TicketWaitlisted:
			occupying, err := ledger.CountOccupying(ctx, eventID)
			if err != nil {
				return err
			}
			if occupying >= int64(event.Capacity) {
				result = s.reject(ctx, ReasonNoCapacity, slog.LevelInfo, "ticket_id", ticketID)
				return nil
			}
		}

		updated, err := ledger.SetStatus(ctx, ticketID, models.TicketCheckedIn)
		if err != nil {
			return err
		}
		result = &CheckInResult{
			Valid:        true,
			TicketStatus: CheckInStatusCheckedIn,
			CheckedInAt:  updated.CheckedInAt,
			TicketID:     updated.ID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Valid {
		s.logger.Info("ticket scanned", "ticket_id", result.TicketID, "ticket_status", result.TicketStatus)
	}
	return result, nil
}

func (s *CheckInService) reject(ctx context.Context, reason RejectReason, level slog.Level, attrs ...any) *CheckInResult {
	attrs = append([]any{"reason", reason}, attrs...)
	s.logger.Log(ctx, level, "check-in rejected", attrs...)
	return &CheckInResult{Valid: false, Reason: reason}
}
