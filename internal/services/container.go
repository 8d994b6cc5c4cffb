package services

import (
	"log/slog"

	"github.com/eventhub/eventhub/internal/clock"
	"github.com/eventhub/eventhub/internal/helpers"
	"github.com/eventhub/eventhub/internal/repositories"
	"gorm.io/gorm"
)

// Container wires the ticketing services over one database handle.
type Container struct {
	Events  *repositories.EventRepository
	RSVP    *RSVPService
	CheckIn *CheckInService
	Tickets *TicketService
}

func NewContainer(db *gorm.DB, signer *helpers.PayloadSigner, c clock.Clock, logger *slog.Logger) *Container {
	events := repositories.NewEventRepository(db)
	ledger := repositories.NewTicketLedger(db, c)
	return &Container{
		Events:  events,
		RSVP:    NewRSVPService(events, ledger, signer, c, logger),
		CheckIn: NewCheckInService(ledger, signer, logger),
		Tickets: NewTicketService(events, ledger),
	}
}
