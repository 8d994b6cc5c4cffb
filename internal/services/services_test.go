package services

import (
	"context"
	"testing"

	"github.com/eventhub/eventhub/internal/clock"
	"github.com/eventhub/eventhub/internal/helpers"
	"github.com/eventhub/eventhub/internal/models"
	"github.com/eventhub/eventhub/internal/repositories"
	"github.com/eventhub/eventhub/internal/testutil"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type fixture struct {
	db        *gorm.DB
	clock     *clock.FakeClock
	signer    *helpers.PayloadSigner
	container *Container
	ledger    *repositories.TicketLedger
	org       *models.Organisation
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.OpenDB(t)
	fake := clock.Fake(testutil.Epoch)
	signer, err := helpers.NewPayloadSigner(testutil.SigningKey)
	if err != nil {
		t.Fatalf("NewPayloadSigner: %v", err)
	}
	return &fixture{
		db:        db,
		clock:     fake,
		signer:    signer,
		container: NewContainer(db, signer, fake, testutil.DiscardLogger()),
		ledger:    repositories.NewTicketLedger(db, fake),
		org:       testutil.CreateOrganisation(t, db, "Tech Club"),
	}
}

func (f *fixture) event(t *testing.T, capacity int, opts ...testutil.EventOption) *models.Event {
	t.Helper()
	return testutil.CreateEvent(t, f.db, f.org.ID, capacity, opts...)
}

func (f *fixture) student(t *testing.T) *models.User {
	t.Helper()
	return testutil.CreateUser(t, f.db, models.RoleStudent, nil)
}

func (f *fixture) rsvp(t *testing.T, eventID, userID uuid.UUID) *RSVPResult {
	t.Helper()
	result, err := f.container.RSVP.RSVP(context.Background(), eventID, userID)
	if err != nil {
		t.Fatalf("RSVP: %v", err)
	}
	return result
}

func (f *fixture) ticket(t *testing.T, id uuid.UUID) *models.Ticket {
	t.Helper()
	ticket, err := f.ledger.FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	return ticket
}

func (f *fixture) occupying(t *testing.T, eventID uuid.UUID) int64 {
	t.Helper()
	count, err := f.ledger.CountOccupying(context.Background(), eventID)
	if err != nil {
		t.Fatalf("CountOccupying: %v", err)
	}
	return count
}
