package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/eventhub/eventhub/internal/clock"
	"github.com/eventhub/eventhub/internal/models"
	"github.com/eventhub/eventhub/internal/testutil"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ledgerFixture struct {
	db     *gorm.DB
	clock  *clock.FakeClock
	ledger *TicketLedger
	event  *models.Event
	user   *models.User
}

func newLedgerFixture(t *testing.T, capacity int) *ledgerFixture {
	t.Helper()
	db := testutil.OpenDB(t)
	fake := clock.Fake(testutil.Epoch)
	org := testutil.CreateOrganisation(t, db, "Tech Club")
	return &ledgerFixture{
		db:     db,
		clock:  fake,
		ledger: NewTicketLedger(db, fake),
		event:  testutil.CreateEvent(t, db, org.ID, capacity),
		user:   testutil.CreateUser(t, db, models.RoleStudent, nil),
	}
}

func (f *ledgerFixture) create(t *testing.T, userID uuid.UUID, status models.TicketStatus) *models.Ticket {
	t.Helper()
	ticket, err := f.ledger.Create(context.Background(), NewTicket{
		EventID: f.event.ID,
		UserID:  userID,
		Status:  status,
		QRCode:  "qr-" + userID.String(),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return ticket
}

func TestLedgerCreateAndFind(t *testing.T) {
	f := newLedgerFixture(t, 2)
	ctx := context.Background()

	id := uuid.New()
	ticket, err := f.ledger.Create(ctx, NewTicket{
		ID:      id,
		EventID: f.event.ID,
		UserID:  f.user.ID,
		Status:  models.TicketActive,
		QRCode:  "signed",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if ticket.ID != id {
		t.Fatalf("ticket id = %s, want caller-assigned %s", ticket.ID, id)
	}
	if !ticket.IssuedAt.Equal(testutil.Epoch) {
		t.Fatalf("issued at %v, want %v", ticket.IssuedAt, testutil.Epoch)
	}

	found, err := f.ledger.FindByID(ctx, id)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if found.Status != models.TicketActive || found.QRCode != "signed" || found.CheckedInAt != nil {
		t.Fatalf("unexpected stored ticket: %+v", found)
	}

	existing, err := f.ledger.FindExisting(ctx, f.event.ID, f.user.ID)
	if err != nil || existing == nil || existing.ID != id {
		t.Fatalf("FindExisting = (%v, %v), want ticket %s", existing, err, id)
	}
}

func TestLedgerFindMissing(t *testing.T) {
	f := newLedgerFixture(t, 1)
	ctx := context.Background()

	if _, err := f.ledger.FindByID(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("FindByID error = %v, want ErrNotFound", err)
	}
	existing, err := f.ledger.FindExisting(ctx, f.event.ID, uuid.New())
	if err != nil || existing != nil {
		t.Fatalf("FindExisting = (%v, %v), want (nil, nil)", existing, err)
	}
	if _, err := f.ledger.LockEvent(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("LockEvent error = %v, want ErrNotFound", err)
	}
}

func TestLedgerCreateRejectsDuplicatePair(t *testing.T) {
	f := newLedgerFixture(t, 5)
	f.create(t, f.user.ID, models.TicketActive)

	_, err := f.ledger.Create(context.Background(), NewTicket{
		EventID: f.event.ID,
		UserID:  f.user.ID,
		Status:  models.TicketWaitlisted,
		QRCode:  "second",
	})
	if !errors.Is(err, ErrDuplicateTicket) {
		t.Fatalf("Create error = %v, want ErrDuplicateTicket", err)
	}
}

func TestLedgerCreateRejectsTerminalStatus(t *testing.T) {
	f := newLedgerFixture(t, 5)
	for _, status := range []models.TicketStatus{models.TicketCancelled, models.TicketCheckedIn} {
		_, err := f.ledger.Create(context.Background(), NewTicket{
			EventID: f.event.ID,
			UserID:  f.user.ID,
			Status:  status,
			QRCode:  "qr",
		})
		if !errors.Is(err, ErrInvalidStatus) {
			t.Errorf("Create(%s) error = %v, want ErrInvalidStatus", status, err)
		}
	}
}

func TestLedgerCountOccupying(t *testing.T) {
	f := newLedgerFixture(t, 10)
	ctx := context.Background()

	statuses := []models.TicketStatus{models.TicketActive, models.TicketActive, models.TicketWaitlisted, models.TicketActive}
	var tickets []*models.Ticket
	for _, status := range statuses {
		user := testutil.CreateUser(t, f.db, models.RoleStudent, nil)
		tickets = append(tickets, f.create(t, user.ID, status))
	}
	if _, err := f.ledger.SetStatus(ctx, tickets[0].ID, models.TicketCheckedIn); err != nil {
		t.Fatalf("check in: %v", err)
	}
	if _, err := f.ledger.SetStatus(ctx, tickets[1].ID, models.TicketCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	// checked_in + active count; waitlisted and cancelled do not.
	count, err := f.ledger.CountOccupying(ctx, f.event.ID)
	if err != nil {
		t.Fatalf("CountOccupying: %v", err)
	}
	if count != 2 {
		t.Fatalf("occupying = %d, want 2", count)
	}
}

func TestLedgerSetStatusTransitions(t *testing.T) {
	tests := []struct {
		from    models.TicketStatus
		to      models.TicketStatus
		allowed bool
	}{
		{models.TicketActive, models.TicketCancelled, true},
		{models.TicketActive, models.TicketCheckedIn, true},
		{models.TicketWaitlisted, models.TicketCancelled, true},
		{models.TicketWaitlisted, models.TicketCheckedIn, true},
		{models.TicketActive, models.TicketWaitlisted, false},
		{models.TicketWaitlisted, models.TicketActive, false},
		{models.TicketCheckedIn, models.TicketCancelled, false},
		{models.TicketCancelled, models.TicketActive, false},
		{models.TicketCancelled, models.TicketCheckedIn, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			f := newLedgerFixture(t, 5)
			ctx := context.Background()

			ticket := f.create(t, f.user.ID, models.TicketActive)
			if tt.from != models.TicketActive {
				ticket = forceStatus(t, f, ticket.ID, tt.from)
			}

			f.clock.Advance(time.Hour)
			updated, err := f.ledger.SetStatus(ctx, ticket.ID, tt.to)
			if !tt.allowed {
				if !errors.Is(err, ErrInvalidStatus) {
					t.Fatalf("SetStatus error = %v, want ErrInvalidStatus", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("SetStatus: %v", err)
			}
			if updated.Status != tt.to {
				t.Fatalf("status = %s, want %s", updated.Status, tt.to)
			}
			if tt.to == models.TicketCheckedIn {
				if updated.CheckedInAt == nil || !updated.CheckedInAt.Equal(testutil.Epoch.Add(time.Hour)) {
					t.Fatalf("checked in at %v, want %v", updated.CheckedInAt, testutil.Epoch.Add(time.Hour))
				}
			} else if updated.CheckedInAt != nil {
				t.Fatalf("checked in at set on %s ticket", updated.Status)
			}
		})
	}
}

// forceStatus walks a fresh active ticket to the wanted status through the
// ledger's own transitions.
func forceStatus(t *testing.T, f *ledgerFixture, id uuid.UUID, status models.TicketStatus) *models.Ticket {
	t.Helper()
	ctx := context.Background()
	switch status {
	case models.TicketCancelled, models.TicketCheckedIn:
		ticket, err := f.ledger.SetStatus(ctx, id, status)
		if err != nil {
			t.Fatalf("SetStatus(%s): %v", status, err)
		}
		return ticket
	case models.TicketWaitlisted:
		if _, err := f.ledger.SetStatus(ctx, id, models.TicketCancelled); err != nil {
			t.Fatalf("cancel: %v", err)
		}
		ticket, err := f.ledger.FindByID(ctx, id)
		if err != nil {
			t.Fatalf("FindByID: %v", err)
		}
		ticket, err = f.ledger.Reactivate(ctx, ticket, models.TicketWaitlisted, ticket.QRCode)
		if err != nil {
			t.Fatalf("Reactivate: %v", err)
		}
		return ticket
	}
	t.Fatalf("unsupported status %s", status)
	return nil
}

func TestLedgerReactivate(t *testing.T) {
	f := newLedgerFixture(t, 5)
	ctx := context.Background()

	ticket := f.create(t, f.user.ID, models.TicketActive)
	if _, err := f.ledger.Reactivate(ctx, ticket, models.TicketActive, "new"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("Reactivate of active ticket error = %v, want ErrInvalidStatus", err)
	}

	cancelled, err := f.ledger.SetStatus(ctx, ticket.ID, models.TicketCancelled)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := f.ledger.Reactivate(ctx, cancelled, models.TicketCheckedIn, "new"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("Reactivate as checked_in error = %v, want ErrInvalidStatus", err)
	}

	f.clock.Advance(30 * time.Minute)
	revived, err := f.ledger.Reactivate(ctx, cancelled, models.TicketActive, "re-signed")
	if err != nil {
		t.Fatalf("Reactivate: %v", err)
	}
	if revived.ID != ticket.ID {
		t.Fatalf("reactivation changed the ticket id")
	}
	if revived.Status != models.TicketActive || revived.QRCode != "re-signed" {
		t.Fatalf("unexpected reactivated ticket: %+v", revived)
	}
	if !revived.IssuedAt.Equal(testutil.Epoch.Add(30 * time.Minute)) {
		t.Fatalf("issued at %v was not refreshed", revived.IssuedAt)
	}

	// A stale copy still claiming cancelled loses the conditional update.
	if _, err := f.ledger.Reactivate(ctx, cancelled, models.TicketActive, "again"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("stale Reactivate error = %v, want ErrInvalidStatus", err)
	}
}

func TestLedgerTransactionRollsBack(t *testing.T) {
	f := newLedgerFixture(t, 5)
	ctx := context.Background()
	boom := errors.New("boom")

	err := f.ledger.Transaction(ctx, func(ledger *TicketLedger) error {
		if _, err := ledger.LockEvent(ctx, f.event.ID); err != nil {
			return err
		}
		if _, err := ledger.Create(ctx, NewTicket{EventID: f.event.ID, UserID: f.user.ID, Status: models.TicketActive, QRCode: "qr"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Transaction error = %v, want %v", err, boom)
	}

	existing, err := f.ledger.FindExisting(ctx, f.event.ID, f.user.ID)
	if err != nil {
		t.Fatalf("FindExisting: %v", err)
	}
	if existing != nil {
		t.Fatal("ticket written inside a failed transaction survived")
	}
}

func TestLedgerListings(t *testing.T) {
	f := newLedgerFixture(t, 5)
	ctx := context.Background()

	first := f.create(t, f.user.ID, models.TicketActive)

	org := testutil.CreateOrganisation(t, f.db, "Chess Club")
	later := testutil.CreateEvent(t, f.db, org.ID, 5)
	f.clock.Advance(time.Minute)
	second, err := f.ledger.Create(ctx, NewTicket{EventID: later.ID, UserID: f.user.ID, Status: models.TicketActive, QRCode: "qr"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	other := testutil.CreateUser(t, f.db, models.RoleStudent, nil)
	cancelled := f.create(t, other.ID, models.TicketActive)
	if _, err := f.ledger.SetStatus(ctx, cancelled.ID, models.TicketCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	mine, err := f.ledger.ListByUser(ctx, f.user.ID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(mine) != 2 || mine[0].ID != second.ID || mine[1].ID != first.ID {
		t.Fatalf("ListByUser returned %d tickets in unexpected order", len(mine))
	}
	if mine[0].Event == nil || mine[0].Event.ID != later.ID {
		t.Fatal("ListByUser did not load the ticket's event")
	}

	theirs, err := f.ledger.ListByUser(ctx, other.ID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(theirs) != 0 {
		t.Fatalf("cancelled tickets listed for holder: %d", len(theirs))
	}

	roster, err := f.ledger.ListByEvent(ctx, f.event.ID)
	if err != nil {
		t.Fatalf("ListByEvent: %v", err)
	}
	if len(roster) != 2 {
		t.Fatalf("roster has %d tickets, want 2", len(roster))
	}
	for _, ticket := range roster {
		if ticket.User == nil {
			t.Fatal("ListByEvent did not load the ticket holder")
		}
	}
}
