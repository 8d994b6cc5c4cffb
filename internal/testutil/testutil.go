// Package testutil builds in-memory databases and fixture rows for tests.
package testutil

import (
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/eventhub/eventhub/config"
	"github.com/eventhub/eventhub/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Epoch is the fixed instant fake clocks start from.
var Epoch = time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)

const SigningKey = "test-qr-secret"

// OpenDB returns a migrated in-memory sqlite database private to the test.
func OpenDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := config.InitDatabase(&config.Config{DBDriver: config.DriverSQLite, DBPath: ":memory:"})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// DiscardLogger drops everything; tests assert on results, not log lines.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func CreateOrganisation(t testing.TB, db *gorm.DB, name string) *models.Organisation {
	t.Helper()
	org := &models.Organisation{Name: name, Approved: true}
	if err := db.Create(org).Error; err != nil {
		t.Fatalf("create organisation: %v", err)
	}
	return org
}

func CreateUser(t testing.TB, db *gorm.DB, role models.Role, orgID *uuid.UUID) *models.User {
	t.Helper()
	id := uuid.New()
	user := &models.User{
		ID:             id,
		Name:           "User " + id.String()[:8],
		Email:          fmt.Sprintf("%s@campus.test", id),
		PasswordHash:   "x",
		Role:           role,
		OrganisationID: orgID,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

// EventOption adjusts an event before it is inserted.
type EventOption func(*models.Event)

func WithWaitlist() EventOption {
	return func(e *models.Event) { e.AllowWaitlist = true }
}

func WithStatus(status models.EventStatus) EventOption {
	return func(e *models.Event) { e.Status = status }
}

func WithVisibility(v models.Visibility) EventOption {
	return func(e *models.Event) { e.Visibility = v }
}

func WithTitle(title string) EventOption {
	return func(e *models.Event) { e.Title = title }
}

// StartingAt schedules a two hour event beginning at start.
func StartingAt(start time.Time) EventOption {
	return func(e *models.Event) {
		e.StartAt = start
		e.EndAt = start.Add(2 * time.Hour)
	}
}

// CreateEvent inserts a published, public event a week after Epoch.
func CreateEvent(t testing.TB, db *gorm.DB, orgID uuid.UUID, capacity int, opts ...EventOption) *models.Event {
	t.Helper()
	start := Epoch.Add(7 * 24 * time.Hour)
	event := &models.Event{
		OrganisationID: orgID,
		Title:          "Event " + uuid.NewString()[:8],
		Venue:          "Main Hall",
		StartAt:        start,
		EndAt:          start.Add(2 * time.Hour),
		Capacity:       capacity,
		Status:         models.EventPublished,
		Visibility:     models.VisibilityPublic,
	}
	for _, opt := range opts {
		opt(event)
	}
	if err := db.Create(event).Error; err != nil {
		t.Fatalf("create event: %v", err)
	}
	return event
}
