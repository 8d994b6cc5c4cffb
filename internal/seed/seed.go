// Package seed loads demo organisations, users and events from a YAML
// fixture.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/eventhub/eventhub/internal/models"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed default.yaml
var defaultFixture []byte

type Fixture struct {
	Users         []UserFixture         `yaml:"users"`
	Organisations []OrganisationFixture `yaml:"organisations"`
	Events        []EventFixture        `yaml:"events"`
}

type UserFixture struct {
	Name         string `yaml:"name"`
	Email        string `yaml:"email"`
	Password     string `yaml:"password"`
	Role         string `yaml:"role"`
	Organisation string `yaml:"organisation"`
}

type OrganisationFixture struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Approved    bool   `yaml:"approved"`
	Owner       string `yaml:"owner"`
}

// EventFixture places events relative to the seeding time with StartsIn,
// or absolutely with StartAt.
type EventFixture struct {
	Title         string     `yaml:"title"`
	Description   string     `yaml:"description"`
	Organisation  string     `yaml:"organisation"`
	Venue         string     `yaml:"venue"`
	StartAt       *time.Time `yaml:"start_at"`
	StartsIn      string     `yaml:"starts_in"`
	Duration      string     `yaml:"duration"`
	Capacity      int        `yaml:"capacity"`
	AllowWaitlist *bool      `yaml:"allow_waitlist"`
	Status        string     `yaml:"status"`
	Visibility    string     `yaml:"visibility"`
}

func Default() (*Fixture, error) {
	return Load(bytes.NewReader(defaultFixture))
}

func Load(r io.Reader) (*Fixture, error) {
	var fixture Fixture
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&fixture); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	return &fixture, nil
}

// Apply upserts the fixture: users by email, organisations by name, events
// by title within their organisation. It runs in one transaction.
func Apply(ctx context.Context, db *gorm.DB, fixture *Fixture, now time.Time, logger *slog.Logger) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := make(map[string]*models.User, len(fixture.Users))
		for _, uf := range fixture.Users {
			user, err := upsertUser(tx, uf)
			if err != nil {
				return err
			}
			users[uf.Email] = user
		}

		orgs := make(map[string]*models.Organisation, len(fixture.Organisations))
		for _, of := range fixture.Organisations {
			owner, ok := users[of.Owner]
			if !ok {
				return fmt.Errorf("organisation %q: unknown owner %q", of.Name, of.Owner)
			}
			org := models.Organisation{Name: of.Name}
			err := tx.Where(models.Organisation{Name: of.Name}).
				Assign(models.Organisation{Description: of.Description, Approved: of.Approved, OwnerID: owner.ID}).
				FirstOrCreate(&org).Error
			if err != nil {
				return fmt.Errorf("organisation %q: %w", of.Name, err)
			}
			orgs[of.Name] = &org
		}

		for _, uf := range fixture.Users {
			if uf.Organisation == "" {
				continue
			}
			org, ok := orgs[uf.Organisation]
			if !ok {
				return fmt.Errorf("user %q: unknown organisation %q", uf.Email, uf.Organisation)
			}
			if err := tx.Model(users[uf.Email]).Update("organisation_id", org.ID).Error; err != nil {
				return fmt.Errorf("user %q: %w", uf.Email, err)
			}
		}

		for _, ef := range fixture.Events {
			org, ok := orgs[ef.Organisation]
			if !ok {
				return fmt.Errorf("event %q: unknown organisation %q", ef.Title, ef.Organisation)
			}
			event, err := ef.build(org.ID, now)
			if err != nil {
				return fmt.Errorf("event %q: %w", ef.Title, err)
			}
			var existing models.Event
			err = tx.Where("organisation_id = ? AND title = ?", org.ID, ef.Title).First(&existing).Error
			switch {
			case err == nil:
				event.ID = existing.ID
				event.CreatedAt = existing.CreatedAt
				err = tx.Save(event).Error
			case errors.Is(err, gorm.ErrRecordNotFound):
				err = tx.Create(event).Error
			}
			if err != nil {
				return fmt.Errorf("event %q: %w", ef.Title, err)
			}
		}

		logger.Info("seed applied",
			"users", len(fixture.Users),
			"organisations", len(fixture.Organisations),
			"events", len(fixture.Events),
		)
		return nil
	})
}

func upsertUser(tx *gorm.DB, uf UserFixture) (*models.User, error) {
	role, ok := models.ParseRole(uf.Role)
	if !ok {
		return nil, fmt.Errorf("user %q: invalid role %q", uf.Email, uf.Role)
	}
	if uf.Password == "" {
		return nil, fmt.Errorf("user %q: password is required", uf.Email)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(uf.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("user %q: hash password: %w", uf.Email, err)
	}

	user := models.User{Email: uf.Email}
	err = tx.Where(models.User{Email: uf.Email}).
		Assign(models.User{Name: uf.Name, PasswordHash: string(hash), Role: role}).
		FirstOrCreate(&user).Error
	if err != nil {
		return nil, fmt.Errorf("user %q: %w", uf.Email, err)
	}
	return &user, nil
}

func (ef EventFixture) build(orgID uuid.UUID, now time.Time) (*models.Event, error) {
	var startAt time.Time
	switch {
	case ef.StartAt != nil:
		startAt = ef.StartAt.UTC()
	case ef.StartsIn != "":
		offset, err := time.ParseDuration(ef.StartsIn)
		if err != nil {
			return nil, fmt.Errorf("starts_in: %w", err)
		}
		startAt = now.Add(offset)
	default:
		return nil, errors.New("start_at or starts_in is required")
	}

	duration, err := time.ParseDuration(ef.Duration)
	if err != nil || duration <= 0 {
		return nil, fmt.Errorf("invalid duration %q", ef.Duration)
	}
	if ef.Capacity <= 0 {
		return nil, errors.New("capacity must be a positive integer")
	}

	status := models.EventStatus(ef.Status)
	switch status {
	case "":
		status = models.EventDraft
	case models.EventDraft, models.EventPublished, models.EventCancelled:
	default:
		return nil, fmt.Errorf("invalid status %q", ef.Status)
	}

	visibility := models.Visibility(ef.Visibility)
	switch visibility {
	case "":
		visibility = models.VisibilityPublic
	case models.VisibilityPublic, models.VisibilityPrivate:
	default:
		return nil, fmt.Errorf("invalid visibility %q", ef.Visibility)
	}

	allowWaitlist := true
	if ef.AllowWaitlist != nil {
		allowWaitlist = *ef.AllowWaitlist
	}

	return &models.Event{
		OrganisationID: orgID,
		Title:          ef.Title,
		Description:    ef.Description,
		Venue:          ef.Venue,
		StartAt:        startAt,
		EndAt:          startAt.Add(duration),
		Capacity:       ef.Capacity,
		AllowWaitlist:  allowWaitlist,
		Status:         status,
		Visibility:     visibility,
	}, nil
}
