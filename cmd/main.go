package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eventhub/eventhub/config"
	"github.com/eventhub/eventhub/internal/clock"
	"github.com/eventhub/eventhub/internal/middleware"
	"github.com/eventhub/eventhub/internal/models"
	"github.com/eventhub/eventhub/internal/seed"
	"github.com/eventhub/eventhub/internal/server"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

const usage = `usage: eventhub <command> [flags]

commands:
  serve   run the HTTP API
  seed    load demo organisations, users and events
  token   mint a bearer token for local testing
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("eventhub: %v", err)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return errors.New("missing command")
	}

	command, args := args[0], args[1:]
	flagSet := pflag.NewFlagSet(command, pflag.ContinueOnError)
	envFile := flagSet.String("env-file", ".env", "dotenv file to load before reading the environment")

	switch command {
	case "serve":
		if err := parseFlags(flagSet, args, envFile); err != nil {
			return err
		}
		return serve()
	case "seed":
		fixturePath := flagSet.String("file", "", "YAML fixture to load (default: built-in demo data)")
		if err := parseFlags(flagSet, args, envFile); err != nil {
			return err
		}
		return seedDatabase(*fixturePath)
	case "token":
		userID := flagSet.String("user", "", "user id to embed in the token")
		role := flagSet.String("role", string(models.RoleStudent), "role: student, organiser or admin")
		orgID := flagSet.String("org", "", "organisation id for organisers")
		ttl := flagSet.Duration("ttl", 24*time.Hour, "token lifetime")
		if err := parseFlags(flagSet, args, envFile); err != nil {
			return err
		}
		return mintToken(*userID, *role, *orgID, *ttl)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

// parseFlags parses args and loads the dotenv file. A missing dotenv file is
// fine; the environment may already be populated.
func parseFlags(flagSet *pflag.FlagSet, args []string, envFile *string) error {
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", *envFile, err)
	}
	return nil
}

func serve() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := config.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.Start(ctx, cfg, logger)
}

func seedDatabase(fixturePath string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := config.NewLogger(cfg)

	fixture, err := loadFixture(fixturePath)
	if err != nil {
		return err
	}

	db, err := config.InitDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	return seed.Apply(context.Background(), db, fixture, clock.Real().Now(), logger)
}

func loadFixture(path string) (*seed.Fixture, error) {
	if path == "" {
		return seed.Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return seed.Load(f)
}

func mintToken(userID, role, orgID string, ttl time.Duration) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	id, err := uuid.Parse(userID)
	if err != nil {
		return fmt.Errorf("invalid --user: %w", err)
	}
	parsedRole, ok := models.ParseRole(role)
	if !ok {
		return fmt.Errorf("invalid --role %q", role)
	}
	identity := models.Identity{UserID: id, Role: parsedRole}
	if orgID != "" {
		org, err := uuid.Parse(orgID)
		if err != nil {
			return fmt.Errorf("invalid --org: %w", err)
		}
		identity.OrganisationID = &org
	}

	token, err := middleware.IssueToken(cfg.JWTSecret, identity, ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
