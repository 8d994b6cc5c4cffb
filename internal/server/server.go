package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/eventhub/eventhub/config"
	"github.com/eventhub/eventhub/internal/clock"
	"github.com/eventhub/eventhub/internal/handlers"
	"github.com/eventhub/eventhub/internal/helpers"
	"github.com/eventhub/eventhub/internal/middleware"
	"github.com/eventhub/eventhub/internal/models"
	"github.com/eventhub/eventhub/internal/services"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

// Start serves the API until ctx is cancelled, then drains in-flight
// requests.
func Start(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	db, err := config.InitDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	signer, err := helpers.NewPayloadSigner(cfg.QRSecret)
	if err != nil {
		return fmt.Errorf("failed to configure ticket signer: %w", err)
	}

	container := services.NewContainer(db, signer, clock.Real(), logger)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger))
	setupRoutes(r, container, cfg.JWTSecret)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "db_driver", cfg.DBDriver)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// NewRouter builds the API router without the process-level middleware.
func NewRouter(container *services.Container, jwtSecret string) *gin.Engine {
	r := gin.New()
	setupRoutes(r, container, jwtSecret)
	return r
}

func setupRoutes(r *gin.Engine, container *services.Container, jwtSecret string) {
	r.Use(middleware.ServicesMiddleware(container))

	public := r.Group("/v1")
	{
		public.GET("/health", handlers.HealthCheck)

		eventPublic := public.Group("/events")
		{
			eventPublic.GET("", handlers.ListEvents)
			eventPublic.GET("/:id", handlers.GetEvent)
		}
	}

	protected := r.Group("/v1")
	protected.Use(middleware.JWTAuthMiddleware(jwtSecret))
	{
		eventProtected := protected.Group("/events")
		{
			eventProtected.POST("/:id/rsvp", middleware.RequireCapability(models.CapRSVP), handlers.RSVP)
			eventProtected.GET("/:id/tickets", middleware.RequireCapability(models.CapViewRoster), handlers.ListEventTickets)
		}

		ticketProtected := protected.Group("/tickets")
		{
			ticketProtected.GET("/me", handlers.ListMyTickets)
			ticketProtected.GET("/:id/qr", handlers.GetTicketQR)
			ticketProtected.POST("/:id/cancel", handlers.CancelTicket)
		}

		protected.POST("/checkins/scan", middleware.RequireCapability(models.CapCheckIn), handlers.ScanTicket)
	}
}
