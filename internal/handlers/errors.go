package handlers

import (
	"errors"
	"net/http"

	"github.com/eventhub/eventhub/internal/helpers"
	"github.com/eventhub/eventhub/internal/services"
	"github.com/gin-gonic/gin"
)

// respondServiceError maps service errors to HTTP responses. Unknown errors
// are infrastructure failures and are reported generically.
func respondServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrEventNotFound):
		helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
	case errors.Is(err, services.ErrTicketNotFound):
		helpers.RespondWithError(c, http.StatusNotFound, "Ticket not found.")
	case errors.Is(err, services.ErrEventUnavailable):
		helpers.RespondWithError(c, http.StatusBadRequest, "Event not available.")
	case errors.Is(err, services.ErrEventEnded):
		helpers.RespondWithError(c, http.StatusBadRequest, "Cannot RSVP to past events.")
	case errors.Is(err, services.ErrAlreadyRegistered):
		helpers.RespondWithError(c, http.StatusConflict, "Already RSVP'd.")
	case errors.Is(err, services.ErrEventFull):
		helpers.RespondWithError(c, http.StatusConflict, "Event is full.")
	case errors.Is(err, services.ErrTicketCheckedIn):
		helpers.RespondWithError(c, http.StatusConflict, "Checked-in tickets cannot be cancelled.")
	case errors.Is(err, services.ErrForbidden):
		helpers.RespondWithError(c, http.StatusForbidden, "You don't have permission to access this resource.")
	default:
		_ = c.Error(err)
		helpers.RespondWithError(c, http.StatusInternalServerError, fallback)
	}
}
