package handlers

import (
	"net/http"

	"github.com/eventhub/eventhub/internal/helpers"
	"github.com/eventhub/eventhub/internal/middleware"
	"github.com/eventhub/eventhub/internal/models"
	"github.com/eventhub/eventhub/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// requestContext pulls the caller identity and services every ticket
// handler needs. It writes the error response itself when either is missing.
func requestContext(c *gin.Context) (models.Identity, *services.Container, bool) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
		return models.Identity{}, nil, false
	}
	svc := middleware.GetServices(c)
	if svc == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Services not configured.")
		return models.Identity{}, nil, false
	}
	return identity, svc, true
}

func pathUUID(c *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid "+label+" ID.")
		return uuid.Nil, false
	}
	return id, true
}

func RSVP(c *gin.Context) {
	identity, svc, ok := requestContext(c)
	if !ok {
		return
	}
	eventID, ok := pathUUID(c, "id", "event")
	if !ok {
		return
	}

	result, err := svc.RSVP.RSVP(c.Request.Context(), eventID, identity.UserID)
	if err != nil {
		respondServiceError(c, err, "Failed to RSVP.")
		return
	}

	status := http.StatusCreated
	if result.Reactivated {
		status = http.StatusOK
	}
	c.JSON(status, result)
}

func ListMyTickets(c *gin.Context) {
	identity, svc, ok := requestContext(c)
	if !ok {
		return
	}

	tickets, err := svc.Tickets.ListMine(c.Request.Context(), identity.UserID)
	if err != nil {
		respondServiceError(c, err, "Error retrieving tickets.")
		return
	}
	if tickets == nil {
		tickets = []models.Ticket{}
	}

	c.JSON(http.StatusOK, tickets)
}

func GetTicketQR(c *gin.Context) {
	identity, svc, ok := requestContext(c)
	if !ok {
		return
	}
	ticketID, ok := pathUUID(c, "id", "ticket")
	if !ok {
		return
	}

	png, err := svc.Tickets.QRImage(c.Request.Context(), ticketID, identity)
	if err != nil {
		respondServiceError(c, err, "Failed to generate QR code.")
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

func CancelTicket(c *gin.Context) {
	identity, svc, ok := requestContext(c)
	if !ok {
		return
	}
	ticketID, ok := pathUUID(c, "id", "ticket")
	if !ok {
		return
	}

	ticket, err := svc.RSVP.Cancel(c.Request.Context(), ticketID, identity.UserID)
	if err != nil {
		respondServiceError(c, err, "Failed to cancel ticket.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Cancelled.",
		"ticket_id": ticket.ID,
		"status":    ticket.Status,
	})
}

func ListEventTickets(c *gin.Context) {
	identity, svc, ok := requestContext(c)
	if !ok {
		return
	}
	eventID, ok := pathUUID(c, "id", "event")
	if !ok {
		return
	}

	tickets, err := svc.Tickets.Roster(c.Request.Context(), eventID, identity)
	if err != nil {
		respondServiceError(c, err, "Error retrieving tickets.")
		return
	}
	if tickets == nil {
		tickets = []models.Ticket{}
	}

	c.JSON(http.StatusOK, tickets)
}
