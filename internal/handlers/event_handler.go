package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/eventhub/eventhub/internal/helpers"
	"github.com/eventhub/eventhub/internal/middleware"
	"github.com/eventhub/eventhub/internal/models"
	"github.com/eventhub/eventhub/internal/repositories"
	"github.com/gin-gonic/gin"
)

func GetEvent(c *gin.Context) {
	eventID, ok := pathUUID(c, "id", "event")
	if !ok {
		return
	}

	svc := middleware.GetServices(c)
	if svc == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Services not configured.")
		return
	}

	event, err := svc.Events.GetByID(c.Request.Context(), eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
			return
		}
		_ = c.Error(err)
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving event.")
		return
	}

	c.JSON(http.StatusOK, event)
}

func ListEvents(c *gin.Context) {
	svc := middleware.GetServices(c)
	if svc == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Services not configured.")
		return
	}

	filter := repositories.EventFilter{Search: c.Query("q")}

	if limit := c.Query("limit"); limit != "" {
		limitNum, err := helpers.StringToInt(limit)
		if err != nil || limitNum < 1 {
			helpers.RespondWithError(c, http.StatusBadRequest, "Invalid limit.")
			return
		}
		filter.Limit = limitNum
	}

	if from := c.Query("from"); from != "" {
		startFrom, err := time.Parse(time.RFC3339, from)
		if err != nil {
			helpers.RespondWithError(c, http.StatusBadRequest, "Invalid start time format.")
			return
		}
		filter.StartFrom = &startFrom
	}

	events, err := svc.Events.ListPublished(c.Request.Context(), filter)
	if err != nil {
		_ = c.Error(err)
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving events.")
		return
	}
	if events == nil {
		events = []models.Event{}
	}

	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"total":  len(events),
	})
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
