package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/eventhub/eventhub/internal/services"
	"github.com/gin-gonic/gin"
)

func TestRespondServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		err  error
		want int
	}{
		{services.ErrEventNotFound, http.StatusNotFound},
		{services.ErrTicketNotFound, http.StatusNotFound},
		{services.ErrEventUnavailable, http.StatusBadRequest},
		{services.ErrEventEnded, http.StatusBadRequest},
		{services.ErrAlreadyRegistered, http.StatusConflict},
		{services.ErrEventFull, http.StatusConflict},
		{services.ErrTicketCheckedIn, http.StatusConflict},
		{services.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("rsvp: %w", services.ErrEventFull), http.StatusConflict},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		respondServiceError(c, tt.err, "fallback")
		if w.Code != tt.want {
			t.Errorf("%v: status = %d, want %d", tt.err, w.Code, tt.want)
		}
	}
}
