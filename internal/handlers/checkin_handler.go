package handlers

import (
	"net/http"

	"github.com/eventhub/eventhub/internal/helpers"
	"github.com/gin-gonic/gin"
)

type ScanRequest struct {
	Payload string `json:"payload"`
}

// ScanTicket checks a ticket in from its scanned QR payload. Rejections are
// reported as valid=false without saying which check failed.
func ScanTicket(c *gin.Context) {
	_, svc, ok := requestContext(c)
	if !ok {
		return
	}

	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid request payload.")
		return
	}
	if req.Payload == "" {
		c.JSON(http.StatusBadRequest, gin.H{"valid": false, "message": "Missing payload."})
		return
	}

	result, err := svc.CheckIn.CheckIn(c.Request.Context(), req.Payload)
	if err != nil {
		respondServiceError(c, err, "Failed to validate ticket.")
		return
	}
	if !result.Valid {
		c.JSON(http.StatusBadRequest, gin.H{"valid": false, "message": "Invalid ticket."})
		return
	}

	c.JSON(http.StatusOK, result)
}
