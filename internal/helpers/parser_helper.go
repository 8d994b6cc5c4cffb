package helpers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	eventSegment  = "EV"
	ticketSegment = "TK"
)

var ErrMalformedPayload = errors.New("malformed ticket payload")

func StringToInt(s string) (int, error) {
	return strconv.Atoi(s)
}

// ComposeTicketPayload builds the unsigned "EV:<event>|TK:<ticket>" reference.
func ComposeTicketPayload(eventID, ticketID uuid.UUID) string {
	return fmt.Sprintf("%s:%s|%s:%s", eventSegment, eventID.String(), ticketSegment, ticketID.String())
}

// ParseTicketPayload extracts the ids from verified payload data. Both
// segments must be present exactly once and hold canonical UUIDs, so no
// identifier can smuggle a delimiter.
func ParseTicketPayload(data string) (eventID, ticketID uuid.UUID, err error) {
	parts := strings.Split(data, "|")
	if len(parts) != 2 {
		return uuid.Nil, uuid.Nil, ErrMalformedPayload
	}

	values := make(map[string]string, 2)
	for _, part := range parts {
		key, value, ok := strings.Cut(part, ":")
		if !ok {
			return uuid.Nil, uuid.Nil, ErrMalformedPayload
		}
		if _, dup := values[key]; dup {
			return uuid.Nil, uuid.Nil, ErrMalformedPayload
		}
		values[key] = value
	}

	eventID, err = parseCanonicalUUID(values[eventSegment])
	if err != nil {
		return uuid.Nil, uuid.Nil, ErrMalformedPayload
	}
	ticketID, err = parseCanonicalUUID(values[ticketSegment])
	if err != nil {
		return uuid.Nil, uuid.Nil, ErrMalformedPayload
	}
	return eventID, ticketID, nil
}

// uuid.Parse also accepts urn and braced forms; payloads only carry the
// canonical 36-character form.
func parseCanonicalUUID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, err
	}
	if id.String() != s {
		return uuid.Nil, fmt.Errorf("non-canonical id %q", s)
	}
	return id, nil
}
