package services

import "errors"

var (
	ErrEventNotFound     = errors.New("event not found")
	ErrEventUnavailable  = errors.New("event not available")
	ErrEventEnded        = errors.New("cannot RSVP to past events")
	ErrAlreadyRegistered = errors.New("already RSVP'd to this event")
	ErrEventFull         = errors.New("event is full and has no waitlist")
	ErrTicketNotFound    = errors.New("ticket not found")
	ErrTicketCheckedIn   = errors.New("checked-in tickets cannot be cancelled")
	ErrForbidden         = errors.New("not permitted")
)
