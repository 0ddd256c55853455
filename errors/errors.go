package errors

import (
	"errors"
	"fmt"
)

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")
	ErrEmptyWords  = fmt.Errorf("no words have been found")

	ErrNotRegistered     = fmt.Errorf("profile not registered")
	ErrNotPaired         = fmt.Errorf("not paired with a partner")
	ErrTransportFailure  = fmt.Errorf("transport failure")
	ErrUnknownConnection = fmt.Errorf("unknown connection")
	ErrInvalidProfile    = fmt.Errorf("invalid profile")
	ErrInvalidPreference = fmt.Errorf("invalid preference")
	ErrMalformedEvent    = fmt.Errorf("malformed event")
	ErrUnknownEvent      = fmt.Errorf("unknown event type")

	ErrSinkClosed = fmt.Errorf("%w: sink closed", ErrTransportFailure)
	ErrSinkFull   = fmt.Errorf("%w: sink buffer full", ErrTransportFailure)
)

// ToClientMessage maps an error to the text sent back in an error event.
func ToClientMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotRegistered):
		return "Please submit your profile before searching for a partner"
	case errors.Is(err, ErrNotPaired):
		return "You are not connected to a partner"
	case errors.Is(err, ErrInvalidProfile):
		return "Invalid profile: " + detail(err, ErrInvalidProfile)
	case errors.Is(err, ErrInvalidPreference):
		return "Invalid preference, expected female, male, transgender or anyone"
	case errors.Is(err, ErrUnknownEvent):
		return "Unknown event type"
	case errors.Is(err, ErrMalformedEvent):
		return "Malformed event"
	case errors.Is(err, ErrUnknownConnection):
		return "Connection is closed"
	default:
		return "An error occurred"
	}
}

// detail strips the sentinel prefix added by fmt.Errorf("%w: ...").
func detail(err, sentinel error) string {
	msg := err.Error()
	prefix := sentinel.Error() + ": "
	if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
		return msg[len(prefix):]
	}
	return msg
}
