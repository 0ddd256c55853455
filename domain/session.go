package domain

import "github.com/google/uuid"

// ConnID identifies one live connection for its whole lifetime.
type ConnID string

func NewConnID() ConnID {
	return ConnID(uuid.NewString())
}

func (id ConnID) String() string { return string(id) }

type SessionState int

const (
	Idle SessionState = iota
	Searching
	Paired
	Disconnected
)

func (s SessionState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Searching:
		return "searching"
	case Paired:
		return "paired"
	case Disconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}
