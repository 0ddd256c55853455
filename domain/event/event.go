package event

import "stranger-chat/domain"

type Type string

const (
	UserConnectedType       Type = "user_connected"
	PartnerFoundType        Type = "partner_found"
	PayloadType             Type = "payload"
	PartnerDisconnectedType Type = "partner_disconnected"
	ErrorType               Type = "error"
)

// Event is anything the server pushes to one connection.
type Event interface {
	Type() Type
}

type UserConnected struct{}

func (UserConnected) Type() Type { return UserConnectedType }

type PartnerFound struct {
	Partner domain.Profile
}

func (PartnerFound) Type() Type { return PartnerFoundType }

// PayloadRelayed carries a message, image or video coming from the partner.
type PayloadRelayed struct {
	Payload domain.Payload
}

func (PayloadRelayed) Type() Type { return PayloadType }

type PartnerDisconnected struct{}

func (PartnerDisconnected) Type() Type { return PartnerDisconnectedType }

type ErrorOccurred struct {
	Message string
}

func (ErrorOccurred) Type() Type { return ErrorType }
