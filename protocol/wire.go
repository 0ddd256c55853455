// Package protocol translates WebSocket JSON frames to commands and events to frames.
package protocol

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"

	"stranger-chat/domain"
	"stranger-chat/domain/event"
	"stranger-chat/errors"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

var validate = validator.New()

type CommandType string

const (
	UserInfoType     CommandType = "user_info"
	FindPartnerType  CommandType = "find_partner"
	MessageType      CommandType = "message"
	ImageType        CommandType = "image"
	VideoType        CommandType = "video"
	DisconnectType   CommandType = "disconnect"
	CancelSearchType CommandType = "cancel_search"
)

// Command is a decoded client frame.
type Command interface {
	Type() CommandType
}

type JoinCommand struct {
	Profile domain.Profile
}

func (JoinCommand) Type() CommandType { return UserInfoType }

type FindPartnerCommand struct {
	Preference domain.Preference
}

func (FindPartnerCommand) Type() CommandType { return FindPartnerType }

// RelayCommand covers message, image and video frames.
type RelayCommand struct {
	Payload domain.Payload
}

func (c RelayCommand) Type() CommandType { return CommandType(c.Payload.Kind) }

type DisconnectCommand struct{}

func (DisconnectCommand) Type() CommandType { return DisconnectType }

type CancelSearchCommand struct{}

func (CancelSearchCommand) Type() CommandType { return CancelSearchType }

// WireProfile is the user_info data object.
type WireProfile struct {
	Username     string `json:"username" validate:"required,max=64"`
	Gender       string `json:"gender" validate:"required,oneof=female male transgender"`
	ProfileImage string `json:"profileImage,omitempty"`
}

type inbound struct {
	Type       CommandType     `json:"type"`
	Data       json.RawMessage `json:"data,omitempty"`
	Preference string          `json:"preference,omitempty"`
	Message    string          `json:"message,omitempty"`
}

type outbound struct {
	Type    string       `json:"type"`
	Partner *WireProfile `json:"partner,omitempty"`
	Message *string      `json:"message,omitempty"`
	Data    *string      `json:"data,omitempty"`
}

// Decode parses a single client frame.
func Decode(frame []byte) (Command, error) {
	var in inbound
	if err := json.Unmarshal(frame, &in); err != nil {
		return nil, fmt.Errorf("%w: %s", errors.ErrMalformedEvent, err)
	}

	switch in.Type {
	case UserInfoType:
		return decodeProfile(in.Data)
	case FindPartnerType:
		preference, ok := domain.ParsePreference(in.Preference)
		if !ok {
			return nil, fmt.Errorf("%w: %q", errors.ErrInvalidPreference, in.Preference)
		}
		return FindPartnerCommand{Preference: preference}, nil
	case MessageType:
		return RelayCommand{Payload: domain.Payload{Kind: domain.TextPayload, Body: in.Message}}, nil
	case ImageType:
		return decodeMedia(domain.ImagePayload, in.Data)
	case VideoType:
		return decodeMedia(domain.VideoPayload, in.Data)
	case DisconnectType:
		return DisconnectCommand{}, nil
	case CancelSearchType:
		return CancelSearchCommand{}, nil
	case "":
		return nil, fmt.Errorf("%w: missing type", errors.ErrMalformedEvent)
	default:
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownEvent, in.Type)
	}
}

func decodeProfile(data json.RawMessage) (Command, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: missing data", errors.ErrInvalidProfile)
	}
	var wp WireProfile
	if err := json.Unmarshal(data, &wp); err != nil {
		return nil, fmt.Errorf("%w: %s", errors.ErrMalformedEvent, err)
	}
	wp.Username = strings.TrimSpace(wp.Username)
	wp.Gender = strings.ToLower(strings.TrimSpace(wp.Gender))

	if err := validate.Struct(wp); err != nil {
		return nil, fmt.Errorf("%w: %s", errors.ErrInvalidProfile, describe(err))
	}
	return JoinCommand{Profile: domain.Profile{
		DisplayName: wp.Username,
		Gender:      domain.Gender(wp.Gender),
		Avatar:      wp.ProfileImage,
	}}, nil
}

func decodeMedia(kind domain.PayloadKind, data json.RawMessage) (Command, error) {
	var blob string
	if err := json.Unmarshal(data, &blob); err != nil {
		return nil, fmt.Errorf("%w: %s data must be a string", errors.ErrMalformedEvent, kind)
	}
	return RelayCommand{Payload: domain.Payload{Kind: kind, Body: blob}}, nil
}

// describe turns validator errors into a short sentence for the client.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return err.Error()
	}
	return strings.Join(lo.Map(verrs, func(fe validator.FieldError, _ int) string {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			return field + " is required"
		case "max":
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		case "oneof":
			return fmt.Sprintf("%s must be one of %s", field, fe.Param())
		default:
			return field + " is invalid"
		}
	}), ", ")
}

// Encode renders an event as a server frame.
func Encode(e event.Event) ([]byte, error) {
	var out outbound
	switch ev := e.(type) {
	case event.UserConnected:
		out.Type = string(event.UserConnectedType)
	case event.PartnerFound:
		out.Type = string(event.PartnerFoundType)
		out.Partner = &WireProfile{
			Username:     ev.Partner.DisplayName,
			Gender:       string(ev.Partner.Gender),
			ProfileImage: ev.Partner.Avatar,
		}
	case event.PayloadRelayed:
		out.Type = string(ev.Payload.Kind)
		if ev.Payload.Kind == domain.TextPayload {
			out.Message = lo.ToPtr(ev.Payload.Body)
		} else {
			out.Data = lo.ToPtr(ev.Payload.Body)
		}
	case event.PartnerDisconnected:
		out.Type = string(event.PartnerDisconnectedType)
	case event.ErrorOccurred:
		out.Type = string(event.ErrorType)
		out.Message = lo.ToPtr(ev.Message)
	default:
		return nil, fmt.Errorf("%w: cannot encode %T", errors.ErrUnknownEvent, e)
	}
	return json.Marshal(out)
}
