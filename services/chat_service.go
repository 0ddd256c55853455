package services

import (
	"context"
	"fmt"
	"log/slog"

	"stranger-chat/contract"
	"stranger-chat/domain"
	"stranger-chat/domain/event"
	"stranger-chat/errors"
	"stranger-chat/moderation"
	"stranger-chat/protocol"
	"stranger-chat/runtime"
)

type IChatService interface {
	Connect(id domain.ConnID, sink contract.EventSink)
	Dispatch(ctx context.Context, id domain.ConnID, cmd protocol.Command) error
	ReportError(ctx context.Context, id domain.ConnID, err error)
	Leave(ctx context.Context, id domain.ConnID)
}

// ChatService sits between the transport and the coordinator. Every client
// command goes through Dispatch; protocol errors are reported back to the sender.
type ChatService struct {
	coordinator *runtime.Coordinator
	relay       *runtime.Relay
	moderator   *moderation.Moderator
	log         *slog.Logger
}

// NewChatService wires the service. A nil moderator leaves display names untouched.
func NewChatService(log *slog.Logger, coordinator *runtime.Coordinator, relay *runtime.Relay, moderator *moderation.Moderator) *ChatService {
	return &ChatService{coordinator: coordinator, relay: relay, moderator: moderator, log: log}
}

// Connect tracks a new transport connection.
func (s *ChatService) Connect(id domain.ConnID, sink contract.EventSink) {
	s.coordinator.Admit(id, sink)
}

// Dispatch runs a decoded command on behalf of id. A failing command is
// answered with an error event and its error returned.
func (s *ChatService) Dispatch(ctx context.Context, id domain.ConnID, cmd protocol.Command) error {
	var err error
	switch c := cmd.(type) {
	case protocol.JoinCommand:
		err = s.Join(ctx, id, c.Profile)
	case protocol.FindPartnerCommand:
		err = s.FindPartner(ctx, id, c.Preference)
	case protocol.RelayCommand:
		err = s.Send(ctx, id, c.Payload)
	case protocol.DisconnectCommand:
		s.Disconnect(ctx, id)
	case protocol.CancelSearchCommand:
		s.CancelSearch(id)
	default:
		err = fmt.Errorf("%w: %T", errors.ErrUnknownEvent, cmd)
	}
	if err != nil {
		s.ReportError(ctx, id, err)
	}
	return err
}

// ReportError sends the client readable form of err to id.
func (s *ChatService) ReportError(ctx context.Context, id domain.ConnID, err error) {
	s.log.Debug("Command rejected", "conn_id", id, "error", err)
	s.coordinator.Notify(ctx, id, event.ErrorOccurred{Message: errors.ToClientMessage(err)})
}

// Join registers the profile after censoring the display name.
func (s *ChatService) Join(ctx context.Context, id domain.ConnID, profile domain.Profile) error {
	if !profile.Gender.IsValid() || profile.DisplayName == "" {
		return fmt.Errorf("%w: %q", errors.ErrInvalidProfile, profile.DisplayName)
	}
	if s.moderator != nil {
		censored, words := s.moderator.Censor(profile.DisplayName)
		if len(words) > 0 {
			s.log.Info("Display name censored", "conn_id", id, "words", len(words))
			profile.DisplayName = censored
		}
	}
	return s.coordinator.Register(ctx, id, profile)
}

func (s *ChatService) FindPartner(ctx context.Context, id domain.ConnID, preference domain.Preference) error {
	_, err := s.coordinator.StartSearch(ctx, id, preference)
	return err
}

// CancelSearch is silently ignored when id is not searching.
func (s *ChatService) CancelSearch(id domain.ConnID) {
	s.coordinator.CancelSearch(id)
}

func (s *ChatService) Send(ctx context.Context, id domain.ConnID, payload domain.Payload) error {
	return s.relay.Forward(ctx, id, payload)
}

// Disconnect leaves the current conversation but keeps the connection open.
func (s *ChatService) Disconnect(ctx context.Context, id domain.ConnID) {
	s.coordinator.EndPairing(ctx, id)
}

// Leave releases a closed connection.
func (s *ChatService) Leave(ctx context.Context, id domain.ConnID) {
	s.coordinator.TeardownOnClose(ctx, id)
}
