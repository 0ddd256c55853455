package runtime

import (
	"context"
	"log/slog"
	"sync"

	"stranger-chat/domain"
	"stranger-chat/domain/event"
	"stranger-chat/observability"

	"github.com/mama165/sdk-go/logs"
)

// recordingSink keeps every event it receives.
type recordingSink struct {
	mu     sync.Mutex
	events []event.Event
}

func (s *recordingSink) Consume(_ context.Context, e event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *recordingSink) Events() []event.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]event.Event(nil), s.events...)
}

func (s *recordingSink) Last() event.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.events) == 0 {
		return nil
	}
	return s.events[len(s.events)-1]
}

func newTestCoordinator() (*Coordinator, *observability.MonitoringManager) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	monitor := observability.NewMonitoringManager(log)
	return NewCoordinator(log, monitor), monitor
}

// join admits and registers a connection in one go.
func join(c *Coordinator, name string, gender domain.Gender) (domain.ConnID, *recordingSink) {
	id := domain.NewConnID()
	sink := &recordingSink{}
	c.Admit(id, sink)
	_ = c.Register(context.Background(), id, domain.Profile{DisplayName: name, Gender: gender, Avatar: name + ".png"})
	return id, sink
}
