package runtime

import (
	"context"
	"log/slog"

	"stranger-chat/domain"
	"stranger-chat/domain/event"
	"stranger-chat/errors"
	"stranger-chat/observability"
)

// Relay forwards chat and media payloads between two paired connections.
type Relay struct {
	coordinator *Coordinator
	monitor     *observability.MonitoringManager
	log         *slog.Logger
}

func NewRelay(log *slog.Logger, coordinator *Coordinator, monitor *observability.MonitoringManager) *Relay {
	return &Relay{coordinator: coordinator, monitor: monitor, log: log}
}

// Forward hands the payload, untouched, to the partner of from.
// ErrNotPaired is returned when from has no partner. Delivery is best effort:
// a full or closed partner sink is logged and the payload is dropped.
func (r *Relay) Forward(ctx context.Context, from domain.ConnID, payload domain.Payload) error {
	delivered, err := r.deliver(ctx, from, payload)
	if err != nil {
		return err
	}
	if delivered {
		r.monitor.RecordRelayed(payload)
	}
	return nil
}

func (r *Relay) deliver(ctx context.Context, from domain.ConnID, payload domain.Payload) (bool, error) {
	r.coordinator.mu.RLock()
	defer r.coordinator.mu.RUnlock()

	partner, ok := r.coordinator.pairs[from]
	if !ok {
		return false, errors.ErrNotPaired
	}
	s, ok := r.coordinator.sessions[partner]
	if !ok {
		return false, errors.ErrNotPaired
	}
	if err := s.sink.Consume(ctx, event.PayloadRelayed{Payload: payload}); err != nil {
		r.monitor.IncrTransportFailures()
		r.log.Warn("Payload dropped", "conn_id", from, "partner_id", partner, "kind", payload.Kind, "error", err)
		return false, nil
	}
	return true, nil
}
