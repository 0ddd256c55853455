// Package runtime owns the shared matchmaking state: connected users, the
// waiting pool and the live pairings. It contains no transport code.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"stranger-chat/contract"
	"stranger-chat/domain"
	"stranger-chat/domain/event"
	"stranger-chat/errors"
	"stranger-chat/observability"
)

type session struct {
	sink  contract.EventSink
	state domain.SessionState
}

// Coordinator handles search, pairing and teardown for every connection.
//
// Registry, waiting pool, pairings and session states form a single critical
// section guarded by mu. Events are emitted while holding the lock, which is
// fine because EventSink.Consume never blocks.
type Coordinator struct {
	mu       sync.RWMutex
	log      *slog.Logger
	monitor  *observability.MonitoringManager
	registry *Registry
	pool     *WaitingPool
	pairs    map[domain.ConnID]domain.ConnID
	sessions map[domain.ConnID]*session
}

func NewCoordinator(log *slog.Logger, monitor *observability.MonitoringManager) *Coordinator {
	return &Coordinator{
		log:      log,
		monitor:  monitor,
		registry: NewRegistry(),
		pool:     NewWaitingPool(),
		pairs:    make(map[domain.ConnID]domain.ConnID),
		sessions: make(map[domain.ConnID]*session),
	}
}

// Admit tracks a freshly accepted connection. It starts Idle and without profile.
func (c *Coordinator) Admit(id domain.ConnID, sink contract.EventSink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[id] = &session{sink: sink, state: domain.Idle}
	c.monitor.IncrConnections()
	c.log.Debug("Connection admitted", "conn_id", id)
}

// Register attaches a profile to the connection and confirms it with UserConnected.
func (c *Coordinator) Register(ctx context.Context, id domain.ConnID, profile domain.Profile) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.sessions[id]; !ok {
		return errors.ErrUnknownConnection
	}
	c.registry.Register(id, profile)
	// a waiting user is matched on the profile it has now
	c.pool.Refresh(id, profile)
	c.log.Info(fmt.Sprintf("User %s joined", profile.DisplayName), "conn_id", id, "gender", profile.Gender)
	c.notify(ctx, id, event.UserConnected{})
	return nil
}

// StartSearch leaves any current conversation, enters the waiting pool and
// immediately tries to pair with the longest waiting compatible user.
// It never waits for a partner to show up: paired is false when the
// connection stays Searching.
func (c *Coordinator) StartSearch(ctx context.Context, id domain.ConnID, preference domain.Preference) (paired bool, err error) {
	if !preference.IsValid() {
		return false, fmt.Errorf("%w: %q", errors.ErrInvalidPreference, preference)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.sessions[id]
	if !ok {
		return false, errors.ErrUnknownConnection
	}
	profile, ok := c.registry.Lookup(id)
	if !ok {
		return false, errors.ErrNotRegistered
	}

	c.unpair(ctx, id)
	c.pool.Enter(id, profile, preference)
	s.state = domain.Searching
	c.monitor.IncrSearches()

	candidate, found := c.pool.ScanFor(id, profile, preference)
	if !found {
		c.log.Debug("No partner available, waiting", "conn_id", id, "preference", preference)
		return false, nil
	}

	c.pair(ctx, id, profile, candidate)
	return true, nil
}

// CancelSearch removes a searching connection from the pool. It is a no-op in any other state.
func (c *Coordinator) CancelSearch(id domain.ConnID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.sessions[id]
	if !ok || s.state != domain.Searching {
		return false
	}
	c.pool.Leave(id)
	s.state = domain.Idle
	c.log.Debug("Search cancelled", "conn_id", id)
	return true
}

// EndPairing tears down the pairing of id and warns the former partner.
// It is a no-op when id is not paired.
func (c *Coordinator) EndPairing(ctx context.Context, id domain.ConnID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unpair(ctx, id)
}

// TeardownOnClose releases everything held by a closed connection.
// Calling it twice is harmless.
func (c *Coordinator) TeardownOnClose(ctx context.Context, id domain.ConnID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.sessions[id]
	if !ok {
		return
	}
	switch s.state {
	case domain.Paired:
		c.unpair(ctx, id)
	case domain.Searching:
		c.pool.Leave(id)
	}
	c.registry.Unregister(id)
	s.state = domain.Disconnected
	delete(c.sessions, id)
	c.log.Debug("Connection released", "conn_id", id)
}

// Notify pushes an event to a single connection, typically an error event.
func (c *Coordinator) Notify(ctx context.Context, id domain.ConnID, e event.Event) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	c.notify(ctx, id, e)
}

// State reports Disconnected for connections that are closed or were never admitted.
func (c *Coordinator) State(id domain.ConnID) domain.SessionState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if s, ok := c.sessions[id]; ok {
		return s.state
	}
	return domain.Disconnected
}

func (c *Coordinator) Partner(id domain.ConnID) (domain.ConnID, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	partner, ok := c.pairs[id]
	return partner, ok
}

func (c *Coordinator) Profile(id domain.ConnID) (domain.Profile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.registry.Lookup(id)
}

func (c *Coordinator) Gauges() observability.Gauges {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return observability.Gauges{
		Connections: len(c.sessions),
		Registered:  c.registry.Len(),
		Waiting:     c.pool.Len(),
		ActivePairs: len(c.pairs) / 2,
	}
}

// Stats is the full snapshot served on /stats and logged by the stats reporter.
func (c *Coordinator) Stats() observability.MonitoringStats {
	return c.monitor.Snapshot(c.Gauges())
}

// SessionView is a read-only copy of one connection, used by the debug inspector.
type SessionView struct {
	ID          domain.ConnID
	Profile     domain.Profile
	Registered  bool
	State       domain.SessionState
	Partner     domain.ConnID
	Preference  domain.Preference
	WaitingRank int
}

// Sessions lists every live connection. WaitingRank is the 1-based position in
// the waiting pool, 0 when not waiting.
func (c *Coordinator) Sessions() []SessionView {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ranks := make(map[domain.ConnID]WaitingEntry)
	order := make(map[domain.ConnID]int)
	for i, entry := range c.pool.Entries() {
		ranks[entry.Conn] = entry
		order[entry.Conn] = i + 1
	}

	views := make([]SessionView, 0, len(c.sessions))
	for id, s := range c.sessions {
		profile, registered := c.registry.Lookup(id)
		views = append(views, SessionView{
			ID:          id,
			Profile:     profile,
			Registered:  registered,
			State:       s.state,
			Partner:     c.pairs[id],
			Preference:  ranks[id].Preference,
			WaitingRank: order[id],
		})
	}
	slices.SortFunc(views, func(a, b SessionView) int { return strings.Compare(string(a.ID), string(b.ID)) })
	return views
}

// pair links id with candidate. Must be called with mu held.
func (c *Coordinator) pair(ctx context.Context, id domain.ConnID, profile domain.Profile, candidate WaitingEntry) {
	c.pool.Leave(id)
	c.pool.Leave(candidate.Conn)
	c.pairs[id] = candidate.Conn
	c.pairs[candidate.Conn] = id
	c.sessions[id].state = domain.Paired
	c.sessions[candidate.Conn].state = domain.Paired

	partnerProfile, ok := c.registry.Lookup(candidate.Conn)
	if !ok {
		partnerProfile = candidate.Profile
	}
	c.notify(ctx, id, event.PartnerFound{Partner: partnerProfile})
	c.notify(ctx, candidate.Conn, event.PartnerFound{Partner: profile})

	c.monitor.IncrPairings()
	c.log.Info("Partners paired", "conn_id", id, "partner_id", candidate.Conn)
}

// unpair clears both sides of the pairing of id at once. Must be called with mu held.
func (c *Coordinator) unpair(ctx context.Context, id domain.ConnID) bool {
	partner, ok := c.pairs[id]
	if !ok {
		return false
	}
	delete(c.pairs, id)
	delete(c.pairs, partner)

	if s, ok := c.sessions[id]; ok {
		s.state = domain.Idle
	}
	if ps, ok := c.sessions[partner]; ok {
		ps.state = domain.Idle
		c.notify(ctx, partner, event.PartnerDisconnected{})
	}

	c.monitor.IncrPairingsEnded()
	c.log.Info("Pairing ended", "conn_id", id, "partner_id", partner)
	return true
}

// notify delivers e to id. Failures are counted and swallowed: the receiving
// side detects its own broken transport and tears itself down.
func (c *Coordinator) notify(ctx context.Context, id domain.ConnID, e event.Event) {
	s, ok := c.sessions[id]
	if !ok {
		return
	}
	if err := s.sink.Consume(ctx, e); err != nil {
		c.monitor.IncrTransportFailures()
		c.log.Warn("Failed to deliver event", "conn_id", id, "event", e.Type(), "error", err)
	}
}
