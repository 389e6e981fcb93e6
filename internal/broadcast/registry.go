// ABOUTME: In-memory per-session fan-out registry for live observers
// ABOUTME: Serializes events once and delivers to every observer of a session

package broadcast

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Observer is a live connection that can receive serialized events.
// Implementations must be safe for use from multiple goroutines; a Send
// error marks the observer dead and triggers automatic unsubscription.
type Observer interface {
	Send(data []byte) error
}

// Registry provides in-memory pub/sub keyed by session ID. It is
// constructed once and passed by reference to every consumer; there is no
// ambient singleton, so tests can substitute their own instance.
type Registry struct {
	mu        sync.RWMutex
	observers map[string]map[Observer]struct{} // sessionID -> observer set
	logger    *slog.Logger
}

// NewRegistry creates a registry. Pass nil logger for default.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		observers: make(map[string]map[Observer]struct{}),
		logger:    logger.With("component", "broadcast"),
	}
}

// Subscribe registers an observer under the session's observer set.
// Subscribing an already-registered observer is a no-op.
func (r *Registry) Subscribe(obs Observer, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.observers[sessionID]
	if !ok {
		set = make(map[Observer]struct{})
		r.observers[sessionID] = set
	}
	set[obs] = struct{}{}

	r.logger.Debug("observer subscribed", "session_id", sessionID, "observers", len(set))
}

// Unsubscribe removes an observer from the session's set. When the set
// becomes empty the session entry itself is removed so the map never
// accumulates dead sessions.
func (r *Registry) Unsubscribe(obs Observer, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.observers[sessionID]
	if !ok {
		return
	}
	if _, exists := set[obs]; !exists {
		return
	}

	delete(set, obs)
	if len(set) == 0 {
		delete(r.observers, sessionID)
	}

	r.logger.Debug("observer unsubscribed", "session_id", sessionID, "observers", len(set))
}

// DropSession removes the session's entire observer entry, detaching all
// of its observers at once. The observers themselves are not closed; a
// dropped connection simply receives no further events.
func (r *Registry) DropSession(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.observers[sessionID]
	if !ok {
		return
	}
	delete(r.observers, sessionID)

	r.logger.Debug("session dropped", "session_id", sessionID, "observers", len(set))
}

// Publish serializes the event once and delivers it to every observer
// currently registered for the session. No observers is a silent no-op.
// An observer whose Send fails is unsubscribed; the failure never prevents
// delivery to the remaining observers or propagates to the caller.
func (r *Registry) Publish(sessionID string, event any) {
	data, err := json.Marshal(event)
	if err != nil {
		r.logger.Error("failed to serialize event", "session_id", sessionID, "error", err)
		return
	}

	// Snapshot the set under the read lock so sends happen unlocked.
	r.mu.RLock()
	set, ok := r.observers[sessionID]
	if !ok || len(set) == 0 {
		r.mu.RUnlock()
		return
	}
	targets := make([]Observer, 0, len(set))
	for obs := range set {
		targets = append(targets, obs)
	}
	r.mu.RUnlock()

	var dead []Observer
	for _, obs := range targets {
		if err := obs.Send(data); err != nil {
			r.logger.Warn("dropping failed observer", "session_id", sessionID, "error", err)
			dead = append(dead, obs)
		}
	}

	for _, obs := range dead {
		r.Unsubscribe(obs, sessionID)
	}
}

// ObserverCount returns the number of observers registered for a session.
func (r *Registry) ObserverCount(sessionID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.observers[sessionID])
}
