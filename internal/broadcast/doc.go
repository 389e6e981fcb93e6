// Package broadcast provides process-local fan-out of live progress events
// to observers watching a session.
//
// # Registry
//
// The Registry maps a session ID to the set of currently-subscribed
// observers. It is payload-agnostic: Publish serializes whatever event it
// is handed and delivers the bytes to every observer of that session.
//
//	registry := broadcast.NewRegistry(logger)
//	registry.Subscribe(conn, sessionID)
//	registry.Publish(sessionID, broadcast.AssistantEnd())
//
// Delivery guarantees:
//
//   - Publishing to a session with no observers is a silent no-op
//   - A failed Send unsubscribes that observer without affecting the rest
//   - Events reach a single observer in publish order; no order is promised
//     across observers or across sessions
//
// # Events
//
// Two payload families are defined here, matching the wire contract:
//
//	{"type": "assistant_response", "action": "start"|"message"|"end", "data": {...}|null}
//	{"type": "file_update", "action": "upload"|"delete", "file_id": "..."}
//
// The registry itself does not interpret them; new event shapes can be
// published without touching this package.
package broadcast
