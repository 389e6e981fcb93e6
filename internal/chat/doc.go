// Package chat implements the orchestration loop at the heart of
// coven-desk: an operator message goes in, and the service drives provider
// rounds and tool executions until the assistant's response is fully
// resolved.
//
// The loop's shape: persist the user turn, then repeat up to the iteration
// cap — send the complete ordered history to the provider, persist the
// assistant turn exactly as returned, publish each block's projection to
// the session's observers, run every requested tool, and feed all results
// back as a single user-role turn. The loop stops naturally on the first
// round with no tool requests.
//
// Invariants the rest of the system leans on: turns are immutable once
// appended; the history sent to the provider is a verbatim projection of
// the persisted log, never reordered or synthesized; submissions to one
// session are serialized behind a per-session guard; and each submission
// produces exactly one terminal end event, whether it succeeded or failed.
package chat
