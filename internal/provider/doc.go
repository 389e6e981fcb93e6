// Package provider defines the reasoning-provider contract used by the
// orchestration loop and its Anthropic Messages API implementation.
//
// The loop treats the provider as an opaque remote call: full ordered
// history in, an ordered sequence of content blocks out. Normalization
// happens here so the rest of the system only ever sees the closed block
// union from internal/content:
//
//   - text blocks with non-empty text are kept as Text
//   - thinking blocks keep their reasoning text and signature
//   - tool-use blocks pass through structurally (id, name, raw input)
//
// Failures (network, quota, malformed response) surface as a single
// wrapped error; retry policy, if any, belongs to the SDK client, not the
// loop.
package provider
