// Package content defines the typed content blocks that make up a
// conversation turn.
//
// A turn's payload is an ordered sequence of Block values. Each block is
// one of a closed set of variants, discriminated by a "type" field on the
// wire:
//
//   - Text: plain text
//   - Thinking: extended reasoning, with an optional signature
//   - ToolUse: a request to invoke a named tool with structured input
//   - ToolResult: the outcome of a tool invocation, linked by tool_use_id
//   - Image: an inline base64 image
//
// Blocks are persisted structurally (never flattened to strings) and the
// codec round-trips exactly: UnmarshalBlocks(MarshalBlocks(seq)) reproduces
// the same tagged-variant sequence, field for field.
package content
