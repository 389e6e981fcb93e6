// Package tools defines the tool-execution surface the agent can drive.
//
// A Collection registers Tool implementations by name and exposes the
// Executor interface the orchestration loop consumes: capability specs
// for the provider request, and synchronous Run by name.
//
// Failure philosophy: tool failures are conversation data, not program
// errors. An unknown tool name, a handler error, or a tool-reported
// failure all come back as a Result with Error set; the loop folds it
// into a tool_result block with is_error and keeps iterating so the
// provider can react.
package tools
