// ABOUTME: ReasoningProvider contract consumed by the orchestration loop
// ABOUTME: One synchronous call: full history in, normalized content blocks out

package provider

import (
	"context"
	"encoding/json"

	"github.com/2389/coven-desk/internal/content"
)

// ToolSpec declares one tool capability advertised to the provider.
type ToolSpec struct {
	Name        string
	Description string
	InputSchema json.RawMessage // JSON Schema for the tool's input object
}

// Exchange is one history entry projected verbatim into the provider's
// request shape: the persisted role plus the persisted content blocks.
type Exchange struct {
	Role    string
	Content []content.Block
}

// Request carries everything a completion call needs. The orchestration
// loop builds one per iteration from the full ordered session history.
type Request struct {
	System    string
	Tools     []ToolSpec
	History   []Exchange
	Model     string
	MaxTokens int64
}

// Provider is the external reasoning/tool-selection service. Complete is
// synchronous from the caller's perspective; a returned error aborts the
// whole invocation (no retry happens at this layer).
type Provider interface {
	Complete(ctx context.Context, req Request) ([]content.Block, error)
}
