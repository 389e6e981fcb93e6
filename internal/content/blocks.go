// ABOUTME: Closed tagged union of conversation content blocks with a JSON codec
// ABOUTME: Text, Thinking, ToolUse, ToolResult and Image variants round-trip exactly

package content

import (
	"encoding/json"
	"fmt"
)

// Block type discriminators as stored in the JSON "type" field.
const (
	TypeText       = "text"
	TypeThinking   = "thinking"
	TypeToolUse    = "tool_use"
	TypeToolResult = "tool_result"
	TypeImage      = "image"
)

// Block is one typed unit of a turn's payload. The set of implementations
// is closed: Text, Thinking, ToolUse, ToolResult, Image.
type Block interface {
	json.Marshaler

	// BlockType returns the discriminator string for this variant.
	BlockType() string

	isBlock()
}

// Text is a plain text block.
type Text struct {
	Text string `json:"text"`
}

func (Text) BlockType() string { return TypeText }
func (Text) isBlock()          {}

func (b Text) MarshalJSON() ([]byte, error) {
	type alias Text
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{TypeText, alias(b)})
}

// Thinking carries extended reasoning text and an optional verification
// signature returned by the provider.
type Thinking struct {
	Thinking  string `json:"thinking"`
	Signature string `json:"signature,omitempty"`
}

func (Thinking) BlockType() string { return TypeThinking }
func (Thinking) isBlock()          {}

func (b Thinking) MarshalJSON() ([]byte, error) {
	type alias Thinking
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{TypeThinking, alias(b)})
}

// ToolUse is a provider request to invoke a named tool. Input is kept as
// raw JSON so provider-specific shapes pass through structurally unchanged.
type ToolUse struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

func (ToolUse) BlockType() string { return TypeToolUse }
func (ToolUse) isBlock()          {}

func (b ToolUse) MarshalJSON() ([]byte, error) {
	type alias ToolUse
	a := alias(b)
	if a.Input == nil {
		a.Input = json.RawMessage(`{}`)
	}
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{TypeToolUse, a})
}

// ToolResult carries the outcome of a tool invocation back to the provider.
// Content is either a bare string (error results) or an ordered list of
// text/image parts.
type ToolResult struct {
	ToolUseID string        `json:"tool_use_id"`
	Content   ResultContent `json:"content"`
	IsError   bool          `json:"is_error"`
}

func (ToolResult) BlockType() string { return TypeToolResult }
func (ToolResult) isBlock()          {}

func (b ToolResult) MarshalJSON() ([]byte, error) {
	type alias ToolResult
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{TypeToolResult, alias(b)})
}

// Image is an inline image payload.
type Image struct {
	Source ImageSource `json:"source"`
}

func (Image) BlockType() string { return TypeImage }
func (Image) isBlock()          {}

func (b Image) MarshalJSON() ([]byte, error) {
	type alias Image
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{TypeImage, alias(b)})
}

// ImageSource describes an inline image, base64-encoded.
type ImageSource struct {
	Type      string `json:"type"`       // "base64"
	MediaType string `json:"media_type"` // e.g. "image/png"
	Data      string `json:"data"`
}

// Base64PNG builds an ImageSource for base64-encoded PNG data.
func Base64PNG(data string) ImageSource {
	return ImageSource{Type: "base64", MediaType: "image/png", Data: data}
}

// ResultContent is the payload of a ToolResult: either a bare string or an
// ordered sequence of parts. The two shapes are distinguished on the wire
// (JSON string vs JSON array) and round-trip without loss.
type ResultContent struct {
	str   *string
	parts []ResultPart
}

// StringContent wraps a bare string result (the error-path shape).
func StringContent(s string) ResultContent {
	return ResultContent{str: &s}
}

// PartsContent wraps an ordered list of result parts. An empty call yields
// a valid empty sequence, not a null.
func PartsContent(parts ...ResultPart) ResultContent {
	if parts == nil {
		parts = []ResultPart{}
	}
	return ResultContent{parts: parts}
}

// AsString returns the bare string payload, if this content is string-shaped.
func (c ResultContent) AsString() (string, bool) {
	if c.str == nil {
		return "", false
	}
	return *c.str, true
}

// Parts returns the part sequence, nil when the content is string-shaped.
func (c ResultContent) Parts() []ResultPart { return c.parts }

func (c ResultContent) MarshalJSON() ([]byte, error) {
	if c.str != nil {
		return json.Marshal(*c.str)
	}
	parts := c.parts
	if parts == nil {
		parts = []ResultPart{}
	}
	return json.Marshal(parts)
}

func (c *ResultContent) UnmarshalJSON(data []byte) error {
	trimmed := trimLeadingSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = ResultContent{str: &s}
		return nil
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}
	parts := make([]ResultPart, 0, len(raws))
	for _, raw := range raws {
		part, err := decodePart(raw)
		if err != nil {
			return err
		}
		parts = append(parts, part)
	}
	*c = ResultContent{parts: parts}
	return nil
}

// ResultPart is one element of a structured tool result: TextPart or ImagePart.
type ResultPart interface {
	json.Marshaler
	isPart()
}

// TextPart is the text element of a structured tool result.
type TextPart struct {
	Text string `json:"text"`
}

func (TextPart) isPart() {}

func (p TextPart) MarshalJSON() ([]byte, error) {
	type alias TextPart
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{TypeText, alias(p)})
}

// ImagePart is the image element of a structured tool result.
type ImagePart struct {
	Source ImageSource `json:"source"`
}

func (ImagePart) isPart() {}

func (p ImagePart) MarshalJSON() ([]byte, error) {
	type alias ImagePart
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{TypeImage, alias(p)})
}

// MarshalBlocks encodes an ordered block sequence as a JSON array.
func MarshalBlocks(blocks []Block) ([]byte, error) {
	if blocks == nil {
		blocks = []Block{}
	}
	return json.Marshal(blocks)
}

// UnmarshalBlocks decodes a JSON array back into the tagged-variant
// sequence that was encoded. Unknown discriminators fail the whole decode;
// callers decide whether that is fatal (history reads skip the row).
func UnmarshalBlocks(data []byte) ([]Block, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("decoding block array: %w", err)
	}
	blocks := make([]Block, 0, len(raws))
	for i, raw := range raws {
		block, err := decodeBlock(raw)
		if err != nil {
			return nil, fmt.Errorf("decoding block %d: %w", i, err)
		}
		blocks = append(blocks, block)
	}
	return blocks, nil
}

func decodeBlock(raw json.RawMessage) (Block, error) {
	var tag struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &tag); err != nil {
		return nil, err
	}

	switch tag.Type {
	case TypeText:
		var b Text
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, err
		}
		return b, nil
	case TypeThinking:
		var b Thinking
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, err
		}
		return b, nil
	case TypeToolUse:
		var b ToolUse
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, err
		}
		return b, nil
	case TypeToolResult:
		var b ToolResult
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, err
		}
		return b, nil
	case TypeImage:
		var b Image
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown block type %q", tag.Type)
	}
}

func decodePart(raw json.RawMessage) (ResultPart, error) {
	var tag struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &tag); err != nil {
		return nil, err
	}

	switch tag.Type {
	case TypeText:
		var p TextPart
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case TypeImage:
		var p ImagePart
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown result part type %q", tag.Type)
	}
}

func trimLeadingSpace(data []byte) []byte {
	for len(data) > 0 {
		switch data[0] {
		case ' ', '\t', '\n', '\r':
			data = data[1:]
		default:
			return data
		}
	}
	return data
}
