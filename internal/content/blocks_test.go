// ABOUTME: Tests for the content block codec
// ABOUTME: Covers round-trip fidelity, discriminators, and malformed input

package content

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlocks_MixedSequenceRoundTrip(t *testing.T) {
	original := []Block{
		Text{Text: "let me check"},
		Thinking{Thinking: "the user wants a file listing", Signature: "sig-abc123"},
		ToolUse{ID: "toolu_01", Name: "list_files", Input: json.RawMessage(`{"path":"/tmp"}`)},
	}

	data, err := MarshalBlocks(original)
	require.NoError(t, err)

	decoded, err := UnmarshalBlocks(data)
	require.NoError(t, err)
	require.Len(t, decoded, 3)

	text, ok := decoded[0].(Text)
	require.True(t, ok)
	assert.Equal(t, "let me check", text.Text)

	thinking, ok := decoded[1].(Thinking)
	require.True(t, ok)
	assert.Equal(t, "the user wants a file listing", thinking.Thinking)
	assert.Equal(t, "sig-abc123", thinking.Signature)

	toolUse, ok := decoded[2].(ToolUse)
	require.True(t, ok)
	assert.Equal(t, "toolu_01", toolUse.ID)
	assert.Equal(t, "list_files", toolUse.Name)
	assert.JSONEq(t, `{"path":"/tmp"}`, string(toolUse.Input))
}

func TestBlocks_ToolResultPartsRoundTrip(t *testing.T) {
	original := []Block{
		ToolResult{
			ToolUseID: "toolu_02",
			Content: PartsContent(
				TextPart{Text: "3 files found"},
				ImagePart{Source: Base64PNG("aGVsbG8=")},
			),
			IsError: false,
		},
	}

	data, err := MarshalBlocks(original)
	require.NoError(t, err)

	decoded, err := UnmarshalBlocks(data)
	require.NoError(t, err)
	require.Len(t, decoded, 1)

	result, ok := decoded[0].(ToolResult)
	require.True(t, ok)
	assert.Equal(t, "toolu_02", result.ToolUseID)
	assert.False(t, result.IsError)

	parts := result.Content.Parts()
	require.Len(t, parts, 2)

	textPart, ok := parts[0].(TextPart)
	require.True(t, ok)
	assert.Equal(t, "3 files found", textPart.Text)

	imagePart, ok := parts[1].(ImagePart)
	require.True(t, ok)
	assert.Equal(t, "base64", imagePart.Source.Type)
	assert.Equal(t, "image/png", imagePart.Source.MediaType)
	assert.Equal(t, "aGVsbG8=", imagePart.Source.Data)
}

func TestBlocks_ToolResultStringContentRoundTrip(t *testing.T) {
	original := []Block{
		ToolResult{
			ToolUseID: "toolu_03",
			Content:   StringContent("<system>sandbox violation</system>\npermission denied"),
			IsError:   true,
		},
	}

	data, err := MarshalBlocks(original)
	require.NoError(t, err)

	decoded, err := UnmarshalBlocks(data)
	require.NoError(t, err)

	result, ok := decoded[0].(ToolResult)
	require.True(t, ok)
	assert.True(t, result.IsError)

	s, isString := result.Content.AsString()
	require.True(t, isString)
	assert.Equal(t, "<system>sandbox violation</system>\npermission denied", s)
	assert.Nil(t, result.Content.Parts())
}

func TestBlocks_EmptyPartsEncodeAsArray(t *testing.T) {
	// A result with no output, error, or image still encodes as a valid
	// (empty) sequence rather than null.
	data, err := MarshalBlocks([]Block{
		ToolResult{ToolUseID: "toolu_04", Content: PartsContent()},
	})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"content":[]`)

	decoded, err := UnmarshalBlocks(data)
	require.NoError(t, err)

	result := decoded[0].(ToolResult)
	_, isString := result.Content.AsString()
	assert.False(t, isString)
	assert.Empty(t, result.Content.Parts())
	assert.NotNil(t, result.Content.Parts())
}

func TestBlocks_ImageRoundTrip(t *testing.T) {
	data, err := MarshalBlocks([]Block{Image{Source: Base64PNG("cGl4ZWxz")}})
	require.NoError(t, err)

	decoded, err := UnmarshalBlocks(data)
	require.NoError(t, err)

	img, ok := decoded[0].(Image)
	require.True(t, ok)
	assert.Equal(t, "cGl4ZWxz", img.Source.Data)
}

func TestBlocks_UnknownTypeFailsDecode(t *testing.T) {
	_, err := UnmarshalBlocks([]byte(`[{"type":"hologram","data":"x"}]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hologram")
}

func TestBlocks_MalformedJSONFailsDecode(t *testing.T) {
	_, err := UnmarshalBlocks([]byte(`{"type":"text"`))
	require.Error(t, err)
}

func TestBlocks_ThinkingSignatureOmittedWhenEmpty(t *testing.T) {
	data, err := MarshalBlocks([]Block{Thinking{Thinking: "hmm"}})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "signature")
}

func TestBlocks_ToolUseNilInputEncodesAsObject(t *testing.T) {
	data, err := MarshalBlocks([]Block{ToolUse{ID: "toolu_05", Name: "screenshot"}})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"input":{}`)
}
