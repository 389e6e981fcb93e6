// ABOUTME: Anthropic Messages API adapter implementing the Provider interface
// ABOUTME: Projects history into SDK params and normalizes responses into content blocks

package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/2389/coven-desk/internal/content"
)

const defaultMaxTokens = 1024

// Anthropic implements Provider against the Anthropic Messages API.
type Anthropic struct {
	client anthropic.Client
	logger *slog.Logger
}

// NewAnthropic creates an adapter authenticated with the given API key.
// Pass nil logger for default.
func NewAnthropic(apiKey string, logger *slog.Logger) *Anthropic {
	if logger == nil {
		logger = slog.Default()
	}
	return &Anthropic{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		logger: logger.With("component", "provider"),
	}
}

// Complete sends one completion request and returns the normalized
// content block sequence of the assistant response.
func (a *Anthropic) Complete(ctx context.Context, req Request) ([]content.Block, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: maxTokens,
		Messages:  historyToParams(req.History),
		Tools:     toolSpecsToParams(req.Tools),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic completion: %w", err)
	}

	blocks := NormalizeMessage(msg)
	a.logger.Debug("completion received",
		"model", req.Model,
		"history_len", len(req.History),
		"blocks", len(blocks),
		"stop_reason", string(msg.StopReason),
	)
	return blocks, nil
}

// historyToParams projects the persisted history verbatim into the SDK's
// message shape, preserving roles and block structure.
func historyToParams(history []Exchange) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(history))
	for _, exchange := range history {
		blocks := make([]anthropic.ContentBlockParamUnion, 0, len(exchange.Content))
		for _, block := range exchange.Content {
			if param, ok := blockToParam(block); ok {
				blocks = append(blocks, param)
			}
		}
		if len(blocks) == 0 {
			continue
		}
		if exchange.Role == "assistant" {
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		} else {
			out = append(out, anthropic.NewUserMessage(blocks...))
		}
	}
	return out
}

// blockToParam converts one persisted content block into its SDK param.
func blockToParam(block content.Block) (anthropic.ContentBlockParamUnion, bool) {
	switch b := block.(type) {
	case content.Text:
		return anthropic.NewTextBlock(b.Text), true

	case content.Thinking:
		return anthropic.ContentBlockParamUnion{
			OfThinking: &anthropic.ThinkingBlockParam{
				Thinking:  b.Thinking,
				Signature: b.Signature,
			},
		}, true

	case content.ToolUse:
		var input any
		if len(b.Input) > 0 {
			input = json.RawMessage(b.Input)
		} else {
			input = json.RawMessage(`{}`)
		}
		return anthropic.ContentBlockParamUnion{
			OfToolUse: &anthropic.ToolUseBlockParam{
				ID:    b.ID,
				Name:  b.Name,
				Input: input,
			},
		}, true

	case content.ToolResult:
		return anthropic.ContentBlockParamUnion{
			OfToolResult: &anthropic.ToolResultBlockParam{
				ToolUseID: b.ToolUseID,
				IsError:   anthropic.Bool(b.IsError),
				Content:   resultContentToParams(b.Content),
			},
		}, true

	case content.Image:
		return anthropic.NewImageBlockBase64(b.Source.MediaType, b.Source.Data), true

	default:
		return anthropic.ContentBlockParamUnion{}, false
	}
}

func resultContentToParams(rc content.ResultContent) []anthropic.ToolResultBlockParamContentUnion {
	if s, ok := rc.AsString(); ok {
		return []anthropic.ToolResultBlockParamContentUnion{
			{OfText: &anthropic.TextBlockParam{Text: s}},
		}
	}

	parts := rc.Parts()
	out := make([]anthropic.ToolResultBlockParamContentUnion, 0, len(parts))
	for _, part := range parts {
		switch p := part.(type) {
		case content.TextPart:
			out = append(out, anthropic.ToolResultBlockParamContentUnion{
				OfText: &anthropic.TextBlockParam{Text: p.Text},
			})
		case content.ImagePart:
			out = append(out, anthropic.ToolResultBlockParamContentUnion{
				OfImage: &anthropic.ImageBlockParam{
					Source: anthropic.ImageBlockParamSourceUnion{
						OfBase64: &anthropic.Base64ImageSourceParam{
							Data:      p.Source.Data,
							MediaType: anthropic.Base64ImageSourceMediaType(p.Source.MediaType),
						},
					},
				},
			})
		}
	}
	return out
}

func toolSpecsToParams(specs []ToolSpec) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(specs))
	for _, spec := range specs {
		schemaMap := map[string]any{}
		if len(spec.InputSchema) > 0 {
			_ = json.Unmarshal(spec.InputSchema, &schemaMap)
		}
		required, _ := schemaMap["required"].([]string)
		if required == nil {
			if rawRequired, ok := schemaMap["required"].([]any); ok {
				for _, r := range rawRequired {
					if s, ok := r.(string); ok {
						required = append(required, s)
					}
				}
			}
		}
		param := anthropic.ToolParam{
			Name:        spec.Name,
			Description: anthropic.String(spec.Description),
			InputSchema: anthropic.ToolInputSchemaParam{Type: "object", Properties: schemaMap["properties"], Required: required},
		}
		out = append(out, anthropic.ToolUnionParam{OfTool: &param})
	}
	return out
}

// NormalizeMessage translates a provider response into the persisted
// block sequence: non-empty text stays text, thinking keeps its signature,
// and tool-use blocks pass through structurally.
func NormalizeMessage(msg *anthropic.Message) []content.Block {
	blocks := make([]content.Block, 0, len(msg.Content))
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			if block.Text != "" {
				blocks = append(blocks, content.Text{Text: block.Text})
			}
		case "thinking":
			blocks = append(blocks, content.Thinking{
				Thinking:  block.Thinking,
				Signature: block.Signature,
			})
		default:
			// Tool use and anything tool-shaped passes through structurally.
			if block.Name != "" || block.ID != "" {
				blocks = append(blocks, content.ToolUse{
					ID:    block.ID,
					Name:  block.Name,
					Input: json.RawMessage(block.Input),
				})
			}
		}
	}
	return blocks
}
