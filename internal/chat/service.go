// ABOUTME: Session-scoped orchestration loop between operator, provider and tools
// ABOUTME: One submission resolves fully: provider rounds, tool runs, persisted turns, live events

package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/2389/coven-desk/internal/broadcast"
	"github.com/2389/coven-desk/internal/content"
	"github.com/2389/coven-desk/internal/provider"
	"github.com/2389/coven-desk/internal/store"
	"github.com/2389/coven-desk/internal/tools"
)

// defaultMaxIterations bounds how many provider rounds one submission may
// take before the loop gives up on reaching a natural stop.
const defaultMaxIterations = 10

// Config carries the per-deployment knobs of the orchestration loop.
type Config struct {
	Model         string
	MaxTokens     int64
	MaxIterations int
	SystemPrompt  string
}

// Service drives conversations: it owns the submission lifecycle from the
// operator's message to the final resolved assistant turn. Submissions to
// the same session are serialized; distinct sessions proceed concurrently.
type Service struct {
	store    store.Store
	provider provider.Provider
	executor tools.Executor
	registry *broadcast.Registry
	cfg      Config
	logger   *slog.Logger

	guardMu sync.Mutex
	guards  map[string]*sync.Mutex // sessionID -> submission guard
}

// NewService wires the orchestration loop. Pass nil logger for default.
func NewService(s store.Store, p provider.Provider, e tools.Executor, r *broadcast.Registry, cfg Config, logger *slog.Logger) *Service {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = defaultMaxIterations
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    s,
		provider: p,
		executor: e,
		registry: r,
		cfg:      cfg,
		logger:   logger.With("component", "chat"),
		guards:   make(map[string]*sync.Mutex),
	}
}

// sessionGuard returns the mutex serializing submissions for one session.
func (s *Service) sessionGuard(sessionID string) *sync.Mutex {
	s.guardMu.Lock()
	defer s.guardMu.Unlock()

	guard, ok := s.guards[sessionID]
	if !ok {
		guard = &sync.Mutex{}
		s.guards[sessionID] = guard
	}
	return guard
}

// ReleaseSession drops the session's submission guard. Called when a
// session is deleted so the guard map does not grow without bound. A
// submission already holding the guard keeps its mutex; a later submission
// to a recreated session simply gets a fresh one.
func (s *Service) ReleaseSession(sessionID string) {
	s.guardMu.Lock()
	defer s.guardMu.Unlock()
	delete(s.guards, sessionID)
}

// GetHistory returns the session's turns in insertion order.
func (s *Service) GetHistory(ctx context.Context, sessionID string) ([]*store.Turn, error) {
	exists, err := s.store.SessionExists(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("checking session: %w", err)
	}
	if !exists {
		return nil, store.ErrNotFound
	}
	return s.store.ListTurns(ctx, sessionID)
}

// SubmitUserMessage persists the operator's message and resolves the full
// assistant response: provider rounds interleaved with tool execution until
// the provider stops requesting tools or the iteration cap is reached.
// It returns the user turn it persisted; the assistant's output reaches
// clients through history reads and broadcast events.
func (s *Service) SubmitUserMessage(ctx context.Context, sessionID, text string) (*store.Turn, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("message text is empty")
	}

	exists, err := s.store.SessionExists(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("checking session: %w", err)
	}
	if !exists {
		return nil, store.ErrNotFound
	}

	guard := s.sessionGuard(sessionID)
	guard.Lock()
	defer guard.Unlock()

	userTurn := &store.Turn{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Role:      store.RoleUser,
		Content:   []content.Block{content.Text{Text: text}},
		Display:   text,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.AppendTurn(ctx, userTurn); err != nil {
		return nil, fmt.Errorf("persisting user turn: %w", err)
	}

	s.registry.Publish(sessionID, broadcast.AssistantStart())
	// Exactly one terminal event per submission, success or not.
	defer s.registry.Publish(sessionID, broadcast.AssistantEnd())

	if err := s.resolve(ctx, sessionID); err != nil {
		return nil, err
	}

	s.touchSession(ctx, sessionID)
	return userTurn, nil
}

// resolve runs provider rounds until the assistant produces a turn with no
// tool requests, or the iteration cap is hit.
func (s *Service) resolve(ctx context.Context, sessionID string) error {
	for iteration := 0; iteration < s.cfg.MaxIterations; iteration++ {
		turns, err := s.store.ListTurns(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("loading history: %w", err)
		}

		blocks, err := s.provider.Complete(ctx, provider.Request{
			System:    s.cfg.SystemPrompt,
			Tools:     s.executor.Specs(),
			History:   historyToExchanges(turns),
			Model:     s.cfg.Model,
			MaxTokens: s.cfg.MaxTokens,
		})
		if err != nil {
			return fmt.Errorf("provider round %d: %w", iteration+1, err)
		}

		assistantTurn := &store.Turn{
			ID:        uuid.New().String(),
			SessionID: sessionID,
			Role:      store.RoleAssistant,
			Content:   blocks,
			Display:   displayTurn(blocks),
			CreatedAt: time.Now().UTC(),
		}
		if err := s.store.AppendTurn(ctx, assistantTurn); err != nil {
			return fmt.Errorf("persisting assistant turn: %w", err)
		}

		results := s.processBlocks(ctx, sessionID, blocks)
		if len(results) == 0 {
			// Natural stop: the provider asked for no tools this round.
			return nil
		}

		resultTurn := &store.Turn{
			ID:        uuid.New().String(),
			SessionID: sessionID,
			Role:      store.RoleUser,
			Content:   results,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.store.AppendTurn(ctx, resultTurn); err != nil {
			return fmt.Errorf("persisting tool results: %w", err)
		}
	}

	s.logger.Warn("iteration cap reached", "session_id", sessionID, "max_iterations", s.cfg.MaxIterations)
	return nil
}

// processBlocks walks one assistant turn in order: publishes the projection
// of each block and runs each tool request, returning the tool_result blocks
// to feed back. Publication failures never surface here; the registry drops
// dead observers on its own.
func (s *Service) processBlocks(ctx context.Context, sessionID string, blocks []content.Block) []content.Block {
	var results []content.Block
	for _, block := range blocks {
		s.publishProjection(sessionID, block)

		use, ok := block.(content.ToolUse)
		if !ok {
			continue
		}

		s.logger.Info("running tool", "session_id", sessionID, "tool", use.Name, "tool_use_id", use.ID)
		result := s.executor.Run(ctx, use.Name, use.Input)
		results = append(results, translateResult(use.ID, result))
	}
	return results
}

// publishProjection sends one block's human-readable form to the session's
// observers. Blocks that project to nothing (tool results and the like)
// produce no event.
func (s *Service) publishProjection(sessionID string, block content.Block) {
	projection := Project(block)
	if strings.TrimSpace(projection) == "" {
		return
	}
	s.registry.Publish(sessionID, broadcast.AssistantMessage(&broadcast.MessagePayload{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Role:      store.RoleAssistant,
		Content:   projection,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}))
}

// touchSession bumps the session's updated_at; failure is logged, not fatal.
func (s *Service) touchSession(ctx context.Context, sessionID string) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		s.logger.Warn("failed to load session for touch", "session_id", sessionID, "error", err)
		return
	}
	session.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateSession(ctx, session); err != nil {
		s.logger.Warn("failed to touch session", "session_id", sessionID, "error", err)
	}
}

// historyToExchanges projects persisted turns into the provider request
// shape: role plus content, order preserved, nothing synthesized.
func historyToExchanges(turns []*store.Turn) []provider.Exchange {
	exchanges := make([]provider.Exchange, 0, len(turns))
	for _, turn := range turns {
		exchanges = append(exchanges, provider.Exchange{
			Role:    turn.Role,
			Content: turn.Content,
		})
	}
	return exchanges
}

// translateResult converts a tool execution outcome into the tool_result
// block fed back to the provider. Errors become a bare-string payload with
// is_error set; successes become an ordered part list with optional text
// and image. A system annotation wraps whichever text is present.
func translateResult(toolUseID string, result *tools.Result) content.ToolResult {
	if result.Error != "" {
		return content.ToolResult{
			ToolUseID: toolUseID,
			Content:   content.StringContent(withSystemNote(result.System, result.Error)),
			IsError:   true,
		}
	}

	var parts []content.ResultPart
	if result.Output != "" {
		parts = append(parts, content.TextPart{Text: withSystemNote(result.System, result.Output)})
	}
	if result.Base64Image != "" {
		parts = append(parts, content.ImagePart{Source: content.Base64PNG(result.Base64Image)})
	}
	return content.ToolResult{
		ToolUseID: toolUseID,
		Content:   content.PartsContent(parts...),
	}
}

// withSystemNote prepends a system annotation to text when present.
func withSystemNote(note, text string) string {
	if note == "" {
		return text
	}
	return fmt.Sprintf("<system>%s</system>\n%s", note, text)
}

// Project renders one content block as the human-readable string shown in
// transcripts and live events. Blocks with no operator-facing form (tool
// results, images) render empty.
func Project(block content.Block) string {
	switch b := block.(type) {
	case content.Text:
		return b.Text
	case content.Thinking:
		return "[Thinking]\n\n" + b.Thinking
	case content.ToolUse:
		input := b.Input
		if input == nil {
			input = []byte("{}")
		}
		return fmt.Sprintf("Tool Use: %s\nInput: %s", b.Name, input)
	default:
		return ""
	}
}

// displayTurn joins the non-empty projections of a turn's blocks.
func displayTurn(blocks []content.Block) string {
	var parts []string
	for _, block := range blocks {
		if p := Project(block); strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\n\n")
}
