// ABOUTME: Builtin file tools: list and read session uploads
// ABOUTME: Gives the agent visibility into the operator's uploaded files

package tools

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/2389/coven-desk/internal/provider"
	"github.com/2389/coven-desk/internal/store"
)

// readFileMaxBytes caps how much of a text file read_file returns.
const readFileMaxBytes = 64 * 1024

// FilesPack returns the builtin tools operating on the upload store.
func FilesPack(s store.Store, uploadDir string) []Tool {
	h := &fileHandlers{store: s, uploadDir: uploadDir}
	return []Tool{
		&funcTool{
			spec: provider.ToolSpec{
				Name:        "list_files",
				Description: "List files the operator has uploaded to this session",
				InputSchema: json.RawMessage(`{"type":"object","properties":{"session_id":{"type":"string"}}}`),
			},
			run: h.ListFiles,
		},
		&funcTool{
			spec: provider.ToolSpec{
				Name:        "read_file",
				Description: "Read an uploaded file by ID; returns text content or an image payload",
				InputSchema: json.RawMessage(`{"type":"object","properties":{"file_id":{"type":"string"}},"required":["file_id"]}`),
			},
			run: h.ReadFile,
		},
	}
}

// funcTool adapts a handler function to the Tool interface.
type funcTool struct {
	spec provider.ToolSpec
	run  func(ctx context.Context, input json.RawMessage) (*Result, error)
}

func (t *funcTool) Spec() provider.ToolSpec { return t.spec }

func (t *funcTool) Run(ctx context.Context, input json.RawMessage) (*Result, error) {
	return t.run(ctx, input)
}

type fileHandlers struct {
	store     store.Store
	uploadDir string
}

func (h *fileHandlers) ListFiles(ctx context.Context, input json.RawMessage) (*Result, error) {
	var args struct {
		SessionID string `json:"session_id"`
	}
	if len(input) > 0 {
		if err := json.Unmarshal(input, &args); err != nil {
			return nil, fmt.Errorf("parsing input: %w", err)
		}
	}

	files, err := h.store.ListFiles(ctx, args.SessionID)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}

	if len(files) == 0 {
		return &Result{Output: "no files uploaded"}, nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d files found\n", len(files))
	for _, f := range files {
		fmt.Fprintf(&sb, "- %s (id=%s, %d bytes, %s)\n", f.Filename, f.ID, f.Size, f.MimeType)
	}
	return &Result{Output: strings.TrimRight(sb.String(), "\n")}, nil
}

func (h *fileHandlers) ReadFile(ctx context.Context, input json.RawMessage) (*Result, error) {
	var args struct {
		FileID string `json:"file_id"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return nil, fmt.Errorf("parsing input: %w", err)
	}
	if args.FileID == "" {
		return &Result{Error: "file_id is required"}, nil
	}

	meta, err := h.store.GetFile(ctx, args.FileID)
	if err == store.ErrNotFound {
		return &Result{Error: fmt.Sprintf("file %q not found", args.FileID)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up file: %w", err)
	}

	data, err := os.ReadFile(filepath.Join(h.uploadDir, meta.Path))
	if err != nil {
		return &Result{Error: fmt.Sprintf("reading %s: %v", meta.Filename, err)}, nil
	}

	if strings.HasPrefix(meta.MimeType, "image/") {
		return &Result{
			Output:      fmt.Sprintf("image %s (%d bytes)", meta.Filename, len(data)),
			Base64Image: base64.StdEncoding.EncodeToString(data),
		}, nil
	}

	if !utf8.Valid(data) {
		return &Result{Error: fmt.Sprintf("%s is not a text file", meta.Filename)}, nil
	}

	if len(data) > readFileMaxBytes {
		// Back the cut off to a rune boundary so the prefix stays valid.
		cut := readFileMaxBytes
		for cut > 0 && !utf8.RuneStart(data[cut]) {
			cut--
		}
		return &Result{
			Output: string(data[:cut]),
			System: fmt.Sprintf("output truncated to %d bytes", cut),
		}, nil
	}

	return &Result{Output: string(data)}, nil
}
