// ABOUTME: File upload handlers: multipart upload, metadata, download, delete
// ABOUTME: Bytes live under the upload dir; metadata comes from the store

package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/2389/coven-desk/internal/files"
	"github.com/2389/coven-desk/internal/store"
)

// multipart form parse ceiling; the upload service enforces the real limit
const maxMultipartMemory = 8 << 20

// FileResponse is the JSON shape of uploaded file metadata.
type FileResponse struct {
	ID         string `json:"id"`
	SessionID  string `json:"session_id,omitempty"`
	Filename   string `json:"filename"`
	MimeType   string `json:"mime_type"`
	Size       int64  `json:"size"`
	UploadedAt string `json:"uploaded_at"`
}

func fileToResponse(f *store.FileMetadata) FileResponse {
	return FileResponse{
		ID:         f.ID,
		SessionID:  f.SessionID,
		Filename:   f.Filename,
		MimeType:   f.MimeType,
		Size:       f.Size,
		UploadedAt: f.UploadedAt.Format(time.RFC3339),
	}
}

// handleUploadFile handles POST /api/files/upload. Expects a multipart form
// with a "file" part and an optional "session_id" field.
func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "file part is required")
		return
	}
	defer file.Close()

	sessionID := r.FormValue("session_id")
	if sessionID != "" {
		exists, err := s.store.SessionExists(r.Context(), sessionID)
		if err != nil {
			s.sendStoreError(w, err)
			return
		}
		if !exists {
			s.sendJSONError(w, http.StatusNotFound, "session not found")
			return
		}
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	meta, err := s.files.Save(r.Context(), sessionID, header.Filename, mimeType, file)
	if err != nil {
		if errors.Is(err, files.ErrTooLarge) {
			s.sendJSONError(w, http.StatusRequestEntityTooLarge, "file exceeds upload size limit")
			return
		}
		s.sendStoreError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, fileToResponse(meta))
}

// handleListFiles handles GET /api/files with optional ?session_id=X filter.
func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	metas, err := s.files.List(r.Context(), r.URL.Query().Get("session_id"))
	if err != nil {
		s.sendStoreError(w, err)
		return
	}

	response := make([]FileResponse, 0, len(metas))
	for _, meta := range metas {
		response = append(response, fileToResponse(meta))
	}
	s.writeJSON(w, http.StatusOK, response)
}

// handleGetFile handles GET /api/files/{fileID}.
func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	meta, err := s.files.Get(r.Context(), chi.URLParam(r, "fileID"))
	if err != nil {
		s.sendStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, fileToResponse(meta))
}

// handleDownloadFile handles GET /api/files/{fileID}/download, streaming the
// stored bytes with the original filename.
func (s *Server) handleDownloadFile(w http.ResponseWriter, r *http.Request) {
	meta, rc, err := s.files.Open(r.Context(), chi.URLParam(r, "fileID"))
	if err != nil {
		s.sendStoreError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", meta.MimeType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+meta.Filename+`"`)
	if _, err := io.Copy(w, rc); err != nil {
		s.logger.Error("failed to stream file", "file_id", meta.ID, "error", err)
	}
}

// handleDeleteFile handles DELETE /api/files/{fileID}.
func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	if err := s.files.Delete(r.Context(), chi.URLParam(r, "fileID")); err != nil {
		s.sendStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
