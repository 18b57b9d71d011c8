package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"gwi.com/docqa/internal/core"
	"gwi.com/docqa/internal/logger"
	"gwi.com/docqa/internal/store"
)

type APIHandler struct {
	session        *core.SessionService
	maxUploadBytes int64
}

func NewAPIHandler(session *core.SessionService, maxUploadBytes int64) *APIHandler {
	return &APIHandler{session: session, maxUploadBytes: maxUploadBytes}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type UploadErrorResponse struct {
	Error     string         `json:"error"`
	Documents []DocumentView `json:"documents"`
}

func writeUploadError(w http.ResponseWriter, status int, msg string, created []DocumentView) {
	writeJSON(w, status, UploadErrorResponse{Error: msg, Documents: created})
}

type DocumentView struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Pages      int       `json:"pages"`
	ChunkCount int       `json:"chunk_count"`
	CreatedAt  time.Time `json:"created_at"`
	Text       string    `json:"text,omitempty"`
}

func newDocumentView(doc store.Document, withText bool) DocumentView {
	v := DocumentView{
		ID:         doc.ID,
		Name:       doc.Name,
		Pages:      doc.Pages,
		ChunkCount: doc.ChunkCount,
		CreatedAt:  doc.CreatedAt,
	}
	if withText {
		v.Text = doc.Text
	}
	return v
}

type SourceView struct {
	ChunkID      string  `json:"chunk_id"`
	DocumentID   string  `json:"document_id"`
	DocumentName string  `json:"document_name"`
	Text         string  `json:"text"`
	Score        float64 `json:"score"`
	Method       string  `json:"method"`
}

type AnswerView struct {
	Answer   string       `json:"answer"`
	Degraded bool         `json:"degraded"`
	Sources  []SourceView `json:"sources"`
	AskedAt  time.Time    `json:"asked_at"`
}

func (h *APIHandler) newAnswerView(a *store.Answer) AnswerView {
	sources := make([]SourceView, len(a.Sources))
	for i, sc := range a.Sources {
		sources[i] = SourceView{
			ChunkID:      sc.Chunk.ID,
			DocumentID:   sc.Chunk.DocumentID,
			DocumentName: h.session.DocumentName(sc.Chunk.DocumentID),
			Text:         sc.Chunk.Text,
			Score:        sc.Score,
			Method:       sc.Method,
		}
	}
	return AnswerView{Answer: a.Text, Degraded: a.Degraded, Sources: sources, AskedAt: a.AskedAt}
}

func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// UploadDocumentsHandler ingests every "file" part of a multipart form, in
// form order.
func (h *APIHandler) UploadDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "Upload exceeds the size limit")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "At least one file is required")
		return
	}

	// Uploads are not atomic: files before a failing one stay ingested and
	// are listed next to the error.
	created := make([]DocumentView, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			writeUploadError(w, http.StatusBadRequest, "Failed to read upload "+fh.Filename, created)
			return
		}
		payload, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			writeUploadError(w, http.StatusBadRequest, "Failed to read upload "+fh.Filename, created)
			return
		}

		doc, err := h.session.IngestDocument(r.Context(), fh.Filename, payload)
		if err != nil {
			if errors.Is(err, core.ErrSessionReset) {
				writeUploadError(w, http.StatusConflict, err.Error(), created)
				return
			}
			logger.Error("Error ingesting document", zap.String("name", fh.Filename), zap.Error(err))
			writeUploadError(w, http.StatusInternalServerError, "Failed to ingest "+fh.Filename, created)
			return
		}
		created = append(created, newDocumentView(*doc, false))
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *APIHandler) ListDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	docs := h.session.Documents()
	views := make([]DocumentView, len(docs))
	for i, doc := range docs {
		views[i] = newDocumentView(doc, false)
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *APIHandler) GetDocumentHandler(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "documentID")

	doc, err := h.session.Document(documentID)
	if err != nil {
		if errors.Is(err, core.ErrDocumentNotFound) {
			writeError(w, http.StatusNotFound, "Document not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get document")
		return
	}
	writeJSON(w, http.StatusOK, newDocumentView(doc, true))
}

type AskRequest struct {
	Question string `json:"question"`
}

func (h *APIHandler) AskHandler(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	answer := h.session.Ask(r.Context(), req.Question)
	if answer == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, h.newAnswerView(answer))
}

func (h *APIHandler) CurrentAnswerHandler(w http.ResponseWriter, r *http.Request) {
	answer := h.session.CurrentAnswer()
	if answer == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, h.newAnswerView(answer))
}

func (h *APIHandler) ResetSessionHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Reset(r.Context()); err != nil {
		logger.Error("Error resetting session", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to reset session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
