package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"gwi.com/docqa/internal/core"
	"gwi.com/docqa/internal/logger"
)

// ProviderHandler serves the embedding and generation contracts on top of a
// model backend.
type ProviderHandler struct {
	backend core.Backend
}

func NewProviderHandler(backend core.Backend) *ProviderHandler {
	return &ProviderHandler{backend: backend}
}

type EmbedRequest struct {
	Input string `json:"input"`
}

type EmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

func (h *ProviderHandler) EmbedHandler(w http.ResponseWriter, r *http.Request) {
	var req EmbedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Input) == "" {
		writeError(w, http.StatusBadRequest, "Input cannot be empty")
		return
	}

	vec, err := h.backend.Embed(r.Context(), req.Input)
	if err != nil {
		logger.Error("Embedding backend failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "Embedding backend failed")
		return
	}
	writeJSON(w, http.StatusOK, EmbedResponse{Embedding: vec})
}

type GenerateRequest struct {
	Context  string `json:"context"`
	Question string `json:"question"`
}

type GenerateResponse struct {
	Answer string `json:"answer"`
}

func (h *ProviderHandler) GenerateHandler(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "Question cannot be empty")
		return
	}

	answer, err := h.backend.Generate(r.Context(), req.Context, req.Question)
	if err != nil {
		logger.Error("Generation backend failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "Generation backend failed")
		return
	}
	writeJSON(w, http.StatusOK, GenerateResponse{Answer: answer})
}
