package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter mounts the session API. provider may be nil, in which case the
// embed and generate endpoints are not served.
func NewRouter(apiHandler *APIHandler, provider *ProviderHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", apiHandler.HealthHandler)

		r.Post("/documents", apiHandler.UploadDocumentsHandler)
		r.Get("/documents", apiHandler.ListDocumentsHandler)
		r.Get("/documents/{documentID}", apiHandler.GetDocumentHandler)

		r.Post("/ask", apiHandler.AskHandler)
		r.Get("/answer", apiHandler.CurrentAnswerHandler)
		r.Delete("/session", apiHandler.ResetSessionHandler)

		if provider != nil {
			r.Post("/embed", provider.EmbedHandler)
			r.Post("/generate", provider.GenerateHandler)
		}
	})

	return r
}
