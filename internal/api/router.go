package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starford/dagaz/internal/postservice"
)

// NewRouter creates a chi router with all API routes mounted.
// limiter, if non-nil, is applied to every route.
// sseHandler, if non-nil, is mounted at GET /events.
// vaultRoot is used to resolve the attachments directory.
func NewRouter(svc *postservice.Service, limiter *RateLimiter, sseHandler http.Handler, vaultRoot string) chi.Router {
	h := NewHandler(svc)
	ah := NewAttachmentHandler(vaultRoot)

	r := chi.NewRouter()
	if limiter != nil {
		r.Use(limiter.Handler)
	}

	// Posts.
	r.Get("/posts", h.ListPosts)
	r.Get("/posts/*", h.GetPost)

	// Dataview queries and the aggregated task corpus.
	r.Post("/query", h.RunQuery)
	r.Get("/tasks", h.Tasks)

	// Search and vault navigation.
	r.Get("/search", h.Search)
	r.Get("/tree", h.Tree)

	// Attachments upload.
	r.Post("/attachments", ah.Upload)

	// SSE endpoint for live vault updates.
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
