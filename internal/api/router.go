package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/dom/pkmn-draft-website/internal/api/handlers"
	"github.com/dom/pkmn-draft-website/internal/manager"
)

func NewRouter(mgr *manager.LobbyManager) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	draftHandler := handlers.NewDraftHandler(mgr)

	r.Get("/new_draft/{set}", draftHandler.NewDraft)
	r.Post("/join_draft/{lobby}", draftHandler.JoinDraft)
	r.Get("/draft/{lobby}/{player}", draftHandler.GetDraftState)
	r.Post("/draft/{lobby}/{player}", draftHandler.DraftCommand)

	return r
}
