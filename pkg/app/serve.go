package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/gpodder/mygpo-migrate/pkg/models"
)

// Serve starts the HTTP server. It exposes:
//
//	GET  /api/health                  - service health
//	POST /api/backfill/{kind}         - run one backfill pass, JSON summary
//	POST /hooks/podcasts/saved        - relational podcast was saved
//	POST /hooks/podcasts/deleted      - relational podcast was deleted
//	POST /hooks/episodes/saved        - relational episode was saved
//
// The hook endpoints take the relational record as JSON and always answer
// 204: the migration they trigger is best-effort and must not fail the
// relational save that emitted the event. Serve blocks until ctx is
// cancelled, then shuts down gracefully.
func (a *App) Serve(ctx context.Context, _ *ServeCommand) error {
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", a.config.ServerPort),
		Handler: a.Handler(),
	}

	a.log.Info().Str("addr", server.Addr).Msg("starting server")

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}

// Handler builds the HTTP routes (exposed separately for tests).
func (a *App) Handler() http.Handler {
	router := mux.NewRouter()

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", a.handleHealth).Methods("GET")
	api.HandleFunc("/backfill/{kind}", a.handleBackfill).Methods("POST")

	hooks := router.PathPrefix("/hooks").Subrouter()
	hooks.HandleFunc("/podcasts/saved", a.handlePodcastSaved).Methods("POST")
	hooks.HandleFunc("/podcasts/deleted", a.handlePodcastDeleted).Methods("POST")
	hooks.HandleFunc("/episodes/saved", a.handleEpisodeSaved).Methods("POST")

	return router
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (a *App) handleBackfill(w http.ResponseWriter, r *http.Request) {
	kind := mux.Vars(r)["kind"]
	summary, err := a.backfillKind(r.Context(), kind)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}

func (a *App) handlePodcastSaved(w http.ResponseWriter, r *http.Request) {
	var p models.Podcast
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	a.hooks.OnPodcastSaved(r.Context(), &p)
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) handlePodcastDeleted(w http.ResponseWriter, r *http.Request) {
	var p models.Podcast
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	a.hooks.OnPodcastDeleted(r.Context(), &p)
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) handleEpisodeSaved(w http.ResponseWriter, r *http.Request) {
	var e models.Episode
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	a.hooks.OnEpisodeSaved(r.Context(), &e)
	w.WriteHeader(http.StatusNoContent)
}
