// Package server assembles the HTTP read surface and starts the server.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/showgrid/showgrid/internal/discovery"
	"github.com/showgrid/showgrid/internal/types"
)

// Resyncer triggers a full record-store-to-index rebuild.
type Resyncer interface {
	ResyncAll(ctx context.Context) error
}

// Config holds server configuration.
type Config struct {
	Port      int
	Discovery *discovery.Service
	Resyncer  Resyncer
}

// Run starts the HTTP server with all routes registered and blocks until
// the context is cancelled and in-flight requests have drained.
func Run(ctx context.Context, cfg Config) error {
	addr := fmt.Sprintf(":%d", cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	log.Printf("starting server on %s", addr)
	return serve(ctx, cfg, ln)
}

// serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully. It returns only after Shutdown has drained active requests;
// returning on ErrServerClosed alone would let the process exit under
// in-flight handlers.
func serve(ctx context.Context, cfg Config, ln net.Listener) error {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	h := &handler{discovery: cfg.Discovery, resyncer: cfg.Resyncer}
	r.Get("/v1/discovery/search", h.search)
	r.Get("/v1/discovery/featured", h.featured)
	r.Post("/v1/admin/resync", h.resync)

	srv := &http.Server{Handler: r}
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Printf("server: shutdown: %v", err)
		}
	}()

	if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		return err
	}
	<-shutdownDone
	return nil
}

type handler struct {
	discovery *discovery.Service
	resyncer  Resyncer
}

func (h *handler) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := types.SearchFilters{
		Category: q.Get("category"),
		Language: q.Get("language"),
	}
	if v := q.Get("minDuration"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "minDuration must be a non-negative integer")
			return
		}
		filters.MinDuration = n
	}
	if v := q.Get("maxDuration"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "maxDuration must be a non-negative integer")
			return
		}
		filters.MaxDuration = n
	}

	docs, err := h.discovery.Search(r.Context(), q.Get("q"), filters)
	if err != nil {
		log.Printf("server: search failed: %v", err)
		writeError(w, http.StatusBadGateway, "search unavailable")
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

func (h *handler) featured(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	docs, err := h.discovery.Featured(r.Context(), limit)
	if err != nil {
		log.Printf("server: featured failed: %v", err)
		writeError(w, http.StatusBadGateway, "featured content unavailable")
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

func (h *handler) resync(w http.ResponseWriter, r *http.Request) {
	if h.resyncer == nil {
		writeError(w, http.StatusNotImplemented, "resync not configured")
		return
	}
	if err := h.resyncer.ResyncAll(r.Context()); err != nil {
		log.Printf("server: resync failed: %v", err)
		writeError(w, http.StatusInternalServerError, "resync failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "resynced"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		v = []struct{}{}
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("server: encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
