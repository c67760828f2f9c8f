// Package server exposes the cursor store to the rendering layer over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/nir0k/trailsync/internal/cursor"
	"github.com/nir0k/trailsync/internal/dataset"
	"github.com/nir0k/trailsync/internal/logging"
	"github.com/nir0k/trailsync/internal/xmp"
)

const maxEventBytes = 64 << 10

// Server serves the dataset and routes view events to the store.
type Server struct {
	store *cursor.Store
	log   logging.Logger
}

// New creates a server bound to store.
func New(store *cursor.Store, log logging.Logger) *Server {
	if log == nil {
		log = logging.Nop()
	}
	return &Server{store: store, log: log}
}

// Register installs the API routes on mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("GET /api/dataset", s.handleGetDataset)
	mux.HandleFunc("GET /api/traces/{id}", s.handleGetTrace)

	mux.HandleFunc("GET /api/state", s.handleGetState)
	mux.HandleFunc("POST /api/events", s.handlePostEvent)
	mux.HandleFunc("OPTIONS /api/events", s.handlePostEvent)
	mux.HandleFunc("GET /api/history", s.handleGetHistory)

	mux.HandleFunc("POST /api/images/active/pin", s.handlePinImage)
}

// Handler returns a mux with every route registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Register(mux)
	return mux
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("Listening on http://%s", ln.Addr())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.log.Infof("Shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

type traceSummary struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Points   int     `json:"points"`
	LengthKM float64 `json:"lengthKm"`
}

type datasetResponse struct {
	Traces  []traceSummary           `json:"traces"`
	Images  []dataset.ImageRecord    `json:"images"`
	Refuges []dataset.WaypointRecord `json:"refuges"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetDataset(w http.ResponseWriter, _ *http.Request) {
	ds := s.store.Dataset()
	resp := datasetResponse{
		Traces:  make([]traceSummary, 0, len(ds.Traces())),
		Images:  ds.Images(),
		Refuges: ds.Refuges(),
	}
	for _, tr := range ds.Traces() {
		resp.Traces = append(resp.Traces, traceSummary{
			ID:       tr.ID,
			Name:     tr.Name,
			Points:   len(tr.Points),
			LengthKM: tr.Length(),
		})
	}
	if resp.Images == nil {
		resp.Images = []dataset.ImageRecord{}
	}
	if resp.Refuges == nil {
		resp.Refuges = []dataset.WaypointRecord{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetTrace(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid trace id", http.StatusBadRequest)
		return
	}
	tr, err := s.store.Dataset().Trace(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tr)
}

func (s *Server) handleGetState(w http.ResponseWriter, _ *http.Request) {
	s.writeView(w, s.store.Snapshot())
}

func (s *Server) handlePostEvent(w http.ResponseWriter, r *http.Request) {
	corsHeaders(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBytes))
	if err != nil {
		http.Error(w, "read body: "+err.Error(), http.StatusBadRequest)
		return
	}
	ev, err := cursor.DecodeEvent(body)
	if err != nil {
		s.writeError(w, err)
		return
	}
	state, err := s.store.Dispatch(ev)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeView(w, state)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.History())
}

func (s *Server) handlePinImage(w http.ResponseWriter, r *http.Request) {
	overwrite := false
	if raw := r.URL.Query().Get("overwrite"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			http.Error(w, "invalid overwrite flag", http.StatusBadRequest)
			return
		}
		overwrite = v
	}

	res, err := s.store.PinActiveImage(overwrite)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) writeView(w http.ResponseWriter, state cursor.State) {
	view, err := cursor.BuildView(s.store.Dataset(), state)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// writeError maps domain errors to status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, cursor.ErrInvalidEvent), errors.Is(err, cursor.ErrUnknownEvent):
		status = http.StatusBadRequest
	case errors.Is(err, dataset.ErrOutOfRange), errors.Is(err, cursor.ErrNoActiveImage):
		status = http.StatusNotFound
	case errors.Is(err, xmp.ErrGPSAlreadyPresent):
		status = http.StatusConflict
	default:
		s.log.Errorf("Request failed: %v", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func corsHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
}
