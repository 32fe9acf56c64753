// Package server exposes the acquisition pipeline over HTTP: a small JSON
// configuration API and a server-sent events stream of scan results. The
// acquisition loop is bound to the stream subscribers: it starts when the
// first client attaches while streaming is enabled and stops when the last
// one leaves.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/roman-kulish/radio-spectrum/internal/storage"
	"github.com/roman-kulish/radio-spectrum/internal/sweep"
)

const (
	// ModeSweep streams full sweep spectra.
	ModeSweep = "sweep"

	// ModeTrack streams single-frequency captures with distance estimates.
	ModeTrack = "track"
)

// errorBackoff is the pause after a failed acquisition run before retrying.
const errorBackoff = time.Second

// Server wires the acquisition session to HTTP handlers. It owns the
// background acquisition goroutine and the set of stream subscribers.
type Server struct {
	session *sweep.Session
	store   storage.Store // nil disables persistence
	mode    string
	source  string
	logger  *slog.Logger

	mu        sync.Mutex
	streaming bool
	subs      map[chan []byte]struct{}
	cancel    context.CancelFunc
	done      chan struct{}
	prev      chan struct{} // done of the last stopped loop, until it drains
}

// Option configures optional Server behaviour.
type Option func(*Server)

// WithLogger sets the logger for request and acquisition diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithStore enables persistence of scan sessions and detected peaks.
func WithStore(store storage.Store) Option {
	return func(s *Server) {
		s.store = store
	}
}

// New creates a server around an acquisition session. mode selects what the
// stream carries; source names the capture source for session records.
func New(session *sweep.Session, mode, source string, opts ...Option) (*Server, error) {
	if session == nil {
		return nil, errors.New("server: session is required")
	}
	if mode != ModeSweep && mode != ModeTrack {
		return nil, fmt.Errorf("server: unknown mode %q", mode)
	}

	s := &Server{
		session:   session,
		mode:      mode,
		source:    source,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		streaming: true,
		subs:      make(map[chan []byte]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Handler returns the HTTP routes of the service.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /config", s.handleConfig)
	mux.HandleFunc("POST /scan", s.handleScan)
	mux.HandleFunc("POST /rssi", s.handleRSSI)
	mux.HandleFunc("POST /streaming", s.handleStreaming)
	mux.HandleFunc("GET /spectrum", s.handleSpectrum)
	mux.HandleFunc("GET /stream", s.handleStream)
	return mux
}

// Close stops the acquisition loop if it is running and waits for it to
// finish. Attached stream clients are left to observe their own contexts.
func (s *Server) Close() {
	s.mu.Lock()
	cancel, done, prev := s.cancel, s.done, s.prev
	s.cancel, s.done, s.prev = nil, nil, nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		prev = done // the running loop drains its predecessor before exiting
	}
	if prev != nil {
		<-prev
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "radio-spectrum",
		"mode":    s.mode,
		"source":  s.source,
	})
}

type configResponse struct {
	Mode           string  `json:"mode"`
	StartFrequency int64   `json:"startFrequency"`
	EndFrequency   int64   `json:"endFrequency"`
	StepFrequency  int64   `json:"stepFrequency"`
	DwellTimeMS    int64   `json:"dwellTimeMs"`
	TrackFrequency int64   `json:"trackFrequency"`
	RSSIRefDBm     float64 `json:"rssiRefDBm"`
	Streaming      bool    `json:"streaming"`
}

func (s *Server) configSnapshot() configResponse {
	cfg := s.session.SweepConfig()

	s.mu.Lock()
	streaming := s.streaming
	s.mu.Unlock()

	return configResponse{
		Mode:           s.mode,
		StartFrequency: cfg.StartFrequency,
		EndFrequency:   cfg.EndFrequency,
		StepFrequency:  cfg.StepFrequency,
		DwellTimeMS:    cfg.DwellTime.Milliseconds(),
		TrackFrequency: s.session.TrackFrequency(),
		RSSIRefDBm:     s.session.RSSIRef(),
		Streaming:      streaming,
	}
}

func (s *Server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.configSnapshot())
}

type scanRequest struct {
	StartFrequency *int64 `json:"startFrequency"`
	EndFrequency   *int64 `json:"endFrequency"`
	StepFrequency  *int64 `json:"stepFrequency"`
	DwellTimeMS    *int64 `json:"dwellTimeMs"`
	TrackFrequency *int64 `json:"trackFrequency"`
}

// handleScan applies a partial update to the sweep parameters. Omitted
// fields keep their current values; an invalid combination leaves the
// running configuration untouched.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err))
		return
	}

	cfg := s.session.SweepConfig()
	if req.StartFrequency != nil {
		cfg.StartFrequency = *req.StartFrequency
	}
	if req.EndFrequency != nil {
		cfg.EndFrequency = *req.EndFrequency
	}
	if req.StepFrequency != nil {
		cfg.StepFrequency = *req.StepFrequency
	}
	if req.DwellTimeMS != nil {
		cfg.DwellTime = time.Duration(*req.DwellTimeMS) * time.Millisecond
	}

	if err := s.session.SetSweepConfig(cfg); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.TrackFrequency != nil {
		if err := s.session.SetTrackFrequency(*req.TrackFrequency); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	s.logger.Info("scan parameters updated",
		slog.Int64("start", cfg.StartFrequency),
		slog.Int64("end", cfg.EndFrequency),
		slog.Int64("step", cfg.StepFrequency))
	writeJSON(w, http.StatusOK, s.configSnapshot())
}

type rssiRequest struct {
	RSSIRef *float64 `json:"rssiRef"`
}

func (s *Server) handleRSSI(w http.ResponseWriter, r *http.Request) {
	var req rssiRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err))
		return
	}
	if req.RSSIRef == nil {
		writeError(w, http.StatusBadRequest, errors.New("rssiRef is required"))
		return
	}

	s.session.SetRSSIRef(*req.RSSIRef)
	s.logger.Info("rssi reference updated", slog.Float64("rssiRef", *req.RSSIRef))
	writeJSON(w, http.StatusOK, s.configSnapshot())
}

type streamingRequest struct {
	Enabled *bool `json:"enabled"`
}

func (s *Server) handleStreaming(w http.ResponseWriter, r *http.Request) {
	var req streamingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err))
		return
	}
	if req.Enabled == nil {
		writeError(w, http.StatusBadRequest, errors.New("enabled is required"))
		return
	}

	s.mu.Lock()
	s.streaming = *req.Enabled
	s.syncLoopLocked()
	s.mu.Unlock()

	s.logger.Info("streaming toggled", slog.Bool("enabled", *req.Enabled))
	writeJSON(w, http.StatusOK, s.configSnapshot())
}

// handleSpectrum runs one sweep on demand and returns the full result, the
// export format consumed by the offline renderer. The session serializes it
// against the streaming loop.
func (s *Server) handleSpectrum(w http.ResponseWriter, r *http.Request) {
	result, err := s.session.Sweep(r.Context())
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("streaming unsupported"))
		return
	}

	ch := s.subscribe()
	defer s.unsubscribe(ch)

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg := <-ch:
			if _, err := fmt.Fprintf(w, "data: %s\n\n", msg); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (s *Server) subscribe() chan []byte {
	ch := make(chan []byte, 4)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[ch] = struct{}{}
	s.syncLoopLocked()

	s.logger.Debug("stream subscriber attached", slog.Int("subscribers", len(s.subs)))
	return ch
}

func (s *Server) unsubscribe(ch chan []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, ch)
	s.syncLoopLocked()

	s.logger.Debug("stream subscriber detached", slog.Int("subscribers", len(s.subs)))
}

// syncLoopLocked reconciles the acquisition goroutine with the desired
// state: running exactly when streaming is enabled and someone is listening.
// Caller holds s.mu.
func (s *Server) syncLoopLocked() {
	want := s.streaming && len(s.subs) > 0
	running := s.cancel != nil

	switch {
	case want && !running:
		ctx, cancel := context.WithCancel(context.Background())
		s.cancel = cancel
		s.done = make(chan struct{})
		go s.run(ctx, s.done, s.prev)
		s.prev = nil

	case !want && running:
		s.cancel()
		s.prev = s.done
		s.cancel, s.done = nil, nil
	}
}

// run is the acquisition loop: one sweep or tracking capture per iteration,
// broadcast to all subscribers and optionally persisted.
func (s *Server) run(ctx context.Context, done chan struct{}, prev <-chan struct{}) {
	defer close(done)

	// A restarted loop must not overlap its cancelled predecessor, which may
	// still be mid-sweep.
	if prev != nil {
		<-prev
	}
	if ctx.Err() != nil {
		return
	}

	s.logger.Info("acquisition started", slog.String("mode", s.mode))
	defer s.logger.Info("acquisition stopped")

	var sessionID int64
	if s.store != nil {
		var err error
		sessionID, err = s.store.CreateSession(ctx, s.mode, s.source, s.configSnapshot())
		if err != nil {
			s.logger.Error("creating scan session", slog.Any("error", err))
			s.store = nil // keep streaming without persistence
		}
	}

	for ctx.Err() == nil {
		if err := s.acquireOnce(ctx, sessionID); err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Error("acquisition failed", slog.Any("error", err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(errorBackoff):
			}
		}
	}
}

func (s *Server) acquireOnce(ctx context.Context, sessionID int64) error {
	switch s.mode {
	case ModeTrack:
		result, err := s.session.Track(ctx)
		if err != nil {
			return err
		}
		return s.publish(result)

	default:
		result, err := s.session.Sweep(ctx)
		if err != nil {
			return err
		}
		if s.store != nil && len(result.Peaks) > 0 {
			if err := s.store.StorePeaks(ctx, sessionID, result.Timestamp, result.Peaks); err != nil {
				s.logger.Error("storing peaks", slog.Any("error", err))
			}
		}
		return s.publish(result)
	}
}

// publish broadcasts one result to every subscriber. Slow subscribers with a
// full buffer miss the event rather than stall the loop.
func (s *Server) publish(v any) error {
	msg, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- msg:
		default:
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
