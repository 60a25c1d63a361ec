package livestatus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lowaak/compprep/compprep-app/internal/events"
	"github.com/lowaak/compprep/compprep-app/internal/go_func_utils"
	"github.com/lowaak/compprep/compprep-app/internal/interval"
)

// Server publishes live status over HTTP: a JSON snapshot and a
// server-sent-events stream. It implements interval.LiveStatusPublisher.
type Server struct {
	logger   *log.Logger
	activity activity
	snapshot *events.ChannelEvent[Snapshot]

	mu       sync.Mutex
	httpSrv  *http.Server
	listener net.Listener

	closing   chan struct{} // Closed to end open streams
	closeOnce sync.Once
}

func NewServer(logger *log.Logger) *Server {
	if logger == nil {
		panic("Server: logger cannot be nil")
	}
	s := &Server{
		logger:   logger,
		snapshot: events.NewChannelEvent[Snapshot](true),
		closing:  make(chan struct{}),
	}
	s.snapshot.Notify(inactiveSnapshot())
	return s
}

func (s *Server) Start(_ context.Context, totalSets int) error {
	if s.activity.start(totalSets) {
		s.logger.Printf("LiveStatus: HTTP activity started (%d sets)", totalSets)
	}
	return nil
}

func (s *Server) Update(_ context.Context, status interval.LiveStatus) error {
	status, ok := s.activity.update(status)
	if !ok {
		return nil
	}
	s.snapshot.Notify(NewSnapshot(status))
	return nil
}

func (s *Server) End(_ context.Context) error {
	if s.activity.end() {
		s.logger.Printf("LiveStatus: HTTP activity ended")
		s.snapshot.Notify(inactiveSnapshot())
	}
	return nil
}

// Current returns the snapshot being served.
func (s *Server) Current() Snapshot {
	snap, ok := s.snapshot.Last()
	if !ok {
		return inactiveSnapshot()
	}
	return snap
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/api/status", s.handleStatus)
	r.Get("/api/status/stream", s.handleStream)
	return r
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.Current()); err != nil {
		s.logger.Printf("LiveStatus: encode status failed: %v", err)
	}
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	updates := make(chan Snapshot, 8)
	unregister := s.snapshot.Listen(updates)
	defer unregister()

	for {
		select {
		case snap := <-updates:
			data, err := json.Marshal(snap)
			if err != nil {
				s.logger.Printf("LiveStatus: encode stream event failed: %v", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		case <-s.closing:
			return
		}
	}
}

// ListenAndServe binds addr and serves in the background. It returns once
// the listener is open so bind errors surface to the caller.
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("live status listen %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.mu.Lock()
	s.httpSrv = srv
	s.listener = ln
	s.mu.Unlock()

	s.logger.Printf("LiveStatus: serving on http://%s/api/status", ln.Addr())
	go_func_utils.SafeGo(s.logger, func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Printf("LiveStatus: server stopped: %v", err)
		}
	})
	return nil
}

// Addr is the bound address, or empty before ListenAndServe.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown closes open streams and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.closeOnce.Do(func() { close(s.closing) })

	s.mu.Lock()
	srv := s.httpSrv
	s.httpSrv = nil
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	s.logger.Printf("LiveStatus: Shutting down server")
	err := srv.Shutdown(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		return srv.Close()
	}
	return err
}
