// Package web provides an HTTP status server for the club controller.
package web

import (
	"context"
	"encoding/json"
	"net"
	"net/http"

	"github.com/sweeney/club-controller/internal/status"
)

// Controller is the operator override surface exposed over HTTP.
type Controller interface {
	TogglePower()
	SetRelay()
}

// Connection reports the live state of the message bus connection.
type Connection interface {
	IsConnected() bool
}

// Server serves the status page over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	ctl        Controller
	conn       Connection
}

// Option configures a Server.
type Option func(*Server)

// WithConnection makes every request refresh the tracker's bus connection
// state from conn before rendering.
func WithConnection(conn Connection) Option {
	return func(s *Server) { s.conn = conn }
}

// New creates a Server that reads state from the given tracker. A nil ctl
// disables the override endpoints; a nil metrics handler disables /metrics.
func New(addr string, tracker *status.Tracker, ctl Controller, metrics http.Handler, opts ...Option) *Server {
	s := &Server{tracker: tracker, ctl: ctl}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/index.json", s.handleJSON)
	if metrics != nil {
		mux.Handle("/metrics", metrics)
	}
	if ctl != nil {
		mux.HandleFunc("POST /api/toggle-power", s.handleTogglePower)
		mux.HandleFunc("POST /api/set-relay", s.handleSetRelay)
	}

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// Handler returns the root handler. Useful for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	snap := s.snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap, s.ctl != nil)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

func (s *Server) snapshot() status.Snapshot {
	if s.conn != nil {
		s.tracker.SetMQTTConnected(s.conn.IsConnected())
	}
	return s.tracker.Snapshot()
}

// ActionResponse acknowledges an override request. The change is applied
// asynchronously by the relay worker.
type ActionResponse struct {
	Action   string `json:"action"`
	Accepted bool   `json:"accepted"`
}

func (s *Server) handleTogglePower(w http.ResponseWriter, r *http.Request) {
	s.ctl.TogglePower()
	writeAction(w, "toggle-power")
}

func (s *Server) handleSetRelay(w http.ResponseWriter, r *http.Request) {
	s.ctl.SetRelay()
	writeAction(w, "set-relay")
}

func writeAction(w http.ResponseWriter, action string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(ActionResponse{Action: action, Accepted: true})
}
