// Package reviewserver exposes review sessions over a JSON HTTP API: one
// in-memory sitting per user, backed by the durable card store.
package reviewserver

import (
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/esheagren/pluck-sub000/internal/session"
	"github.com/esheagren/pluck-sub000/internal/srs"
	"github.com/esheagren/pluck-sub000/internal/stores"
)

// Server hosts one live session per user. Session operations are serialized
// behind a single mutex; the session type itself is not thread-safe.
type Server struct {
	store stores.CardStore
	sched *srs.Scheduler
	cfg   session.Config

	// Nower is the server's clock; tests substitute a fixed one.
	Nower session.Nower

	mu       sync.Mutex
	sessions map[string]*session.Session
}

// NewServer creates a review server over the given store and scheduler.
func NewServer(store stores.CardStore, sched *srs.Scheduler, cfg session.Config) *Server {
	return &Server{
		store:    store,
		sched:    sched,
		Nower:    session.RealNower{},
		cfg:      cfg,
		sessions: map[string]*session.Session{},
	}
}

// Handler returns the routed HTTP handler with request logging attached.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /session", s.handleStartSession)
	mux.HandleFunc("GET /session/{user}/current", s.handleCurrent)
	mux.HandleFunc("POST /session/{user}/review", s.handleReview)
	mux.HandleFunc("POST /session/{user}/skip", s.handleSkip)
	mux.HandleFunc("POST /session/{user}/remove", s.handleRemove)
	mux.HandleFunc("GET /session/{user}/progress", s.handleProgress)

	mux.HandleFunc("POST /cards", s.handleAddCards)
	mux.HandleFunc("DELETE /cards/{user}/{id}", s.handleDeleteCard)

	chain := hlog.NewHandler(log.Logger)(
		hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
			hlog.FromRequest(r).Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Dur("duration", duration).
				Msg("request")
		})(mux))
	return chain
}

// sessionFor returns the user's live session, or nil when none was started.
func (s *Server) sessionFor(userID string) *session.Session {
	return s.sessions[userID]
}
