package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Jonnydevp/FitPose/internal/analysis"
	"github.com/Jonnydevp/FitPose/internal/clientinfo"
)

const DefaultIdleTTL = 30 * time.Minute

var activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "fitpose",
	Name:      "sessions_active",
	Help:      "Visitor sessions currently holding an analysis controller.",
})

// Session is one visitor and the controller that owns their upload.
type Session struct {
	ID         string
	Controller *analysis.Controller

	mu       sync.Mutex
	client   clientinfo.Info
	lastSeen time.Time
}

func (s *Session) Client() clientinfo.Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client
}

func (s *Session) SetClient(info clientinfo.Info) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = info
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen.Before(cutoff)
}

// ControllerFactory builds the controller for a new session. The session's ID
// is set; its Controller field is not.
type ControllerFactory func(s *Session) *analysis.Controller

type Registry struct {
	factory ControllerFactory
	ttl     time.Duration
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
}

func NewRegistry(factory ControllerFactory, idleTTL time.Duration) *Registry {
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	return &Registry{
		factory:  factory,
		ttl:      idleTTL,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Get returns the session for id, creating it when id is empty or unknown.
// The boolean reports whether a new session was created.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if s, ok := r.sessions[id]; ok && id != "" {
		s.touch(now)
		return s, false
	}
	if id == "" {
		id = uuid.NewString()
	}

	s := &Session{ID: id, lastSeen: now}
	s.Controller = r.factory(s)
	if r.closed {
		s.Controller.Close()
		return s, true
	}
	r.sessions[id] = s
	activeSessions.Inc()
	return s, true
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// EvictIdle closes and removes sessions not seen within the idle TTL.
func (r *Registry) EvictIdle() int {
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	var expired []*Session
	for id, s := range r.sessions {
		if s.idleSince(cutoff) {
			expired = append(expired, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		s.Controller.Close()
		activeSessions.Dec()
	}
	return len(expired)
}

func (r *Registry) StartEvictionLoop(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				slog.Info("session: eviction loop shutting down")
				return
			case <-ticker.C:
				if n := r.EvictIdle(); n > 0 {
					slog.Info("session: evicted idle sessions", "count", n)
				}
			}
		}
	}()
}

// Close closes every controller. Sessions requested afterwards get a closed
// controller.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Controller.Close()
		activeSessions.Dec()
	}
}
