package server

import (
	"log/slog"
	"net/http"

	g "maragu.dev/gomponents"

	"github.com/Jonnydevp/FitPose/internal/exercise"
	"github.com/Jonnydevp/FitPose/internal/history"
	"github.com/Jonnydevp/FitPose/internal/httputil"
	"github.com/Jonnydevp/FitPose/internal/pages"
	"github.com/Jonnydevp/FitPose/internal/session"
)

func render(w http.ResponseWriter, page g.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := page.Render(w); err != nil {
		slog.Error("server: failed to render page", "error", err)
	}
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	data := pages.HomeData{
		Snapshot:       sess.Controller.Snapshot(),
		Exercises:      exercise.All(),
		HistoryEnabled: s.history != nil,
		Nonce:          httputil.NonceFromContext(r.Context()),
	}
	if s.history != nil {
		entries, err := s.history.ListForSession(r.Context(), sess.ID, history.DefaultLimit)
		if err != nil {
			slog.Error("server: failed to list history", "session_id", sess.ID, "error", err)
		}
		data.History = entries
	}
	render(w, pages.Home(data))
}

func (s *Server) handleAbout(w http.ResponseWriter, r *http.Request) {
	render(w, pages.About(httputil.NonceFromContext(r.Context())))
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	render(w, pages.Contact(httputil.NonceFromContext(r.Context())))
}
