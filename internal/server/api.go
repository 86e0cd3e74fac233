package server

import (
	"log/slog"
	"net/http"

	"github.com/Jonnydevp/FitPose/internal/exercise"
	"github.com/Jonnydevp/FitPose/internal/history"
	"github.com/Jonnydevp/FitPose/internal/httputil"
	"github.com/Jonnydevp/FitPose/internal/session"
	"github.com/Jonnydevp/FitPose/internal/validate"
)

func (s *Server) handleExercises(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, exercise.Labels())
}

func (s *Server) handleLimits(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, validate.Limits())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		httputil.WriteError(w, http.StatusNotFound, "history is disabled")
		return
	}

	sess := session.FromContext(r.Context())
	entries, err := s.history.ListForSession(r.Context(), sess.ID, history.DefaultLimit)
	if err != nil {
		slog.Error("server: failed to list history", "session_id", sess.ID, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "could not load history")
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	httputil.WriteJSON(w, http.StatusOK, entries)
}
