package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/Jonnydevp/FitPose/internal/analysis"
	"github.com/Jonnydevp/FitPose/internal/httputil"
	"github.com/Jonnydevp/FitPose/internal/session"
	"github.com/Jonnydevp/FitPose/internal/validate"
)

const (
	// maxUploadBody caps the whole multipart body. Videos above the per-file
	// limit are still counted so the size rule can reject them.
	maxUploadBody  = 2*validate.MaxVideoBytes + 1<<20
	maxFieldBytes  = 256
	eventKeepalive = 25 * time.Second
)

const (
	kindConflict = "conflict"
	kindRequest  = "request"
)

func (s *Server) handleSelectExercise(w http.ResponseWriter, r *http.Request) {
	ctrl := session.FromContext(r.Context()).Controller
	if err := ctrl.SelectExercise(r.FormValue("exercise")); err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, ctrl.Snapshot())
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctrl := session.FromContext(r.Context()).Controller

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	label, file, err := readUpload(r)
	if err != nil {
		slog.Warn("server: malformed upload", "error", err)
		respondError(w, r, badRequest("invalid upload form"))
		return
	}

	snap := ctrl.Snapshot()
	if snap.State == analysis.StateSucceeded {
		respondError(w, r, analysis.ErrResetRequired)
		return
	}
	if label != "" && label != snap.Exercise.String() {
		if err := ctrl.SelectExercise(label); err != nil {
			respondError(w, r, err)
			return
		}
	}
	if err := ctrl.SelectFile(file); err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, ctrl.Snapshot())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	ctrl := session.FromContext(r.Context()).Controller
	ctrl.Reset()
	respond(w, r, ctrl.Snapshot())
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, session.FromContext(r.Context()).Controller.Snapshot())
}

// handleEvents streams every snapshot change as a server-sent event.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	ctrl := session.FromContext(r.Context()).Controller
	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})

	updates, unsubscribe := ctrl.Subscribe()
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	_ = rc.Flush()

	keepalive := time.NewTicker(eventKeepalive)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			data, err := json.Marshal(snap)
			if err != nil {
				slog.Error("server: failed to encode snapshot", "error", err)
				return
			}
			if _, err := fmt.Fprintf(w, "id: %d\ndata: %s\n\n", snap.Version, data); err != nil {
				return
			}
		case <-keepalive.C:
			if _, err := io.WriteString(w, ": keepalive\n\n"); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

// readUpload reads the exercise field and the video part from a multipart
// body. A missing or empty file part yields a nil file.
func readUpload(r *http.Request) (string, *analysis.File, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return "", nil, err
	}

	var (
		label string
		file  *analysis.File
	)
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) && file != nil {
			break
		}
		if err != nil {
			return "", nil, err
		}

		switch part.FormName() {
		case "exercise":
			b, err := io.ReadAll(io.LimitReader(part, maxFieldBytes))
			if err != nil {
				return "", nil, err
			}
			label = strings.TrimSpace(string(b))
		case "file":
			if part.FileName() == "" {
				break
			}
			if file, err = readVideoPart(part); err != nil {
				return "", nil, err
			}
		}
		_ = part.Close()
	}
	return label, file, nil
}

// readVideoPart buffers an acceptable video and only measures anything else.
func readVideoPart(part *multipart.Part) (*analysis.File, error) {
	f := &analysis.File{
		Name:     part.FileName(),
		MIMEType: part.Header.Get("Content-Type"),
	}

	if validate.VideoMIMEType(f.MIMEType) != "" {
		n, _ := io.Copy(io.Discard, part)
		f.Size = n
		return f, nil
	}

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(part, validate.MaxVideoBytes+1))
	if err != nil {
		return nil, err
	}
	f.Size = n
	if n > validate.MaxVideoBytes {
		rest, _ := io.Copy(io.Discard, part)
		f.Size += rest
		return f, nil
	}
	f.Content = bytes.NewReader(buf.Bytes())
	return f, nil
}

// respond answers a form post with a redirect home and an API call with the
// snapshot.
func respond(w http.ResponseWriter, r *http.Request, snap analysis.Snapshot) {
	if httputil.WantsJSON(r) {
		httputil.WriteJSON(w, http.StatusOK, snap)
		return
	}
	httputil.SeeOther(w, r, "/")
}

type requestError struct{ msg string }

func (e *requestError) Error() string { return e.msg }

func badRequest(msg string) error { return &requestError{msg: msg} }

// respondError maps controller errors to HTTP. Browsers are sent home, where
// the page already shows the failed state.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	if !httputil.WantsJSON(r) {
		httputil.SeeOther(w, r, "/")
		return
	}

	status, kind := errorStatus(err)
	msg := err.Error()
	var aerr *analysis.Error
	if errors.As(err, &aerr) {
		msg = aerr.Message
	}
	httputil.WriteErrorKind(w, status, msg, kind)
}

func errorStatus(err error) (int, string) {
	var aerr *analysis.Error
	var rerr *requestError
	switch {
	case errors.As(err, &aerr):
		return http.StatusUnprocessableEntity, string(aerr.Kind)
	case errors.Is(err, analysis.ErrUnknownExercise):
		return http.StatusUnprocessableEntity, string(analysis.KindValidation)
	case errors.Is(err, analysis.ErrSubmitting), errors.Is(err, analysis.ErrResetRequired):
		return http.StatusConflict, kindConflict
	case errors.Is(err, analysis.ErrClosed):
		return http.StatusServiceUnavailable, kindConflict
	case errors.As(err, &rerr):
		return http.StatusBadRequest, kindRequest
	default:
		return http.StatusInternalServerError, ""
	}
}
