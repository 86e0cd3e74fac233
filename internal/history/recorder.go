package history

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Jonnydevp/FitPose/internal/analysis"
	"github.com/Jonnydevp/FitPose/internal/clientinfo"
)

const queueSize = 256

type recorderStore interface {
	Record(ctx context.Context, e Entry) error
}

// Recorder turns controller snapshots into history rows. Observers must not
// block the controller, so writes go through a bounded queue drained by one
// worker; entries are dropped when the queue is full.
type Recorder struct {
	store recorderStore
	queue chan Entry
	now   func() time.Time
	wg    sync.WaitGroup
}

func NewRecorder(store recorderStore) *Recorder {
	return &Recorder{
		store: store,
		queue: make(chan Entry, queueSize),
		now:   time.Now,
	}
}

// Start drains the queue until ctx is cancelled, then flushes what is left.
func (r *Recorder) Start(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		slog.Info("history: recorder started")
		for {
			select {
			case <-ctx.Done():
				r.flush()
				slog.Info("history: recorder shutting down")
				return
			case e := <-r.queue:
				r.write(context.Background(), e)
			}
		}
	}()
}

// Wait blocks until the worker started by Start has returned.
func (r *Recorder) Wait() {
	r.wg.Wait()
}

func (r *Recorder) flush() {
	for {
		select {
		case e := <-r.queue:
			r.write(context.Background(), e)
		default:
			return
		}
	}
}

func (r *Recorder) write(ctx context.Context, e Entry) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := r.store.Record(ctx, e); err != nil {
		slog.Error("history: failed to record analysis", "id", e.ID, "error", err)
	}
}

// Observer returns a controller observer for one session. client is read when
// an attempt finishes so the latest request's description is stored.
func (r *Recorder) Observer(sessionID string, client func() clientinfo.Info) func(analysis.Snapshot) {
	prev := analysis.StateIdle
	return func(s analysis.Snapshot) {
		entered := s.State.Terminal() && !prev.Terminal()
		prev = s.State
		if !entered {
			return
		}

		e := r.entryFor(sessionID, s)
		if client != nil {
			info := client()
			e.Browser, e.OS, e.Country, e.IPHash = info.Browser, info.OS, info.Country, info.IPHash
		}

		select {
		case r.queue <- e:
		default:
			slog.Warn("history: queue full, dropping entry", "id", e.ID)
		}
	}
}

func (r *Recorder) entryFor(sessionID string, s analysis.Snapshot) Entry {
	e := Entry{
		ID:           s.RequestID,
		SessionID:    sessionID,
		Exercise:     s.Exercise.String(),
		Status:       string(s.State),
		ErrorKind:    string(s.ErrorKind),
		ErrorMessage: s.ErrorMessage,
		CreatedAt:    r.now().UTC(),
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if s.File != nil {
		e.FileName = s.File.Name
		e.FileSize = s.File.Size
	}
	if score, ok := s.Result.Score(); ok {
		e.OverallScore = &score
	}
	return e
}
