package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Jonnydevp/FitPose/internal/exercise"
	"github.com/Jonnydevp/FitPose/internal/validate"
)

// DefaultTimeout bounds one round trip to the analysis service.
const DefaultTimeout = 120 * time.Second

// Snapshot is the state surface consumed by pages, the JSON API and the CLI.
type Snapshot struct {
	State        State             `json:"state"`
	Exercise     exercise.Exercise `json:"exercise,omitempty"`
	File         *FileInfo         `json:"file,omitempty"`
	Result       *Result           `json:"result,omitempty"`
	ErrorMessage string            `json:"errorMessage,omitempty"`
	ErrorKind    ErrorKind         `json:"errorKind,omitempty"`
	RequestID    string            `json:"requestId,omitempty"`
	Version      uint64            `json:"version"`
}

type Option func(*Controller)

func WithTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithObserver registers fn to run after every state change. Observers run with
// the controller lock held and must not call back into the controller.
func WithObserver(fn func(Snapshot)) Option {
	return func(c *Controller) {
		if fn != nil {
			c.observers = append(c.observers, fn)
		}
	}
}

func WithIDGenerator(fn func() string) Option {
	return func(c *Controller) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// Controller owns the lifecycle of one analysis attempt at a time.
type Controller struct {
	analyzer   Analyzer
	timeout    time.Duration
	newID      func() string
	observers  []func(Snapshot)
	baseCtx    context.Context
	baseCancel context.CancelFunc

	mu       sync.Mutex
	exercise exercise.Exercise
	phase    phase
	token    uint64
	version  uint64
	closed   bool
	subs     map[uint64]chan Snapshot
	nextSub  uint64

	wg sync.WaitGroup
}

func NewController(analyzer Analyzer, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		analyzer:   analyzer,
		timeout:    DefaultTimeout,
		newID:      uuid.NewString,
		baseCtx:    ctx,
		baseCancel: cancel,
		phase:      idlePhase{},
		subs:       make(map[uint64]chan Snapshot),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// SelectExercise sets the exercise for the next submission. In Succeeded the
// snapshot keeps reporting the exercise the result was produced for.
func (c *Controller) SelectExercise(label string) error {
	e, err := exercise.Parse(label)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrUnknownExercise, label)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if _, busy := c.phase.(submittingPhase); busy {
		return ErrSubmitting
	}
	if c.exercise == e {
		return nil
	}
	c.exercise = e
	c.publishLocked()
	return nil
}

// SelectFile validates f and, when it passes, submits it. The controller is in
// StateSubmitting by the time SelectFile returns nil. A selection made while a
// request is in flight cancels that request.
func (c *Controller) SelectFile(f *File) error {
	if f == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if _, done := c.phase.(succeededPhase); done {
		return ErrResetRequired
	}

	c.supersedeLocked()
	info := f.Info()
	c.setPhaseLocked(validatingPhase{file: info})

	if verr := c.validateLocked(f); verr != nil {
		attemptsTotal.WithLabelValues(string(KindValidation)).Inc()
		slog.Info("analysis: file rejected", "file", info.Name, "size", info.Size, "mime_type", info.MIMEType, "reason", verr.Message)
		c.setPhaseLocked(failedPhase{file: &info, err: verr})
		return verr
	}

	c.token++
	token := c.token
	ctx, cancel := context.WithTimeout(c.baseCtx, c.timeout)
	req := Request{ID: c.newID(), Exercise: c.exercise, File: *f}

	c.setPhaseLocked(submittingPhase{
		exercise:  req.Exercise,
		file:      info,
		requestID: req.ID,
		token:     token,
		cancel:    cancel,
		done:      make(chan struct{}),
	})

	slog.Info("analysis: submitting", "request_id", req.ID, "exercise", req.Exercise, "file", info.Name, "size", info.Size)
	inflight.Inc()
	c.wg.Add(1)
	go c.run(ctx, cancel, token, req)
	return nil
}

// Reset returns the controller to Idle and cancels any in-flight request.
// Resetting an already idle controller is a no-op.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	if _, idle := c.phase.(idlePhase); idle && c.exercise == "" {
		return
	}
	c.supersedeLocked()
	c.exercise = ""
	c.setPhaseLocked(idlePhase{})
}

// Wait blocks until the controller is not submitting.
func (c *Controller) Wait(ctx context.Context) (Snapshot, error) {
	for {
		c.mu.Lock()
		if c.closed {
			snap := c.snapshotLocked()
			c.mu.Unlock()
			return snap, ErrClosed
		}
		p, busy := c.phase.(submittingPhase)
		if !busy {
			snap := c.snapshotLocked()
			c.mu.Unlock()
			return snap, nil
		}
		done := p.done
		c.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return c.Snapshot(), ctx.Err()
		}
	}
}

// Subscribe returns a channel that receives the current snapshot and then every
// change. A slow reader only sees the latest snapshot. Call the returned func to
// unsubscribe.
func (c *Controller) Subscribe() (<-chan Snapshot, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan Snapshot, 1)
	if c.closed {
		close(ch)
		return ch, func() {}
	}

	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	ch <- c.snapshotLocked()

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
}

// Close cancels in-flight work, closes subscriptions and waits for the request
// goroutine to return.
func (c *Controller) Close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		c.supersedeLocked()
		c.baseCancel()
		for id, ch := range c.subs {
			delete(c.subs, id)
			close(ch)
		}
	}
	c.mu.Unlock()

	c.wg.Wait()
}

func (c *Controller) run(ctx context.Context, cancel context.CancelFunc, token uint64, req Request) {
	defer c.wg.Done()
	defer cancel()
	defer inflight.Dec()

	start := time.Now()
	result, aerr := c.analyze(ctx, req)
	elapsed := time.Since(start)

	c.mu.Lock()
	defer c.mu.Unlock()

	p, current := c.phase.(submittingPhase)
	if !current || p.token != token {
		staleResponsesTotal.Inc()
		slog.Debug("analysis: discarding stale response", "request_id", req.ID)
		return
	}
	if c.closed {
		close(p.done)
		c.phase = idlePhase{}
		return
	}

	outcome := outcomeLabel(aerr)
	attemptsTotal.WithLabelValues(outcome).Inc()
	requestDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())

	if aerr != nil {
		slog.Warn("analysis: request failed",
			"request_id", req.ID,
			"kind", aerr.Kind,
			"status_code", aerr.StatusCode,
			"duration_ms", elapsed.Milliseconds(),
			"error", aerr,
		)
		file := p.file
		c.setPhaseLocked(failedPhase{file: &file, requestID: req.ID, err: aerr})
		return
	}

	slog.Info("analysis: completed", "request_id", req.ID, "duration_ms", elapsed.Milliseconds())
	c.setPhaseLocked(succeededPhase{exercise: p.exercise, file: p.file, requestID: req.ID, result: result})
}

func (c *Controller) analyze(ctx context.Context, req Request) (result *Result, aerr *Error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("analysis: analyzer panicked", "request_id", req.ID, "panic", r)
			result = nil
			aerr = serviceFailure(0, fmt.Errorf("analyzer panic: %v", r))
		}
	}()

	res, err := c.analyzer.Analyze(ctx, req)
	if err != nil {
		return nil, normalize(err)
	}
	if res == nil {
		return nil, serviceFailure(0, errors.New("empty result"))
	}
	return res, nil
}

func (c *Controller) validateLocked(f *File) *Error {
	if c.exercise == "" {
		return validationError(validate.MsgNoExercise)
	}
	if msg := validate.VideoFile(f.MIMEType, f.Size); msg != "" {
		return validationError(msg)
	}
	return nil
}

func (c *Controller) supersedeLocked() {
	p, ok := c.phase.(submittingPhase)
	if !ok {
		return
	}
	p.cancel()
	supersededTotal.Inc()
	slog.Info("analysis: cancelling in-flight request", "request_id", p.requestID)
}

func (c *Controller) setPhaseLocked(next phase) {
	if prev, ok := c.phase.(submittingPhase); ok {
		close(prev.done)
	}
	c.phase = next
	c.publishLocked()
}

func (c *Controller) publishLocked() {
	c.version++
	snap := c.snapshotLocked()

	for _, fn := range c.observers {
		fn(snap)
	}
	for _, ch := range c.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:    c.phase.state(),
		Exercise: c.exercise,
		Version:  c.version,
	}
	switch p := c.phase.(type) {
	case validatingPhase:
		file := p.file
		snap.File = &file
	case submittingPhase:
		file := p.file
		snap.Exercise = p.exercise
		snap.File = &file
		snap.RequestID = p.requestID
	case succeededPhase:
		file := p.file
		snap.Exercise = p.exercise
		snap.File = &file
		snap.RequestID = p.requestID
		snap.Result = p.result
	case failedPhase:
		if p.file != nil {
			file := *p.file
			snap.File = &file
		}
		snap.RequestID = p.requestID
		snap.ErrorMessage = p.err.Message
		snap.ErrorKind = p.err.Kind
	}
	return snap
}
