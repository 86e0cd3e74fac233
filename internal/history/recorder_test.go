package history

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/Jonnydevp/FitPose/internal/analysis"
	"github.com/Jonnydevp/FitPose/internal/clientinfo"
)

type memoryStore struct {
	mu      sync.Mutex
	entries []Entry
}

func (m *memoryStore) Record(ctx context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func (m *memoryStore) all() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Entry(nil), m.entries...)
}

type failingAnalyzer struct{}

func (failingAnalyzer) Analyze(ctx context.Context, req analysis.Request) (*analysis.Result, error) {
	return nil, &analysis.Error{Kind: analysis.KindService, Message: "Server error: 500", StatusCode: 500}
}

func TestRecorder_RecordsTerminalTransitionsOnce(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	store := &memoryStore{}
	rec := NewRecorder(store)
	ctx, cancel := context.WithCancel(context.Background())
	rec.Start(ctx)

	client := func() clientinfo.Info {
		return clientinfo.Info{Browser: "Safari", OS: "iOS", Country: "FR", IPHash: "hash"}
	}
	c := analysis.NewController(failingAnalyzer{}, analysis.WithObserver(rec.Observer("sess-1", client)))

	if err := c.SelectExercise("Lunges"); err != nil {
		t.Fatal(err)
	}
	_ = c.SelectFile(&analysis.File{Name: "notes.txt", Size: 5, MIMEType: "text/plain"})
	// Re-selecting the exercise in Failed republishes the same state.
	_ = c.SelectExercise("Squats")
	_ = c.SelectFile(&analysis.File{Name: "squat.mp4", Size: 10, MIMEType: "video/mp4", Content: nil})
	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	if _, err := c.Wait(waitCtx); err != nil {
		t.Fatal(err)
	}
	c.Close()

	cancel()
	rec.Wait()

	entries := store.all()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d: %+v", len(entries), entries)
	}

	validation := entries[0]
	if validation.Status != "failed" || validation.ErrorKind != "validation" || validation.Exercise != "Lunges" {
		t.Errorf("unexpected validation entry: %+v", validation)
	}
	if validation.ID == "" {
		t.Error("expected generated id for validation failure")
	}
	if validation.FileName != "notes.txt" {
		t.Errorf("expected file name notes.txt, got %q", validation.FileName)
	}

	service := entries[1]
	if service.ErrorMessage != "Server error: 500" || service.Exercise != "Squats" {
		t.Errorf("unexpected service entry: %+v", service)
	}
	if service.Browser != "Safari" || service.Country != "FR" || service.IPHash != "hash" {
		t.Errorf("client info not copied: %+v", service)
	}
	if service.SessionID != "sess-1" {
		t.Errorf("expected session id sess-1, got %q", service.SessionID)
	}
}

func TestRecorder_ObserverIgnoresNonTerminalStates(t *testing.T) {
	rec := NewRecorder(&memoryStore{})
	observe := rec.Observer("sess-1", nil)

	observe(analysis.Snapshot{State: analysis.StateIdle})
	observe(analysis.Snapshot{State: analysis.StateValidating})
	observe(analysis.Snapshot{State: analysis.StateSubmitting, RequestID: "req-1"})

	if n := len(rec.queue); n != 0 {
		t.Errorf("expected empty queue, got %d", n)
	}

	observe(analysis.Snapshot{State: analysis.StateSucceeded, RequestID: "req-1"})
	if n := len(rec.queue); n != 1 {
		t.Fatalf("expected 1 queued entry, got %d", n)
	}
	if e := <-rec.queue; e.ID != "req-1" || e.Status != "succeeded" {
		t.Errorf("unexpected entry: %+v", e)
	}
}

func TestRecorder_DropsWhenQueueFull(t *testing.T) {
	rec := NewRecorder(&memoryStore{})
	observe := rec.Observer("sess-1", nil)

	for i := 0; i < queueSize+5; i++ {
		observe(analysis.Snapshot{State: analysis.StateSubmitting})
		observe(analysis.Snapshot{State: analysis.StateFailed, ErrorMessage: "x"})
	}
	if n := len(rec.queue); n != queueSize {
		t.Errorf("expected queue capped at %d, got %d", queueSize, n)
	}
}
