package analysis

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeObjectStore struct {
	mu          sync.Mutex
	uploads     map[string]string
	contentType string
	uploadErr   error

	deletePrefix string
	deleteCutoff time.Time
	deleted      int
	deleteErr    error
	deleteCalls  int
}

func (s *fakeObjectStore) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploadErr != nil {
		return s.uploadErr
	}
	if s.uploads == nil {
		s.uploads = make(map[string]string)
	}
	s.uploads[key] = string(data)
	s.contentType = contentType
	return nil
}

func (s *fakeObjectStore) DeleteOlderThan(ctx context.Context, prefix string, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteCalls++
	s.deletePrefix = prefix
	s.deleteCutoff = cutoff
	return s.deleted, s.deleteErr
}

func TestArchiver_StoresAndForwards(t *testing.T) {
	var forwarded string
	next := newFake(func(ctx context.Context, req Request) (*Result, error) {
		data, _ := io.ReadAll(req.File.Content)
		forwarded = string(data)
		return succeed(ctx, req)
	})
	store := &fakeObjectStore{}
	archiver := NewArchiver(next, store)
	archiver.now = func() time.Time { return time.Date(2026, 3, 7, 22, 0, 0, 0, time.UTC) }

	req := testRequest("the-video")
	result, err := archiver.Analyze(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil {
		t.Fatal("expected result")
	}
	if forwarded != "the-video" {
		t.Errorf("forwarded content = %q, want the-video", forwarded)
	}

	key := "uploads/2026/03/07/req-1.mp4"
	if got := store.uploads[key]; got != "the-video" {
		t.Errorf("archived %q under %q, uploads = %v", got, key, store.uploads)
	}
	if store.contentType != "video/mp4" {
		t.Errorf("content type = %q, want video/mp4", store.contentType)
	}
}

func TestArchiver_SharesReaderAtContent(t *testing.T) {
	var forwarded io.Reader
	next := newFake(func(ctx context.Context, req Request) (*Result, error) {
		forwarded = req.File.Content
		return succeed(ctx, req)
	})
	store := &fakeObjectStore{}

	if _, err := NewArchiver(next, store).Analyze(context.Background(), testRequest("the-video")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	section, ok := forwarded.(*io.SectionReader)
	if !ok {
		t.Fatalf("forwarded content is %T, want a section over the original reader", forwarded)
	}
	if section.Size() != int64(len("the-video")) {
		t.Errorf("section size = %d, want %d", section.Size(), len("the-video"))
	}
	if len(store.uploads) != 1 {
		t.Errorf("expected 1 archived upload, got %d", len(store.uploads))
	}
}

func TestArchiver_BuffersStreamingContent(t *testing.T) {
	var forwarded string
	next := newFake(func(ctx context.Context, req Request) (*Result, error) {
		data, _ := io.ReadAll(req.File.Content)
		forwarded = string(data)
		return succeed(ctx, req)
	})
	store := &fakeObjectStore{}

	req := testRequest("")
	req.File.Content = io.MultiReader(strings.NewReader("stream"), strings.NewReader("ed"))
	req.File.Size = -1

	if _, err := NewArchiver(next, store).Analyze(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if forwarded != "streamed" {
		t.Errorf("forwarded content = %q, want streamed", forwarded)
	}
	for _, got := range store.uploads {
		if got != "streamed" {
			t.Errorf("archived %q, want streamed", got)
		}
	}
}

func TestArchiver_StorageFailureDoesNotFailAnalysis(t *testing.T) {
	next := newFake(succeed)
	store := &fakeObjectStore{uploadErr: errors.New("bucket unavailable")}

	result, err := NewArchiver(next, store).Analyze(context.Background(), testRequest("video"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil {
		t.Fatal("expected result")
	}
}

func TestArchiver_PassesThroughServiceError(t *testing.T) {
	next := newFake(func(ctx context.Context, req Request) (*Result, error) {
		return nil, httpStatusError(500, "")
	})
	store := &fakeObjectStore{}

	_, err := NewArchiver(next, store).Analyze(context.Background(), testRequest("video"))

	var aerr *Error
	if !errors.As(err, &aerr) || aerr.Message != "Server error: 500" {
		t.Fatalf("err = %v, want Server error: 500", err)
	}
	if len(store.uploads) != 1 {
		t.Errorf("expected the upload to be archived even when analysis fails")
	}
}

func TestArchiveKey(t *testing.T) {
	at := time.Date(2026, 12, 31, 23, 59, 0, 0, time.FixedZone("EST", -5*3600))

	tests := []struct {
		name string
		req  Request
		want string
	}{
		{
			name: "mime type wins",
			req:  Request{ID: "abc", File: File{Name: "clip.bin", MIMEType: "video/quicktime"}},
			want: "uploads/2027/01/01/abc.mov",
		},
		{
			name: "falls back to file extension",
			req:  Request{ID: "abc", File: File{Name: "clip.MPG", MIMEType: "video/mpeg"}},
			want: "uploads/2027/01/01/abc.mpg",
		},
		{
			name: "unknown everything",
			req:  Request{ID: "abc", File: File{Name: "clip", MIMEType: "video/x-unknown"}},
			want: "uploads/2027/01/01/abc.bin",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ArchiveKey(at, tt.req); got != tt.want {
				t.Errorf("ArchiveKey = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestArchiveKey_GeneratesIDWhenMissing(t *testing.T) {
	got := ArchiveKey(time.Unix(0, 42).UTC(), Request{File: File{MIMEType: "video/webm"}})
	if !strings.HasPrefix(got, "uploads/1970/01/01/") || !strings.HasSuffix(got, ".webm") {
		t.Errorf("ArchiveKey = %q", got)
	}
}

func TestPurgeExpiredUploads(t *testing.T) {
	store := &fakeObjectStore{deleted: 3}
	before := time.Now()

	PurgeExpiredUploads(context.Background(), store, 48*time.Hour)

	if store.deleteCalls != 1 {
		t.Fatalf("DeleteOlderThan called %d times, want 1", store.deleteCalls)
	}
	if store.deletePrefix != ArchivePrefix {
		t.Errorf("prefix = %q, want %q", store.deletePrefix, ArchivePrefix)
	}
	wantCutoff := before.Add(-48 * time.Hour)
	if d := store.deleteCutoff.Sub(wantCutoff); d < 0 || d > time.Minute {
		t.Errorf("cutoff = %v, want about %v", store.deleteCutoff, wantCutoff)
	}
}

func TestStartRetentionLoop_StopsOnCancel(t *testing.T) {
	store := &fakeObjectStore{deleteErr: errors.New("list failed")}
	ctx, cancel := context.WithCancel(context.Background())

	StartRetentionLoop(ctx, store, time.Hour, 5*time.Millisecond)

	deadline := time.Now().Add(5 * time.Second)
	for {
		store.mu.Lock()
		calls := store.deleteCalls
		store.mu.Unlock()
		if calls > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("retention loop never ran")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
}
