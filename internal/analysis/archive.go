package analysis

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/Jonnydevp/FitPose/internal/validate"
)

const ArchivePrefix = "uploads/"

// ObjectStore is the subset of the S3 storage the archive needs.
type ObjectStore interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
}

// Archiver keeps a copy of every submitted video before forwarding it. Storage
// failures are logged and never fail the analysis.
type Archiver struct {
	next  Analyzer
	store ObjectStore
	now   func() time.Time
}

func NewArchiver(next Analyzer, store ObjectStore) *Archiver {
	return &Archiver{next: next, store: store, now: time.Now}
}

func (a *Archiver) Analyze(ctx context.Context, req Request) (*Result, error) {
	if req.File.Content == nil {
		return a.next.Analyze(ctx, req)
	}

	newReader, size, err := contentOpener(req.File)
	if err != nil {
		return nil, transportError(fmt.Errorf("read upload: %w", err))
	}

	key := ArchiveKey(a.now(), req)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := a.store.Upload(ctx, key, newReader(), size, req.File.MIMEType); err != nil {
			slog.Warn("archive: failed to store upload", "request_id", req.ID, "key", key, "error", err)
			return
		}
		slog.Info("archive: stored upload", "request_id", req.ID, "key", key, "size", size)
	}()

	req.File.Content = newReader()
	result, err := a.next.Analyze(ctx, req)
	wg.Wait()
	return result, err
}

// contentOpener returns a func yielding independent readers over the upload.
// Content that supports ReadAt (in-memory uploads, files) is shared without a
// copy; anything else is buffered once.
func contentOpener(f File) (func() io.Reader, int64, error) {
	if ra, ok := f.Content.(io.ReaderAt); ok && f.Size >= 0 {
		return func() io.Reader { return io.NewSectionReader(ra, 0, f.Size) }, f.Size, nil
	}

	data, err := io.ReadAll(io.LimitReader(f.Content, validate.MaxVideoBytes+1))
	if err != nil {
		return nil, 0, err
	}
	return func() io.Reader { return bytes.NewReader(data) }, int64(len(data)), nil
}

// ArchiveKey places uploads in day folders so retention can prune by prefix.
func ArchiveKey(t time.Time, req Request) string {
	id := req.ID
	if id == "" {
		id = fmt.Sprintf("%d", t.UnixNano())
	}
	return fmt.Sprintf("%s%s/%s%s", ArchivePrefix, t.UTC().Format("2006/01/02"), id, extensionFor(req.File))
}

func extensionFor(f File) string {
	switch strings.ToLower(f.MIMEType) {
	case "video/mp4":
		return ".mp4"
	case "video/quicktime":
		return ".mov"
	case "video/webm":
		return ".webm"
	case "video/x-msvideo":
		return ".avi"
	case "video/x-matroska":
		return ".mkv"
	}
	if ext := strings.ToLower(path.Ext(f.Name)); ext != "" && len(ext) <= 6 {
		return ext
	}
	return ".bin"
}

// Purger deletes archived objects older than a cutoff.
type Purger interface {
	DeleteOlderThan(ctx context.Context, prefix string, cutoff time.Time) (int, error)
}

func PurgeExpiredUploads(ctx context.Context, store Purger, retention time.Duration) {
	cutoff := time.Now().Add(-retention)
	deleted, err := store.DeleteOlderThan(ctx, ArchivePrefix, cutoff)
	if err != nil {
		slog.Error("archive: retention sweep failed", "error", err)
		return
	}
	if deleted > 0 {
		slog.Info("archive: purged expired uploads", "count", deleted, "cutoff", cutoff)
	}
}

func StartRetentionLoop(ctx context.Context, store Purger, retention, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				slog.Info("archive: retention loop shutting down")
				return
			case <-ticker.C:
				PurgeExpiredUploads(ctx, store, retention)
			}
		}
	}()
}
