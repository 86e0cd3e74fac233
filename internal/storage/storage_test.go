package storage_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Jonnydevp/FitPose/internal/storage"
)

type fakeObject struct {
	body         []byte
	contentType  string
	lastModified time.Time
}

// fakeS3 answers the path-style requests the storage package makes.
type fakeS3 struct {
	mu      sync.Mutex
	bucket  string
	objects map[string]fakeObject
	created bool
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/")
	bucket, key, _ := strings.Cut(path, "/")
	if bucket != f.bucket {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch {
	case r.Method == http.MethodHead && key == "":
		if !f.created {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPut && key == "":
		f.created = true
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[key] = fakeObject{body: body, contentType: r.Header.Get("Content-Type"), lastModified: time.Now()}
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodGet && r.URL.Query().Get("list-type") == "2":
		f.writeList(w, r.URL.Query().Get("prefix"))
	case r.Method == http.MethodDelete:
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeS3) writeList(w http.ResponseWriter, prefix string) {
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	b.WriteString(`<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">`)
	fmt.Fprintf(&b, "<Name>%s</Name><Prefix>%s</Prefix><KeyCount>%d</KeyCount><MaxKeys>1000</MaxKeys><IsTruncated>false</IsTruncated>", f.bucket, prefix, len(keys))
	for _, k := range keys {
		obj := f.objects[k]
		fmt.Fprintf(&b, "<Contents><Key>%s</Key><LastModified>%s</LastModified><Size>%d</Size></Contents>",
			k, obj.lastModified.UTC().Format("2006-01-02T15:04:05.000Z"), len(obj.body))
	}
	b.WriteString(`</ListBucketResult>`)

	w.Header().Set("Content-Type", "application/xml")
	_, _ = w.Write([]byte(b.String()))
}

func newTestStorage(t *testing.T) (*storage.Storage, *fakeS3) {
	t.Helper()
	fake := &fakeS3{bucket: "fitpose-test", objects: make(map[string]fakeObject)}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	s, err := storage.New(context.Background(), storage.Config{
		Endpoint:  server.URL,
		Bucket:    "fitpose-test",
		AccessKey: "test",
		SecretKey: "test",
	})
	if err != nil {
		t.Fatalf("expected no error creating storage client, got: %v", err)
	}
	return s, fake
}

func TestNew_RequiresBucket(t *testing.T) {
	_, err := storage.New(context.Background(), storage.Config{Endpoint: "http://localhost:9000"})
	if err == nil {
		t.Fatal("expected error without bucket")
	}
}

func TestEnsureBucket_CreatesMissingBucket(t *testing.T) {
	s, fake := newTestStorage(t)

	if err := s.EnsureBucket(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !fake.created {
		t.Error("expected bucket to be created")
	}
	if err := s.EnsureBucket(context.Background()); err != nil {
		t.Fatalf("unexpected error on existing bucket: %v", err)
	}
}

func TestUpload_StoresObject(t *testing.T) {
	s, fake := newTestStorage(t)

	body := []byte("squat-video")
	err := s.Upload(context.Background(), "uploads/2026/01/01/req.mp4", bytes.NewReader(body), int64(len(body)), "video/mp4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	obj, ok := fake.objects["uploads/2026/01/01/req.mp4"]
	if !ok {
		t.Fatalf("object not stored, have %v", fake.objects)
	}
	if string(obj.body) != "squat-video" {
		t.Errorf("stored body = %q, want squat-video", obj.body)
	}
	if obj.contentType != "video/mp4" {
		t.Errorf("content type = %q, want video/mp4", obj.contentType)
	}
}

func TestDeleteOlderThan(t *testing.T) {
	s, fake := newTestStorage(t)

	now := time.Now()
	fake.objects["uploads/2025/01/01/old.mp4"] = fakeObject{body: []byte("a"), lastModified: now.Add(-60 * 24 * time.Hour)}
	fake.objects["uploads/2026/01/01/new.mp4"] = fakeObject{body: []byte("b"), lastModified: now}
	fake.objects["other/old.mp4"] = fakeObject{body: []byte("c"), lastModified: now.Add(-60 * 24 * time.Hour)}

	deleted, err := s.DeleteOlderThan(context.Background(), "uploads/", now.Add(-30*24*time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted %d objects, want 1", deleted)
	}
	if _, ok := fake.objects["uploads/2025/01/01/old.mp4"]; ok {
		t.Error("expired upload was not deleted")
	}
	if _, ok := fake.objects["uploads/2026/01/01/new.mp4"]; !ok {
		t.Error("recent upload was deleted")
	}
	if _, ok := fake.objects["other/old.mp4"]; !ok {
		t.Error("object outside the prefix was deleted")
	}
}
