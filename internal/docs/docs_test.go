package docs

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandleSpec(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/docs/openapi.yaml", nil)
	rec := httptest.NewRecorder()

	HandleSpec(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/yaml" {
		t.Errorf("Content-Type = %q, want %q", ct, "application/yaml")
	}
	if !strings.HasPrefix(rec.Body.String(), "openapi:") {
		t.Error("body should start with 'openapi:'")
	}
}

func TestSpecDocumentsRoutes(t *testing.T) {
	body := string(specYAML)
	for _, path := range []string{
		"/analysis/exercise:",
		"/analysis/upload:",
		"/analysis/reset:",
		"/api/analysis:",
		"/api/analysis/events:",
		"/api/exercises:",
		"/api/limits:",
		"/api/history:",
		"/api/health:",
	} {
		if !strings.Contains(body, "  "+path) {
			t.Errorf("spec should document %s", strings.TrimSuffix(path, ":"))
		}
	}
}
