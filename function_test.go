package ytsummarizer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
)

func TestMain(m *testing.M) {
	// Set up test environment variables
	os.Setenv("GOOGLE_API_KEY", "test-gemini-key")
	os.Setenv("CACHE_TYPE", "memory")
	os.Setenv("CACHE_DURATION_HOURS", "1")
	os.Setenv("RATE_LIMIT_PER_MINUTE", "0")

	// Run tests
	code := m.Run()

	// Clean up
	os.Unsetenv("GOOGLE_API_KEY")
	os.Unsetenv("CACHE_TYPE")
	os.Unsetenv("CACHE_DURATION_HOURS")
	os.Unsetenv("RATE_LIMIT_PER_MINUTE")

	os.Exit(code)
}

func TestSummarizeHealthCheck(t *testing.T) {
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	Summarize(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if response["status"] != "ok" {
		t.Errorf("Expected status 'ok', got '%v'", response["status"])
	}
}

func TestSummarizeInvalidRoute(t *testing.T) {
	req := httptest.NewRequest("GET", "/invalid", nil)
	w := httptest.NewRecorder()

	Summarize(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestSummarizeRejectsShortID(t *testing.T) {
	req := httptest.NewRequest("POST", "/summarize", strings.NewReader(`{"url_or_id": "abc"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	Summarize(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}

	var response map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response["detail"] == "" {
		t.Error("Expected detail in error response")
	}
}

func TestSummarizeCacheStats(t *testing.T) {
	req := httptest.NewRequest("GET", "/cache/stats", nil)
	w := httptest.NewRecorder()

	Summarize(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	var stats map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if stats["backend"] != "memory" {
		t.Errorf("Expected memory backend, got %v", stats["backend"])
	}
}

func BenchmarkSummarizeHealthCheck(b *testing.B) {
	req := httptest.NewRequest("GET", "/health", nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w := httptest.NewRecorder()
		Summarize(w, req)
	}
}
