package summarizer

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ahmetzturk/yt-summarizer/internal/apperrors"
	"github.com/ahmetzturk/yt-summarizer/internal/cache"
	"github.com/ahmetzturk/yt-summarizer/internal/metrics"
	"github.com/ahmetzturk/yt-summarizer/internal/mocks"
)

func newService(fetcher *mocks.Fetcher, summarizer *mocks.Summarizer, manager *cache.Manager) *Service {
	return New(fetcher, summarizer, manager, metrics.New(), Options{
		DefaultLanguage:     "tr",
		TranscriptLanguages: []string{"tr", "tr-TR", "en"},
	})
}

func TestSummarize(t *testing.T) {
	fetcher := &mocks.Fetcher{Text: "hello world"}
	summarizer := &mocks.Summarizer{Summary: "A short greeting."}
	service := newService(fetcher, summarizer, nil)

	resp, err := service.Summarize(context.Background(), Request{
		URLOrID:  "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		Language: "en",
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if resp.VideoID != "dQw4w9WgXcQ" || resp.Language != "en" || resp.Summary != "A short greeting." {
		t.Errorf("Unexpected response: %+v", resp)
	}

	if fetcher.VideoIDs[0] != "dQw4w9WgXcQ" {
		t.Errorf("Expected fetch for extracted id, got %s", fetcher.VideoIDs[0])
	}

	want := "Summarize the following YouTube transcript in en. Provide a detailed but clear summary of the content:\n\"\"\"hello world\"\"\""
	if summarizer.LastPrompt() != want {
		t.Errorf("Unexpected prompt:\n%s", summarizer.LastPrompt())
	}

	if summarizer.Models[0] != "gemini-2.5-flash" {
		t.Errorf("Expected default model, got %s", summarizer.Models[0])
	}
}

func TestSummarizeDefaultLanguage(t *testing.T) {
	fetcher := &mocks.Fetcher{Text: "merhaba dünya"}
	summarizer := &mocks.Summarizer{Summary: "Kısa bir selamlama."}
	service := newService(fetcher, summarizer, nil)

	resp, err := service.Summarize(context.Background(), Request{URLOrID: "dQw4w9WgXcQ", Language: "  "})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if resp.Language != "tr" {
		t.Errorf("Expected default language 'tr', got '%s'", resp.Language)
	}
	if !strings.Contains(summarizer.LastPrompt(), "transcript in tr.") {
		t.Errorf("Expected Turkish prompt, got %s", summarizer.LastPrompt())
	}
}

func TestTranscriptLanguages(t *testing.T) {
	tests := []struct {
		name     string
		req      Request
		expected []string
	}{
		{
			name:     "summary language first",
			req:      Request{URLOrID: "dQw4w9WgXcQ", Language: "de"},
			expected: []string{"de", "tr", "tr-TR", "en"},
		},
		{
			name:     "explicit preference",
			req:      Request{URLOrID: "dQw4w9WgXcQ", Language: "de", TranscriptLanguages: []string{"en"}},
			expected: []string{"en"},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			fetcher := &mocks.Fetcher{Text: "text"}
			service := newService(fetcher, &mocks.Summarizer{Summary: "s"}, nil)

			if _, err := service.Summarize(context.Background(), test.req); err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			got := fetcher.Languages[0]
			if strings.Join(got, ",") != strings.Join(test.expected, ",") {
				t.Errorf("Expected languages %v, got %v", test.expected, got)
			}
		})
	}
}

func TestSummarizeTruncatesLongTranscript(t *testing.T) {
	fetcher := &mocks.Fetcher{Text: strings.Repeat("a", 15000)}
	summarizer := &mocks.Summarizer{Summary: "s"}
	service := newService(fetcher, summarizer, nil)

	if _, err := service.Summarize(context.Background(), Request{URLOrID: "dQw4w9WgXcQ"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !strings.Contains(summarizer.LastPrompt(), strings.Repeat("a", 12000)+" ...\"\"\"") {
		t.Error("Expected transcript truncated to 12000 characters plus marker")
	}
	if strings.Contains(summarizer.LastPrompt(), strings.Repeat("a", 12001)) {
		t.Error("Expected no more than 12000 transcript characters in prompt")
	}
}

func TestSummarizeErrors(t *testing.T) {
	providerDown := errors.New("connection refused")

	tests := []struct {
		name            string
		input           string
		fetcher         *mocks.Fetcher
		summarizer      *mocks.Summarizer
		kind            apperrors.Kind
		fetchCalls      int
		summarizerCalls int
	}{
		{
			name:       "invalid id",
			input:      "not a url!",
			fetcher:    &mocks.Fetcher{Text: "text"},
			summarizer: &mocks.Summarizer{Summary: "s"},
			kind:       apperrors.InvalidInput,
		},
		{
			name:       "transcript unavailable",
			input:      "dQw4w9WgXcQ",
			fetcher:    &mocks.Fetcher{Err: apperrors.E(apperrors.TranscriptUnavailable, "test", nil, "no transcript")},
			summarizer: &mocks.Summarizer{Summary: "s"},
			kind:       apperrors.TranscriptUnavailable,
			fetchCalls: 1,
		},
		{
			name:       "fetch failed",
			input:      "dQw4w9WgXcQ",
			fetcher:    &mocks.Fetcher{Err: apperrors.E(apperrors.TranscriptFetchFailed, "test", providerDown, "fetch failed")},
			summarizer: &mocks.Summarizer{Summary: "s"},
			kind:       apperrors.TranscriptFetchFailed,
			fetchCalls: 1,
		},
		{
			name:       "blank transcript",
			input:      "dQw4w9WgXcQ",
			fetcher:    &mocks.Fetcher{Text: "   "},
			summarizer: &mocks.Summarizer{Summary: "s"},
			kind:       apperrors.EmptyInput,
			fetchCalls: 1,
		},
		{
			name:            "summarization failed",
			input:           "dQw4w9WgXcQ",
			fetcher:         &mocks.Fetcher{Text: "text"},
			summarizer:      &mocks.Summarizer{Err: apperrors.E(apperrors.SummarizationFailed, "test", nil, "Gemini call failed")},
			kind:            apperrors.SummarizationFailed,
			fetchCalls:      1,
			summarizerCalls: 1,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			service := newService(test.fetcher, test.summarizer, nil)

			resp, err := service.Summarize(context.Background(), Request{URLOrID: test.input})
			if resp != nil {
				t.Errorf("Expected no response, got %+v", resp)
			}
			if !apperrors.Is(err, test.kind) {
				t.Fatalf("Expected %s, got %v", test.kind, err)
			}
			if test.fetcher.Calls != test.fetchCalls {
				t.Errorf("Expected %d fetch calls, got %d", test.fetchCalls, test.fetcher.Calls)
			}
			if test.summarizer.Calls != test.summarizerCalls {
				t.Errorf("Expected %d summarizer calls, got %d", test.summarizerCalls, test.summarizer.Calls)
			}
		})
	}
}

func TestSummarizeUsesCache(t *testing.T) {
	manager := cache.NewManagerWithCache(cache.NewMemoryCache(time.Hour), "memory")
	fetcher := &mocks.Fetcher{Text: "hello world"}
	summarizer := &mocks.Summarizer{Summary: "A short greeting."}
	service := newService(fetcher, summarizer, manager)

	req := Request{URLOrID: "https://youtu.be/dQw4w9WgXcQ", Language: "en"}

	first, err := service.Summarize(context.Background(), req)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if first.Cached {
		t.Error("Expected first response to be fresh")
	}

	second, err := service.Summarize(context.Background(), req)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !second.Cached || second.Summary != first.Summary {
		t.Errorf("Expected cached response, got %+v", second)
	}

	if fetcher.Calls != 1 || summarizer.Calls != 1 {
		t.Errorf("Expected one upstream call each, got fetch=%d summarize=%d", fetcher.Calls, summarizer.Calls)
	}

	// a different model is a different summary
	req.Model = "gemini-2.5-pro"
	if _, err := service.Summarize(context.Background(), req); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if summarizer.Calls != 2 {
		t.Errorf("Expected model override to bypass cache, got %d calls", summarizer.Calls)
	}
	if summarizer.Models[1] != "gemini-2.5-pro" {
		t.Errorf("Expected override model, got %s", summarizer.Models[1])
	}
}

func TestSummarizeDoesNotCacheFailures(t *testing.T) {
	manager := cache.NewManagerWithCache(cache.NewMemoryCache(time.Hour), "memory")
	fetcher := &mocks.Fetcher{Text: "hello"}
	summarizer := &mocks.Summarizer{Err: apperrors.E(apperrors.SummarizationFailed, "test", nil, "Gemini call failed")}
	service := newService(fetcher, summarizer, manager)

	if _, err := service.Summarize(context.Background(), Request{URLOrID: "dQw4w9WgXcQ"}); err == nil {
		t.Fatal("Expected error")
	}

	cached, err := manager.IsCached(context.Background(), "dQw4w9WgXcQ", "tr", "gemini-2.5-flash")
	if err != nil {
		t.Fatalf("Failed to check cache: %v", err)
	}
	if cached {
		t.Error("Expected failure not to be cached")
	}
}

func TestSummarizeCountsTranscriptCharacters(t *testing.T) {
	m := metrics.New()
	fetcher := &mocks.Fetcher{Text: "merhaba dünya çiçek"}
	summarizer := &mocks.Summarizer{Summary: "Selam."}
	service := New(fetcher, summarizer, nil, m, Options{DefaultLanguage: "tr"})

	if _, err := service.Summarize(context.Background(), Request{URLOrID: "dQw4w9WgXcQ"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("Failed to scrape metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if !strings.Contains(string(body), "yt_summarizer_transcript_characters_sum 19\n") {
		t.Errorf("Expected transcript length in characters (19), got:\n%s", body)
	}
}
