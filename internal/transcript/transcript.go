package transcript

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"
	"github.com/sirupsen/logrus"

	"github.com/ahmetzturk/yt-summarizer/internal/apperrors"
	"github.com/ahmetzturk/yt-summarizer/internal/breaker"
)

// DefaultLanguages is the caption preference used when none is given
var DefaultLanguages = []string{"tr", "tr-TR", "en"}

// Provider fetches caption segments for one video in one language.
// *youtube.Client satisfies it.
type Provider interface {
	GetTranscriptCtx(ctx context.Context, video *youtube.Video, lang string) (youtube.VideoTranscript, error)
}

// Fetcher retrieves transcript text and classifies provider failures
type Fetcher struct {
	newProvider func() Provider
	breaker     *breaker.CircuitBreaker
}

// NewFetcher creates a fetcher backed by github.com/kkdai/youtube/v2.
// A new provider client is created per call since it is not safe for concurrent use.
func NewFetcher(timeout time.Duration, cb *breaker.CircuitBreaker) *Fetcher {
	httpClient := &http.Client{Timeout: timeout}
	return NewFetcherWithProvider(func() Provider {
		return &youtube.Client{HTTPClient: httpClient}
	}, cb)
}

// NewFetcherWithProvider creates a fetcher with a custom provider factory
func NewFetcherWithProvider(newProvider func() Provider, cb *breaker.CircuitBreaker) *Fetcher {
	return &Fetcher{
		newProvider: newProvider,
		breaker:     cb,
	}
}

// Fetch returns the concatenated transcript for videoID, trying languages in order
func (f *Fetcher) Fetch(ctx context.Context, videoID string, languages []string) (string, error) {
	if f.breaker == nil {
		return f.fetch(ctx, videoID, languages)
	}

	result, err := f.breaker.ExecuteContext(ctx, func() (interface{}, error) {
		return f.fetch(ctx, videoID, languages)
	})
	if err != nil {
		if breaker.IsRejection(err) {
			return "", apperrors.E(apperrors.TranscriptFetchFailed, "transcript.Fetch", err,
				"transcript provider is temporarily unavailable")
		}
		return "", err
	}
	return result.(string), nil
}

func (f *Fetcher) fetch(ctx context.Context, videoID string, languages []string) (string, error) {
	const op = "transcript.Fetch"

	languages = dedupe(languages)
	if len(languages) == 0 {
		languages = DefaultLanguages
	}

	provider := f.newProvider()
	video := &youtube.Video{ID: videoID}
	sawEmpty := false
	var unavailable error

	for _, lang := range languages {
		segments, err := provider.GetTranscriptCtx(ctx, video, lang)
		if err != nil {
			if errors.Is(err, youtube.ErrTranscriptDisabled) {
				logrus.WithFields(logrus.Fields{
					"video_id": videoID,
					"language": lang,
				}).Debug("No transcript in language, trying next")
				continue
			}

			classified := classify(op, err)
			if !apperrors.Is(classified, apperrors.TranscriptUnavailable) {
				return "", classified
			}
			logrus.WithFields(logrus.Fields{
				"video_id": videoID,
				"language": lang,
				"error":    err.Error(),
			}).Debug("Transcript unavailable in language, trying next")
			unavailable = classified
			continue
		}

		if text := Join(segments); text != "" {
			return text, nil
		}
		sawEmpty = true
	}

	if sawEmpty {
		return "", apperrors.E(apperrors.EmptyTranscript, op, nil, "transcript content is empty")
	}
	if unavailable != nil {
		return "", unavailable
	}
	return "", apperrors.E(apperrors.TranscriptUnavailable, op, youtube.ErrTranscriptDisabled,
		"transcript not found or disabled for languages "+strings.Join(languages, ", "))
}

// Join concatenates non-blank segment texts with single spaces, in provider order
func Join(segments youtube.VideoTranscript) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if text := strings.TrimSpace(s.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// classify maps a provider error to an error kind. GetTranscriptCtx reports
// upstream rejections only as status codes.
func classify(op string, err error) error {
	var status youtube.ErrUnexpectedStatusCode
	if errors.As(err, &status) {
		switch int(status) {
		case http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound:
			return apperrors.E(apperrors.TranscriptUnavailable, op, err, "video unavailable")
		}
		return apperrors.E(apperrors.TranscriptFetchFailed, op, err, "failed to fetch transcript")
	}

	return apperrors.E(apperrors.TranscriptFetchFailed, op, err, "failed to fetch transcript")
}

// IsProviderFailure reports whether err should count against the transcript breaker
func IsProviderFailure(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	return apperrors.Is(err, apperrors.TranscriptFetchFailed)
}

func dedupe(languages []string) []string {
	seen := make(map[string]bool, len(languages))
	result := make([]string, 0, len(languages))
	for _, lang := range languages {
		lang = strings.TrimSpace(lang)
		if lang == "" || seen[lang] {
			continue
		}
		seen[lang] = true
		result = append(result, lang)
	}
	return result
}
