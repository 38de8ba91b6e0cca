// Package summarizer runs one summarization request end to end:
// extract id, consult the cache, fetch the transcript, build the prompt,
// call the model and store the result.
package summarizer

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/ahmetzturk/yt-summarizer/internal/apperrors"
	"github.com/ahmetzturk/yt-summarizer/internal/cache"
	"github.com/ahmetzturk/yt-summarizer/internal/logger"
	"github.com/ahmetzturk/yt-summarizer/internal/metrics"
	"github.com/ahmetzturk/yt-summarizer/internal/prompt"
	"github.com/ahmetzturk/yt-summarizer/internal/videoid"
)

const DefaultLanguage = "tr"

// TranscriptFetcher returns the plain transcript text of a video
type TranscriptFetcher interface {
	Fetch(ctx context.Context, videoID string, languages []string) (string, error)
}

// Summarizer sends a prompt to a generation model
type Summarizer interface {
	SummarizeWithModel(ctx context.Context, model, prompt string) (string, error)
	Model() string
}

// Request is one summarization request
type Request struct {
	URLOrID             string
	Language            string
	TranscriptLanguages []string
	Model               string
}

// Response is a successful summarization
type Response struct {
	VideoID  string `json:"video_id"`
	Language string `json:"language"`
	Summary  string `json:"summary"`
	Cached   bool   `json:"-"`
}

// Options configures a Service
type Options struct {
	DefaultLanguage     string
	TranscriptLanguages []string
	MaxInputChars       int
}

// Service orchestrates the collaborators. It holds no per-request state.
type Service struct {
	fetcher    TranscriptFetcher
	summarizer Summarizer
	cache      *cache.Manager
	metrics    *metrics.Metrics
	prompts    *prompt.Builder
	opts       Options
}

// New creates a Service. cacheManager and m may be nil.
func New(fetcher TranscriptFetcher, summarizer Summarizer, cacheManager *cache.Manager, m *metrics.Metrics, opts Options) *Service {
	if opts.DefaultLanguage == "" {
		opts.DefaultLanguage = DefaultLanguage
	}
	return &Service{
		fetcher:    fetcher,
		summarizer: summarizer,
		cache:      cacheManager,
		metrics:    m,
		prompts:    prompt.NewBuilder(opts.MaxInputChars),
		opts:       opts,
	}
}

// Summarize runs the pipeline for req. The first failing step ends the request.
func (s *Service) Summarize(ctx context.Context, req Request) (*Response, error) {
	log := logger.FromContext(ctx)

	videoID, err := videoid.Extract(req.URLOrID)
	if err != nil {
		return nil, err
	}

	language := strings.TrimSpace(req.Language)
	if language == "" {
		language = s.opts.DefaultLanguage
	}
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = s.summarizer.Model()
	}

	log = log.WithField("video_id", videoID)

	if summary, ok := s.lookup(ctx, videoID, language, model); ok {
		log.Info("Serving cached summary")
		return &Response{VideoID: videoID, Language: language, Summary: summary, Cached: true}, nil
	}

	start := time.Now()
	text, err := s.fetcher.Fetch(ctx, videoID, s.transcriptLanguages(req, language))
	s.metrics.ObserveUpstream("youtube", outcome(err), time.Since(start))
	if err != nil {
		log.WithError(err).WithField("kind", apperrors.KindOf(err).String()).Warn("Transcript fetch failed")
		return nil, err
	}
	s.metrics.ObserveTranscript(utf8.RuneCountInString(text))

	p, err := s.prompts.Build(text, language)
	if err != nil {
		return nil, err
	}

	start = time.Now()
	summary, err := s.summarizer.SummarizeWithModel(ctx, model, p)
	s.metrics.ObserveUpstream("gemini", outcome(err), time.Since(start))
	if err != nil {
		log.WithError(err).Warn("Summarization failed")
		return nil, err
	}

	s.store(ctx, videoID, language, model, summary)

	log.WithFields(logrus.Fields{
		"transcript_chars": utf8.RuneCountInString(text),
		"summary_chars":    utf8.RuneCountInString(summary),
		"model":            model,
	}).Info("Summary created")

	return &Response{VideoID: videoID, Language: language, Summary: summary}, nil
}

// transcriptLanguages returns the caption preference: the request's list when given,
// otherwise the summary language followed by the configured list
func (s *Service) transcriptLanguages(req Request, language string) []string {
	if len(req.TranscriptLanguages) > 0 {
		return req.TranscriptLanguages
	}
	languages := make([]string, 0, len(s.opts.TranscriptLanguages)+1)
	languages = append(languages, language)
	return append(languages, s.opts.TranscriptLanguages...)
}

func (s *Service) lookup(ctx context.Context, videoID, language, model string) (string, bool) {
	if s.cache == nil {
		return "", false
	}

	entry, err := s.cache.GetSummary(ctx, videoID, language, model)
	if err != nil {
		if !cache.IsMiss(err) {
			logger.FromContext(ctx).WithError(err).Warn("Cache lookup failed")
		}
		s.metrics.CacheMiss()
		return "", false
	}

	s.metrics.CacheHit()
	return entry.Summary, true
}

func (s *Service) store(ctx context.Context, videoID, language, model, summary string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetSummary(ctx, videoID, language, model, summary); err != nil {
		logger.FromContext(ctx).WithError(err).Warn("Failed to cache summary")
	}
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	return apperrors.KindOf(err).String()
}
