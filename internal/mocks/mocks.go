package mocks

import (
	"context"
	"sync"
)

// Fetcher is a scripted transcript fetcher
type Fetcher struct {
	mu        sync.Mutex
	Text      string
	Err       error
	Calls     int
	VideoIDs  []string
	Languages [][]string
}

func (f *Fetcher) Fetch(ctx context.Context, videoID string, languages []string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	f.VideoIDs = append(f.VideoIDs, videoID)
	f.Languages = append(f.Languages, languages)
	if f.Err != nil {
		return "", f.Err
	}
	return f.Text, nil
}

// Summarizer is a scripted generation model
type Summarizer struct {
	mu           sync.Mutex
	DefaultModel string
	Summary      string
	Err          error
	Calls        int
	Prompts      []string
	Models       []string
}

func (s *Summarizer) SummarizeWithModel(ctx context.Context, model, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	s.Prompts = append(s.Prompts, prompt)
	s.Models = append(s.Models, model)
	if s.Err != nil {
		return "", s.Err
	}
	return s.Summary, nil
}

func (s *Summarizer) Model() string {
	if s.DefaultModel == "" {
		return "gemini-2.5-flash"
	}
	return s.DefaultModel
}

// LastPrompt returns the most recent prompt, or ""
func (s *Summarizer) LastPrompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Prompts) == 0 {
		return ""
	}
	return s.Prompts[len(s.Prompts)-1]
}
