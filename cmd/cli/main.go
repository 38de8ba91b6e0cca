package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ahmetzturk/yt-summarizer/internal/application"
	"github.com/ahmetzturk/yt-summarizer/internal/apperrors"
	"github.com/ahmetzturk/yt-summarizer/internal/config"
	"github.com/ahmetzturk/yt-summarizer/internal/logger"
	"github.com/ahmetzturk/yt-summarizer/internal/summarizer"
)

func main() {
	lang := flag.String("lang", "", "summary language (default DEFAULT_LANGUAGE)")
	model := flag.String("model", "", "Gemini model (default GEMINI_MODEL)")
	captions := flag.String("captions", "", "comma-separated caption language preference")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <youtube-url-or-id>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	os.Exit(run(flag.Arg(0), *lang, *model, *captions))
}

func run(input, lang, model, captions string) int {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	if _, err := logger.Setup(cfg.LogLevel, cfg.LogFormat, ""); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		return 1
	}
	logrus.SetOutput(os.Stderr)

	ctx := context.Background()

	app, err := application.New(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create application: %v\n", err)
		return 1
	}
	defer app.Close()

	req := summarizer.Request{
		URLOrID:  input,
		Language: lang,
		Model:    model,
	}
	if captions != "" {
		req.TranscriptLanguages = strings.Split(captions, ",")
	}

	resp, err := app.Service.Summarize(ctx, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error (%s): %v\n", apperrors.KindOf(err), err)
		return 1
	}

	fmt.Printf("Video: %s (%s)\n\n%s\n", resp.VideoID, resp.Language, resp.Summary)
	return 0
}
