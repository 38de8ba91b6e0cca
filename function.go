package ytsummarizer

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/sirupsen/logrus"

	"github.com/ahmetzturk/yt-summarizer/internal/config"
	"github.com/ahmetzturk/yt-summarizer/internal/handlers"
	"github.com/ahmetzturk/yt-summarizer/internal/logger"
)

var (
	handlerOnce sync.Once
	handler     http.Handler
	handlerErr  error
)

func init() {
	functions.HTTP("Summarize", Summarize)
}

// Summarize is the Cloud Functions HTTP target. It serves the same routes as cmd/server;
// the server is built on first use and reused by warm instances.
func Summarize(w http.ResponseWriter, r *http.Request) {
	h, err := getHandler()
	if err != nil {
		logrus.WithError(err).Error("Failed to initialize summarizer")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"detail": "service misconfigured: " + err.Error()})
		return
	}
	h.ServeHTTP(w, r)
}

func getHandler() (http.Handler, error) {
	handlerOnce.Do(func() {
		cfg, err := config.Load()
		if err != nil {
			handlerErr = err
			return
		}
		if _, err := logger.Setup(cfg.LogLevel, "json", ""); err != nil {
			handlerErr = err
			return
		}

		server, err := handlers.NewServer(context.Background(), cfg)
		if err != nil {
			handlerErr = err
			return
		}
		handler = server.SetupRoutes()
	})
	return handler, handlerErr
}
