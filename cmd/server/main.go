// Command server starts the answer-sheet evaluation HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gradewise/ai-answer-evaluator/internal/adapter/ai/gemini"
	aiopenai "github.com/gradewise/ai-answer-evaluator/internal/adapter/ai/openai"
	"github.com/gradewise/ai-answer-evaluator/internal/adapter/ai/stub"
	"github.com/gradewise/ai-answer-evaluator/internal/adapter/httpserver"
	"github.com/gradewise/ai-answer-evaluator/internal/adapter/observability"
	"github.com/gradewise/ai-answer-evaluator/internal/adapter/repo/postgres"
	"github.com/gradewise/ai-answer-evaluator/internal/config"
	"github.com/gradewise/ai-answer-evaluator/internal/domain"
	"github.com/gradewise/ai-answer-evaluator/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)
	observability.InitMetrics()

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	schemeRepo := postgres.NewSchemeRepo(pool)
	pageRepo := postgres.NewPageRepo(pool)
	resultRepo := postgres.NewResultRepo(pool)

	// Providers: real when keys are configured, deterministic stubs otherwise
	// so local development does not need API access.
	var embedder domain.EmbeddingProvider
	var judge domain.JudgeProvider
	if cfg.OpenAIAPIKey != "" {
		embedder = aiopenai.New(cfg)
	} else {
		slog.Warn("OPENAI_API_KEY not set, using stub embedder")
		embedder = stub.NewEmbedder()
	}
	if cfg.GeminiAPIKey != "" {
		judge = gemini.New(cfg)
	} else {
		slog.Warn("GEMINI_API_KEY not set, using stub judge")
		judge = stub.NewJudge()
	}

	evalSvc := usecase.NewEvaluateService(schemeRepo, pageRepo, resultRepo, embedder, judge, cfg)
	resultSvc := usecase.NewResultService(resultRepo)

	srv := httpserver.NewServer(cfg, evalSvc, resultSvc, pool.Ping)
	handler := httpserver.BuildRouter(cfg, srv)

	httpSrv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	go func() {
		slog.Info("server listening", slog.Int("port", cfg.Port))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ServerShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", slog.Any("error", err))
	}
}
