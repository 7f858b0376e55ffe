// Command evaluate runs one scoring run from the command line:
//
//	evaluate --exam-id EXAM --student-id STUDENT
//
// Exit code 0 on success, 1 on any failure; a failed run persists nothing.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/gradewise/ai-answer-evaluator/internal/adapter/ai/gemini"
	aiopenai "github.com/gradewise/ai-answer-evaluator/internal/adapter/ai/openai"
	"github.com/gradewise/ai-answer-evaluator/internal/adapter/ai/stub"
	"github.com/gradewise/ai-answer-evaluator/internal/adapter/observability"
	"github.com/gradewise/ai-answer-evaluator/internal/adapter/repo/postgres"
	"github.com/gradewise/ai-answer-evaluator/internal/config"
	"github.com/gradewise/ai-answer-evaluator/internal/domain"
	"github.com/gradewise/ai-answer-evaluator/internal/usecase"
)

func main() {
	examID := flag.String("exam-id", "", "exam ID (any string format)")
	studentID := flag.String("student-id", "", "student ID (any string format)")
	flag.Parse()

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

	var embedder domain.EmbeddingProvider = stub.NewEmbedder()
	if cfg.OpenAIAPIKey != "" {
		embedder = aiopenai.New(cfg)
	}
	var judge domain.JudgeProvider = stub.NewJudge()
	if cfg.GeminiAPIKey != "" {
		judge = gemini.New(cfg)
	}

	svc := usecase.NewEvaluateService(
		postgres.NewSchemeRepo(pool),
		postgres.NewPageRepo(pool),
		postgres.NewResultRepo(pool),
		embedder, judge, cfg)

	res, err := svc.Evaluate(ctx, *examID, *studentID)
	if err != nil {
		slog.Error("evaluation failed", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("evaluation succeeded",
		slog.Int("total_scored", res.Overall.TotalScoredMarks),
		slog.Int("total_max", res.Overall.TotalMaxMarks),
		slog.Float64("percentage", res.Overall.Percentage))
}
