// Package usecase contains application business logic services.
package usecase

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gradewise/ai-answer-evaluator/internal/adapter/observability"
	"github.com/gradewise/ai-answer-evaluator/internal/config"
	"github.com/gradewise/ai-answer-evaluator/internal/domain"
	"github.com/gradewise/ai-answer-evaluator/internal/evaluation"
)

// EvaluateService runs the scoring and verification pipeline for one
// (examID, studentID) pair: scheme questions drive iteration; per question the
// student pages are aggregated, embedded together with the reference text,
// scored, flagged and cross-checked by the judge; the outcome is upserted as
// one result row.
type EvaluateService struct {
	Schemes  domain.SchemeRepository
	Pages    domain.PageRepository
	Results  domain.ResultRepository
	Embedder domain.EmbeddingProvider
	Judge    domain.JudgeProvider
	Cfg      config.Config
}

// NewEvaluateService constructs an EvaluateService with its dependencies.
func NewEvaluateService(schemes domain.SchemeRepository, pages domain.PageRepository, results domain.ResultRepository, emb domain.EmbeddingProvider, judge domain.JudgeProvider, cfg config.Config) EvaluateService {
	return EvaluateService{Schemes: schemes, Pages: pages, Results: results, Embedder: emb, Judge: judge, Cfg: cfg}
}

// Evaluate scores one student's script against the latest scheme for the exam
// and persists the result. Input errors and embedding failures are fatal for
// the whole run and leave no stored result; judge failures degrade the
// affected question to "unverified" and never abort the run.
func (s EvaluateService) Evaluate(ctx domain.Context, examID, studentID string) (domain.EvaluationResult, error) {
	examID = strings.TrimSpace(examID)
	studentID = strings.TrimSpace(studentID)
	if examID == "" || studentID == "" {
		return domain.EvaluationResult{}, fmt.Errorf("%w: exam and student IDs required", domain.ErrInvalidArgument)
	}

	slog.Info("evaluation started", slog.String("exam_id", examID), slog.String("student_id", studentID))

	scheme, err := s.Schemes.LatestByExam(ctx, examID)
	if err != nil {
		observability.EvaluationsTotal.WithLabelValues("failed").Inc()
		return domain.EvaluationResult{}, err
	}
	if len(scheme.Questions) == 0 {
		observability.EvaluationsTotal.WithLabelValues("failed").Inc()
		return domain.EvaluationResult{}, fmt.Errorf("%w: exam %q", domain.ErrSchemeEmpty, examID)
	}

	pages, err := s.Pages.ListByExamStudent(ctx, examID, studentID)
	if err != nil {
		observability.EvaluationsTotal.WithLabelValues("failed").Inc()
		return domain.EvaluationResult{}, err
	}
	if len(pages) == 0 {
		observability.EvaluationsTotal.WithLabelValues("failed").Inc()
		return domain.EvaluationResult{}, fmt.Errorf("%w: no student answers for exam %q student %q", domain.ErrNotFound, examID, studentID)
	}

	grouped := groupByQuestion(pages)
	slog.Info("student pages loaded", slog.Int("pages", len(pages)), slog.Int("questions", len(grouped)))

	thresholds := evaluation.FlagThresholds{
		LowSimilarity: s.Cfg.LowSimilarityThreshold,
		Borderline:    s.Cfg.BorderlineThreshold,
		LowOCR:        s.Cfg.LowOCRThreshold,
	}

	perQuestion := make([]domain.QuestionResult, 0, len(scheme.Questions))
	var totalMax, totalScored int

	for _, q := range scheme.Questions {
		totalMax += q.MaxMarks

		referenceText := evaluation.BuildReferenceText(q)
		qPages := grouped[q.QuestionNumber]
		studentText := ""
		confAvg := 0.0
		if len(qPages) > 0 {
			studentText = evaluation.AggregateStudentAnswer(qPages)
			confAvg = evaluation.AverageConfidence(qPages)
		} else {
			slog.Warn("no student answer for question", slog.Int("question", q.QuestionNumber))
		}

		// Empty answers bypass the embedding call entirely.
		similarity := 0.0
		scoredMarks := 0
		if strings.TrimSpace(studentText) != "" {
			vecs, err := s.Embedder.Embed(ctx, []string{referenceText, studentText})
			if err != nil {
				// Fatal for the whole run: no partial result is persisted.
				observability.EvaluationsTotal.WithLabelValues("failed").Inc()
				return domain.EvaluationResult{}, fmt.Errorf("question %d: %w", q.QuestionNumber, err)
			}
			similarity = evaluation.Cosine(vecs[0], vecs[1])
			scoredMarks = evaluation.Score(similarity, q.MaxMarks)
		}
		totalScored += scoredMarks

		flags := evaluation.FlagsFor(similarity, confAvg, thresholds)

		verification := s.verify(ctx, q, studentText, referenceText, scoredMarks, similarity, confAvg)
		if verification.Flag {
			flags = append(flags, domain.FlagVerification, "Reason: "+verification.Reason)
		}
		for _, f := range flags {
			if !strings.HasPrefix(f, "Reason: ") {
				observability.QuestionsFlaggedTotal.WithLabelValues(f).Inc()
			}
		}

		slog.Info("question evaluated",
			slog.Int("question", q.QuestionNumber),
			slog.Int("scored", scoredMarks),
			slog.Int("max", q.MaxMarks),
			slog.Float64("similarity", similarity),
			slog.Any("flags", flags))

		perQuestion = append(perQuestion, domain.QuestionResult{
			QuestionNumber:   q.QuestionNumber,
			MaxMarks:         q.MaxMarks,
			ScoredMarks:      scoredMarks,
			SuggestedMarks:   verification.SuggestedMarks,
			Similarity:       evaluation.Round4(similarity),
			OCRConfidenceAvg: evaluation.Round3(confAvg),
			Flags:            flags,
			Verification:     verification,
		})
	}

	percentage := 0.0
	if totalMax > 0 {
		percentage = evaluation.Round2(float64(totalScored) / float64(totalMax) * 100)
	}

	result := domain.EvaluationResult{
		ID:          uuid.NewString(),
		ExamID:      examID,
		StudentID:   studentID,
		SubjectID:   scheme.SubjectID,
		ProfessorID: scheme.ProfessorID,
		SchemeRefID: scheme.ID,
		PerQuestion: perQuestion,
		Overall: domain.Overall{
			TotalMaxMarks:    totalMax,
			TotalScoredMarks: totalScored,
			Percentage:       percentage,
		},
		Method: domain.Method{
			EmbeddingModel: s.Cfg.EmbeddingsModel,
			JudgeModel:     s.Cfg.JudgeModel,
			Scoring:        "round(similarity * maxMarks)",
			Similarity:     "cosine",
			Thresholds: domain.Thresholds{
				Low:        s.Cfg.LowSimilarityThreshold,
				Borderline: s.Cfg.BorderlineThreshold,
				High:       s.Cfg.HighThreshold,
			},
		},
		GeneratedAt: time.Now().UTC(),
	}

	if err := s.Results.Upsert(ctx, result); err != nil {
		observability.EvaluationsTotal.WithLabelValues("failed").Inc()
		return domain.EvaluationResult{}, err
	}

	observability.EvaluationsTotal.WithLabelValues("completed").Inc()
	slog.Info("evaluation completed",
		slog.String("exam_id", examID),
		slog.String("student_id", studentID),
		slog.Int("total_scored", totalScored),
		slog.Int("total_max", totalMax),
		slog.Float64("percentage", percentage))

	return result, nil
}

// verify runs the secondary verifier for one question. Empty answers are
// flagged without an external call. Judge failures degrade to an unverified
// result with a diagnostic reason; they never fail the run.
func (s EvaluateService) verify(ctx domain.Context, q domain.SchemeQuestion, studentText, referenceText string, scoredMarks int, similarity, confAvg float64) domain.Verification {
	if strings.TrimSpace(studentText) == "" {
		return domain.Verification{Flag: true, Reason: "Empty or missing student answer.", SuggestedMarks: 0}
	}
	in := domain.VerifyInput{
		QuestionNumber: q.QuestionNumber,
		StudentText:    truncate(studentText, s.Cfg.JudgeTextLimit),
		ReferenceText:  truncate(referenceText, s.Cfg.JudgeTextLimit),
		ScoredMarks:    scoredMarks,
		Similarity:     similarity,
		OCRConfidence:  confAvg,
		MaxMarks:       q.MaxMarks,
	}
	v, err := s.Judge.Verify(ctx, in)
	if err != nil {
		slog.Warn("judge verification failed, degrading to unverified",
			slog.Int("question", q.QuestionNumber), slog.Any("error", err))
		return domain.Verification{Flag: false, Reason: "judge error: " + err.Error(), SuggestedMarks: 0}
	}
	return v
}

// groupByQuestion buckets pages by question number. Pages with an unresolved
// number get one detection pass over their raw text; still-unresolved pages
// are excluded from scoring but remain in the store.
func groupByQuestion(pages []domain.StudentPage) map[int][]domain.StudentPage {
	grouped := make(map[int][]domain.StudentPage)
	for _, p := range pages {
		qn := p.QuestionNumber
		if qn <= 0 {
			qn = evaluation.DetectQuestionNumber(p.RawText)
		}
		if qn <= 0 {
			continue
		}
		grouped[qn] = append(grouped[qn], p)
	}
	return grouped
}

// truncate bounds s to its first n runes. The judge sees only the opening
// content of long answers.
func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
