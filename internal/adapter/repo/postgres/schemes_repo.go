package postgres

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	aipkg "github.com/gradewise/ai-answer-evaluator/internal/adapter/ai"
	"github.com/gradewise/ai-answer-evaluator/internal/domain"
)

// SchemeRepo loads marking schemes from PostgreSQL. Scheme rows store the
// structured document produced by the upstream scheme extractor as raw JSON;
// parsing is best-effort with a typed empty default.
type SchemeRepo struct{ Pool PgxPool }

// NewSchemeRepo constructs a SchemeRepo with the given pool.
func NewSchemeRepo(p PgxPool) *SchemeRepo { return &SchemeRepo{Pool: p} }

// structuredData mirrors the scheme extractor's document layout.
type structuredData struct {
	Questions []struct {
		QuestionNumber  int    `json:"questionNumber"`
		QuestionText    string `json:"questionText"`
		MaxMarks        int    `json:"maxMarks"`
		ReferenceAnswer string `json:"referenceAnswer"`
		Concepts        []struct {
			Description string   `json:"description"`
			Keywords    []string `json:"keywords"`
		} `json:"concepts"`
		EvaluationCriteria struct {
			MustIncludePoints     []string `json:"mustIncludePoints"`
			FullMarksRequirements string   `json:"fullMarksRequirements"`
		} `json:"evaluationCriteria"`
	} `json:"questions"`
}

// LatestByExam returns the most recently stored scheme for an exam. A scheme
// whose structured document cannot be parsed comes back with zero questions;
// the caller decides whether that is fatal.
func (r *SchemeRepo) LatestByExam(ctx domain.Context, examID string) (domain.Scheme, error) {
	q := `SELECT id, exam_id, subject_id, professor_id, structured_data, created_at
	FROM schemes WHERE exam_id=$1 ORDER BY created_at DESC LIMIT 1`
	row := r.Pool.QueryRow(ctx, q, examID)
	var s domain.Scheme
	var raw string
	if err := row.Scan(&s.ID, &s.ExamID, &s.SubjectID, &s.ProfessorID, &raw, &s.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Scheme{}, fmt.Errorf("%w: no scheme for exam %q", domain.ErrNotFound, examID)
		}
		return domain.Scheme{}, fmt.Errorf("op=scheme.latest: %w", err)
	}
	s.Questions = parseQuestions(raw)
	return s, nil
}

// parseQuestions decodes the structured scheme document: strict parse, then a
// fence-stripped retry, then an empty default. Failure is observable through
// the zero-question scheme, never through an error.
func parseQuestions(raw string) []domain.SchemeQuestion {
	var sd structuredData
	if err := aipkg.DecodeLenient(raw, &sd); err != nil {
		slog.Warn("scheme structured data unparsable, using empty default", slog.Any("error", err))
		return nil
	}
	out := make([]domain.SchemeQuestion, 0, len(sd.Questions))
	for _, q := range sd.Questions {
		sq := domain.SchemeQuestion{
			QuestionNumber:        q.QuestionNumber,
			QuestionText:          q.QuestionText,
			MaxMarks:              q.MaxMarks,
			ReferenceAnswer:       q.ReferenceAnswer,
			MustIncludePoints:     q.EvaluationCriteria.MustIncludePoints,
			FullMarksRequirements: q.EvaluationCriteria.FullMarksRequirements,
		}
		for _, c := range q.Concepts {
			sq.Concepts = append(sq.Concepts, domain.Concept{Description: c.Description, Keywords: c.Keywords})
		}
		out = append(out, sq)
	}
	return out
}
