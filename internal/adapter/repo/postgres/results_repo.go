package postgres

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gradewise/ai-answer-evaluator/internal/domain"
)

// ResultRepo persists and loads evaluation results from PostgreSQL.
type ResultRepo struct{ Pool PgxPool }

// NewResultRepo constructs a ResultRepo with the given pool.
func NewResultRepo(p PgxPool) *ResultRepo { return &ResultRepo{Pool: p} }

// Upsert inserts or replaces the result keyed by (exam_id, student_id). The
// write is a single statement, so concurrent runs for the same student are
// last-write-wins without a read-modify-write window.
func (r *ResultRepo) Upsert(ctx domain.Context, res domain.EvaluationResult) error {
	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	perQuestion, err := json.Marshal(res.PerQuestion)
	if err != nil {
		return fmt.Errorf("op=result.marshal: %w", err)
	}
	method, err := json.Marshal(res.Method)
	if err != nil {
		return fmt.Errorf("op=result.marshal: %w", err)
	}
	q := `INSERT INTO evaluations
	(id, exam_id, student_id, subject_id, professor_id, scheme_ref_id,
	 per_question, total_max_marks, total_scored_marks, percentage, method, generated_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	ON CONFLICT (exam_id, student_id)
	DO UPDATE SET id=EXCLUDED.id, subject_id=EXCLUDED.subject_id,
	 professor_id=EXCLUDED.professor_id, scheme_ref_id=EXCLUDED.scheme_ref_id,
	 per_question=EXCLUDED.per_question, total_max_marks=EXCLUDED.total_max_marks,
	 total_scored_marks=EXCLUDED.total_scored_marks, percentage=EXCLUDED.percentage,
	 method=EXCLUDED.method, generated_at=EXCLUDED.generated_at`
	_, err = r.Pool.Exec(ctx, q,
		res.ID, res.ExamID, res.StudentID, res.SubjectID, res.ProfessorID, res.SchemeRefID,
		perQuestion, res.Overall.TotalMaxMarks, res.Overall.TotalScoredMarks, res.Overall.Percentage,
		method, res.GeneratedAt)
	if err != nil {
		return fmt.Errorf("op=result.upsert: %w", err)
	}
	return nil
}

// GetByExamStudent loads the live result for an (examID, studentID) pair.
func (r *ResultRepo) GetByExamStudent(ctx domain.Context, examID, studentID string) (domain.EvaluationResult, error) {
	q := `SELECT id, exam_id, student_id, subject_id, professor_id, scheme_ref_id,
	 per_question, total_max_marks, total_scored_marks, percentage, method, generated_at
	FROM evaluations WHERE exam_id=$1 AND student_id=$2`
	row := r.Pool.QueryRow(ctx, q, examID, studentID)
	var res domain.EvaluationResult
	var perQuestion, method []byte
	err := row.Scan(&res.ID, &res.ExamID, &res.StudentID, &res.SubjectID, &res.ProfessorID, &res.SchemeRefID,
		&perQuestion, &res.Overall.TotalMaxMarks, &res.Overall.TotalScoredMarks, &res.Overall.Percentage,
		&method, &res.GeneratedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.EvaluationResult{}, fmt.Errorf("%w: no result for exam %q student %q", domain.ErrNotFound, examID, studentID)
		}
		return domain.EvaluationResult{}, fmt.Errorf("op=result.get: %w", err)
	}
	if err := json.Unmarshal(perQuestion, &res.PerQuestion); err != nil {
		return domain.EvaluationResult{}, fmt.Errorf("op=result.get: per_question: %w", err)
	}
	if err := json.Unmarshal(method, &res.Method); err != nil {
		return domain.EvaluationResult{}, fmt.Errorf("op=result.get: method: %w", err)
	}
	return res, nil
}
