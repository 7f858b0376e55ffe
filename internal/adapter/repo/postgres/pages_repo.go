package postgres

import (
	"fmt"

	"github.com/gradewise/ai-answer-evaluator/internal/domain"
)

// PageRepo loads OCR page fragments from PostgreSQL.
type PageRepo struct{ Pool PgxPool }

// NewPageRepo constructs a PageRepo with the given pool.
func NewPageRepo(p PgxPool) *PageRepo { return &PageRepo{Pool: p} }

// ListByExamStudent returns all stored OCR fragments for one student's
// script, including pages with an unresolved question number.
func (r *PageRepo) ListByExamStudent(ctx domain.Context, examID, studentID string) ([]domain.StudentPage, error) {
	q := `SELECT exam_id, student_id, question_number, page_number, raw_text, confidence
	FROM student_pages WHERE exam_id=$1 AND student_id=$2 ORDER BY question_number, page_number`
	rows, err := r.Pool.Query(ctx, q, examID, studentID)
	if err != nil {
		return nil, fmt.Errorf("op=pages.list: %w", err)
	}
	defer rows.Close()
	var pages []domain.StudentPage
	for rows.Next() {
		var p domain.StudentPage
		if err := rows.Scan(&p.ExamID, &p.StudentID, &p.QuestionNumber, &p.PageNumber, &p.RawText, &p.Confidence); err != nil {
			return nil, fmt.Errorf("op=pages.scan: %w", err)
		}
		pages = append(pages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=pages.rows: %w", err)
	}
	return pages, nil
}
