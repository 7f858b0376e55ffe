package postgres_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradewise/ai-answer-evaluator/internal/adapter/repo/postgres"
	"github.com/gradewise/ai-answer-evaluator/internal/domain"
)

func sampleResult() domain.EvaluationResult {
	return domain.EvaluationResult{
		ID:          "res-1",
		ExamID:      "exam-1",
		StudentID:   "student-1",
		SubjectID:   "subject-1",
		ProfessorID: "prof-1",
		SchemeRefID: "scheme-1",
		PerQuestion: []domain.QuestionResult{{
			QuestionNumber: 1, MaxMarks: 10, ScoredMarks: 8, Similarity: 0.8123,
			Flags:        []string{domain.FlagBorderlineSimilarity},
			Verification: domain.Verification{Flag: false, Reason: "ok", SuggestedMarks: 8},
		}},
		Overall:     domain.Overall{TotalMaxMarks: 10, TotalScoredMarks: 8, Percentage: 80},
		Method:      domain.Method{EmbeddingModel: "m", Scoring: "round(similarity * maxMarks)", Similarity: "cosine"},
		GeneratedAt: time.Now().UTC(),
	}
}

func TestResultRepo_Upsert_Success(t *testing.T) {
	pool := &poolStub{}
	repo := postgres.NewResultRepo(pool)

	require.NoError(t, repo.Upsert(context.Background(), sampleResult()))
	require.Len(t, pool.execSQL, 1)
	assert.Contains(t, pool.execSQL[0], "ON CONFLICT (exam_id, student_id)")
	assert.Equal(t, "res-1", pool.execArgs[0][0])
	assert.Equal(t, "exam-1", pool.execArgs[0][1])
	assert.Equal(t, "student-1", pool.execArgs[0][2])
}

func TestResultRepo_Upsert_GeneratesID(t *testing.T) {
	pool := &poolStub{}
	repo := postgres.NewResultRepo(pool)
	res := sampleResult()
	res.ID = ""

	require.NoError(t, repo.Upsert(context.Background(), res))
	id, ok := pool.execArgs[0][0].(string)
	require.True(t, ok)
	assert.NotEmpty(t, id)
}

func TestResultRepo_Upsert_DBError(t *testing.T) {
	pool := &poolStub{execErr: assert.AnError}
	repo := postgres.NewResultRepo(pool)

	err := repo.Upsert(context.Background(), sampleResult())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "op=result.upsert")
}

func TestResultRepo_Get_Success(t *testing.T) {
	want := sampleResult()
	perQuestion, err := json.Marshal(want.PerQuestion)
	require.NoError(t, err)
	method, err := json.Marshal(want.Method)
	require.NoError(t, err)

	pool := &poolStub{row: rowStub{scan: func(dest ...any) error {
		*(dest[0].(*string)) = want.ID
		*(dest[1].(*string)) = want.ExamID
		*(dest[2].(*string)) = want.StudentID
		*(dest[3].(*string)) = want.SubjectID
		*(dest[4].(*string)) = want.ProfessorID
		*(dest[5].(*string)) = want.SchemeRefID
		*(dest[6].(*[]byte)) = perQuestion
		*(dest[7].(*int)) = want.Overall.TotalMaxMarks
		*(dest[8].(*int)) = want.Overall.TotalScoredMarks
		*(dest[9].(*float64)) = want.Overall.Percentage
		*(dest[10].(*[]byte)) = method
		*(dest[11].(*time.Time)) = want.GeneratedAt
		return nil
	}}}
	repo := postgres.NewResultRepo(pool)

	got, err := repo.GetByExamStudent(context.Background(), "exam-1", "student-1")
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.PerQuestion, got.PerQuestion)
	assert.Equal(t, want.Method, got.Method)
	assert.Equal(t, want.Overall, got.Overall)
}

func TestResultRepo_Get_NotFound(t *testing.T) {
	pool := &poolStub{row: rowStub{scan: func(_ ...any) error { return pgx.ErrNoRows }}}
	repo := postgres.NewResultRepo(pool)

	_, err := repo.GetByExamStudent(context.Background(), "exam-1", "nobody")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResultRepo_Get_DBError(t *testing.T) {
	pool := &poolStub{row: rowStub{scan: func(_ ...any) error { return assert.AnError }}}
	repo := postgres.NewResultRepo(pool)

	_, err := repo.GetByExamStudent(context.Background(), "exam-1", "student-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "op=result.get")
}
