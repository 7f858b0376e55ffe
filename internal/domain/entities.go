// Package domain holds the core entities, error taxonomy and ports of the
// answer-sheet evaluator.
package domain

import (
	"context"
	"errors"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrSchemeEmpty     = errors.New("scheme has no parsed questions")
	ErrEmbedding       = errors.New("embedding failed")
	ErrInternal        = errors.New("internal error")
)

// Flag codes attached to a QuestionResult. Similarity-band flags come first,
// then the OCR flag, then the verifier flag with its reason line.
const (
	FlagLowSimilarity        = "LOW_SIMILARITY"
	FlagBorderlineSimilarity = "BORDERLINE_SIMILARITY"
	FlagLowOCRConfidence     = "LOW_OCR_CONFIDENCE"
	FlagVerification         = "GEMINI_VERIFICATION_FLAG"
)

// UnknownQuestion is the sentinel for pages whose question number could not
// be resolved. Such pages are kept in the store but excluded from scoring.
const UnknownQuestion = -1

// Concept is one conceptual point of a reference answer.
type Concept struct {
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
}

// SchemeQuestion is one question of a marking scheme. Immutable for the
// duration of a scoring run; owned by the scheme store.
type SchemeQuestion struct {
	QuestionNumber        int       `json:"questionNumber"`
	QuestionText          string    `json:"questionText"`
	MaxMarks              int       `json:"maxMarks"`
	ReferenceAnswer       string    `json:"referenceAnswer"`
	MustIncludePoints     []string  `json:"mustIncludePoints"`
	FullMarksRequirements string    `json:"fullMarksRequirements"`
	Concepts              []Concept `json:"concepts"`
}

// Scheme is the stored marking scheme row for an exam.
type Scheme struct {
	ID          string
	ExamID      string
	SubjectID   string
	ProfessorID string
	Questions   []SchemeQuestion
	CreatedAt   time.Time
}

// StudentPage is one OCR fragment of a scanned answer script. Many pages may
// belong to one question; QuestionNumber <= 0 means unresolved.
type StudentPage struct {
	ExamID         string
	StudentID      string
	QuestionNumber int
	PageNumber     int
	RawText        string
	Confidence     float64 // 0 means absent
}

// Verification is the secondary verifier's advisory output. It is stored next
// to the automated score and never substituted into it.
type Verification struct {
	Flag           bool   `json:"verificationFlag"`
	Reason         string `json:"reason"`
	SuggestedMarks int    `json:"suggestedMarks"`
}

// QuestionResult is the per-question outcome of a scoring run.
type QuestionResult struct {
	QuestionNumber   int          `json:"questionNumber"`
	MaxMarks         int          `json:"maxMarks"`
	ScoredMarks      int          `json:"scoredMarks"`
	SuggestedMarks   int          `json:"suggestedMarks"`
	Similarity       float64      `json:"similarity"`       // rounded to 4 decimals
	OCRConfidenceAvg float64      `json:"ocrConfidenceAvg"` // rounded to 3 decimals
	Flags            []string     `json:"flags"`
	Verification     Verification `json:"verification"`
}

// Thresholds records the similarity bands a run was scored with.
type Thresholds struct {
	Low        float64 `json:"lowSimilarity"`
	Borderline float64 `json:"borderline"`
	High       float64 `json:"high"`
}

// Method describes how a result was produced.
type Method struct {
	EmbeddingModel string     `json:"embeddingModel"`
	JudgeModel     string     `json:"judgeModel"`
	Scoring        string     `json:"scoring"`
	Similarity     string     `json:"similarity"`
	Thresholds     Thresholds `json:"flags"`
}

// Overall is the totals summary of a run.
// Invariant: TotalScoredMarks == sum(q.ScoredMarks) and TotalMaxMarks ==
// sum(q.MaxMarks) over PerQuestion.
type Overall struct {
	TotalMaxMarks    int     `json:"totalMaxMarks"`
	TotalScoredMarks int     `json:"totalScoredMarks"`
	Percentage       float64 `json:"percentage"` // rounded to 2 decimals
}

// EvaluationResult is the aggregate outcome of one scoring run. At most one
// live result exists per (ExamID, StudentID); a re-run replaces it entirely.
type EvaluationResult struct {
	ID          string           `json:"id"`
	ExamID      string           `json:"examId"`
	StudentID   string           `json:"studentId"`
	SubjectID   string           `json:"subjectId"`
	ProfessorID string           `json:"professorId"`
	SchemeRefID string           `json:"schemeRefId"`
	PerQuestion []QuestionResult `json:"perQuestion"`
	Overall     Overall          `json:"overall"`
	Method      Method           `json:"method"`
	GeneratedAt time.Time        `json:"generatedAt"`
}

// VerifyInput carries everything the secondary verifier sees about one
// question. StudentText and ReferenceText are already truncated by the caller.
type VerifyInput struct {
	QuestionNumber int
	StudentText    string
	ReferenceText  string
	ScoredMarks    int
	Similarity     float64
	OCRConfidence  float64
	MaxMarks       int
}

// Repositories (ports)

type SchemeRepository interface {
	// LatestByExam returns the most recently stored scheme for an exam.
	LatestByExam(ctx Context, examID string) (Scheme, error)
}

type PageRepository interface {
	ListByExamStudent(ctx Context, examID, studentID string) ([]StudentPage, error)
}

type ResultRepository interface {
	// Upsert replaces any existing result keyed by (ExamID, StudentID) in a
	// single atomic write.
	Upsert(ctx Context, r EvaluationResult) error
	GetByExamStudent(ctx Context, examID, studentID string) (EvaluationResult, error)
}

// Providers (ports)

type EmbeddingProvider interface {
	// Embed returns one vector per input text, preserving order. Reference
	// and student text are batched in a single call so both come from the
	// same model context.
	Embed(ctx Context, texts []string) ([][]float32, error)
}

type JudgeProvider interface {
	// Verify cross-checks an automated score. The judge never changes marks;
	// its output is advisory only.
	Verify(ctx Context, in VerifyInput) (Verification, error)
}

// Context is an alias to context.Context so domain signatures stay terse.
type Context = context.Context
