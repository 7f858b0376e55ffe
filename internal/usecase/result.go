package usecase

import (
	"fmt"
	"strings"

	"github.com/gradewise/ai-answer-evaluator/internal/domain"
)

// ResultService serves stored evaluation results.
type ResultService struct {
	Results domain.ResultRepository
}

// NewResultService constructs a ResultService.
func NewResultService(r domain.ResultRepository) ResultService {
	return ResultService{Results: r}
}

// Fetch returns the live result for an (examID, studentID) pair.
func (s ResultService) Fetch(ctx domain.Context, examID, studentID string) (domain.EvaluationResult, error) {
	examID = strings.TrimSpace(examID)
	studentID = strings.TrimSpace(studentID)
	if examID == "" || studentID == "" {
		return domain.EvaluationResult{}, fmt.Errorf("%w: exam and student IDs required", domain.ErrInvalidArgument)
	}
	return s.Results.GetByExamStudent(ctx, examID, studentID)
}
