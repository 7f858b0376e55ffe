package evaluation_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradewise/ai-answer-evaluator/internal/domain"
	"github.com/gradewise/ai-answer-evaluator/internal/evaluation"
)

func TestBuildReferenceText_FixedSectionOrder(t *testing.T) {
	q := domain.SchemeQuestion{
		QuestionNumber:        1,
		QuestionText:          "What is photosynthesis?",
		ReferenceAnswer:       "Photosynthesis converts light energy to chemical energy",
		MustIncludePoints:     []string{"chlorophyll", "light energy"},
		FullMarksRequirements: "Mentions conversion and location",
		Concepts: []domain.Concept{
			{Description: "Energy conversion", Keywords: []string{"light", "chemical"}},
			{Description: "Occurs in chloroplasts"},
		},
	}
	got := evaluation.BuildReferenceText(q)
	lines := strings.Split(got, "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "What is photosynthesis?", lines[0])
	assert.Equal(t, "Photosynthesis converts light energy to chemical energy", lines[1])
	assert.Equal(t, "chlorophyll light energy", lines[2])
	assert.Equal(t, "Mentions conversion and location", lines[3])
	assert.Equal(t, "Energy conversion light chemical Occurs in chloroplasts", lines[4])
}

func TestBuildReferenceText_SkipsBlankSections(t *testing.T) {
	q := domain.SchemeQuestion{
		QuestionText:    "Define entropy.",
		ReferenceAnswer: "A measure of disorder.",
	}
	got := evaluation.BuildReferenceText(q)
	assert.Equal(t, "Define entropy.\nA measure of disorder.", got)
}

func TestBuildReferenceText_FallsBackToQuestionText(t *testing.T) {
	// All sections blank except whitespace: fall back to the raw question text.
	q := domain.SchemeQuestion{QuestionText: "   "}
	assert.Equal(t, "   ", evaluation.BuildReferenceText(q))

	q = domain.SchemeQuestion{}
	assert.Equal(t, "", evaluation.BuildReferenceText(q))
}

func TestAggregateStudentAnswer_SortsByPageNumber(t *testing.T) {
	pages := []domain.StudentPage{
		{PageNumber: 3, RawText: "third"},
		{PageNumber: 1, RawText: "first"},
		{PageNumber: 2, RawText: "second"},
	}
	assert.Equal(t, "first\nsecond\nthird", evaluation.AggregateStudentAnswer(pages))
}

func TestAggregateStudentAnswer_MissingPageNumbersSortFirst(t *testing.T) {
	pages := []domain.StudentPage{
		{PageNumber: 2, RawText: "later"},
		{PageNumber: 0, RawText: "unnumbered"},
	}
	assert.Equal(t, "unnumbered\nlater", evaluation.AggregateStudentAnswer(pages))
}

func TestAggregateStudentAnswer_DoesNotMutateInput(t *testing.T) {
	pages := []domain.StudentPage{
		{PageNumber: 2, RawText: "b"},
		{PageNumber: 1, RawText: "a"},
	}
	_ = evaluation.AggregateStudentAnswer(pages)
	assert.Equal(t, 2, pages[0].PageNumber)
}

func TestAverageConfidence(t *testing.T) {
	pages := []domain.StudentPage{
		{Confidence: 0.9},
		{Confidence: 0.7},
		{Confidence: 0}, // absent, excluded from the average
	}
	assert.InDelta(t, 0.8, evaluation.AverageConfidence(pages), 1e-9)
	assert.Zero(t, evaluation.AverageConfidence([]domain.StudentPage{{}, {}}))
	assert.Zero(t, evaluation.AverageConfidence(nil))
}

func TestDetectQuestionNumber(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"Q3 The water cycle begins with...", 3},
		{"Question 12: discuss", 12},
		{"4) An answer about gravity", 4},
		{"7. Some answer", 7},
		{"2: short form", 2},
		{"no number anywhere", domain.UnknownQuestion},
		{"", domain.UnknownQuestion},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, evaluation.DetectQuestionNumber(tt.text), "text=%q", tt.text)
	}
}
