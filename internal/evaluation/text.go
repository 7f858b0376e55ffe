// Package evaluation contains the pure scoring core: reference/student text
// building, cosine similarity, the scoring policy and the flagging rules.
// Everything here is deterministic and free of I/O.
package evaluation

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/gradewise/ai-answer-evaluator/internal/domain"
)

// BuildReferenceText concatenates, in fixed order: question text, reference
// answer, space-joined must-include points, full-marks requirements, and
// space-joined concept descriptions+keywords. Sections are newline-separated
// and blank sections are skipped. Falls back to the raw question text when the
// concatenation is empty after trimming.
func BuildReferenceText(q domain.SchemeQuestion) string {
	parts := []string{
		q.QuestionText,
		q.ReferenceAnswer,
		strings.Join(q.MustIncludePoints, " "),
		q.FullMarksRequirements,
	}

	var conceptBits []string
	for _, c := range q.Concepts {
		conceptBits = append(conceptBits, c.Description)
		if len(c.Keywords) > 0 {
			conceptBits = append(conceptBits, strings.Join(c.Keywords, " "))
		}
	}
	parts = append(parts, strings.Join(conceptBits, " "))

	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	ref := strings.Join(kept, "\n")
	if strings.TrimSpace(ref) == "" {
		return q.QuestionText
	}
	return ref
}

// AggregateStudentAnswer joins the raw text of the given pages in ascending
// page order (pages without a page number sort as 0). No de-duplication, no
// truncation.
func AggregateStudentAnswer(pages []domain.StudentPage) string {
	sorted := make([]domain.StudentPage, len(pages))
	copy(sorted, pages)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PageNumber < sorted[j].PageNumber
	})
	texts := make([]string, len(sorted))
	for i, p := range sorted {
		texts[i] = p.RawText
	}
	return strings.Join(texts, "\n")
}

// AverageConfidence averages the OCR confidence of pages that carry one
// (Confidence > 0). Returns 0 when no page has a confidence value.
func AverageConfidence(pages []domain.StudentPage) float64 {
	var sum float64
	var n int
	for _, p := range pages {
		if p.Confidence > 0 {
			sum += p.Confidence
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

var questionNumberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bQ(\d+)\b`),
	regexp.MustCompile(`(?i)\bQuestion\s*(\d+)`),
	regexp.MustCompile(`\b(\d+)\)`),
	regexp.MustCompile(`\b(\d+)\.`),
	regexp.MustCompile(`\b(\d+):`),
}

// DetectQuestionNumber attempts to find a question number in OCR output.
// Returns domain.UnknownQuestion when none of the patterns match.
func DetectQuestionNumber(text string) int {
	for _, re := range questionNumberPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n
		}
	}
	return domain.UnknownQuestion
}
