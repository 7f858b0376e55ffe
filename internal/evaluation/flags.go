package evaluation

import "github.com/gradewise/ai-answer-evaluator/internal/domain"

// FlagThresholds holds the band boundaries FlagsFor evaluates against.
type FlagThresholds struct {
	LowSimilarity float64
	Borderline    float64
	LowOCR        float64
}

// FlagsFor returns the advisory flags for one question, order-stable:
// similarity band flag first, then the OCR flag. The two similarity bands are
// mutually exclusive; similarity at or above the borderline threshold emits
// nothing. An OCR confidence of 0 is treated as absent and never flagged.
func FlagsFor(similarity, ocrConfidenceAvg float64, t FlagThresholds) []string {
	var flags []string
	switch {
	case similarity < t.LowSimilarity:
		flags = append(flags, domain.FlagLowSimilarity)
	case similarity < t.Borderline:
		flags = append(flags, domain.FlagBorderlineSimilarity)
	}
	if ocrConfidenceAvg > 0 && ocrConfidenceAvg < t.LowOCR {
		flags = append(flags, domain.FlagLowOCRConfidence)
	}
	return flags
}
