package evaluation

import "math"

// Score maps a similarity to an awarded mark: round(clamp(sim, 0, 1) * max).
// Rounding is half-away-from-zero (math.Round); the clamp guards embedding
// noise pushing similarity slightly outside [0,1] and negative cosine values.
// A maxMarks of 0 always yields 0.
func Score(similarity float64, maxMarks int) int {
	if maxMarks <= 0 {
		return 0
	}
	s := similarity
	if s < 0 {
		s = 0
	}
	if s > 1 {
		s = 1
	}
	return int(math.Round(s * float64(maxMarks)))
}

// Round2 rounds to 2 decimal places (percentages).
func Round2(v float64) float64 { return math.Round(v*100) / 100 }

// Round3 rounds to 3 decimal places (stored OCR confidence).
func Round3(v float64) float64 { return math.Round(v*1000) / 1000 }

// Round4 rounds to 4 decimal places (stored similarity).
func Round4(v float64) float64 { return math.Round(v*10000) / 10000 }
