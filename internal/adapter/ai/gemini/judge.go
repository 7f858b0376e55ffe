// Package gemini implements domain.JudgeProvider on the Gemini API.
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	aipkg "github.com/gradewise/ai-answer-evaluator/internal/adapter/ai"
	"github.com/gradewise/ai-answer-evaluator/internal/adapter/observability"
	"github.com/gradewise/ai-answer-evaluator/internal/config"
	"github.com/gradewise/ai-answer-evaluator/internal/domain"
)

const systemInstruction = `You are an exam evaluation verification AI.
Your role is to verify whether the automatic score seems reasonable and suggest a fair score.

Rules:
1. Do NOT change the marks; only suggest.
2. Flag suspicious cases.
3. Flag if similarity is low but the student mentions core concepts.
4. Flag if similarity is high but the answer is too short or incomplete.
5. Flag if OCR confidence is low.
6. Suggest a reasonable score out of the maximum marks based on the student's answer quality.
7. Output ONLY JSON in this format:

{
  "verificationFlag": true/false,
  "reason": "<short_reason>",
  "gemini_marks": <int>
}`

// Judge cross-checks automated scores with a Gemini model. Its opinion is
// advisory; callers must treat any error as "unverified", never as a run
// failure.
type Judge struct {
	cfg config.Config
}

// New constructs a Judge from configuration.
func New(cfg config.Config) *Judge { return &Judge{cfg: cfg} }

// Verify sends one question's scoring context to the judge model and parses
// its JSON opinion. Transient API failures are retried a bounded number of
// times inside the configured timeout.
func (j *Judge) Verify(ctx domain.Context, in domain.VerifyInput) (domain.Verification, error) {
	if j.cfg.GeminiAPIKey == "" {
		return domain.Verification{}, fmt.Errorf("%w: GEMINI_API_KEY missing", domain.ErrInvalidArgument)
	}

	ctx, cancel := context.WithTimeout(ctx, j.cfg.JudgeTimeout)
	defer cancel()

	cl, err := genai.NewClient(ctx, option.WithAPIKey(j.cfg.GeminiAPIKey))
	if err != nil {
		return domain.Verification{}, fmt.Errorf("gemini client: %w", err)
	}
	defer func() { _ = cl.Close() }()

	m := cl.GenerativeModel(strings.TrimSpace(j.cfg.JudgeModel))
	temp := float32(0)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      &temp,
		ResponseMIMEType: "application/json",
	}
	m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemInstruction)}}

	prompt := fmt.Sprintf(`Data:
- Question Number: %d
- Student Answer: %s...
- Reference Answer: %s...
- Scored Marks: %d
- Similarity Score: %v
- OCR Confidence: %v
- Max Marks: %d`,
		in.QuestionNumber, in.StudentText, in.ReferenceText,
		in.ScoredMarks, in.Similarity, in.OCRConfidence, in.MaxMarks)

	slog.Info("calling judge model", slog.String("provider", "gemini"), slog.String("model", j.cfg.JudgeModel), slog.Int("question", in.QuestionNumber))

	var resp *genai.GenerateContentResponse
	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		start := time.Now()
		resp, lastErr = m.GenerateContent(ctx, genai.Text(prompt))
		observability.AIRequestsTotal.WithLabelValues("gemini", "verify").Inc()
		observability.AIRequestDuration.WithLabelValues("gemini", "verify").Observe(time.Since(start).Seconds())
		if lastErr == nil {
			break
		}
		slog.Warn("judge attempt failed", slog.String("provider", "gemini"), slog.Int("attempt", attempt), slog.Any("error", lastErr))
		if ctx.Err() != nil {
			break
		}
	}
	if lastErr != nil {
		return domain.Verification{}, fmt.Errorf("gemini generate: %w", lastErr)
	}

	raw := responseText(resp)
	if strings.TrimSpace(raw) == "" {
		return domain.Verification{}, fmt.Errorf("gemini: empty response")
	}
	return parseVerification(raw)
}

// responseText flattens the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}

// parseVerification decodes the judge's JSON opinion, tolerating code-fence
// wrapping. The wire field gemini_marks is the judge's suggested score.
func parseVerification(raw string) (domain.Verification, error) {
	var out struct {
		VerificationFlag bool   `json:"verificationFlag"`
		Reason           string `json:"reason"`
		GeminiMarks      int    `json:"gemini_marks"`
	}
	if err := aipkg.DecodeLenient(raw, &out); err != nil {
		return domain.Verification{}, fmt.Errorf("gemini: unparsable response: %w", err)
	}
	return domain.Verification{
		Flag:           out.VerificationFlag,
		Reason:         out.Reason,
		SuggestedMarks: out.GeminiMarks,
	}, nil
}
