package gemini

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradewise/ai-answer-evaluator/internal/config"
	"github.com/gradewise/ai-answer-evaluator/internal/domain"
)

func TestParseVerification(t *testing.T) {
	t.Run("plain json", func(t *testing.T) {
		v, err := parseVerification(`{"verificationFlag": true, "reason": "similarity low but core concepts present", "gemini_marks": 7}`)
		require.NoError(t, err)
		assert.True(t, v.Flag)
		assert.Equal(t, "similarity low but core concepts present", v.Reason)
		assert.Equal(t, 7, v.SuggestedMarks)
	})

	t.Run("fenced json", func(t *testing.T) {
		v, err := parseVerification("```json\n{\"verificationFlag\": false, \"reason\": \"score reasonable\", \"gemini_marks\": 8}\n```")
		require.NoError(t, err)
		assert.False(t, v.Flag)
		assert.Equal(t, 8, v.SuggestedMarks)
	})

	t.Run("prose around json", func(t *testing.T) {
		v, err := parseVerification(`Verdict follows. {"verificationFlag": true, "reason": "answer too short", "gemini_marks": 2} End.`)
		require.NoError(t, err)
		assert.True(t, v.Flag)
		assert.Equal(t, "answer too short", v.Reason)
	})

	t.Run("missing fields default", func(t *testing.T) {
		v, err := parseVerification(`{"reason": "ok"}`)
		require.NoError(t, err)
		assert.False(t, v.Flag)
		assert.Equal(t, 0, v.SuggestedMarks)
	})

	t.Run("unparsable", func(t *testing.T) {
		_, err := parseVerification("the model refused to answer")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unparsable")
	})
}

func TestResponseTextEmptyCases(t *testing.T) {
	assert.Equal(t, "", responseText(nil))
}

func TestVerifyRequiresAPIKey(t *testing.T) {
	j := New(config.Config{JudgeTimeout: time.Second})
	_, err := j.Verify(context.Background(), domain.VerifyInput{QuestionNumber: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}
