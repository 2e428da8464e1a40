package plan

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	goaldomain "github.com/steventyyeh/kailendar-v2/internal/goal/domain"
	"github.com/steventyyeh/kailendar-v2/pkg/ai"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLLM struct {
	text   string
	err    error
	system string
	user   string
}

func (s *stubLLM) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, string, error) {
	s.system, s.user = systemPrompt, userPrompt
	return s.text, "stub-model", s.err
}

func newTestGenerator(llm ai.TextGenerator, now time.Time) Generator {
	return &generator{llm: llm, now: func() time.Time { return now }}
}

func TestGenerator_Success(t *testing.T) {
	now := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	llm := &stubLLM{text: "```json\n" + validPlanJSON + "\n```"}
	req := Request{
		Specificity: "Learn web development",
		Category:    string(goaldomain.CategoryLearning),
		Deadline:    now.AddDate(0, 3, 0),
		Timezone:    "America/New_York",
	}

	p, resources, err := newTestGenerator(llm, now).Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "stub-model", p.LLMModel)
	assert.Len(t, p.Milestones, 2)
	assert.Len(t, resources, 1)
	assert.Contains(t, llm.user, "Goal: Learn web development")
	assert.Contains(t, llm.user, "Timezone: America/New_York")
	assert.True(t, strings.Contains(llm.system, `"planSummary"`))
}

func TestGenerator_Failures(t *testing.T) {
	now := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	req := Request{Specificity: "x", Deadline: now.AddDate(0, 1, 0)}

	_, _, err := NewGenerator(nil).Generate(context.Background(), req)
	assert.ErrorIs(t, err, ai.ErrGenerationUnavailable)

	_, _, err = newTestGenerator(&stubLLM{err: errors.New("boom")}, now).Generate(context.Background(), req)
	assert.ErrorContains(t, err, "boom")

	_, _, err = newTestGenerator(&stubLLM{text: "not json"}, now).Generate(context.Background(), req)
	assert.ErrorIs(t, err, ErrGenerationParse)

	_, _, err = newTestGenerator(&stubLLM{text: `{"planSummary": "x", "milestones": []}`}, now).Generate(context.Background(), req)
	assert.ErrorIs(t, err, ErrGenerationSchema)

	past := Request{Specificity: "x", Deadline: now.Add(-time.Hour)}
	_, _, err = newTestGenerator(&stubLLM{text: validPlanJSON}, now).Generate(context.Background(), past)
	assert.ErrorIs(t, err, goaldomain.ErrInvalidPlan)
}
