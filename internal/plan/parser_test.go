package plan

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validPlanJSON = `{
  "planSummary": "Build real sites, one step at a time.",
  "milestones": [
    {"title": "Foundations", "description": "HTML and CSS", "objectives": [
      {"description": "Learn HTML", "estimatedHours": 6, "tasks": ["Read MDN intro", "Build a page"]}
    ]},
    {"title": "JavaScript", "description": "Interactivity", "objectives": [
      {"description": "Learn JS basics", "estimatedHours": "8", "tasks": ["Finish exercises"]}
    ]}
  ],
  "tasks": [
    {"title": "Read MDN intro", "description": "Session", "startDateTime": "2026-03-02T09:00:00-05:00",
     "endDateTime": "2026-03-02T10:00:00-05:00", "priority": "high", "milestoneId": 0}
  ],
  "insights": ["Code daily"],
  "resources": [{"title": "MDN", "type": "website", "url": "https://developer.mozilla.org", "cost": "Free"}]
}`

func TestParse_Shapes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"bare object", validPlanJSON},
		{"json fence", "Here is your plan:\n```json\n" + validPlanJSON + "\n```\nGood luck!"},
		{"plain fence", "```\n" + validPlanJSON + "\n```"},
		{"prose around object", "Sure! " + validPlanJSON + " Let me know if you need changes {not json}."},
		{"trailing commas", strings.Replace(validPlanJSON, `"Code daily"]`, `"Code daily",]`, 1)},
		{"line comments", strings.Replace(validPlanJSON, `"insights"`, "// insights follow\n  \"insights\"", 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gp, err := Parse(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, "Build real sites, one step at a time.", gp.SummaryText())
			require.Len(t, gp.Milestones, 2)
			assert.Equal(t, flexFloat(8), gp.Milestones[1].Objectives[0].EstimatedHours)
			require.Len(t, gp.Tasks, 1)
			assert.Equal(t, "0", string(gp.Tasks[0].MilestoneID))
		})
	}
}

func TestParse_BracesInsideStrings(t *testing.T) {
	raw := `{"summary": "use {curly} braces", "milestones": [{"title": "a}b"}], "tasks": []} trailing }`
	gp, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "use {curly} braces", gp.SummaryText())
	assert.Equal(t, "a}b", gp.Milestones[0].Title)
}

func TestParse_SyntaxFailure(t *testing.T) {
	raw := `{"planSummary": "x", "milestones": [` + strings.Repeat("a", 1000)
	_, err := Parse(raw)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrGenerationParse))
	assert.False(t, errors.Is(err, ErrGenerationSchema))

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.LessOrEqual(t, len(perr.Excerpt), MaxExcerptLen)
	assert.True(t, strings.HasPrefix(perr.Excerpt, `{"planSummary"`))
}

func TestParse_NoObject(t *testing.T) {
	_, err := Parse("I'm sorry, I can't help with that.")
	assert.True(t, errors.Is(err, ErrGenerationParse))
}

func TestParse_SchemaFailure(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		missing []string
	}{
		{"no summary", `{"milestones": [{"title": "a"}], "tasks": []}`, []string{"planSummary"}},
		{"empty milestones", `{"planSummary": "x", "milestones": [], "tasks": []}`, []string{"milestones"}},
		{"no tasks", `{"planSummary": "x", "milestones": [{"title": "a"}]}`, []string{"tasks"}},
		{"everything", `{"foo": 1}`, []string{"planSummary", "milestones", "tasks"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrGenerationSchema))
			assert.False(t, errors.Is(err, ErrGenerationParse))

			var serr *SchemaError
			require.True(t, errors.As(err, &serr))
			assert.Equal(t, tt.missing, serr.Missing)
		})
	}
}

func TestExcerpt_RespectsRuneBoundaries(t *testing.T) {
	raw := strings.Repeat("é", MaxExcerptLen)
	out := excerpt(raw)
	assert.LessOrEqual(t, len(out), MaxExcerptLen)
	assert.True(t, strings.HasSuffix(out, "..."))
	assert.True(t, strings.HasPrefix(out, "é"))
}
