package plan

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// MaxExcerptLen bounds how much raw generative output is carried in parse errors.
const MaxExcerptLen = 240

var (
	ErrGenerationParse  = errors.New("generation output is not valid JSON")
	ErrGenerationSchema = errors.New("generation output is missing required fields")
)

// ParseError reports generative output that could not be decoded as JSON.
type ParseError struct {
	Excerpt string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v: %v (excerpt: %q)", ErrGenerationParse, e.Err, e.Excerpt)
}

func (e *ParseError) Unwrap() []error { return []error{ErrGenerationParse, e.Err} }

// SchemaError reports well-formed JSON without the required top-level fields.
type SchemaError struct {
	Missing []string
	Excerpt string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%v: %s", ErrGenerationSchema, strings.Join(e.Missing, ", "))
}

func (e *SchemaError) Unwrap() error { return ErrGenerationSchema }

// GeneratedPlan is the raw shape requested from the generative call.
type GeneratedPlan struct {
	PlanSummary  string                 `json:"planSummary"`
	Summary      string                 `json:"summary"`
	Tasks        []GeneratedTask        `json:"tasks"`
	Milestones   []GeneratedMilestone   `json:"milestones"`
	Insights     []string               `json:"insights"`
	Resources    []GeneratedResource    `json:"resources"`
	OneTimeTasks []GeneratedOneTimeTask `json:"oneTimeTasks"`
}

// GeneratedTask is a calendar-ready task with an explicit window.
type GeneratedTask struct {
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	StartDateTime string              `json:"startDateTime"`
	EndDateTime   string              `json:"endDateTime"`
	Priority      string              `json:"priority"`
	MilestoneID   flexString          `json:"milestoneId"`
	Resources     []GeneratedResource `json:"resources"`
}

type GeneratedMilestone struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Objectives  []GeneratedObjective `json:"objectives"`
}

type GeneratedObjective struct {
	Description    string    `json:"description"`
	EstimatedHours flexFloat `json:"estimatedHours"`
	Tasks          []string  `json:"tasks"`
}

type GeneratedResource struct {
	Title       string `json:"title"`
	Type        string `json:"type"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Cost        string `json:"cost"`
}

type GeneratedOneTimeTask struct {
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	DurationMinutes flexFloat `json:"duration"`
	TargetDate      string    `json:"targetDate"`
}

// SummaryText returns the plan summary, accepting the legacy "summary" key.
func (g *GeneratedPlan) SummaryText() string {
	if g.PlanSummary != "" {
		return g.PlanSummary
	}
	return g.Summary
}

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// flexFloat accepts a JSON number or a numeric string.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = 0
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		*f = flexFloat(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexFloat(n)
	return nil
}

var (
	fencePattern          = regexp.MustCompile("(?s)```(?:json|JSON)?[ \t]*\\n?(.*?)```")
	trailingCommaPattern  = regexp.MustCompile(`,(\s*[}\]])`)
	lineCommentPattern    = regexp.MustCompile(`(?m)^\s*//.*$`)
	smartQuoteReplacement = strings.NewReplacer("“", `"`, "”", `"`, "‘", "'", "’", "'")
)

// Parse turns raw generative output into a GeneratedPlan. It has no side effects.
func Parse(raw string) (*GeneratedPlan, error) {
	candidate, ok := extractJSON(raw)
	if !ok {
		return nil, &ParseError{Excerpt: excerpt(raw), Err: errors.New("no JSON object found")}
	}

	fields, err := decodeFields(candidate)
	if err != nil {
		repaired := repairJSON(candidate)
		var retryErr error
		if fields, retryErr = decodeFields(repaired); retryErr != nil {
			return nil, &ParseError{Excerpt: excerpt(raw), Err: err}
		}
		candidate = repaired
	}

	var missing []string
	if !hasNonEmptyString(fields, "planSummary") && !hasNonEmptyString(fields, "summary") {
		missing = append(missing, "planSummary")
	}
	if !hasNonEmptyArray(fields, "milestones") {
		missing = append(missing, "milestones")
	}
	if !hasArray(fields, "tasks") {
		missing = append(missing, "tasks")
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing, Excerpt: excerpt(raw)}
	}

	var gp GeneratedPlan
	if err := json.Unmarshal([]byte(candidate), &gp); err != nil {
		return nil, &SchemaError{Missing: []string{err.Error()}, Excerpt: excerpt(raw)}
	}
	return &gp, nil
}

// extractJSON strips a markdown fence, otherwise locates the first balanced object.
func extractJSON(raw string) (string, bool) {
	text := raw
	if m := fencePattern.FindStringSubmatch(raw); m != nil {
		text = m[1]
	}
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}
	if end := matchingBrace(text, start); end > 0 {
		return text[start : end+1], true
	}
	// Unbalanced (usually truncated) output; let the decoder report it.
	return text[start:], true
}

func matchingBrace(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func repairJSON(s string) string {
	s = smartQuoteReplacement.Replace(s)
	s = lineCommentPattern.ReplaceAllString(s, "")
	return trailingCommaPattern.ReplaceAllString(s, "$1")
}

func decodeFields(s string) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func hasNonEmptyString(fields map[string]json.RawMessage, key string) bool {
	raw, ok := fields[key]
	if !ok {
		return false
	}
	var s string
	return json.Unmarshal(raw, &s) == nil && strings.TrimSpace(s) != ""
}

func hasArray(fields map[string]json.RawMessage, key string) bool {
	raw, ok := fields[key]
	if !ok {
		return false
	}
	var items []json.RawMessage
	return json.Unmarshal(raw, &items) == nil && items != nil
}

func hasNonEmptyArray(fields map[string]json.RawMessage, key string) bool {
	raw, ok := fields[key]
	if !ok {
		return false
	}
	var items []json.RawMessage
	return json.Unmarshal(raw, &items) == nil && len(items) > 0
}

func excerpt(raw string) string {
	if len(raw) <= MaxExcerptLen {
		return raw
	}
	cut := MaxExcerptLen - len("...")
	for cut > 0 && !utf8.RuneStart(raw[cut]) {
		cut--
	}
	return raw[:cut] + "..."
}
