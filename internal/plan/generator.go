package plan

import (
	"context"
	"fmt"
	"log"
	"time"

	goaldomain "github.com/steventyyeh/kailendar-v2/internal/goal/domain"
	"github.com/steventyyeh/kailendar-v2/pkg/ai"
)

// Generator produces a validated plan from the generative call.
type Generator interface {
	Generate(ctx context.Context, req Request) (*goaldomain.Plan, []goaldomain.Resource, error)
}

type generator struct {
	llm ai.TextGenerator
	now func() time.Time
}

// NewGenerator wraps a text generator. A nil generator makes every call return
// ai.ErrGenerationUnavailable.
func NewGenerator(llm ai.TextGenerator) Generator {
	return &generator{llm: llm, now: time.Now}
}

func (g *generator) Generate(ctx context.Context, req Request) (*goaldomain.Plan, []goaldomain.Resource, error) {
	if g.llm == nil {
		return nil, nil, ai.ErrGenerationUnavailable
	}
	now := g.now()
	system, user := BuildPrompt(req, now)

	text, model, err := g.llm.Generate(ctx, system, user)
	if err != nil {
		return nil, nil, fmt.Errorf("generative call failed: %w", err)
	}

	gp, err := Parse(text)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("[PlanGenerator] Parsed %d milestones and %d calendar tasks from %s", len(gp.Milestones), len(gp.Tasks), model)

	p, resources := Normalize(gp, NormalizeInput{
		Now:      now,
		Deadline: req.Deadline,
		Location: goaldomain.LoadLocation(req.Timezone),
		Model:    model,
	})
	if err := p.Validate(now, req.Deadline); err != nil {
		return nil, nil, err
	}
	return p, resources, nil
}
