// Package narrative turns a validated evaluation result into a
// human-readable diagnostic report via a second oracle call.
package narrative

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/JvdW123/shelf-accuracy/internal/config"
	"github.com/JvdW123/shelf-accuracy/internal/model"
	"github.com/JvdW123/shelf-accuracy/internal/oracle"
)

// Mode selects the cost/quality profile of the narrative call.
type Mode string

const (
	// ModeQuick uses the fast model without extended thinking.
	ModeQuick Mode = "quick"
	// ModeDeep uses the high-reasoning model with a thinking budget.
	ModeDeep Mode = "deep"
)

// ParseMode validates a mode string, defaulting empty to quick.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeQuick:
		return ModeQuick, nil
	case ModeDeep:
		return ModeDeep, nil
	default:
		return "", eris.Errorf("narrative: unknown mode %q", s)
	}
}

const systemPrompt = `You are a senior machine-learning diagnostic engineer specialising in document-understanding and structured data extraction systems. You help teams understand why an AI shelf-analysis pipeline makes systematic errors and how to fix them.

Your analysis must be:
- Evidence-based: cite specific examples from the scored results
- Pattern-oriented: group errors by type rather than listing them one by one
- Actionable: every finding should end with a concrete improvement suggestion
  (prompt change, schema clarification, model setting, etc.)
- Concise: no padding or filler text`

const taskPrompt = `
---

## Your Task

Produce a structured diagnostic report with the following sections:

### A. Error Pattern Summary
List the top error patterns across all 6 sections. For each pattern, state:
- Which section and field(s) are affected
- How many errors relate to this pattern
- Representative ground truth value vs generated value examples

### B. Root Cause Hypotheses
For each major pattern, hypothesise the most likely root cause:
- Prompt ambiguity - what wording might be misleading?
- Image quality / visibility limitations
- Schema gap - is the allowed-values list incomplete or unclear?
- Model reasoning limitation

### C. Improvement Recommendations
For each root cause, give a specific actionable recommendation:
- Exact prompt wording to add or change
- Schema or allowed-values change
- Photo capture guidance for the field team
- Other pipeline change

### D. Overall Health Assessment
One paragraph: is this pipeline ready for production use?
What are the 1-2 highest-priority fixes?`

// Invoker is the slice of the oracle gateway the synthesizer needs.
type Invoker interface {
	Invoke(ctx context.Context, req oracle.Request) (string, error)
}

// Synthesizer generates diagnostic narratives. It only interprets an
// already-validated result; it never re-derives or overrides a score.
type Synthesizer struct {
	gateway Invoker
	cfg     config.AnthropicConfig
}

// NewSynthesizer builds a Synthesizer.
func NewSynthesizer(gateway Invoker, cfg config.AnthropicConfig) *Synthesizer {
	return &Synthesizer{gateway: gateway, cfg: cfg}
}

// Synthesize runs the narrative call in the given mode and returns the
// report text.
func (s *Synthesizer) Synthesize(ctx context.Context, result *model.EvaluationResult, mode Mode) (string, error) {
	resultJSON, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", eris.Wrap(err, "narrative: marshal result")
	}

	prompt := fmt.Sprintf(
		"You are reviewing the accuracy results of an AI shelf-analysis pipeline that reads supermarket shelf photos and outputs structured product data.\n\n## Accuracy Results (from semantic scoring)\n\n%s\n%s",
		resultJSON, taskPrompt,
	)

	req := oracle.Request{
		System: systemPrompt,
		Prompt: prompt,
		Phase:  "narrative",
	}
	switch mode {
	case ModeDeep:
		req.Model = s.cfg.OpusModel
		req.MaxTokens = s.cfg.NarrativeDeepMaxTokens
		req.ThinkingBudget = s.cfg.NarrativeDeepThinkingBudget
	default:
		req.Model = s.cfg.SonnetModel
		req.MaxTokens = s.cfg.NarrativeQuickMaxTokens
	}

	zap.L().Info("running narrative diagnosis",
		zap.String("mode", string(mode)),
		zap.String("model", req.Model))

	text, err := s.gateway.Invoke(ctx, req)
	if err != nil {
		return "", eris.Wrap(err, "narrative: diagnosis call")
	}
	return text, nil
}
