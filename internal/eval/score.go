package eval

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/JvdW123/shelf-accuracy/internal/config"
	"github.com/JvdW123/shelf-accuracy/internal/model"
	"github.com/JvdW123/shelf-accuracy/internal/oracle"
)

// Invoker is the slice of the oracle gateway the scorer needs.
type Invoker interface {
	Invoke(ctx context.Context, req oracle.Request) (string, error)
}

// Scorer runs the scoring call and validates its output. Scoring always
// uses the high-reasoning model with extended thinking, regardless of
// the narrative mode chosen for the follow-up call.
type Scorer struct {
	gateway Invoker
	cfg     config.AnthropicConfig
	parser  Parser
}

// NewScorer builds a Scorer.
func NewScorer(gateway Invoker, anthropicCfg config.AnthropicConfig, evalCfg config.EvaluationConfig) *Scorer {
	return &Scorer{
		gateway: gateway,
		cfg:     anthropicCfg,
		parser:  Parser{Tolerance: evalCfg.PercentTolerance},
	}
}

// Score sends both normalized record sets to the oracle and returns the
// validated result. The two sets must already be normalized; Score does
// not touch field names.
func (s *Scorer) Score(ctx context.Context, reference, generated model.RecordSet) (*model.EvaluationResult, error) {
	prompt, err := BuildScoringPrompt(reference, generated)
	if err != nil {
		return nil, err
	}

	zap.L().Info("running semantic scoring",
		zap.Int("reference_rows", reference.Len()),
		zap.Int("generated_rows", generated.Len()),
		zap.String("model", s.cfg.OpusModel))

	raw, err := s.gateway.Invoke(ctx, oracle.Request{
		System:         scoringSystemPrompt,
		Prompt:         prompt,
		Model:          s.cfg.OpusModel,
		MaxTokens:      s.cfg.ScoringMaxTokens,
		ThinkingBudget: s.cfg.ScoringThinkingBudget,
		Phase:          "scoring",
	})
	if err != nil {
		return nil, eris.Wrap(err, "eval: scoring call")
	}

	return s.parser.Parse(raw)
}
