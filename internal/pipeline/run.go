// Package pipeline wires normalization, scoring, classification,
// rendering, and narrative generation into one evaluation run.
package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JvdW123/shelf-accuracy/internal/config"
	"github.com/JvdW123/shelf-accuracy/internal/eval"
	"github.com/JvdW123/shelf-accuracy/internal/model"
	"github.com/JvdW123/shelf-accuracy/internal/narrative"
	"github.com/JvdW123/shelf-accuracy/internal/normalize"
	"github.com/JvdW123/shelf-accuracy/internal/oracle"
	"github.com/JvdW123/shelf-accuracy/internal/report"
)

// Input is one evaluation request: a reference set, a generated set,
// and the batch metadata for the export.
type Input struct {
	Reference model.RecordSet
	Generated model.RecordSet
	Meta      model.Metadata

	// NarrativeMode selects the narrative profile. Empty skips the
	// narrative call entirely.
	NarrativeMode narrative.Mode

	// RunID lets callers pre-assign the run identifier, e.g. so an HTTP
	// handler can return it before the run finishes. Empty generates one.
	RunID string
}

// Output collects everything a run produced.
type Output struct {
	RunID      string                  `json:"run_id"`
	Result     *model.EvaluationResult `json:"result"`
	Flagged    []model.FlaggedEntry    `json:"flagged"`
	ReportPath string                  `json:"report_path"`
	ResultPath string                  `json:"result_path"`
	Narrative  string                  `json:"narrative,omitempty"`
}

// Invoker is the gateway surface the runner needs for both calls.
type Invoker interface {
	Invoke(ctx context.Context, req oracle.Request) (string, error)
}

// Runner executes evaluation runs. Runs share no mutable state, so one
// Runner may serve concurrent runs.
type Runner struct {
	cfg      *config.Config
	scorer   *eval.Scorer
	synth    *narrative.Synthesizer
	renderer *report.Renderer

	// now is stubbed in tests for deterministic filenames.
	now func() time.Time
}

// NewRunner wires a Runner from configuration and a gateway.
func NewRunner(cfg *config.Config, gateway Invoker) *Runner {
	return &Runner{
		cfg:      cfg,
		scorer:   eval.NewScorer(gateway, cfg.Anthropic, cfg.Evaluation),
		synth:    narrative.NewSynthesizer(gateway, cfg.Anthropic),
		renderer: report.NewRenderer(cfg.Report, cfg.Exchange),
		now:      time.Now,
	}
}

// Run executes the full pipeline: normalize both sets, score, classify,
// then render the report and (optionally) synthesize a narrative. The
// narrative call runs concurrently with rendering and its failure never
// invalidates the report.
func (r *Runner) Run(ctx context.Context, in Input) (*Output, error) {
	runID := in.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	log := zap.L().With(zap.String("run_id", runID))
	log.Info("evaluation run starting",
		zap.Int("reference_rows", in.Reference.Len()),
		zap.Int("generated_rows", in.Generated.Len()))

	reference, err := normalize.Normalize(in.Reference)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: normalize reference set")
	}
	generated, err := normalize.Normalize(in.Generated)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: normalize generated set")
	}

	scoringCtx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Anthropic.ScoringTimeoutSecs)*time.Second)
	defer cancel()
	result, err := r.scorer.Score(scoringCtx, reference, generated)
	if err != nil {
		return nil, err
	}

	out := &Output{
		RunID:   runID,
		Result:  result,
		Flagged: eval.Classify(result),
	}

	base := report.Filename(in.Meta.Retailer, in.Meta.City, r.now())
	out.ReportPath = filepath.Join(r.cfg.Report.OutDir, base)
	out.ResultPath = filepath.Join(r.cfg.Report.OutDir, strings.TrimSuffix(base, ".xlsx")+"_result.json")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := r.renderer.RenderToFile(in.Generated, result, in.Meta, out.ReportPath); err != nil {
			return eris.Wrap(err, "pipeline: render report")
		}
		return r.writeResultArtifact(out)
	})
	if in.NarrativeMode != "" {
		g.Go(func() error {
			nctx, ncancel := context.WithTimeout(gctx, time.Duration(r.cfg.Anthropic.NarrativeTimeoutSecs)*time.Second)
			defer ncancel()
			text, nerr := r.synth.Synthesize(nctx, result, in.NarrativeMode)
			if nerr != nil {
				// Interpretive only: the rendered report stands.
				log.Warn("narrative generation failed", zap.Error(nerr))
				return nil
			}
			out.Narrative = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Info("evaluation run complete",
		zap.Float64("completeness_pct", result.Completeness.Pct),
		zap.Int("flagged", len(out.Flagged)),
		zap.String("report", out.ReportPath))
	return out, nil
}

// writeResultArtifact persists the validated result next to the report
// so scores can be inspected without re-running the oracle.
func (r *Runner) writeResultArtifact(out *Output) error {
	artifact := struct {
		RunID   string                  `json:"run_id"`
		Result  *model.EvaluationResult `json:"result"`
		Flagged []model.FlaggedEntry    `json:"flagged"`
	}{out.RunID, out.Result, out.Flagged}

	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return eris.Wrap(err, "pipeline: marshal result artifact")
	}
	if err := os.WriteFile(out.ResultPath, data, 0o644); err != nil {
		return eris.Wrap(err, "pipeline: write result artifact")
	}
	return nil
}
