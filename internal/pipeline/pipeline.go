// Package pipeline implements the end-to-end fact-checking workflow: split
// an answer into sentences, extract and validate factual claims, verify each
// claim against retrieved web evidence, and assemble a final report.
package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/factcheck/internal/config"
	"github.com/sells-group/factcheck/internal/events"
	"github.com/sells-group/factcheck/internal/model"
	"github.com/sells-group/factcheck/internal/search"
	"github.com/sells-group/factcheck/internal/store"
	"github.com/sells-group/factcheck/pkg/anthropic"
)

// Pipeline wires the stages together. The store is optional; when nil the
// run is not persisted (the synchronous CLI path).
type Pipeline struct {
	cfg      config.Config
	store    store.Store
	ai       anthropic.Client
	searcher search.Searcher
	sink     events.Sink
}

// New creates a pipeline. Pass a nil store to skip persistence and
// events.Discard to skip streaming.
func New(cfg config.Config, st store.Store, ai anthropic.Client, searcher search.Searcher, sink events.Sink) *Pipeline {
	if sink == nil {
		sink = events.Discard
	}
	return &Pipeline{cfg: cfg, store: st, ai: ai, searcher: searcher, sink: sink}
}

// Run executes the full workflow for one (question, answer) pair. Stage
// barriers are explicit: every stage drains before the next one starts, so
// the event stream never interleaves items from different stages out of
// order. A systemic failure (cancellation, store outage) emits a run-scoped
// error event, marks the run failed, and returns the error; per-item
// failures inside a stage never reach here.
func (p *Pipeline) Run(ctx context.Context, runID string, req model.CheckRequest) (model.FactCheckReport, error) {
	ctx = withUsageMeter(ctx, &usageMeter{})

	window := ContextWindow{
		Preceding: p.cfg.Pipeline.PrecedingSentences,
		Following: p.cfg.Pipeline.FollowingSentences,
	}
	concurrency := p.cfg.Pipeline.StageConcurrency

	p.setStatus(ctx, runID, model.RunStatusSplitting)
	sentences := SplitSentences(req.Question, req.Answer, window)
	for _, s := range sentences {
		p.sink.Emit(model.NewContextualSentenceEvent(s))
	}
	zap.L().Info("answer split into sentences",
		zap.String("run_id", runID),
		zap.Int("sentences", len(sentences)),
	)

	if len(sentences) == 0 {
		return p.finish(ctx, runID, req, nil)
	}
	if err := p.failed(ctx, runID, ctx.Err()); err != nil {
		return model.FactCheckReport{}, err
	}

	p.setStatus(ctx, runID, model.RunStatusSelecting)
	selected := SelectionStage(ctx, sentences, p.ai, p.cfg.Anthropic, concurrency, p.sink)
	if err := p.failed(ctx, runID, ctx.Err()); err != nil {
		return model.FactCheckReport{}, err
	}

	p.setStatus(ctx, runID, model.RunStatusDisambiguating)
	disambiguated := DisambiguationStage(ctx, selected, p.ai, p.cfg.Anthropic, concurrency, p.sink)
	if err := p.failed(ctx, runID, ctx.Err()); err != nil {
		return model.FactCheckReport{}, err
	}

	p.setStatus(ctx, runID, model.RunStatusDecomposing)
	potential := DecompositionStage(ctx, disambiguated, p.ai, p.cfg.Anthropic, concurrency, p.sink)
	if err := p.failed(ctx, runID, ctx.Err()); err != nil {
		return model.FactCheckReport{}, err
	}

	p.setStatus(ctx, runID, model.RunStatusValidating)
	validated := ValidationStage(ctx, potential, p.ai, p.cfg.Anthropic, concurrency, p.sink)
	if err := p.failed(ctx, runID, ctx.Err()); err != nil {
		return model.FactCheckReport{}, err
	}

	p.setStatus(ctx, runID, model.RunStatusVerifying)
	verifier := NewVerifier(p.ai, p.searcher, p.cfg)
	verdicts := verifier.VerifyAll(ctx, validated, p.sink)
	if err := p.failed(ctx, runID, ctx.Err()); err != nil {
		return model.FactCheckReport{}, err
	}

	return p.finish(ctx, runID, req, verdicts)
}

func (p *Pipeline) finish(ctx context.Context, runID string, req model.CheckRequest, verdicts []model.Verdict) (model.FactCheckReport, error) {
	p.setStatus(ctx, runID, model.RunStatusReporting)
	report := BuildReport(req.Question, req.Answer, verdicts)
	if report.ClaimsVerified > 0 {
		if summary, err := summarizeWithModel(ctx, p.ai, p.cfg.Anthropic, &report); err != nil {
			zap.L().Warn("summary generation failed, keeping counts summary",
				zap.String("run_id", runID),
				zap.Error(err),
			)
		} else {
			report.Summary = summary
		}
	}
	p.sink.Emit(model.NewReportEvent(report))

	if p.store != nil {
		if err := p.store.UpdateRunReport(ctx, runID, &report); err != nil {
			return model.FactCheckReport{}, p.failed(ctx, runID, err)
		}
	}
	p.setStatus(ctx, runID, model.RunStatusComplete)
	if m := meterFrom(ctx); m != nil {
		m.snapshot().LogCost(p.cfg.Anthropic.Model, "run")
	}
	zap.L().Info("fact-check run complete",
		zap.String("run_id", runID),
		zap.Int("claims_verified", report.ClaimsVerified),
	)
	return report, nil
}

// failed handles a systemic error: emit the run-scoped error event, persist
// the failure, and hand the error back so Run can abort. A nil err passes
// through untouched.
func (p *Pipeline) failed(ctx context.Context, runID string, err error) error {
	if err == nil {
		return nil
	}
	zap.L().Error("fact-check run failed",
		zap.String("run_id", runID),
		zap.Error(err),
	)
	p.sink.Emit(model.NewErrorEvent(model.ScopeRun, runID, err.Error()))
	if p.store != nil {
		// Persist with a fresh context so cancellation of the run does not
		// also lose the failure record.
		storeCtx := context.WithoutCancel(ctx)
		if storeErr := p.store.FailRun(storeCtx, runID, err.Error()); storeErr != nil {
			zap.L().Warn("failed to persist run failure",
				zap.String("run_id", runID),
				zap.Error(storeErr),
			)
		}
	}
	return err
}

func (p *Pipeline) setStatus(ctx context.Context, runID string, status model.RunStatus) {
	if p.store == nil {
		return
	}
	if err := p.store.UpdateRunStatus(ctx, runID, status); err != nil {
		zap.L().Warn("failed to update run status",
			zap.String("run_id", runID),
			zap.String("status", string(status)),
			zap.Error(err),
		)
	}
}
