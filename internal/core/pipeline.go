package core

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/claimhands/verdict/internal/core/adjudicate"
	"github.com/claimhands/verdict/internal/core/aggregate"
	"github.com/claimhands/verdict/internal/core/bundler"
	"github.com/claimhands/verdict/internal/core/model"
)

// Pipeline drives one assessment run end to end: consolidate raw diagnoses
// into evidence bundles, adjudicate each bundle against the regulation
// corpus, and combine the organ percentages into the final result.
type Pipeline struct {
	Bundler     *bundler.Bundler
	Adjudicator *adjudicate.Adjudicator
	Logger      *zap.Logger

	// Workers bounds the per-organ adjudication fan-out. 1 (the default)
	// processes organs sequentially like the reference flow; higher values
	// are safe because each bundle is independent and the aggregator sorts
	// before reducing.
	Workers int
}

func NewPipeline(b *bundler.Bundler, a *adjudicate.Adjudicator, logger *zap.Logger, workers int) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if workers <= 0 {
		workers = 1
	}
	return &Pipeline{
		Bundler:     b,
		Adjudicator: a,
		Logger:      logger,
		Workers:     workers,
	}
}

// Assess runs the full pipeline. Any stage failure after its retry budget
// aborts the run: an organ missing because of infrastructure failure must
// never be papered over by aggregating the rest. Empty input is not a
// failure; it yields a zero result with an empty breakdown.
func (p *Pipeline) Assess(ctx context.Context, raw model.RawDiagnoses) (model.DisabilityResult, error) {
	var zero model.DisabilityResult

	p.Logger.Info("starting per-organ evidence assessment", zap.Int("raw_labels", len(raw)))

	bundles, err := p.Bundler.Bundle(ctx, raw)
	if err != nil {
		return zero, fmt.Errorf("evidence consolidation failed: %w", err)
	}

	assessments := make([]model.OrganAssessment, len(bundles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.Workers)
	for i, bundle := range bundles {
		i, bundle := i, bundle
		g.Go(func() error {
			a, assessErr := p.Adjudicator.Assess(gctx, bundle)
			if assessErr != nil {
				return fmt.Errorf("adjudication failed for %s: %w", bundle.BodyPart, assessErr)
			}
			assessments[i] = a
			return nil
		})
	}
	// Join barrier: the aggregator only ever sees the complete organ set.
	if err := g.Wait(); err != nil {
		return zero, err
	}

	result := aggregate.Combine(assessments)

	p.Logger.Info("assessment complete",
		zap.Int("organs", len(assessments)),
		zap.Int("contributing", len(result.Breakdown)),
		zap.Float64("total_disability", result.TotalDisability))
	return result, nil
}
