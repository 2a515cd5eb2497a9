package service

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/cloudkinetics/azdrift/internal/core/diffing"
	"github.com/cloudkinetics/azdrift/internal/core/domain"
	"github.com/cloudkinetics/azdrift/internal/core/match"
	"github.com/cloudkinetics/azdrift/internal/core/normalize"
	"github.com/cloudkinetics/azdrift/internal/core/ports"
	"github.com/cloudkinetics/azdrift/internal/core/report"
	"github.com/cloudkinetics/azdrift/internal/core/risk"
	"github.com/cloudkinetics/azdrift/internal/errors"
)

const defaultConcurrency = 10

// DriftAnalysisEngine orchestrates one comparison run: ingest both sides
// concurrently, normalize, match, diff matched pairs across a worker pool,
// classify and build the report, then hand it to every configured reporter.
//
// Diff results are collected keyed by entity identity, not arrival order, so
// parallelism affects wall-clock time only, never report content.
type DriftAnalysisEngine struct {
	source        ports.SourceProvider
	scanner       ports.PlatformScanner
	reporters     []ports.Reporter
	normalizer    *normalize.Normalizer
	differ        *diffing.Differ
	classifier    *risk.Classifier
	planner       ports.CommandPlanner
	logger        ports.Logger
	resourceGroup string
	concurrency   int
}

func NewDriftAnalysisEngine(
	source ports.SourceProvider,
	scanner ports.PlatformScanner,
	reporters []ports.Reporter,
	normalizer *normalize.Normalizer,
	differ *diffing.Differ,
	classifier *risk.Classifier,
	planner ports.CommandPlanner,
	logger ports.Logger,
	resourceGroup string,
	concurrency int,
) (*DriftAnalysisEngine, error) {
	if source == nil {
		return nil, errors.New(errors.CodeConfigValidation, "source provider cannot be nil")
	}
	if scanner == nil {
		return nil, errors.New(errors.CodeConfigValidation, "platform scanner cannot be nil")
	}
	if resourceGroup == "" {
		return nil, errors.New(errors.CodeConfigValidation, "resource group cannot be empty")
	}
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &DriftAnalysisEngine{
		source:        source,
		scanner:       scanner,
		reporters:     reporters,
		normalizer:    normalizer,
		differ:        differ,
		classifier:    classifier,
		planner:       planner,
		logger:        logger,
		resourceGroup: resourceGroup,
		concurrency:   concurrency,
	}, nil
}

func (e *DriftAnalysisEngine) Run(ctx context.Context) (domain.DriftReport, error) {
	e.logger.Infof(ctx, "Starting drift analysis for resource group %q (%s source, %s platform)",
		e.resourceGroup, e.source.Type(), e.scanner.Type())

	var (
		declaredRaw []domain.RawEntity
		liveRaw     []domain.RawEntity
		sourceDiags []domain.Diagnostic
		scanDiags   []domain.Diagnostic
	)

	g, childCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		raws, diags, err := e.source.ListEntities(childCtx)
		if err != nil {
			return errors.Wrap(err, errors.CodeSourceReadError, "failed listing declared entities")
		}
		declaredRaw, sourceDiags = raws, diags
		return nil
	})
	g.Go(func() error {
		raws, diags, err := e.scanner.ScanResourceGroup(childCtx, e.resourceGroup)
		if err != nil {
			return errors.Wrap(err, errors.CodePlatformAPIError, "failed scanning live resources")
		}
		liveRaw, scanDiags = raws, diags
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.DriftReport{}, err
	}
	e.logger.Debugf(ctx, "Ingested %d declared and %d live entities", len(declaredRaw), len(liveRaw))

	// Normalization of the two sides is independent; run both in parallel.
	var declared, live []domain.CanonicalEntity
	var declaredNormDiags, liveNormDiags []domain.Diagnostic
	ng, _ := errgroup.WithContext(ctx)
	ng.Go(func() error {
		declared, declaredNormDiags = e.normalizer.NormalizeAll(declaredRaw)
		return nil
	})
	ng.Go(func() error {
		live, liveNormDiags = e.normalizer.NormalizeAll(liveRaw)
		return nil
	})
	_ = ng.Wait()

	matchResult, matchDiags := match.Match(declared, live)
	e.logger.Debugf(ctx, "Matching complete: %d matched, %d declared-only, %d live-only",
		len(matchResult.Matched), len(matchResult.DeclaredOnly), len(matchResult.LiveOnly))

	diffsByEntity, err := e.diffMatchedPairs(ctx, matchResult.Matched)
	if err != nil {
		return domain.DriftReport{}, err
	}

	var diagnostics []domain.Diagnostic
	diagnostics = append(diagnostics, sourceDiags...)
	diagnostics = append(diagnostics, scanDiags...)
	diagnostics = append(diagnostics, declaredNormDiags...)
	diagnostics = append(diagnostics, liveNormDiags...)
	diagnostics = append(diagnostics, matchDiags...)

	rep := report.Build(e.resourceGroup, matchResult, diffsByEntity, e.classifier, diagnostics)
	e.logger.Infof(ctx, "Drift analysis complete: %d in sync, %d drifted, %d missing, %d unmanaged",
		rep.Counts.InSync, rep.Counts.Drifted, rep.Counts.MissingInLive, rep.Counts.Unmanaged)

	if e.planner != nil {
		declaredByID := make(map[domain.EntityID]domain.CanonicalEntity, len(declared))
		for _, entity := range declared {
			declaredByID[entity.ID()] = entity
		}
		rep.Commands = e.planner.Plan(rep, declaredByID)
		e.logger.Debugf(ctx, "Planned %d corrective commands", len(rep.Commands))
	}

	for _, reporter := range e.reporters {
		if reportErr := reporter.Report(ctx, rep); reportErr != nil {
			e.logger.Errorf(ctx, reportErr, "reporter %q failed", reporter.Type())
		}
	}
	return rep, nil
}

// diffMatchedPairs fans matched pairs out to a bounded worker pool. Each
// pair's diff is independent of every other pair's; results key by entity
// identity.
func (e *DriftAnalysisEngine) diffMatchedPairs(ctx context.Context, pairs []domain.MatchedPair) (map[domain.EntityID][]domain.PropertyDiff, error) {
	diffsByEntity := make(map[domain.EntityID][]domain.PropertyDiff, len(pairs))
	var mu sync.Mutex

	pairChan := make(chan domain.MatchedPair)
	g, childCtx := errgroup.WithContext(ctx)

	workers := e.concurrency
	if workers > len(pairs) {
		workers = len(pairs)
	}
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for pair := range pairChan {
				if childCtx.Err() != nil {
					return childCtx.Err()
				}
				diffs := e.differ.Diff(pair.Declared, pair.Live)
				mu.Lock()
				diffsByEntity[pair.Declared.ID()] = diffs
				mu.Unlock()
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(pairChan)
		for _, pair := range pairs {
			select {
			case pairChan <- pair:
			case <-childCtx.Done():
				return childCtx.Err()
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return diffsByEntity, nil
}
