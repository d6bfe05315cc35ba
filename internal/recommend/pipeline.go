package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"

	"stackfast/internal/analysis"
	"stackfast/internal/models"
)

var (
	// ErrInvalidRequest marks a request rejected before any collaborator ran.
	ErrInvalidRequest = errors.New("invalid recommendation request")
	// ErrCatalogUnavailable wraps every catalog store failure.
	ErrCatalogUnavailable = errors.New("tool catalog unavailable")
)

// CatalogLoader returns every candidate tool, in any order.
type CatalogLoader interface {
	LoadCatalog(ctx context.Context) ([]models.ToolProfile, error)
}

// Options configures a Pipeline.
type Options struct {
	EssentialCategories []models.Category
	ExtraCategories     []models.Category
	Weights             Weights
	Metrics             Metrics
}

// Pipeline selects a recommended stack for one request at a time. It holds
// no per-request state and is safe for concurrent use.
type Pipeline struct {
	catalog   CatalogLoader
	analyzer  analysis.Analyzer
	scorer    *Scorer
	essential []models.Category
	extra     []models.Category
	metrics   Metrics
}

// NewPipeline wires the collaborators into a pipeline.
func NewPipeline(catalog CatalogLoader, analyzer analysis.Analyzer, opts Options) (*Pipeline, error) {
	if catalog == nil {
		return nil, fmt.Errorf("catalog loader is required")
	}
	if analyzer == nil {
		return nil, fmt.Errorf("analyzer is required")
	}
	if len(opts.EssentialCategories) == 0 {
		return nil, fmt.Errorf("at least one essential category is required")
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &Pipeline{
		catalog:   catalog,
		analyzer:  analyzer,
		scorer:    NewScorer(opts.Weights),
		essential: opts.EssentialCategories,
		extra:     opts.ExtraCategories,
		metrics:   metrics,
	}, nil
}

// Outcome is everything a run produced.
type Outcome struct {
	Result           models.BlueprintResult
	Analysis         models.ProjectAnalysis
	AnalysisFallback bool
	History          []Transition
}

// run carries the per-request bookkeeping.
type run struct {
	tracker    *Tracker
	metrics    Metrics
	started    time.Time
	stageStart time.Time
}

func (r *run) advance(to State, message string) {
	from := r.tracker.State()
	if err := r.tracker.Advance(to, message); err != nil {
		// The pipeline drives states in a fixed order; reaching this is a bug.
		panic(err)
	}
	now := time.Now()
	if from != StateIdle {
		r.metrics.ObserveStage(from, now.Sub(r.stageStart))
	}
	r.stageStart = now
}

func (r *run) finish(outcome State) {
	r.metrics.ObservePipeline(outcome, time.Since(r.started))
}

// Run executes the pipeline for req. The observer, when not nil, is called
// synchronously on every state transition.
func (p *Pipeline) Run(ctx context.Context, req models.BlueprintRequest, observer Observer) (Outcome, error) {
	idea := strings.TrimSpace(req.ProjectIdea)
	if idea == "" {
		return Outcome{}, fmt.Errorf("%w: projectIdea is required", ErrInvalidRequest)
	}
	skill := req.SkillProfile.Normalize()
	preferredIDs := cleanIDs(req.PreferredToolIDs)

	r := &run{
		tracker: NewTracker(observer, logrus.Fields{"skill": skill.String(), "preferred": len(preferredIDs)}),
		metrics: p.metrics,
		started: time.Now(),
	}

	projectAnalysis, fallback, candidates, err := p.gather(ctx, r, idea)
	if err != nil {
		_ = r.tracker.Fail(err.Error())
		r.finish(StateFailed)
		return Outcome{Analysis: projectAnalysis, History: r.tracker.History()}, err
	}
	if fallback {
		r.tracker.AddWarning(models.WarningAnalysisUnavailable,
			"Project analysis was unavailable; recommendations use a neutral project profile.")
	}

	r.advance(StateScoring, fmt.Sprintf("3. Scoring %d candidate tools...", len(candidates)))
	preferred, remaining, unknown := SplitPreferences(candidates, preferredIDs)
	for _, id := range unknown {
		r.tracker.AddWarning(models.WarningUnknownPreference, fmt.Sprintf("Preferred tool %q is not in the catalog.", id))
	}
	ranked := p.scorer.Rank(ScoringContext{Skill: skill, Analysis: projectAnalysis, Preferred: preferred}, remaining)

	r.advance(StateCompleting, "4. Completing essential categories...")
	acc := append([]models.ToolProfile(nil), preferred...)
	acc, missing := CompleteCategories(acc, ranked, p.essential)
	for _, category := range missing {
		r.tracker.AddWarning(models.WarningMissingCategory, fmt.Sprintf("No %s tool is available in the catalog.", category))
	}
	acc, _ = CompleteCategories(acc, ranked, p.extra)

	r.advance(StateDeduplicating, "5. Removing duplicate tools...")
	stack := Deduplicate(acc)
	addStackWarnings(r.tracker, stack, skill, projectAnalysis)

	result := models.BlueprintResult{
		Summary:          buildSummary(stack, projectAnalysis),
		RecommendedStack: stack,
		Warnings:         r.tracker.Warnings(),
	}
	r.advance(StateDone, fmt.Sprintf("Recommendation ready with %d tools.", len(stack)))
	r.finish(StateDone)

	return Outcome{
		Result:           result,
		Analysis:         projectAnalysis,
		AnalysisFallback: fallback,
		History:          r.tracker.History(),
	}, nil
}

// gather runs project analysis and catalog retrieval concurrently and waits
// for both. An analysis failure yields the neutral analysis; a catalog
// failure is returned. A panic in either collaborator counts as its failure.
func (p *Pipeline) gather(ctx context.Context, r *run, idea string) (models.ProjectAnalysis, bool, []models.ToolProfile, error) {
	joinCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		projectAnalysis models.ProjectAnalysis
		analysisErr     error
		candidates      []models.ToolProfile
		catalogErr      error
		wg              conc.WaitGroup
	)

	r.advance(StateAnalyzingProject, "1. Analyzing project idea...")
	wg.Go(func() {
		analysisErr = catch(func() error {
			var err error
			projectAnalysis, err = p.analyzer.Analyze(joinCtx, idea)
			return err
		})
	})

	r.advance(StateLoadingCatalog, "2. Loading tool catalog...")
	wg.Go(func() {
		catalogErr = catch(func() error {
			var err error
			candidates, err = p.catalog.LoadCatalog(joinCtx)
			return err
		})
		if catalogErr != nil {
			cancel()
		}
	})
	wg.Wait()

	if catalogErr != nil {
		return models.NeutralAnalysis(), false, nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, catalogErr)
	}

	fallback := false
	if analysisErr != nil {
		logrus.WithError(analysisErr).Warn("Project analysis failed, using neutral analysis")
		p.metrics.IncAnalysisFallback()
		projectAnalysis = models.NeutralAnalysis()
		fallback = true
	}
	return projectAnalysis, fallback, orderCatalog(candidates), nil
}

// catch runs fn and converts a panic into an error carrying its stack.
func catch(fn func() error) error {
	var (
		pc  panics.Catcher
		err error
	)
	pc.Try(func() { err = fn() })
	if rec := pc.Recovered(); rec != nil {
		return rec.AsError()
	}
	return err
}
