package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/SamuelLess/carakube/internal/correlator"
	"github.com/SamuelLess/carakube/internal/fetcher"
	"github.com/SamuelLess/carakube/internal/graph"
	"github.com/SamuelLess/carakube/internal/rules"
	"github.com/SamuelLess/carakube/internal/snapshot"
)

// DefaultInterval is the scan period when none is configured.
const DefaultInterval = 120 * time.Second

// Scheduler drives one scan pass per interval through the
// fetch-evaluate-correlate-assemble-publish pipeline.
type Scheduler struct {
	logger     *zap.Logger
	fetcher    fetcher.Fetcher
	engine     *rules.Engine
	correlator *correlator.Correlator
	assembler  *graph.Assembler
	publisher  *snapshot.Publisher
	interval   time.Duration

	running atomic.Bool
	trigger chan struct{}
	now     func() time.Time
}

// New creates a Scheduler. interval <= 0 selects DefaultInterval.
func New(f fetcher.Fetcher, engine *rules.Engine, c *correlator.Correlator, a *graph.Assembler, p *snapshot.Publisher, interval time.Duration, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		logger:     logger.Named("scheduler"),
		fetcher:    f,
		engine:     engine,
		correlator: c,
		assembler:  a,
		publisher:  p,
		interval:   interval,
		trigger:    make(chan struct{}, 1),
		now:        time.Now,
	}
}

// Start runs the scan loop until the context is cancelled. The first pass
// starts immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("Starting scan scheduler", zap.Duration("interval", s.interval))

	s.RunPass(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scan scheduler stopped")
			return nil
		case <-ticker.C:
			s.RunPass(ctx)
		case <-s.trigger:
			s.RunPass(ctx)
		}
	}
}

// TriggerScan requests an immediate pass. It never blocks; the request is
// dropped when one is already queued.
func (s *Scheduler) TriggerScan() bool {
	select {
	case s.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// RunPass executes one scan pass. Single-flight: when a pass is already
// running the call returns immediately without queueing.
func (s *Scheduler) RunPass(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("Previous scan pass still running, skipping")
		scanPassTotal.WithLabelValues("skipped").Inc()
		return
	}
	defer s.running.Store(false)

	start := s.now()
	set, err := s.fetcher.Fetch(ctx)
	if err != nil {
		if errors.Is(err, fetcher.ErrUnreachable) {
			s.publisher.MarkInitializing("Cluster API unreachable")
			scanPassTotal.WithLabelValues("unreachable").Inc()
			return
		}
		s.logger.Error("Scan pass failed", zap.Error(err))
		scanPassTotal.WithLabelValues("error").Inc()
		return
	}

	findings := rules.FindingsByNode{}
	failedCategories := 0
	for _, cat := range rules.Categories() {
		catFindings, ok := s.evaluateCategory(cat, set)
		if !ok {
			failedCategories++
			continue
		}
		findings.Merge(catFindings)
	}

	edges := s.correlator.Derive(set)

	if ctx.Err() != nil {
		s.logger.Info("Scan pass cancelled, keeping previous snapshot")
		scanPassTotal.WithLabelValues("cancelled").Inc()
		return
	}

	g, err := s.assembler.Assemble(set, findings, edges, s.now())
	if err != nil {
		s.logger.Error("Graph assembly failed", zap.Error(err))
		scanPassTotal.WithLabelValues("invalid").Inc()
		return
	}

	// A zero-node graph from a partial fetch is indistinguishable from a
	// fetch outage, so only a fully successful pass may publish empty.
	if g.Stats.TotalNodes == 0 && !set.FullyFetched() {
		s.logger.Warn("Partial fetch produced no resources, keeping previous snapshot",
			zap.Int("failed_listings", len(set.Errors)),
		)
		scanPassTotal.WithLabelValues("partial").Inc()
		return
	}

	s.publisher.Publish(g)

	total := 0
	for _, f := range findings {
		total += len(f)
	}
	graphNodes.Set(float64(g.Stats.TotalNodes))
	graphLinks.Set(float64(g.Stats.TotalLinks))
	graphFindings.Set(float64(total))
	scanPassTotal.WithLabelValues("success").Inc()
	scanPassDuration.Observe(s.now().Sub(start).Seconds())

	s.logger.Info("Scan pass complete",
		zap.Int("nodes", g.Stats.TotalNodes),
		zap.Int("links", g.Stats.TotalLinks),
		zap.Int("findings", total),
		zap.Int("failed_listings", len(set.Errors)),
		zap.Int("failed_categories", failedCategories),
		zap.Duration("duration", s.now().Sub(start)),
	)
}

// evaluateCategory isolates one rule category: a failed listing of a
// resource the category evaluates, or a panic inside it, yields zero
// findings for that pass instead of aborting the other categories.
func (s *Scheduler) evaluateCategory(cat rules.Category, set *fetcher.ResourceSet) (result rules.FindingsByNode, ok bool) {
	for _, kind := range rules.RequiredKinds(cat) {
		if err := set.Errors[kind]; err != nil {
			s.logger.Warn("Rule category skipped, required listing failed",
				zap.String("category", string(cat)),
				zap.String("kind", kind),
				zap.Error(err),
			)
			scanCategoryFailures.WithLabelValues(string(cat)).Inc()
			return nil, false
		}
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Rule category panicked",
				zap.String("category", string(cat)),
				zap.Any("panic", r),
			)
			scanCategoryFailures.WithLabelValues(string(cat)).Inc()
			result, ok = nil, false
		}
	}()
	return s.engine.Evaluate(cat, set), true
}
