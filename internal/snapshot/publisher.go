package snapshot

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/SamuelLess/carakube/internal/types"
)

// Publisher holds the current published Snapshot. Exactly one writer (the
// scan scheduler) swaps the snapshot; any number of readers load it
// without blocking the writer or each other.
type Publisher struct {
	logger  *zap.Logger
	current atomic.Pointer[types.Snapshot]
}

// New creates a Publisher in the waiting state.
func New(logger *zap.Logger) *Publisher {
	p := &Publisher{logger: logger.Named("snapshot")}
	p.current.Store(&types.Snapshot{
		Status:  types.StatusWaiting,
		Message: "No scan has completed yet",
	})
	return p
}

// Latest returns the current published snapshot. Non-blocking; the
// returned value must be treated as read-only.
func (p *Publisher) Latest() *types.Snapshot {
	return p.current.Load()
}

// MarkInitializing records that scanning has started but the cluster API
// is not reachable yet. It only moves forward from waiting or refreshes
// an existing initializing state; once a graph has been published the
// held snapshot is never regressed.
func (p *Publisher) MarkInitializing(message string) {
	for {
		cur := p.current.Load()
		if cur.Status != types.StatusWaiting && cur.Status != types.StatusInitializing {
			return
		}
		next := &types.Snapshot{
			Status:  types.StatusInitializing,
			Message: message,
		}
		if p.current.CompareAndSwap(cur, next) {
			p.logger.Info("Snapshot state changed",
				zap.String("status", string(types.StatusInitializing)),
			)
			return
		}
	}
}

// Publish atomically replaces the held snapshot with the given graph. A
// graph with zero nodes publishes as empty (a legitimately empty
// cluster), anything else as success. The graph must be fully assembled
// before this call; readers never observe intermediate states.
func (p *Publisher) Publish(g *types.Graph) {
	next := &types.Snapshot{Status: types.StatusSuccess, Data: g}
	if g.Stats.TotalNodes == 0 {
		next.Status = types.StatusEmpty
		next.Message = "Cluster contains no resources"
	}
	p.current.Store(next)
	p.logger.Info("Snapshot published",
		zap.String("status", string(next.Status)),
		zap.Int("nodes", g.Stats.TotalNodes),
		zap.Int("links", g.Stats.TotalLinks),
	)
}
