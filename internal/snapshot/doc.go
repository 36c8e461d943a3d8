// Package snapshot publishes the latest topology graph under a status
// state machine.
//
// # Contract
//
// States: waiting (no scan has ever run), initializing (scans started,
// API unreachable), empty (successful scan, zero resources), success
// (latest graph held). Transitions only move forward: once a graph has
// been published the state never regresses to waiting or initializing,
// and a failed pass leaves the previous snapshot untouched.
//
// Publication is a single atomic pointer swap of a fully constructed
// Snapshot value, so readers never observe partial state.
//
// # Constructor
//
//	func New(logger *zap.Logger) *Publisher
//	func (p *Publisher) Latest() *types.Snapshot
//	func (p *Publisher) MarkInitializing(message string)
//	func (p *Publisher) Publish(g *types.Graph)
package snapshot
