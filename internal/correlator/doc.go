// Package correlator derives the typed edges of the topology graph from
// one fetched resource set.
//
// # Contract
//
// The Correlator:
//  1. Emits one contains edge from a namespace to each pod and service it
//     owns, derived from the resource's own namespace field
//  2. Emits one runs-on edge from each scheduled pod to its cluster node
//  3. Emits one exposes edge per (service, pod) selector match within the
//     service's namespace; empty selectors match nothing
//  4. Emits one routes-to edge per ingress rule path with a named backend
//     service
//
// Edges whose source or target is not backed by a resource in the set are
// suppressed, so partial fetches cannot produce dangling references. The
// edge list is sorted by (source, target, type) and is deterministic for
// identical input.
//
// # Constructor
//
//	func New(logger *zap.Logger) *Correlator
//	func (c *Correlator) Derive(set *fetcher.ResourceSet) []types.Edge
package correlator
