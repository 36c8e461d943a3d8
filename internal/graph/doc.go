// Package graph assembles the immutable topology Graph of one scan pass.
//
// # Contract
//
// The Assembler:
//  1. Converts every fetched resource into its typed node variant using
//     the deterministic ID scheme
//  2. Attaches the findings computed for each node ID, preserving order
//  3. Attaches the pre-derived edge list
//  4. Computes aggregate node and link counts
//
// Assemble validates structural integrity before returning: node IDs are
// unique and every edge endpoint resolves to a node in the same Graph. A
// validation failure is a programming fault in an upstream stage and is
// returned as an error instead of producing a corrupt Graph.
//
// # Constructor
//
//	func New(logger *zap.Logger) *Assembler
//	func (a *Assembler) Assemble(set, findings, edges, now) (*types.Graph, error)
package graph
