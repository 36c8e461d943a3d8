// Package scheduler drives the periodic scan-correlate-publish pipeline.
//
// # Contract
//
// The Scheduler:
//  1. Runs one pass immediately on Start, then one per interval
//  2. Guarantees single-flight: an overrunning pass causes the next tick
//     to be skipped, never queued
//  3. Isolates failures: a failed resource listing or a panicking rule
//     category contributes nothing to the pass but does not abort it
//  4. Publishes only fully assembled graphs; a cancelled or failed pass
//     leaves the previously published snapshot intact
//
// TriggerScan requests an out-of-band pass (used by the HTTP API); the
// request is coalesced with any already queued trigger.
package scheduler
