// Package engine implements the evrule event-rule engine.
//
// A caller fires an EventKind with a participant map (Me, They). The
// Dispatcher finds every loaded RuleSet listening to that kind and runs each
// through the two-phase protocol:
//
//  1. Checking: every component bound to a present scope resolves its true
//     target and evaluates its Filter and NegFilter. One failure aborts the
//     firing.
//  2. Executing: only reached when every check passed. Effects run in scope
//     order, then component load order.
//
// No partial effects are ever applied for a rule set that fails a check.
//
// Rule objects are read-only after Load. Evaluation is synchronous and
// single-threaded; the world an effect mutates is owned by the caller.
//
// Chained firings (an effect firing another event) share the root firing's
// ID. Each chain is bounded by a CycleDetector, which refuses a rule set
// re-firing for the same participants, and a QuotaEnforcer, which caps the
// total number of firings.
package engine
