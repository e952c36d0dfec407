// Package tpp holds the Traveling Purchaser Problem core: the immutable
// problem instance, the TPPLIB file reader, and an incrementally maintained
// solution representation.
//
// The uncapacitated variant (U-TPP) is assumed throughout: a demand for any
// product is satisfied by a single market, so only the cheapest offer present
// in a route is ever charged. Capacitated instances are detected at load time
// and rejected by the callers.
//
// Two layers are provided:
//
//   - Instance — read-only data shared by reference: travel cost matrix
//     (1-D row-major), per-market offers sorted by price, per-market
//     per-product offer lookup, nearest-neighbor lists, demands.
//
//   - Solution — a mutable route plus derived purchase state kept consistent
//     under single-market insertions and removals in O(max(K, M)) per
//     operation, where K is the route length and M the number of offers at
//     the affected market.
//
// Reference costs can always be recomputed from scratch with
// CalcSolutionCost; the incremental bookkeeping must agree with it after any
// sequence of valid mutations.
package tpp
