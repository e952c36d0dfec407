// Package localsearch bundles the improvement operators applied to TPP
// solutions: market drop and insertion sweeps, single/double/k-market
// exchanges, and travel-order refinement via 2-opt and 3-opt (the latter
// also in a nearest-neighbor-restricted variant with don't-look bits).
//
// Every operator takes the instance and a *tpp.Solution, mutates the
// solution in place only when that does not raise its cost, and returns the achieved
// improvement (start cost minus end cost, never negative). Operators keep
// the solution feasible; feasibility is re-verified after any change.
//
// Battery is the driver used after ant construction: it chains the
// operators into passes and re-runs the 3-opt refinement whenever a pass
// changed the purchase structure of the route.
package localsearch
