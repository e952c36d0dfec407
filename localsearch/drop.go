package localsearch

import (
	"fmt"
	"sort"

	"github.com/RSkinderowicz/MMAS-for-UTPP/rng"
	"github.com/RSkinderowicz/MMAS-for-UTPP/tpp"
)

// must aborts on a violated internal invariant.
func must(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("localsearch: "+format, args...))
	}
}

// checkStillValid panics if a mutation left the solution infeasible.
func checkStillValid(inst *tpp.Instance, sol *tpp.Solution) {
	must(tpp.IsSolutionValid(inst, sol.Route), "solution should stay valid")
}

// Drop removes markets whose travel savings exceed the purchase-cost
// increase their removal causes. The route is swept left to right; after a
// removal the same index is scanned again since the tail shifted.
//
// Returns the improvement (start cost − end cost).
//
// Complexity: O(K²·M) worst case, O(K·max(K, M)) when nothing drops.
func Drop(inst *tpp.Instance, sol *tpp.Solution) int {
	var (
		startCost = sol.Cost
		changed   = false
	)
	for i := 1; i < len(sol.Route); i++ {
		marketID := sol.Route[i]
		after := sol.CalcMarketRemovalCost(marketID, true)

		if after.DemandSatisfied && after.CostChange < 0 {
			sol.RemoveMarketAt(i)
			changed = true
			i--
		}
	}
	if changed {
		checkStillValid(inst, sol)
	}
	return startCost - sol.Cost
}

// DropRandomized is Drop over a shuffled snapshot of the current route, so
// repeated applications do not always favor the route prefix.
func DropRandomized(inst *tpp.Instance, sol *tpp.Solution, engine *rng.Engine) int {
	markets := append([]uint32(nil), sol.Route[1:]...)
	rng.Shuffle(markets, engine)

	var (
		startCost = sol.Cost
		changed   = false
	)
	for _, marketID := range markets {
		after := sol.CalcMarketRemovalCost(marketID, true)

		if after.DemandSatisfied && after.CostChange < 0 {
			sol.RemoveMarketAt(sol.MarketPosInRoute(marketID))
			changed = true
		}
	}
	if changed {
		checkStillValid(inst, sol)
	}
	return startCost - sol.Cost
}

// Insertion adds every unselected market whose cheapest insertion does not
// increase the total cost (travel increase paid for by cheaper purchases).
func Insertion(inst *tpp.Instance, sol *tpp.Solution) int {
	var (
		startCost  = sol.Cost
		candidates = sol.UnselectedCopy()
		changed    = false
	)
	for _, cand := range candidates {
		verdict := sol.CalcMarketAddCost(cand)
		if verdict.CostChange <= 0 {
			prevCost := sol.Cost
			sol.InsertMarketAt(cand, verdict.Index)
			must(prevCost+verdict.CostChange == sol.Cost,
				"incremental cost drifted, have %d", sol.Cost)
			changed = true
		}
	}
	if changed {
		checkStillValid(inst, sol)
	}
	return startCost - sol.Cost
}

// Exchange tries, for every market of the route, to replace it with an
// unselected market so that the total cost does not grow and feasibility is
// kept. When no replacement qualifies the market is re-inserted at its
// original position.
func Exchange(inst *tpp.Instance, sol *tpp.Solution) int {
	var (
		startCost  = sol.Cost
		unselected = sol.UnselectedCopy()
		changed    = false
	)
	marketsToCheck := append([]uint32(nil), sol.Route[1:]...)

	for _, marketID := range marketsToCheck {
		costBeforeRemoval := sol.Cost
		marketPos := sol.MarketPosInRoute(marketID)
		sol.RemoveMarketAt(marketPos)

		found := false
		for i, cand := range unselected {
			if !sol.CheckMarketSatisfiesDemand(cand) {
				continue
			}
			verdict := sol.CalcMarketAddCost(cand)

			if sol.Cost+verdict.CostChange <= costBeforeRemoval && verdict.DemandSatisfied {
				prevCost := sol.Cost
				sol.InsertMarketAt(cand, verdict.Index)
				must(prevCost+verdict.CostChange == sol.Cost,
					"incremental cost drifted, have %d", sol.Cost)
				unselected = append(unselected[:i], unselected[i+1:]...)
				found = true
				break
			}
		}
		if !found { // restore the previous state
			sol.InsertMarketAt(marketID, marketPos)
		} else {
			changed = true
		}
	}
	if changed {
		checkStillValid(inst, sol)
	}
	return startCost - sol.Cost
}

// DoubleExchange removes two consecutive markets and tries to insert a
// single unselected one that strictly lowers the cost; the pair is restored
// when no candidate qualifies.
func DoubleExchange(inst *tpp.Instance, sol *tpp.Solution) int {
	routeCopy := append([]uint32(nil), sol.Route...)
	return doubleExchangeOver(inst, sol, routeCopy[1:], true)
}

// DoubleExchangeRandomized scans the pairs to remove in a random order and,
// unlike the deterministic variant, lets CalcMarketAddCost alone decide
// feasibility of the replacement.
func DoubleExchangeRandomized(inst *tpp.Instance, sol *tpp.Solution, engine *rng.Engine) int {
	markets := append([]uint32(nil), sol.Route[1:]...)
	rng.Shuffle(markets, engine)
	return doubleExchangeOver(inst, sol, markets, false)
}

// doubleExchangeOver runs the remove-two/insert-one scheme over consecutive
// pairs of the given market order.
func doubleExchangeOver(inst *tpp.Instance, sol *tpp.Solution,
	markets []uint32, precheckDemand bool) int {

	var (
		startCost  = sol.Cost
		unselected = sol.UnselectedCopy()
		changed    = false
	)
	for i := 0; i+1 < len(markets); i++ {
		costBeforeRemoval := sol.Cost
		market1 := markets[i]
		market2 := markets[i+1]

		pos1 := sol.MarketPosInRoute(market1)
		pos2 := sol.MarketPosInRoute(market2)
		must(pos1 != len(sol.Route), "market %d missing from route", market1)
		must(pos2 != len(sol.Route), "market %d missing from route", market2)

		if pos1 < pos2 {
			sol.RemoveMarketAt(pos2)
			sol.RemoveMarketAt(pos1)
		} else {
			sol.RemoveMarketAt(pos1)
			sol.RemoveMarketAt(pos2)
		}

		found := false
		for j, cand := range unselected {
			if precheckDemand && !sol.CheckMarketSatisfiesDemand(cand) {
				continue
			}
			verdict := sol.CalcMarketAddCost(cand)

			if sol.Cost+verdict.CostChange < costBeforeRemoval && verdict.DemandSatisfied {
				prevCost := sol.Cost
				sol.InsertMarketAt(cand, verdict.Index)
				must(prevCost+verdict.CostChange == sol.Cost,
					"incremental cost drifted, have %d", sol.Cost)
				unselected = append(unselected[:j], unselected[j+1:]...)
				found = true
				break
			}
		}
		if found {
			changed = true
			i++ // skip over the removed partner
		} else { // restore the previous state
			if pos1 < pos2 {
				sol.InsertMarketAt(market1, pos1)
				sol.InsertMarketAt(market2, pos2)
			} else {
				sol.InsertMarketAt(market2, pos2)
				sol.InsertMarketAt(market1, pos1)
			}
		}
	}
	if changed {
		checkStillValid(inst, sol)
	}
	return startCost - sol.Cost
}

// marketPosition pairs a market with the route position it occupied before
// a k-exchange removal, so a failed attempt can be undone exactly.
type marketPosition struct {
	market   uint32
	position int
}

// KExchange removes k consecutive markets and tries to insert a single
// unselected replacement that strictly lowers the cost. On failure the
// removed markets are restored at their original positions.
func KExchange(inst *tpp.Instance, sol *tpp.Solution, k int) int {
	var (
		startCost  = sol.Cost
		unselected = sol.UnselectedCopy()
		changed    = false
	)
	routeCopy := append([]uint32(nil), sol.Route...)
	removed := make([]marketPosition, 0, k)

	for i := 1; i+k-1 < len(routeCopy); i++ {
		costBeforeRemoval := sol.Cost

		removed = removed[:0]
		for j := 0; j < k; j++ {
			market := routeCopy[i+j]
			removed = append(removed, marketPosition{
				market:   market,
				position: sol.MarketPosInRoute(market),
			})
		}
		sort.Slice(removed, func(a, b int) bool {
			return removed[a].position < removed[b].position
		})
		// Remove back to front so the recorded positions stay accurate.
		for j := len(removed) - 1; j >= 0; j-- {
			sol.RemoveMarketAt(removed[j].position)
		}

		found := false
		for j, cand := range unselected {
			if !sol.CheckMarketSatisfiesDemand(cand) {
				continue
			}
			verdict := sol.CalcMarketAddCost(cand)

			if sol.Cost+verdict.CostChange < costBeforeRemoval && verdict.DemandSatisfied {
				prevCost := sol.Cost
				sol.InsertMarketAt(cand, verdict.Index)
				must(prevCost+verdict.CostChange == sol.Cost,
					"incremental cost drifted, have %d", sol.Cost)
				unselected = append(unselected[:j], unselected[j+1:]...)
				found = true
				break
			}
		}
		if found {
			changed = true
			i += k - 1 // skip over the removed stretch
		} else { // restore, front to back
			for _, el := range removed {
				sol.InsertMarketAt(el.market, el.position)
			}
		}
	}
	if changed {
		checkStillValid(inst, sol)
	}
	return startCost - sol.Cost
}
