// Package cah implements the commodity adding construction heuristic for
// the uncapacitated TPP, after:
//
//	Boctor, Fayez F., Gilbert Laporte, and Jacques Renaud. "Heuristics for
//	the traveling purchaser problem." Computers & Operations Research 30.4
//	(2003): 491-504.
//
// Products are processed in random order; the market covering the first
// product at the lowest combined travel-and-price rate seeds the route, and
// the remaining demands are satisfied by cheapest insertion. A local-search
// refinement loop polishes the result.
//
// The heuristic doubles as the seed for the ant colony's initial pheromone
// level and as a standalone algorithm selectable from the command line.
package cah

import (
	"fmt"
	"math"

	"github.com/RSkinderowicz/MMAS-for-UTPP/localsearch"
	"github.com/RSkinderowicz/MMAS-for-UTPP/rng"
	"github.com/RSkinderowicz/MMAS-for-UTPP/tpp"
)

// refinementNNCount is the neighbor-list width for the 3-opt refinement.
const refinementNNCount = 25

// Build constructs one feasible solution. The product order (and therefore
// the result) depends on the engine's stream, so repeated calls explore
// different regions.
func Build(inst *tpp.Instance, engine *rng.Engine) *tpp.Solution {
	sol := tpp.NewSolution(inst)

	products := make([]int, inst.ProductCount)
	for p := range products {
		products[p] = p
	}
	rng.Shuffle(products, engine)

	h0 := products[0]

	// Seed with the market where a unit of the first product is cheapest
	// once the round trip from the depot is amortized over the quantity.
	var (
		bestMarket = uint32(0)
		bestValue  = math.Inf(1)
	)
	for m := 0; m < inst.Dimension; m++ {
		offer := inst.MarketProductOffers[m][h0]
		if offer.Quantity == 0 {
			continue
		}
		value := 2.0*float64(inst.TravelCost(0, int(offer.MarketID)))/
			float64(offer.Quantity) + float64(offer.Price)
		if value < bestValue {
			bestValue = value
			bestMarket = uint32(offer.MarketID)
		}
	}
	if bestMarket == 0 {
		panic(fmt.Sprintf("cah: no market offers product %d", h0))
	}
	sol.PushBackMarket(bestMarket)

	for _, h := range products {
		for sol.DemandRemaining[h] > 0 {
			var (
				minCost = math.MaxInt
				best    = uint32(0)
				verdict tpp.MarketVerdict
			)
			for m := 1; m < inst.Dimension; m++ {
				if sol.MarketSelected[m] || inst.MarketProductOffers[m][h].Quantity == 0 {
					continue
				}
				res := sol.CalcMarketAddCost(uint32(m))
				if res.CostChange < minCost {
					minCost = res.CostChange
					best = uint32(m)
					verdict = res
				}
			}
			if best == 0 {
				panic(fmt.Sprintf("cah: demand for product %d cannot be satisfied", h))
			}
			sol.InsertMarketAt(best, verdict.Index)
		}
	}
	if !tpp.IsSolutionValid(inst, sol.Route) {
		panic("cah: constructed solution should be valid")
	}

	refine(inst, sol)
	return sol
}

// refine runs the polishing loop until a whole pass stops improving.
func refine(inst *tpp.Instance, sol *tpp.Solution) {
	for {
		startCost := sol.Cost

		localsearch.Drop(inst, sol)
		localsearch.Insertion(inst, sol)
		localsearch.Exchange(inst, sol)
		localsearch.ThreeOptNN(inst, sol, true, refinementNNCount)

		if sol.Cost >= startCost {
			break
		}
	}
	if !tpp.IsSolutionValid(inst, sol.Route) {
		panic("cah: refined solution should be valid")
	}
}
