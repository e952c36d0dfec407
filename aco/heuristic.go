package aco

import (
	"github.com/RSkinderowicz/MMAS-for-UTPP/localsearch"
	"github.com/RSkinderowicz/MMAS-for-UTPP/rng"
	"github.com/RSkinderowicz/MMAS-for-UTPP/tpp"
)

// heuristicTrials is how many random feasible solutions the purchase-share
// statistic is estimated from.
const heuristicTrials = 200

// CreateRandomSolution builds a feasible solution by appending markets in a
// random order until every demand is covered, then dropping the redundant
// ones.
func CreateRandomSolution(inst *tpp.Instance, engine *rng.Engine) *tpp.Solution {
	sol := tpp.NewSolution(inst)
	unselected := sol.UnselectedCopy()

	rng.Shuffle(unselected, engine)

	for _, market := range unselected {
		sol.PushBackMarket(market)
		if sol.IsValid() {
			break
		}
	}
	localsearch.Drop(inst, sol)
	return sol
}

// initHeuristicInfo estimates, per market and product, which share of the
// purchase budget random feasible solutions spend there. The table has an
// extra column holding each market's row sum, the value the ants read.
//
// The running total of bought units is decremented rather than incremented
// while walking a product's offer list; the resulting statistic spreads
// weight over more offers than a single-pass reading of the estimator
// would, but it is kept this way to reproduce the published results.
func (c *Colony) initHeuristicInfo() {
	c.heuristic = make([][]float64, c.instance.Dimension)
	for m := range c.heuristic {
		c.heuristic[m] = make([]float64, c.instance.ProductCount+1)
	}

	// boughtAtMarkets[m][p] accumulates the (price-weighted) units of
	// product p bought at market m across the sampled solutions.
	boughtAtMarkets := make([][]float64, c.instance.Dimension)
	for m := range boughtAtMarkets {
		boughtAtMarkets[m] = make([]float64, c.instance.ProductCount)
	}

	for trial := 0; trial < heuristicTrials; trial++ {
		sol := CreateRandomSolution(c.instance, c.engine)

		purchasesCost := 0.0
		for _, cost := range sol.PurchaseCosts {
			purchasesCost += float64(cost)
		}
		if purchasesCost == 0 {
			continue
		}

		for _, offers := range sol.ProductOffers {
			if len(offers) == 0 {
				continue
			}
			var (
				productID   = offers[0].ProductID
				needed      = c.instance.Demands[productID]
				totalBought = 0
			)
			for _, offer := range offers {
				bought := min(offer.Quantity, needed-totalBought)
				boughtAtMarkets[offer.MarketID][productID] +=
					float64(bought*offer.Price) / purchasesCost

				totalBought -= bought
				if bought == 0 {
					break // offers are sorted by price; nothing left to buy
				}
			}
		}
	}

	for m := 0; m < c.instance.Dimension; m++ {
		sum := 0.0
		for p := 0; p < c.instance.ProductCount; p++ {
			ratio := boughtAtMarkets[m][p] / heuristicTrials
			c.heuristic[m][p] = ratio
			sum += ratio
		}
		c.heuristic[m][c.instance.ProductCount] = sum
	}
}
