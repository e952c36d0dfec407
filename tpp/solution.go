package tpp

import (
	"fmt"
	"math"
	"sort"
)

// must aborts on a violated precondition. These are programming errors, not
// user errors, so they are not surfaced as error values.
func must(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("tpp: "+format, args...))
	}
}

// MarketVerdict is the outcome of probing a market insertion or removal:
// the total cost change, the route index a probed insertion should use, and
// whether every demand remains (or becomes) satisfied afterwards.
type MarketVerdict struct {
	CostChange      int
	Index           int
	DemandSatisfied bool
}

// Solution is a route plus derived purchase state, kept consistent
// incrementally under single-market insertions and removals.
//
// Mutations preserve the following invariants:
//   - Route[0] == 0 (the depot) and markets appear at most once;
//   - MarketSelected and UnselectedMarkets partition the non-depot markets;
//   - ProductOffers[p] lists the offers for p present in the route, best
//     offer (lowest price, then highest quantity) first;
//   - PurchaseCosts[p] is the front offer's price, or 0 with the demand
//     restored when no offer remains;
//   - Cost == TravelCost + Σ PurchaseCosts and TravelCost is the closed-tour
//     edge sum of Route.
type Solution struct {
	Instance *Instance

	Route      []uint32
	Cost       int
	TravelCost int

	MarketSelected []bool

	// ProductOffers[p] holds the offers for product p currently in the
	// route, sorted best-first.
	ProductOffers [][]Offer

	PurchaseCosts   []int
	DemandRemaining []int

	// RemainingProducts lists, in ascending order, the ids of products whose
	// demand is still unsatisfied.
	RemainingProducts []uint32

	// MarketsPerProduct is informational: how many markets currently satisfy
	// each product (0 or 1 in the uncapacitated setting).
	MarketsPerProduct []uint32

	UnselectedMarkets []uint32

	TotalUnsatisfiedDemand int
}

// NewSolution returns an empty solution containing only the depot.
func NewSolution(inst *Instance) *Solution {
	sol := &Solution{
		Instance:          inst,
		Route:             make([]uint32, 1, inst.Dimension),
		MarketSelected:    make([]bool, inst.Dimension),
		ProductOffers:     make([][]Offer, inst.ProductCount),
		PurchaseCosts:     make([]int, inst.ProductCount),
		DemandRemaining:   append([]int(nil), inst.Demands...),
		MarketsPerProduct: make([]uint32, inst.ProductCount),
	}
	sol.Route[0] = 0
	sol.MarketSelected[0] = true

	for p := 0; p < inst.ProductCount; p++ {
		if sol.DemandRemaining[p] > 0 {
			sol.RemainingProducts = append(sol.RemainingProducts, uint32(p))
		}
		sol.TotalUnsatisfiedDemand += inst.Demands[p]
	}
	sol.UnselectedMarkets = make([]uint32, inst.Dimension-1)
	for i := 1; i < inst.Dimension; i++ {
		sol.UnselectedMarkets[i-1] = uint32(i)
	}
	return sol
}

// Clone returns a deep copy, so promoted "best" solutions cannot be mutated
// by later search iterations.
func (sol *Solution) Clone() *Solution {
	dup := &Solution{
		Instance:               sol.Instance,
		Route:                  append([]uint32(nil), sol.Route...),
		Cost:                   sol.Cost,
		TravelCost:             sol.TravelCost,
		MarketSelected:         append([]bool(nil), sol.MarketSelected...),
		ProductOffers:          make([][]Offer, len(sol.ProductOffers)),
		PurchaseCosts:          append([]int(nil), sol.PurchaseCosts...),
		DemandRemaining:        append([]int(nil), sol.DemandRemaining...),
		RemainingProducts:      append([]uint32(nil), sol.RemainingProducts...),
		MarketsPerProduct:      append([]uint32(nil), sol.MarketsPerProduct...),
		UnselectedMarkets:      append([]uint32(nil), sol.UnselectedMarkets...),
		TotalUnsatisfiedDemand: sol.TotalUnsatisfiedDemand,
	}
	for p, offers := range sol.ProductOffers {
		dup.ProductOffers[p] = append([]Offer(nil), offers...)
	}
	return dup
}

// PushBackMarket appends marketID at the end of the route.
func (sol *Solution) PushBackMarket(marketID uint32) {
	sol.InsertMarketAt(marketID, len(sol.Route))
}

// InsertMarketAt inserts marketID at the given route index and updates the
// travel and purchase state.
//
// Contracts: the market is not in the route yet and 0 < index ≤ len(Route).
//
// Complexity: O(max(K, M)) where K is the route length and M the number of
// offers at the market.
func (sol *Solution) InsertMarketAt(marketID uint32, index int) {
	must(!sol.MarketSelected[marketID], "multiple visits to market %d", marketID)
	must(index > 0 && index <= len(sol.Route), "insert index %d out of range", index)

	prev := sol.Route[index-1]
	next := sol.Route[index%len(sol.Route)]

	sol.Route = append(sol.Route, 0)
	copy(sol.Route[index+1:], sol.Route[index:])
	sol.Route[index] = marketID

	sol.MarketSelected[marketID] = true

	inst := sol.Instance
	travelChange := inst.TravelCost(int(prev), int(marketID)) +
		inst.TravelCost(int(marketID), int(next)) -
		inst.TravelCost(int(prev), int(next))
	sol.TravelCost += travelChange
	sol.Cost += travelChange

	for _, offer := range inst.MarketOffers[marketID] {
		sol.Cost += sol.addProductOffer(offer)
	}

	sol.dropUnselected(marketID)
}

// RemoveMarketAt removes the market at route position pos; the mirror of
// InsertMarketAt.
func (sol *Solution) RemoveMarketAt(pos int) {
	must(pos < len(sol.Route), "remove position %d out of range", pos)
	must(pos > 0, "cannot remove the depot")

	prev := sol.Route[pos-1]
	removed := sol.Route[pos]
	next := sol.Route[(pos+1)%len(sol.Route)]

	sol.Route = append(sol.Route[:pos], sol.Route[pos+1:]...)
	sol.MarketSelected[removed] = false

	inst := sol.Instance
	travelChange := inst.TravelCost(int(prev), int(next)) -
		inst.TravelCost(int(prev), int(removed)) -
		inst.TravelCost(int(removed), int(next))
	sol.TravelCost += travelChange
	sol.Cost += travelChange

	for _, offer := range inst.MarketOffers[removed] {
		sol.Cost += sol.removeProductOffer(offer)
	}
	sol.UnselectedMarkets = append(sol.UnselectedMarkets, removed)
}

// dropUnselected removes marketID from UnselectedMarkets.
func (sol *Solution) dropUnselected(marketID uint32) {
	for i, m := range sol.UnselectedMarkets {
		if m == marketID {
			sol.UnselectedMarkets = append(sol.UnselectedMarkets[:i],
				sol.UnselectedMarkets[i+1:]...)
			return
		}
	}
	must(false, "market %d should be among the unselected", marketID)
}

// CalcProductOfferAddCost predicts the purchase-cost change of adding offer,
// plus the demand reduction it brings (the still-remaining demand for the
// product, since one offer suffices in the uncapacitated setting).
//
// Complexity: O(1).
func (sol *Solution) CalcProductOfferAddCost(offer Offer) (costChange, demandReduction int) {
	must(!sol.Instance.IsCapacitated, "uncapacitated instance required")

	var (
		p        = offer.ProductID
		offers   = sol.ProductOffers[p]
		prevCost = sol.PurchaseCosts[p]
		cost     = prevCost
	)
	if len(offers) == 0 || offers[0].Price > offer.Price {
		cost = offer.Price // the new offer becomes the cheapest
	}
	return cost - prevCost, sol.DemandRemaining[p]
}

// addProductOffer inserts offer into the per-product list, keeping the
// best-offer-first order, and returns the purchase-cost change.
func (sol *Solution) addProductOffer(offer Offer) int {
	must(!sol.Instance.IsCapacitated, "uncapacitated instance required")

	p := offer.ProductID
	offers := sol.ProductOffers[p]

	// upper-bound insertion keeps equal offers in arrival order.
	at := sort.Search(len(offers), func(i int) bool {
		return isBetterOffer(offer, offers[i])
	})
	offers = append(offers, Offer{})
	copy(offers[at+1:], offers[at:])
	offers[at] = offer
	sol.ProductOffers[p] = offers

	var (
		prevCost     = sol.PurchaseCosts[p]
		demandBefore = sol.DemandRemaining[p]
	)
	sol.PurchaseCosts[p] = offers[0].Price
	sol.DemandRemaining[p] = 0
	sol.MarketsPerProduct[p] = 1

	sol.TotalUnsatisfiedDemand -= demandBefore
	must(sol.TotalUnsatisfiedDemand >= 0, "unsatisfied demand went negative")

	if demandBefore > 0 {
		sol.removeRemainingProduct(uint32(p))
	}
	return sol.PurchaseCosts[p] - prevCost
}

// removeProductOffer deletes the given offer and returns the purchase-cost
// change. When the last offer for a product disappears its demand is
// restored and the product rejoins RemainingProducts.
func (sol *Solution) removeProductOffer(offer Offer) int {
	must(!sol.Instance.IsCapacitated, "uncapacitated instance required")

	p := offer.ProductID
	offers := sol.ProductOffers[p]

	at := -1
	for i := range offers {
		if sameOffer(offers[i], offer) {
			at = i
			break
		}
	}
	must(at >= 0, "offer for product %d at market %d should exist", p, offer.MarketID)

	offers = append(offers[:at], offers[at+1:]...)
	sol.ProductOffers[p] = offers

	prevCost := sol.PurchaseCosts[p]

	if len(offers) > 0 {
		// The next cheapest offer takes over.
		sol.PurchaseCosts[p] = offers[0].Price
		sol.DemandRemaining[p] = 0
		sol.MarketsPerProduct[p] = 1
	} else {
		sol.PurchaseCosts[p] = 0
		sol.DemandRemaining[p] = sol.Instance.Demands[p]
		sol.MarketsPerProduct[p] = 0
		sol.TotalUnsatisfiedDemand += sol.Instance.Demands[p]
		if sol.Instance.Demands[p] > 0 {
			sol.insertRemainingProduct(uint32(p))
		}
	}
	return sol.PurchaseCosts[p] - prevCost
}

// removeRemainingProduct erases productID from the sorted remaining list.
func (sol *Solution) removeRemainingProduct(productID uint32) {
	at := sort.Search(len(sol.RemainingProducts), func(i int) bool {
		return sol.RemainingProducts[i] >= productID
	})
	if at < len(sol.RemainingProducts) && sol.RemainingProducts[at] == productID {
		sol.RemainingProducts = append(sol.RemainingProducts[:at],
			sol.RemainingProducts[at+1:]...)
	}
}

// insertRemainingProduct inserts productID into the sorted remaining list
// if it is not present yet.
func (sol *Solution) insertRemainingProduct(productID uint32) {
	at := sort.Search(len(sol.RemainingProducts), func(i int) bool {
		return sol.RemainingProducts[i] >= productID
	})
	if at < len(sol.RemainingProducts) && sol.RemainingProducts[at] == productID {
		return
	}
	sol.RemainingProducts = append(sol.RemainingProducts, 0)
	copy(sol.RemainingProducts[at+1:], sol.RemainingProducts[at:])
	sol.RemainingProducts[at] = productID
}

// CalcProductOfferRemovalCost predicts the purchase-cost change of removing
// offer and whether the product's demand stays satisfied.
//
// Complexity: O(1).
func (sol *Solution) CalcProductOfferRemovalCost(offer Offer) (costChange int, demandSatisfied bool) {
	must(!sol.Instance.IsCapacitated, "uncapacitated instance required")

	var (
		p      = offer.ProductID
		offers = sol.ProductOffers[p]
		cost   = 0
	)
	if len(offers) >= 2 { // the next cheapest offer takes over
		cost = offers[1].Price
		demandSatisfied = true
	}
	return cost - sol.PurchaseCosts[p], demandSatisfied
}

// CalcMarketRemovalCost returns the cost change of removing marketID and
// whether all demands stay satisfied afterwards. With validityRequired the
// probe short-circuits as soon as any single offer removal would leave a
// demanded product uncovered, so callers can skip infeasible drops cheaply.
//
// Complexity: O(max(K, M)).
func (sol *Solution) CalcMarketRemovalCost(marketID uint32, validityRequired bool) MarketVerdict {
	pos := sol.MarketPosInRoute(marketID)
	must(pos < len(sol.Route), "market %d should be in the route", marketID)
	must(pos > 0, "cannot remove the depot")

	var (
		allSatisfied = sol.TotalUnsatisfiedDemand == 0
		cost         = 0
	)
	for _, offer := range sol.Instance.MarketOffers[marketID] {
		change, satisfied := sol.CalcProductOfferRemovalCost(offer)
		if validityRequired && !satisfied {
			return MarketVerdict{DemandSatisfied: false}
		}
		cost += change
		allSatisfied = allSatisfied && satisfied
	}

	var (
		inst = sol.Instance
		prev = sol.Route[pos-1]
		next = sol.Route[(pos+1)%len(sol.Route)]
	)
	distDecrease := inst.TravelCost(int(prev), int(marketID)) +
		inst.TravelCost(int(marketID), int(next)) -
		inst.TravelCost(int(prev), int(next))

	return MarketVerdict{
		CostChange:      cost - distDecrease,
		DemandSatisfied: allSatisfied,
	}
}

// CalcMarketAddCost probes every insertion position for marketID, picks the
// cheapest one, and returns the total cost change together with that
// position. A negative CostChange means the insertion pays for itself.
//
// Complexity: O(max(K, M)).
func (sol *Solution) CalcMarketAddCost(marketID uint32) MarketVerdict {
	must(!sol.IsMarketUsed(marketID), "market %d should not be in the route", marketID)

	var (
		unsatisfied = sol.TotalUnsatisfiedDemand
		cost        = 0
	)
	for _, offer := range sol.Instance.MarketOffers[marketID] {
		change, reduction := sol.CalcProductOfferAddCost(offer)
		cost += change
		unsatisfied -= reduction
	}

	// The purchase delta is position independent; only the travel delta
	// varies, so scan for the cheapest insertion point.
	var (
		inst            = sol.Instance
		routeLen        = len(sol.Route)
		minDistIncrease = math.MaxInt
		minDistIndex    = routeLen + 1
	)
	for i := 0; i < routeLen; i++ {
		curr := sol.Route[i]
		next := sol.Route[(i+1)%routeLen]
		distIncrease := inst.TravelCost(int(curr), int(marketID)) +
			inst.TravelCost(int(marketID), int(next)) -
			inst.TravelCost(int(curr), int(next))
		if distIncrease < minDistIncrease {
			minDistIncrease = distIncrease
			minDistIndex = i + 1
		}
	}
	return MarketVerdict{
		CostChange:      cost + minDistIncrease,
		Index:           minDistIndex,
		DemandSatisfied: unsatisfied == 0,
	}
}

// CheckMarketSatisfiesDemand reports whether adding marketID would make the
// solution feasible, i.e. the market stocks enough of every still-needed
// product on its own.
//
// Complexity: O(P).
func (sol *Solution) CheckMarketSatisfiesDemand(marketID uint32) bool {
	if sol.IsMarketUsed(marketID) {
		return false
	}
	offers := sol.Instance.MarketProductOffers[marketID]
	for _, productID := range sol.RemainingProducts {
		if offers[productID].Quantity < sol.DemandRemaining[productID] {
			return false
		}
	}
	return true
}

// IsMarketUsed reports route membership in O(1).
func (sol *Solution) IsMarketUsed(marketID uint32) bool {
	return sol.MarketSelected[marketID]
}

// IsValid reports whether every demand is satisfied.
func (sol *Solution) IsValid() bool {
	return len(sol.RemainingProducts) == 0
}

// UnselectedCopy returns a fresh copy of the markets outside the route.
func (sol *Solution) UnselectedCopy() []uint32 {
	return append([]uint32(nil), sol.UnselectedMarkets...)
}

// MarketPosInRoute returns the route index of marketID, or len(Route) when
// the market is not part of the solution.
func (sol *Solution) MarketPosInRoute(marketID uint32) int {
	for i, m := range sol.Route {
		if m == marketID {
			return i
		}
	}
	return len(sol.Route)
}

// RelativeError returns (cost − best_known) / best_known, or +Inf when no
// best known cost is available.
func (sol *Solution) RelativeError() float64 {
	if sol.Instance.BestKnownCost > 0 {
		return float64(sol.Cost-sol.Instance.BestKnownCost) /
			float64(sol.Instance.BestKnownCost)
	}
	return math.Inf(1)
}
