package tpp

import "sort"

// Instance contains the problem data. It is immutable after load and is
// shared by reference between the solver components.
type Instance struct {
	Name      string
	Dimension int // number of nodes including the depot (node 0)

	// travelCosts is the full Dimension×Dimension cost matrix stored
	// row-major; kept linearized so that the hot-path lookup is a single
	// multiply-add with no pointer chasing.
	travelCosts []int

	// NNLists[m] lists every node other than m, sorted ascending by travel
	// cost from m.
	NNLists [][]uint32

	IsSymmetric bool

	ProductCount int
	Demands      []int // Demands[p] = required units of product p

	// NeededProducts lists the ids of products with positive demand.
	NeededProducts []uint32

	// MarketOffers[m] holds the offers available at market m, sorted
	// ascending by price.
	MarketOffers [][]Offer

	// MarketProductOffers[m][p] is the offer for product p at market m.
	// A zero Quantity means the market does not sell the product.
	MarketProductOffers [][]Offer

	IsCapacitated bool

	// BestKnownCost comes from an external database; 0 when unknown.
	BestKnownCost int
}

// TravelCost returns the cost of traveling between nodes a and b.
func (inst *Instance) TravelCost(a, b int) int {
	return inst.travelCosts[a*inst.Dimension+b]
}

// CalcTravelCost returns the cost of the closed tour through route,
// including the edge from the last node back to the first.
//
// Complexity: O(len(route)).
func (inst *Instance) CalcTravelCost(route []uint32) int {
	if len(route) == 0 {
		return 0
	}
	var (
		cost = 0
		prev = route[len(route)-1]
	)
	for _, node := range route {
		cost += inst.TravelCost(int(prev), int(node))
		prev = node
	}
	return cost
}

// MaxProductPrices returns, per product, the highest price asked for it at
// any market. Products nobody sells report 0.
func (inst *Instance) MaxProductPrices() []int {
	prices := make([]int, inst.ProductCount)
	for _, offers := range inst.MarketOffers {
		for _, offer := range offers {
			if p := offer.Price; p > prices[offer.ProductID] {
				prices[offer.ProductID] = p
			}
		}
	}
	return prices
}

// buildNNLists computes, for every node, the list of all other nodes sorted
// ascending by travel cost. Each list has Dimension-1 entries.
//
// Complexity: O(n² log n).
func buildNNLists(inst *Instance) [][]uint32 {
	n := inst.Dimension
	lists := make([][]uint32, n)

	var (
		i int
		j int
	)
	for i = 0; i < n; i++ {
		list := make([]uint32, 0, n-1)
		for j = 0; j < n; j++ {
			if j != i { // a node is not its own neighbor
				list = append(list, uint32(j))
			}
		}
		from := i
		sort.Slice(list, func(a, b int) bool {
			return inst.TravelCost(from, int(list[a])) < inst.TravelCost(from, int(list[b]))
		})
		lists[i] = list
	}
	return lists
}
