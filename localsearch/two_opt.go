package localsearch

import (
	"github.com/RSkinderowicz/MMAS-for-UTPP/rng"
	"github.com/RSkinderowicz/MMAS-for-UTPP/tpp"
)

// TwoOptRoute runs best-improvement 2-opt on a closed route given as a node
// sequence (the closing edge back to route[0] is implicit). The route is
// modified in place; the positive travel improvement is returned.
//
// Only symmetric instances are supported: a move reverses a segment, which
// changes edge directions.
//
// Complexity: O(iter·K²).
func TwoOptRoute(inst *tpp.Instance, route []uint32) int {
	must(inst.IsSymmetric, "symmetric instance expected")

	var (
		totalImprovement = 0
		routeLen         = len(route)
	)

	for {
		var (
			bestChange = 0
			bestBeg    = routeLen
			bestEnd    = routeLen
		)
		for i := 1; i < routeLen-1; i++ {
			a := route[i]
			aPrev := route[i-1]

			for j := i + 1; j < routeLen; j++ {
				b := route[j]
				bNext := route[(j+1)%routeLen]

				diff := inst.TravelCost(int(aPrev), int(a)) +
					inst.TravelCost(int(b), int(bNext)) -
					inst.TravelCost(int(aPrev), int(b)) -
					inst.TravelCost(int(a), int(bNext))
				if diff > bestChange {
					bestChange = diff
					bestBeg = i
					bestEnd = j
				}
			}
		}
		if bestChange == 0 {
			break
		}
		reverseLinear(route, bestBeg, bestEnd)
		totalImprovement += bestChange
	}
	return totalImprovement
}

// TwoOpt applies TwoOptRoute to a solution's route and keeps the cached
// totals consistent. Returns the improvement (start cost − end cost).
func TwoOpt(inst *tpp.Instance, sol *tpp.Solution) int {
	improvement := TwoOptRoute(inst, sol.Route)
	sol.Cost -= improvement
	sol.TravelCost -= improvement
	return improvement
}

// TwoOptWithShuffle restarts 2-opt a number of times from shuffled copies of
// the route (the depot stays in front) and keeps the cheapest result by full
// solution cost. Only restarts in which 2-opt found an improvement are
// compared. The route is replaced only when a restart beats the original.
//
// Returns start cost − best cost.
func TwoOptWithShuffle(inst *tpp.Instance, route []uint32,
	engine *rng.Engine, attempts int) int {

	var (
		startCost = tpp.CalcSolutionCost(inst, route)
		bestCost  = startCost
		currRoute = append([]uint32(nil), route...)
	)
	for i := 0; i < attempts; i++ {
		improvement := TwoOptRoute(inst, currRoute)

		if improvement > 0 {
			if cost := tpp.CalcSolutionCost(inst, currRoute); cost < bestCost {
				bestCost = cost
				copy(route, currRoute)
			}
		}
		if i+1 < attempts {
			rng.Shuffle(currRoute[1:], engine)
		}
	}
	return startCost - bestCost
}

// reverseLinear reverses route[i..j] inclusive.
func reverseLinear(route []uint32, i, j int) {
	for i < j {
		route[i], route[j] = route[j], route[i]
		i++
		j--
	}
}
