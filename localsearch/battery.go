package localsearch

import "github.com/RSkinderowicz/MMAS-for-UTPP/tpp"

// batteryNNCount is the neighbor-list width used by the 3-opt refinement
// inside the battery.
const batteryNNCount = 25

// maxBatteryPasses bounds the nominal number of operator passes; a pass
// close enough to the global best extends the budget (see below).
const maxBatteryPasses = 2

// Battery is the local-search driver applied to constructed solutions.
//
// It runs the 3-opt refinement once on entry, then passes of
// Drop → Insertion → KExchange(3) → DoubleExchange → Exchange, re-running
// 3-opt whenever the pass changed the cost. Nominally two passes run; a
// pass keeps the battery alive past that limit when it brought the cost
// within (1 + 0.08/pass²) of globalBestCost, a bound that is more generous
// in early passes.
//
// Returns the total improvement (start cost − end cost).
func Battery(inst *tpp.Instance, sol *tpp.Solution, globalBestCost int) int {
	var (
		initialCost     = sol.Cost
		pass            = 0
		nearGlobalBest  = false
		improvementSeen = false
	)

	ThreeOptNN(inst, sol, true, batteryNNCount)

	for {
		startCost := sol.Cost

		Drop(inst, sol)
		Insertion(inst, sol)
		KExchange(inst, sol, 3)
		DoubleExchange(inst, sol)
		Exchange(inst, sol)

		if sol.Cost != startCost {
			ThreeOptNN(inst, sol, true, batteryNNCount)
		}
		improvementSeen = sol.Cost < startCost
		pass++
		if improvementSeen &&
			float64(sol.Cost) < float64(globalBestCost)*(1.0+0.08/float64(pass*pass)) {
			nearGlobalBest = true
		}
		if !improvementSeen || (pass >= maxBatteryPasses && !nearGlobalBest) {
			break
		}
	}
	checkStillValid(inst, sol)
	return initialCost - sol.Cost
}
