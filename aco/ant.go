package aco

import (
	"github.com/RSkinderowicz/MMAS-for-UTPP/rng"
	"github.com/RSkinderowicz/MMAS-for-UTPP/tpp"
)

// Ant carries the construction state of a single colony member: its partial
// solution plus the scalar exponents weighting pheromone (affinity),
// inverse distance (laziness) and the purchase heuristic (avidity) in the
// move roulette. Parameter names follow B. Bontoux & D. Feillet.
type Ant struct {
	Solution *tpp.Solution

	Affinity float64
	Laziness float64
	Avidity  float64

	// Oversize is the slack probability of extending the route past
	// feasibility, a per-ant diversification knob drawn from [0, 0.1).
	Oversize float64

	// LengthWhenValid records the route length at the moment the solution
	// first became feasible.
	LengthWhenValid int

	ID int

	// candidates is scratch space reused across CandidateMarkets calls.
	candidates []uint32
}

// NewAnt returns an ant with an empty solution and the default exponents;
// only the oversize slack is randomized.
func NewAnt(inst *tpp.Instance, engine *rng.Engine) *Ant {
	return &Ant{
		Solution: tpp.NewSolution(inst),
		Affinity: 3,
		Laziness: 2,
		Avidity:  2,
		Oversize: engine.Float64() * 0.1,
	}
}

// Clone deep-copies the ant so promoted bests survive later iterations.
func (ant *Ant) Clone() *Ant {
	dup := *ant
	dup.Solution = ant.Solution.Clone()
	dup.candidates = nil
	return &dup
}

// MoveTo extends the route with the given market. Moving to the depot is a
// programming error.
func (ant *Ant) MoveTo(market uint32) {
	if market == 0 {
		panic("aco: an ant cannot move to the depot")
	}
	ant.Solution.PushBackMarket(market)

	if ant.LengthWhenValid == 0 && ant.Solution.IsValid() {
		ant.LengthWhenValid = len(ant.Solution.Route)
	}
}

// Cost returns the current solution cost.
func (ant *Ant) Cost() int {
	return ant.Solution.Cost
}

// Position returns the market the ant currently sits at.
func (ant *Ant) Position() uint32 {
	return ant.Solution.Route[len(ant.Solution.Route)-1]
}

// CandidateMarkets returns the markets considered for the next move: the
// unvisited, non-depot members of the current position's first nnCount
// nearest neighbors — unless fewer than two remain, in which case the whole
// unselected set is offered so the roulette keeps a real choice.
//
// The returned slice is scratch space owned by the ant, valid until the
// next call.
func (ant *Ant) CandidateMarkets(nnCount int) []uint32 {
	var (
		sol  = ant.Solution
		nn   = sol.Instance.NNLists[ant.Position()]
		take = min(nnCount, len(nn))
	)
	ant.candidates = ant.candidates[:0]
	for i := 0; i < take; i++ {
		market := nn[i]
		if market != 0 && !sol.IsMarketUsed(market) {
			ant.candidates = append(ant.candidates, market)
		}
	}
	if len(ant.candidates) > 1 {
		return ant.candidates
	}
	ant.candidates = append(ant.candidates[:0], sol.UnselectedMarkets...)
	return ant.candidates
}
