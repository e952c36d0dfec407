package aco_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RSkinderowicz/MMAS-for-UTPP/aco"
	"github.com/RSkinderowicz/MMAS-for-UTPP/rng"
	"github.com/RSkinderowicz/MMAS-for-UTPP/tpp"
)

// colonyInstance builds a deterministic 10-node instance with 5 products,
// each sold by three markets at varying prices.
func colonyInstance() *tpp.Instance {
	const (
		dimension = 10
		products  = 5
	)
	engine := rng.New(2024)

	weights := make([]int, dimension*dimension)
	for i := 0; i < dimension; i++ {
		for j := i + 1; j < dimension; j++ {
			w := 1 + engine.Intn(30)
			weights[i*dimension+j] = w
			weights[j*dimension+i] = w
		}
	}
	demands := make([]int, products)
	offers := make([][]tpp.Offer, dimension)
	for p := 0; p < products; p++ {
		demands[p] = 1
		for s := 0; s < 3; s++ {
			m := 1 + (p*3+s*2)%(dimension-1)
			exists := false
			for _, o := range offers[m] {
				if int(o.ProductID) == p {
					exists = true
					break
				}
			}
			if !exists {
				offers[m] = append(offers[m], tpp.Offer{
					Price:     2 + engine.Intn(20),
					Quantity:  1,
					ProductID: uint16(p),
				})
			}
		}
	}
	return tpp.NewInstance(dimension, weights, demands, offers)
}

func TestCreateRandomSolutionIsFeasible(t *testing.T) {
	inst := colonyInstance()
	engine := rng.New(8)

	for i := 0; i < 25; i++ {
		sol := aco.CreateRandomSolution(inst, engine)
		require.True(t, sol.IsValid())
		require.Equal(t, tpp.CalcSolutionCost(inst, sol.Route), sol.Cost)
	}
}

func TestAntCandidateMarkets(t *testing.T) {
	inst := colonyInstance()
	engine := rng.New(4)
	ant := aco.NewAnt(inst, engine)

	cand := ant.CandidateMarkets(5)
	require.NotEmpty(t, cand)
	for _, m := range cand {
		assert.NotEqualValues(t, 0, m, "the depot is never a candidate")
		assert.False(t, ant.Solution.IsMarketUsed(m))
	}

	// Once almost everything is visited the full unselected set is offered.
	for m := uint32(1); m < uint32(inst.Dimension-1); m++ {
		ant.MoveTo(m)
	}
	cand = ant.CandidateMarkets(5)
	assert.Len(t, cand, 1)
	assert.EqualValues(t, inst.Dimension-1, cand[0])
}

func TestAntMoveToDepotPanics(t *testing.T) {
	inst := colonyInstance()
	ant := aco.NewAnt(inst, rng.New(1))
	assert.Panics(t, func() { ant.MoveTo(0) })
}

func TestNodeBranching(t *testing.T) {
	inst := colonyInstance()
	const candListSize = 5

	// A single dominant outgoing trail per node gives one active branch
	// each: factor = n / (2n) = 0.5. The matrix is asymmetric on purpose so
	// mirrored deposits do not add extra branches.
	ph := aco.NewPheromone(inst.Dimension, false, 0.1, 10)
	ph.SetAllTrails(0.1)
	for m := 0; m < inst.Dimension; m++ {
		ph.Increase(uint32(m), inst.NNLists[m][0], 9)
	}
	factor := aco.NodeBranching(0.05, candListSize, ph, inst)
	assert.InDelta(t, 0.5, factor, 1e-9)

	// The factor can never exceed the candidate list size.
	assert.LessOrEqual(t, factor, float64(candListSize))
}

func TestColonyFindsFeasibleBest(t *testing.T) {
	inst := colonyInstance()
	colony := aco.NewColony(inst, nil, rng.New(555))

	colony.Run(aco.NewFixedIterations(25))

	require.NotNil(t, colony.GlobalBest)
	best := colony.GlobalBest.Solution
	assert.True(t, best.IsValid())
	assert.EqualValues(t, 0, best.Route[0])
	assert.Equal(t, tpp.CalcSolutionCost(inst, best.Route), best.Cost)
}

// TestColonyIsDeterministic runs two colonies from identical seeds and
// expects byte-identical results.
func TestColonyIsDeterministic(t *testing.T) {
	inst := colonyInstance()

	run := func() ([]uint32, int) {
		colony := aco.NewColony(inst, nil, rng.New(77))
		colony.Run(aco.NewFixedIterations(30))
		require.NotNil(t, colony.GlobalBest)
		return colony.GlobalBest.Solution.Route, colony.GlobalBest.Cost()
	}

	routeA, costA := run()
	routeB, costB := run()

	assert.Equal(t, costA, costB)
	assert.Equal(t, routeA, routeB)
}

// TestColonyPromotedBestIsIsolated checks that the stored global best is a
// private copy: later iterations must not mutate it.
func TestColonyPromotedBestIsIsolated(t *testing.T) {
	inst := colonyInstance()
	colony := aco.NewColony(inst, nil, rng.New(9))

	var (
		seenCost  = -1
		seenRoute []uint32
	)
	colony.NewBestFound = func(c *aco.Colony) {
		seenCost = c.GlobalBest.Cost()
		seenRoute = append([]uint32(nil), c.GlobalBest.Solution.Route...)
	}
	colony.Run(aco.NewFixedIterations(15))

	require.NotNil(t, colony.GlobalBest)
	assert.Equal(t, seenCost, colony.GlobalBest.Cost(),
		"the last callback must describe the final best")
	assert.Equal(t, seenRoute, colony.GlobalBest.Solution.Route)
}
