package cah_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RSkinderowicz/MMAS-for-UTPP/cah"
	"github.com/RSkinderowicz/MMAS-for-UTPP/rng"
	"github.com/RSkinderowicz/MMAS-for-UTPP/tpp"
)

// marketGrid builds an 8-node instance where 4 products are each sold by
// two markets with distinct prices, so construction always has a choice.
func marketGrid() *tpp.Instance {
	const (
		dimension = 8
		products  = 4
	)
	engine := rng.New(101)

	weights := make([]int, dimension*dimension)
	for i := 0; i < dimension; i++ {
		for j := i + 1; j < dimension; j++ {
			w := 2 + engine.Intn(12)
			weights[i*dimension+j] = w
			weights[j*dimension+i] = w
		}
	}
	demands := []int{1, 1, 1, 1}
	offers := make([][]tpp.Offer, dimension)
	for p := 0; p < products; p++ {
		cheap := 1 + p
		pricey := 1 + (p+3)%(dimension-1)
		if pricey == cheap {
			pricey = 1 + (p+4)%(dimension-1)
		}
		offers[cheap] = append(offers[cheap], tpp.Offer{
			Price: 3, Quantity: 2, ProductID: uint16(p),
		})
		offers[pricey] = append(offers[pricey], tpp.Offer{
			Price: 8, Quantity: 2, ProductID: uint16(p),
		})
	}
	return tpp.NewInstance(dimension, weights, demands, offers)
}

func TestBuildProducesValidSolution(t *testing.T) {
	inst := marketGrid()
	engine := rng.New(42)

	for i := 0; i < 10; i++ {
		sol := cah.Build(inst, engine)

		require.True(t, sol.IsValid())
		assert.EqualValues(t, 0, sol.Route[0])
		assert.Equal(t, tpp.CalcSolutionCost(inst, sol.Route), sol.Cost)
		assert.Equal(t, inst.CalcTravelCost(sol.Route), sol.TravelCost)
	}
}

func TestBuildIsDeterministicPerSeed(t *testing.T) {
	inst := marketGrid()

	a := cah.Build(inst, rng.New(7))
	b := cah.Build(inst, rng.New(7))

	assert.Equal(t, a.Route, b.Route)
	assert.Equal(t, a.Cost, b.Cost)
}

func TestBuildPanicsOnUnsatisfiableDemand(t *testing.T) {
	// Product 1 is demanded but nobody sells it.
	weights := []int{
		0, 1, 1,
		1, 0, 1,
		1, 1, 0,
	}
	offers := [][]tpp.Offer{
		{},
		{{Price: 1, Quantity: 1, ProductID: 0}},
		{},
	}
	inst := tpp.NewInstance(3, weights, []int{1, 1}, offers)

	assert.Panics(t, func() { cah.Build(inst, rng.New(1)) })
}
