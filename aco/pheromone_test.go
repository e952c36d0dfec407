package aco_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/RSkinderowicz/MMAS-for-UTPP/aco"
)

func TestPheromoneClamping(t *testing.T) {
	ph := aco.NewPheromone(4, true, 0.1, 0.5)
	ph.SetAllTrails(1.0)
	ph.SetTrailLimits(0.1, 0.5)

	// Evaporation followed by a huge deposit saturates at the upper bound.
	ph.Evaporate(0.99)
	ph.Increase(0, 1, 1000)
	assert.Equal(t, 0.5, ph.Trail(0, 1))
	assert.Equal(t, 0.5, ph.Trail(1, 0), "symmetric mirror")

	// Repeated evaporation bottoms out at the lower bound.
	ph.SetAllTrails(0.1)
	for i := 0; i < 1000; i++ {
		ph.Evaporate(0.5)
	}
	assert.Equal(t, 0.1, ph.Trail(2, 3))
}

func TestPheromoneStaysWithinBounds(t *testing.T) {
	const (
		minValue = 0.25
		maxValue = 2.0
	)
	ph := aco.NewPheromone(5, true, minValue, maxValue)

	for step := 0; step < 500; step++ {
		switch step % 3 {
		case 0:
			ph.Evaporate(0.9)
		case 1:
			ph.Increase(uint32(step%5), uint32((step+1)%5), 0.3)
		default:
			ph.Increase(uint32((step+2)%5), uint32(step%5), 5.0)
		}
	}
	for a := uint32(0); a < 5; a++ {
		for b := uint32(0); b < 5; b++ {
			trail := ph.Trail(a, b)
			assert.GreaterOrEqual(t, trail, minValue)
			assert.LessOrEqual(t, trail, maxValue)
		}
	}
}

func TestPheromoneAsymmetricDoesNotMirror(t *testing.T) {
	ph := aco.NewPheromone(3, false, 0.0, 10.0)
	ph.SetAllTrails(1.0)

	ph.Increase(0, 1, 2.0)
	assert.Equal(t, 3.0, ph.Trail(0, 1))
	assert.Equal(t, 1.0, ph.Trail(1, 0))
}
