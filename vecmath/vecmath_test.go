package vecmath_test

import (
	"math"
	"testing"

	"github.com/RSkinderowicz/MMAS-for-UTPP/vecmath"
)

func TestDiffMax0Sum(t *testing.T) {
	a := []int{1, 2, 3, 4, 1, 2, 3, 4, 7, 8}
	b := []int{0, 1, 2, 3, 2, 3, 4, 5, 7, 8}

	if got := vecmath.DiffMax0Sum(a, b); got != 4 {
		t.Fatalf("DiffMax0Sum = %d, want 4", got)
	}
}

func TestDiffMax0SumEdgeCases(t *testing.T) {
	if got := vecmath.DiffMax0Sum(nil, nil); got != 0 {
		t.Fatalf("empty input should sum to 0, got %d", got)
	}
	if got := vecmath.DiffMax0Sum([]int{5}, []int{9}); got != 0 {
		t.Fatalf("negative differences are clipped, got %d", got)
	}
}

func TestMean(t *testing.T) {
	if got := vecmath.Mean([]float64{1, 2, 3, 4}); math.Abs(got-2.5) > 1e-12 {
		t.Fatalf("Mean = %v, want 2.5", got)
	}
	if got := vecmath.Mean(nil); got != 0 {
		t.Fatalf("Mean of empty input = %v, want 0", got)
	}
}

func TestStdDev(t *testing.T) {
	if got := vecmath.StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}); math.Abs(got-2.138089935299395) > 1e-9 {
		t.Fatalf("StdDev = %v", got)
	}
	if got := vecmath.StdDev([]float64{3}); got != 0 {
		t.Fatalf("single sample has no spread, got %v", got)
	}
}
