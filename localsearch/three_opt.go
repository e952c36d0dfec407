package localsearch

import "github.com/RSkinderowicz/MMAS-for-UTPP/tpp"

// segment denotes a stretch of consecutive route positions in the cyclic
// view of the route: from index first to index last walking forward and
// wrapping past the end if needed. The reversed flag marks that the
// segment's elements should end up in the opposite order.
type segment struct {
	first    int
	last     int
	routeLen int
	id       int
	reversed bool
}

// size returns the number of elements the segment spans.
func (s segment) size() int {
	f, l := s.first, s.last
	if s.reversed {
		f, l = l, f
	}
	if f <= l {
		return l - f + 1
	}
	return s.routeLen - f + l + 1
}

// reverse flips the segment orientation.
func (s *segment) reverse() {
	s.first, s.last = s.last, s.first
	s.reversed = !s.reversed
}

// reverseWrapped reverses size elements of route starting at index first,
// wrapping past the end of the slice.
func reverseWrapped(route []uint32, first, size int) {
	var (
		n = len(route)
		i = first
		j = (first + size - 1) % n
	)
	for step := size / 2; step > 0; step-- {
		route[i], route[j] = route[j], route[i]
		i++
		if i == n {
			i = 0
		}
		j--
		if j < 0 {
			j = n - 1
		}
	}
}

// rotateLinear left-rotates route[a:b] so that the element at index m moves
// to index a.
func rotateLinear(route []uint32, a, m, b int) {
	if a >= m || m >= b {
		return
	}
	tmp := make([]uint32, 0, b-a)
	tmp = append(tmp, route[m:b]...)
	tmp = append(tmp, route[a:m]...)
	copy(route[a:b], tmp)
}

// rotateWrapped left-rotates the cyclic window of windowLen elements
// starting at route index left, so the element at offset middle within the
// window moves to the window start.
func rotateWrapped(route []uint32, left, middle, windowLen int) {
	if middle <= 0 || middle >= windowLen {
		return
	}
	var (
		n   = len(route)
		tmp = make([]uint32, windowLen)
	)
	for i := 0; i < windowLen; i++ {
		tmp[i] = route[(left+i)%n]
	}
	for i := 0; i < windowLen; i++ {
		route[(left+i)%n] = tmp[(middle+i)%windowLen]
	}
}

// perform2OptMove reverses one of the two arcs the cut (i, j) induces,
// choosing the shorter one so the work is at most half the route.
func perform2OptMove(route []uint32, i, j int) {
	routeLen := len(route)
	if i > j {
		i, j = j, i
	}
	// Cuts after i and after j: ..., i), (i+1, ..., j), (j+1, ...
	var (
		i1 = (i + 1) % routeLen
		j1 = (j + 1) % routeLen
		s1 = segment{first: i1, last: j, routeLen: routeLen}
		s2 = segment{first: j1, last: i, routeLen: routeLen}
	)
	if s1.size() < s2.size() {
		reverseLinear(route, s1.first, s1.first+s1.size()-1)
	} else {
		reverseWrapped(route, s2.first, s2.size())
	}
}

// perform3OptMove rewires the route for a 3-opt move described by the three
// segments the cuts induce. The longest segment is left untouched; the other
// two are reversed as flagged and rotated into place when the kept segment
// itself carried the reversal.
//
// Symmetric instances only: segment reversal flips edge directions.
func perform3OptMove(route []uint32, s0, s1, s2 segment) {
	// Longest first; it stays unchanged.
	if s0.size() < s1.size() {
		s0, s1 = s1, s0
	}
	if s0.size() < s2.size() {
		s0, s2 = s2, s0
	}
	if s1.size() < s2.size() {
		s1, s2 = s2, s1
	}
	must(s0.size() >= s1.size() && s1.size() >= s2.size(), "segments should be sorted")

	swapNeeded := false

	// Instead of reversing the longest segment, reverse the other two and
	// swap them afterwards; the cyclic result is the same.
	if s0.reversed {
		s1.reverse()
		s2.reverse()
		swapNeeded = true
	}
	if s1.reversed {
		s1.reverse()
		reverseWrapped(route, s1.first, s1.size())
	}
	if s2.reversed {
		s2.reverse()
		reverseWrapped(route, s2.first, s2.size())
	}
	if !swapNeeded {
		return
	}

	switch {
	case s1.id == 2 && s2.id == 1: // order 0 2 1, both segments linear
		rotateLinear(route, s2.first, s1.first, s1.last+1)
	case s1.id == 1 && s2.id == 2: // order 0 1 2, both segments linear
		rotateLinear(route, s1.first, s2.first, s2.last+1)
	default:
		var (
			left   = 0
			middle = 0
			window = s1.size() + s2.size()
		)
		if (s1.id == 0 && s2.id == 2) || (s1.id == 1 && s2.id == 0) {
			left = s2.first
			middle = s2.size()
		} else if (s1.id == 2 && s2.id == 0) || (s1.id == 0 && s2.id == 1) {
			left = s1.first
			middle = s1.size()
		}
		rotateWrapped(route, left, middle, window)
	}
}

// The four non-2-opt reconnection patterns of a (i<j<k) cut. Each pattern
// names the three new edges it creates (as index pairs into the boundary
// vertices x, x1, y, y1, z, z1) and which of the three segments must be
// reversed to realize it.
var threeOptReversals = [4][3]bool{
	{false, true, true},
	{true, true, true},
	{true, true, false},
	{true, false, true},
}

// patternEdges fills edges with the three (from, to) vertex pairs of the
// l-th reconnection pattern.
func patternEdges(l int, x, x1, y, y1, z, z1 uint32) [3][2]uint32 {
	switch l {
	case 0:
		return [3][2]uint32{{y, x}, {z1, y1}, {z, x1}}
	case 1:
		return [3][2]uint32{{y, z1}, {x, y1}, {z, x1}}
	case 2:
		return [3][2]uint32{{y, z1}, {x, z}, {y1, x1}}
	default:
		return [3][2]uint32{{y, z}, {y1, x}, {z1, x1}}
	}
}

// ThreeOpt runs first-improvement 3-opt over all position triples of the
// route, restarting the scan after every applied move. Don't-look bits skip
// nodes whose whole neighborhood yielded nothing last time.
//
// The depot can drift during segment moves; the route is rotated back so it
// ends up at index 0. Returns the travel improvement (≥ 0); the solution's
// cached totals are updated.
func ThreeOpt(inst *tpp.Instance, sol *tpp.Solution, useDontLookBits bool) int {
	must(inst.IsSymmetric, "symmetric instance expected")

	var (
		route         = sol.Route
		routeLen      = len(route)
		oldTravelCost = inst.CalcTravelCost(route)
		dontLook      = make([]bool, inst.Dimension)
	)

	for improved := true; improved; {
		improved = false

	scan:
		for i := 0; i < routeLen-2; i++ {
			if dontLook[route[i]] {
				continue
			}
			for j := i + 1; j < routeLen-1; j++ {
				for k := j + 1; k < routeLen; k++ {
					k1 := (k + 1) % routeLen
					var (
						atI  = route[i]
						atI1 = route[i+1]
						atJ  = route[j]
						atJ1 = route[j+1]
						atK  = route[k]
						atK1 = route[k1]
					)
					curr := inst.TravelCost(int(atI), int(atI1)) +
						inst.TravelCost(int(atJ), int(atJ1)) +
						inst.TravelCost(int(atK), int(atK1))

					segs := [3]segment{
						{first: k1, last: i, routeLen: routeLen, id: 0},
						{first: i + 1, last: j, routeLen: routeLen, id: 1},
						{first: j + 1, last: k, routeLen: routeLen, id: 2},
					}
					for l := 0; l < 4; l++ {
						edges := patternEdges(l, atI, atI1, atJ, atJ1, atK, atK1)
						cost := inst.TravelCost(int(edges[0][0]), int(edges[0][1])) +
							inst.TravelCost(int(edges[1][0]), int(edges[1][1])) +
							inst.TravelCost(int(edges[2][0]), int(edges[2][1]))
						if cost >= curr {
							continue
						}

						for s := 0; s < 3; s++ {
							if threeOptReversals[l][s] {
								segs[s].reverse()
							}
						}
						for _, edge := range edges {
							dontLook[edge[0]] = false
							dontLook[edge[1]] = false
						}
						perform3OptMove(route, segs[0], segs[1], segs[2])
						improved = true
						break scan
					}
				}
			}
			if useDontLookBits {
				dontLook[route[i]] = true
			}
		}
	}

	return finishThreeOpt(inst, sol, oldTravelCost)
}

// ThreeOptNN is the neighbor-list-restricted 3-opt actually used by the
// search: inner scan positions come from each node's first nnCount nearest
// neighbors. When a candidate pair already yields a profitable 2-opt move
// that move is applied instead of descending to the third level.
func ThreeOptNN(inst *tpp.Instance, sol *tpp.Solution, useDontLookBits bool, nnCount int) int {
	must(inst.IsSymmetric, "symmetric instance expected")

	var (
		route         = sol.Route
		routeLen      = len(route)
		oldTravelCost = inst.CalcTravelCost(route)
		dontLook      = make([]bool, inst.Dimension)
		posInRoute    = make([]int, inst.Dimension)
	)

	for improved := true; improved; {
		improved = false

		for p := range posInRoute {
			posInRoute[p] = routeLen // marks "not in route"
		}
		for i, node := range route {
			posInRoute[node] = i
		}

	scan:
		for i := 0; i < routeLen; i++ {
			if dontLook[route[i]] {
				continue
			}
			var (
				atI     = route[i]
				iNNList = inst.NNLists[atI]
				iNNLen  = min(nnCount, len(iNNList))
			)
			for iNNIdx := 0; iNNIdx < iNNLen; iNNIdx++ {
				atJ := iNNList[iNNIdx]
				j := posInRoute[atJ]
				if j == routeLen { // not in route
					continue
				}

				// A profitable 2-opt move on this pair takes priority.
				var (
					i1   = (i + 1) % routeLen
					j1   = (j + 1) % routeLen
					atI1 = route[i1]
					atJ1 = route[j1]
				)
				change2opt := inst.TravelCost(int(atI), int(atI1)) +
					inst.TravelCost(int(atJ), int(atJ1)) -
					inst.TravelCost(int(atI), int(atJ)) -
					inst.TravelCost(int(atI1), int(atJ1))
				if change2opt > 0 {
					perform2OptMove(route, i, j)
					dontLook[atI] = false
					dontLook[atI1] = false
					dontLook[atJ] = false
					dontLook[atJ1] = false
					improved = true
					break scan
				}

				var (
					jNNList = inst.NNLists[atJ]
					jNNLen  = min(nnCount, len(jNNList))
				)
				must(atI != atJ, "neighbor list should not contain the node itself")

				for jNNIdx := 0; jNNIdx < jNNLen; jNNIdx++ {
					atK := jNNList[jNNIdx]
					k := posInRoute[atK]
					if k == routeLen || k == i { // need three distinct nodes
						continue
					}

					x, y, z := i, j, k
					atX, atY, atZ := atI, atJ, atK
					if x > y {
						x, y = y, x
						atX, atY = atY, atX
					}
					if x > z {
						x, z = z, x
						atX, atZ = atZ, atX
					}
					if y > z {
						y, z = z, y
						atY, atZ = atZ, atY
					}

					var (
						x1   = (x + 1) % routeLen
						y1   = (y + 1) % routeLen
						z1   = (z + 1) % routeLen
						atX1 = route[x1]
						atY1 = route[y1]
						atZ1 = route[z1]
					)
					curr := inst.TravelCost(int(atX), int(atX1)) +
						inst.TravelCost(int(atY), int(atY1)) +
						inst.TravelCost(int(atZ), int(atZ1))

					segs := [3]segment{
						{first: z1, last: x, routeLen: routeLen, id: 0},
						{first: x1, last: y, routeLen: routeLen, id: 1},
						{first: y1, last: z, routeLen: routeLen, id: 2},
					}
					for l := 0; l < 4; l++ {
						edges := patternEdges(l, atX, atX1, atY, atY1, atZ, atZ1)
						cost := inst.TravelCost(int(edges[0][0]), int(edges[0][1])) +
							inst.TravelCost(int(edges[1][0]), int(edges[1][1])) +
							inst.TravelCost(int(edges[2][0]), int(edges[2][1]))
						if cost >= curr {
							continue
						}

						for s := 0; s < 3; s++ {
							if threeOptReversals[l][s] {
								segs[s].reverse()
							}
						}
						for _, edge := range edges {
							dontLook[edge[0]] = false
							dontLook[edge[1]] = false
						}
						perform3OptMove(route, segs[0], segs[1], segs[2])
						improved = true
						break scan
					}
				}
			}
			if useDontLookBits {
				dontLook[route[i]] = true
			}
		}
	}

	return finishThreeOpt(inst, sol, oldTravelCost)
}

// finishThreeOpt rotates the depot back to route position 0, folds the
// travel delta into the cached totals and returns the improvement.
func finishThreeOpt(inst *tpp.Instance, sol *tpp.Solution, oldTravelCost int) int {
	route := sol.Route
	for pos, node := range route {
		if node == 0 {
			if pos != 0 {
				rotateLinear(route, 0, pos, len(route))
			}
			break
		}
	}
	newTravelCost := inst.CalcTravelCost(route)
	delta := newTravelCost - oldTravelCost
	must(delta <= 0, "travel cost should not grow, delta %d", delta)
	sol.Cost += delta
	sol.TravelCost += delta
	return -delta
}
