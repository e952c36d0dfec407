package aco

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/RSkinderowicz/MMAS-for-UTPP/cah"
	"github.com/RSkinderowicz/MMAS-for-UTPP/localsearch"
	"github.com/RSkinderowicz/MMAS-for-UTPP/rng"
	"github.com/RSkinderowicz/MMAS-for-UTPP/tpp"
)

// Tuning constants of the stagnation detector and the local-search gate.
const (
	// branchingLambda is the λ of the node branching factor: a trail counts
	// as "active" when it exceeds min + λ(max − min) within a node's
	// candidate list.
	branchingLambda = 0.05

	// branchingThreshold is the stagnation limit; a colony whose average
	// branching factor falls below it has converged onto a single path.
	branchingThreshold = 1.00001

	// branchingCheckPeriod is how often (in iterations) the factor is
	// sampled.
	branchingCheckPeriod = 100

	// restartGuard blocks a pheromone reset while the restart best is
	// younger than this many iterations.
	restartGuard = 250

	// localSearchWarmup is the number of initial iterations that run
	// without local search, gathering the raw-cost track the gate uses.
	localSearchWarmup = 200

	// noLSTrackWindow selects the gate threshold: the cost of this many
	// entries back in the raw-best track.
	noLSTrackWindow = 5
)

// Colony is the MMAS engine. Create it with NewColony, adjust the public
// parameters if needed, then call Run.
type Colony struct {
	instance *tpp.Instance
	logger   *zap.Logger
	engine   *rng.Engine

	// Parameters; the defaults follow the published configuration.
	AntsCount       int
	EvaporationRate float64
	CandListSize    int
	UseLocalSearch  bool

	// NewBestFound, when set, is invoked synchronously each time the global
	// best solution improves.
	NewBestFound func(*Colony)

	pheromone *Pheromone
	ants      []*Ant

	// GlobalBest is the best feasible ant found so far (a private copy).
	GlobalBest *Ant
	// RestartBest is the best ant since the last pheromone reset.
	RestartBest *Ant

	iterationBest *Ant

	initialPheromone float64
	minPheromone     float64
	maxPheromone     float64

	greedySolutionValue int

	globalBestCostNoLS   int
	globalBestValuesNoLS []int

	CurrentIteration          int
	restartBestFoundIteration int
	pheromoneResetIteration   int
	uGB                       int

	// heuristic[m][p] is the purchase-share statistic; the extra column
	// heuristic[m][ProductCount] caches the row sum.
	heuristic [][]float64

	// candValues is roulette scratch space reused across moves.
	candValues []float64
}

// NewColony returns an engine with the default parameters. A nil logger is
// replaced by a no-op one; a nil engine falls back to the process-wide one.
func NewColony(inst *tpp.Instance, logger *zap.Logger, engine *rng.Engine) *Colony {
	if logger == nil {
		logger = zap.NewNop()
	}
	if engine == nil {
		engine = rng.Default()
	}
	return &Colony{
		instance:        inst,
		logger:          logger,
		engine:          engine,
		AntsCount:       20,
		EvaporationRate: 0.99,
		CandListSize:    25,
		UseLocalSearch:  true,
		uGB:             25,
	}
}

// Instance returns the problem the colony searches on.
func (c *Colony) Instance() *tpp.Instance { return c.instance }

// Run executes the search until the stop condition is reached. The running
// iteration always completes; the condition is polled between iterations.
func (c *Colony) Run(stop StopCondition) {
	stop.Start()

	c.runInit()

	for ; !stop.IsReached(); stop.NextIteration() {
		c.buildAntSolutions()

		c.iterationBest = c.cheapestAnt()

		// Track the best construction-only cost; the local-search gate
		// reads this history.
		if cost := c.iterationBest.Cost(); c.globalBestCostNoLS == 0 || cost < c.globalBestCostNoLS {
			c.globalBestCostNoLS = cost
			c.globalBestValuesNoLS = append(c.globalBestValuesNoLS, cost)
		}

		c.applyLocalSearch()

		c.iterationBest = c.cheapestAnt()

		if c.GlobalBest == nil || c.GlobalBest.Cost() > c.iterationBest.Cost() {
			c.GlobalBest = c.iterationBest.Clone()
			if c.NewBestFound != nil {
				c.NewBestFound(c)
			}
		}
		if c.RestartBest == nil || c.RestartBest.Cost() > c.iterationBest.Cost() {
			c.RestartBest = c.iterationBest.Clone()
			c.restartBestFoundIteration = c.CurrentIteration
		}

		// Refresh the MMAS band from the global best, then evaporate.
		bestCost := c.GlobalBest.Cost()
		c.maxPheromone = 1.0 / (float64(bestCost) * c.EvaporationRate)
		c.minPheromone = c.maxPheromone / (2 * float64(c.instance.Dimension))

		c.pheromone.SetTrailLimits(c.minPheromone, c.maxPheromone)
		c.pheromone.Evaporate(c.EvaporationRate)

		updateAnt := c.selectDepositAnt()

		deposit := 1.0 / float64(updateAnt.Cost())
		route := updateAnt.Solution.Route
		prev := route[len(route)-1]
		for _, market := range route {
			c.pheromone.Increase(prev, market, deposit)
			prev = market
		}

		if (c.CurrentIteration+1)%branchingCheckPeriod == 0 {
			factor := NodeBranching(branchingLambda, c.CandListSize, c.pheromone, c.instance)

			c.logger.Info("branching factor sampled",
				zap.Float64("factor", factor),
				zap.Int("iteration", c.CurrentIteration))

			if c.CurrentIteration-c.restartBestFoundIteration > restartGuard &&
				factor < branchingThreshold {

				c.logger.Warn("stagnation detected, resetting pheromone",
					zap.Int("iteration", c.CurrentIteration))

				c.pheromone.SetAllTrails(c.maxPheromone)
				c.RestartBest = nil
				c.pheromoneResetIteration = c.CurrentIteration

				c.globalBestCostNoLS = math.MaxInt
				c.globalBestValuesNoLS = c.globalBestValuesNoLS[:0]
			}
		}
		c.CurrentIteration++
		c.updateUGB()
	}

	if c.GlobalBest != nil {
		c.logger.Info("search finished",
			zap.Int("best_cost", c.GlobalBest.Cost()),
			zap.Int("iterations", c.CurrentIteration))
	}
}

// runInit resets the run state, seeds the pheromone level from a greedy
// construction and estimates the heuristic table.
func (c *Colony) runInit() {
	c.GlobalBest = nil
	c.globalBestCostNoLS = 0
	c.globalBestValuesNoLS = c.globalBestValuesNoLS[:0]

	c.RestartBest = nil
	c.restartBestFoundIteration = 0

	if c.initialPheromone == 0 {
		c.calcInitialPheromone()
	}

	c.pheromone = NewPheromone(c.instance.Dimension, c.instance.IsSymmetric,
		c.minPheromone, c.maxPheromone)

	c.initHeuristicInfo()

	c.CurrentIteration = 0
}

// calcInitialPheromone derives the MMAS band from the cost of one
// commodity-adding construction.
func (c *Colony) calcInitialPheromone() {
	if c.greedySolutionValue == 0 {
		sol := cah.Build(c.instance, c.engine)
		c.greedySolutionValue = sol.Cost
	}
	c.maxPheromone = 1.0 / (float64(c.greedySolutionValue) * c.EvaporationRate)
	c.minPheromone = c.maxPheromone / (2 * float64(c.instance.Dimension))
	c.initialPheromone = c.maxPheromone

	c.logger.Info("initial pheromone band",
		zap.Float64("max", c.maxPheromone),
		zap.Float64("min", c.minPheromone))
}

// cheapestAnt returns the first ant with the lowest cost.
func (c *Colony) cheapestAnt() *Ant {
	best := c.ants[0]
	for _, ant := range c.ants[1:] {
		if ant.Cost() < best.Cost() {
			best = ant
		}
	}
	return best
}

// selectDepositAnt picks the pheromone deposit source per the u_gb
// schedule: most iterations reinforce the iteration best; every u_gb-th
// iteration the restart best, switching to the global best only deep into
// a restart period.
func (c *Colony) selectDepositAnt() *Ant {
	if c.CurrentIteration%c.uGB != 0 {
		return c.iterationBest
	}
	if c.uGB == 1 && c.CurrentIteration-c.restartBestFoundIteration > 50 {
		return c.GlobalBest
	}
	return c.RestartBest
}

// buildAntSolutions constructs a fresh colony and moves every ant in
// lockstep until all routes are complete, then sheds redundant markets.
func (c *Colony) buildAntSolutions() {
	c.ants = c.ants[:0]
	for i := 0; i < c.AntsCount; i++ {
		ant := NewAnt(c.instance, c.engine)
		ant.ID = i
		c.ants = append(c.ants, ant)
	}

	for i := 1; i < c.instance.Dimension; i++ {
		for _, ant := range c.ants {
			c.moveAnt(ant)
		}
	}
	for _, ant := range c.ants {
		if !ant.Solution.IsValid() {
			panic("aco: ant solution should be valid after construction")
		}
		if recomputed := tpp.CalcSolutionCost(c.instance, ant.Solution.Route); recomputed != ant.Solution.Cost {
			panic(fmt.Sprintf("aco: incremental cost %d != recomputed %d",
				ant.Solution.Cost, recomputed))
		}
		localsearch.Drop(c.instance, ant.Solution)
	}
}

// moveAnt performs one construction step. Feasible ants keep extending only
// with the oversize probability; otherwise a roulette over the candidate
// attractiveness picks the next market.
func (c *Colony) moveAnt(ant *Ant) {
	if ant.Solution.IsValid() {
		var (
			delta  = int(math.Round(float64(ant.LengthWhenValid) * ant.Oversize))
			trials = c.instance.Dimension - ant.LengthWhenValid
		)
		if delta == 0 || trials <= 0 {
			return
		}
		if p := float64(delta) / float64(trials); c.engine.Float64() > p {
			return
		}
	}
	cand := ant.CandidateMarkets(c.CandListSize)
	if len(cand) == 0 {
		panic("aco: at least one market should be unvisited")
	}

	c.candValues = c.candValues[:0]
	total := 0.0
	for _, m := range cand {
		v := c.calcAttractiveness(ant, m)
		c.candValues = append(c.candValues, v)
		total += v
	}

	var (
		threshold  = c.engine.Float64() * total
		partialSum = 0.0
		chosen     = cand[len(cand)-1]
	)
	for i, v := range c.candValues {
		partialSum += v
		if partialSum >= threshold {
			chosen = cand[i]
			break
		}
	}
	ant.MoveTo(chosen)
}

// calcAttractiveness scores a candidate move as
// τ^affinity · (1/d)^laziness · H^avidity, where H is the candidate
// market's purchase-share row sum (floored away from zero so the product
// never collapses).
func (c *Colony) calcAttractiveness(ant *Ant, toMarket uint32) float64 {
	fromMarket := ant.Position()

	trail := c.pheromone.Trail(fromMarket, toMarket)
	product := math.Pow(trail, ant.Affinity)

	travelCost := c.instance.TravelCost(int(fromMarket), int(toMarket))
	product *= math.Pow(1.0/float64(travelCost), ant.Laziness)

	h := c.heuristic[toMarket][c.instance.ProductCount]
	product *= math.Pow(math.Max(1e-10, h), ant.Avidity)

	return product
}

// applyLocalSearch runs the battery on the ants whose construction cost is
// competitive with the recent raw-cost history. The first warmup iterations
// run without local search; right at the warmup boundary all trails are
// reset to τ_max for a fresh, exploration-friendly start.
func (c *Colony) applyLocalSearch() {
	if c.CurrentIteration == localSearchWarmup {
		c.pheromone.SetAllTrails(c.maxPheromone)
	}
	if !c.UseLocalSearch || c.CurrentIteration < localSearchWarmup {
		return
	}
	trackSize := len(c.globalBestValuesNoLS)
	if trackSize == 0 {
		return
	}
	threshold := c.globalBestValuesNoLS[trackSize-min(trackSize, noLSTrackWindow)]

	globalBestCost := math.MaxInt
	if c.GlobalBest != nil {
		globalBestCost = c.GlobalBest.Cost()
	}
	for _, ant := range c.ants {
		if ant.Cost() <= threshold {
			localsearch.Battery(c.instance, ant.Solution, globalBestCost)
		}
	}
}

// updateUGB implements the u_gb schedule from Stuetzle's MMAS work: the
// longer the restart best has been stable, the more often the deposits come
// from the elite solutions. Without local search the schedule stays at its
// most explorative setting.
func (c *Colony) updateUGB() {
	if !c.UseLocalSearch {
		c.uGB = 25
		return
	}
	delta := c.CurrentIteration - c.restartBestFoundIteration
	switch {
	case delta < 25:
		c.uGB = 25
	case delta < 75:
		c.uGB = 5
	case delta < 125:
		c.uGB = 3
	case delta < 250:
		c.uGB = 2
	default:
		c.uGB = 1
	}
}

// NodeBranching computes the average node λ-branching factor over each
// node's first candListSize nearest neighbors, normalized by 2 (each edge
// is seen from both endpoints on symmetric instances).
//
// Based on the ACOTSP software by T. Stuetzle, available at
// http://www.aco-metaheuristic.org/aco-code/public-software.html.
func NodeBranching(lambda float64, candListSize int, ph *Pheromone, inst *tpp.Instance) float64 {
	var (
		n        = inst.Dimension
		branches = 0
	)
	for m := 0; m < n; m++ {
		var (
			nnList = inst.NNLists[m]
			nnLen  = min(candListSize, len(nnList))
			lo     = ph.Trail(uint32(m), nnList[0])
			hi     = lo
		)
		for i := 1; i < nnLen; i++ {
			trail := ph.Trail(uint32(m), nnList[i])
			if trail > hi {
				hi = trail
			}
			if trail < lo {
				lo = trail
			}
		}
		cutoff := lo + lambda*(hi-lo)

		for i := 0; i < nnLen; i++ {
			if ph.Trail(uint32(m), nnList[i]) > cutoff {
				branches++
			}
		}
	}
	return float64(branches) / float64(n*2)
}
