package experiment

import (
	"time"

	"go.uber.org/zap"

	"github.com/RSkinderowicz/MMAS-for-UTPP/aco"
	"github.com/RSkinderowicz/MMAS-for-UTPP/cah"
	"github.com/RSkinderowicz/MMAS-for-UTPP/rng"
	"github.com/RSkinderowicz/MMAS-for-UTPP/tpp"
)

// RunACOTrial executes one ACO trial, recording every global-best
// improvement with its iteration, wall-clock offset and relative error.
func RunACOTrial(colony *aco.Colony, stop aco.StopCondition,
	logger *zap.Logger) TrialRecord {

	var (
		record TrialRecord
		start  = time.Now()
	)
	colony.NewBestFound = func(c *aco.Colony) {
		if c.GlobalBest == nil {
			return
		}
		elapsed := time.Since(start).Seconds()
		relError := c.GlobalBest.Solution.RelativeError() * 100

		record.BestSolutionsCostLog = append(record.BestSolutionsCostLog, c.GlobalBest.Cost())
		record.BestSolutionsIterationLog = append(record.BestSolutionsIterationLog, c.CurrentIteration)
		record.BestSolutionsTimeLog = append(record.BestSolutionsTimeLog, elapsed)
		record.BestSolutionsErrorLog = append(record.BestSolutionsErrorLog, relError)

		logger.Warn("new global best",
			zap.Int("cost", c.GlobalBest.Cost()),
			zap.Float64("error_pct", relError),
			zap.Int("best_known", c.Instance().BestKnownCost),
			zap.Int("iteration", c.CurrentIteration))
	}

	colony.Run(stop)

	record.Duration = time.Since(start).Seconds()
	record.TotalIterations = colony.CurrentIteration

	if colony.GlobalBest != nil {
		logger.Info("best route",
			zap.Uint32s("route", colony.GlobalBest.Solution.Route))
	}
	return record
}

// RunCAHTrial repeats the commodity adding construction until the stop
// condition fires and returns the best solution seen plus the trial record.
func RunCAHTrial(inst *tpp.Instance, stop aco.StopCondition,
	engine *rng.Engine, logger *zap.Logger) (*tpp.Solution, TrialRecord) {

	var (
		best   *tpp.Solution
		record TrialRecord
		start  = time.Now()
	)
	stop.Start()

	for ; !stop.IsReached(); stop.NextIteration() {
		sol := cah.Build(inst, engine)

		if best == nil || best.Cost > sol.Cost {
			best = sol

			relError := best.RelativeError() * 100
			record.BestSolutionsCostLog = append(record.BestSolutionsCostLog, best.Cost)
			record.BestSolutionsIterationLog = append(record.BestSolutionsIterationLog, stop.Iteration())
			record.BestSolutionsTimeLog = append(record.BestSolutionsTimeLog, time.Since(start).Seconds())
			record.BestSolutionsErrorLog = append(record.BestSolutionsErrorLog, relError)

			logger.Warn("new global best",
				zap.Int("cost", best.Cost),
				zap.Float64("error_pct", relError),
				zap.Int("best_known", inst.BestKnownCost),
				zap.Int("iteration", stop.Iteration()))
		}
	}

	record.Duration = time.Since(start).Seconds()
	record.TotalIterations = stop.Iteration()

	if best != nil {
		logger.Warn("final solution", zap.Int("cost", best.Cost))
	}
	return best, record
}
