// Command ants-tpp runs the MMAS / CAH solvers on a TPPLIB instance and
// stores the results of the experiment as a JSON document.
package main

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/RSkinderowicz/MMAS-for-UTPP/aco"
	"github.com/RSkinderowicz/MMAS-for-UTPP/experiment"
	"github.com/RSkinderowicz/MMAS-for-UTPP/rng"
	"github.com/RSkinderowicz/MMAS-for-UTPP/tpp"
	"github.com/RSkinderowicz/MMAS-for-UTPP/vecmath"
)

const version = "AntsTPP 0.1 by Rafal Skinderowicz"

func main() {
	os.Exit(run())
}

func run() int {
	flags := pflag.NewFlagSet("ants-tpp", pflag.ContinueOnError)
	flags.String("instance", "", "path to the instance file")
	flags.Int("trials", 1, "how many trials to do")
	flags.Int("iterations", 1000, "max number of iterations to perform")
	flags.Float64("timeout", 0, "timeout in seconds (overrides --iterations)")
	flags.String("id", "default", "identifier of the experiment the run belongs to")
	flags.String("outdir", ".", "directory where to store files with results")
	flags.String("alg", "aco", "algorithm to run: aco|cah")
	flags.Uint32("seed", 0, "initial seed for the pseudo-random generator; 0 means current time")
	flags.String("verbosity", "WARNING", "log level: INFO|WARNING|ERROR")
	showVersion := flags.Bool("version", false, "show version")

	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if *showVersion {
		fmt.Println(version)
		return 0
	}

	cfg := viper.New()
	if err := cfg.BindPFlags(flags); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	logger, err := newLogger(cfg.GetString("verbosity"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	defer logger.Sync() //nolint:errcheck

	if seed := cfg.GetUint32("seed"); seed != 0 {
		rng.SetInitialSeed(seed)
	}

	instancePath := cfg.GetString("instance")
	if instancePath == "" {
		logger.Warn("no --instance given; nothing to do")
		return 0
	}

	inst, err := tpp.LoadFromFile(instancePath)
	if err != nil {
		logger.Error("cannot load instance", zap.String("path", instancePath), zap.Error(err))
		return 1
	}
	if inst.IsCapacitated {
		logger.Error("uncapacitated TPP instance required", zap.String("path", instancePath))
		return 1
	}

	bestKnown, found := experiment.BestKnown(instancePath)
	if !found {
		logger.Warn("no best known solution info for the instance",
			zap.String("path", instancePath))
	}
	inst.BestKnownCost = bestKnown.Cost

	alg := cfg.GetString("alg")
	if alg != "aco" && alg != "cah" {
		logger.Error("unknown algorithm", zap.String("alg", alg))
		return 2
	}

	var (
		trials  = cfg.GetInt("trials")
		timeout = cfg.GetFloat64("timeout")
		record  = experiment.Record{
			ExperimentID:         cfg.GetString("id"),
			TrialsCount:          trials,
			InstancePath:         instancePath,
			InstanceName:         inst.Name,
			InstanceDimension:    inst.Dimension,
			InstanceProductCount: inst.ProductCount,
			BestKnownCost:        inst.BestKnownCost,
			RNGSeed:              rng.InitialSeed(),
		}
		newStop func() aco.StopCondition
	)
	if flags.Changed("timeout") {
		record.Timeout = &timeout
		newStop = func() aco.StopCondition {
			return aco.NewTimeout(secondsToDuration(timeout))
		}
	} else {
		iterations := cfg.GetInt("iterations")
		record.MaxIterations = &iterations
		newStop = func() aco.StopCondition {
			return aco.NewFixedIterations(iterations)
		}
	}

	var (
		bestFoundCost  = math.MaxInt
		bestFoundError = -1.0
		bestFoundRoute []uint32
		trialsCost     []float64
		trialsError    []float64
	)

trialLoop:
	for trial := 0; trial < trials; trial++ {
		switch alg {
		case "aco":
			colony := aco.NewColony(inst, logger, rng.Default())
			trialRecord := experiment.RunACOTrial(colony, newStop(), logger)
			record.Trials = append(record.Trials, trialRecord)

			if colony.GlobalBest == nil {
				break trialLoop
			}
			best := colony.GlobalBest
			if best.Cost() < bestFoundCost {
				bestFoundCost = best.Cost()
				bestFoundRoute = append([]uint32(nil), best.Solution.Route...)
				bestFoundError = best.Solution.RelativeError()
			}
			trialsCost = append(trialsCost, float64(best.Cost()))
			trialsError = append(trialsError, best.Solution.RelativeError())

			record.ACOParameters = &experiment.ACOParameters{
				Ants:               colony.AntsCount,
				EvaporationRate:    colony.EvaporationRate,
				CandListSize:       colony.CandListSize,
				LocalSearchEnabled: colony.UseLocalSearch,
			}

		case "cah":
			best, trialRecord := experiment.RunCAHTrial(inst, newStop(), rng.Default(), logger)
			record.Trials = append(record.Trials, trialRecord)

			if best == nil {
				break trialLoop
			}
			if best.Cost < bestFoundCost {
				bestFoundCost = best.Cost
				bestFoundRoute = append([]uint32(nil), best.Route...)
				bestFoundError = best.RelativeError()
			}
			trialsCost = append(trialsCost, float64(best.Cost))
			trialsError = append(trialsError, best.RelativeError())
		}
	}

	record.BestFoundCost = bestFoundCost
	record.BestFoundError = bestFoundError
	record.BestFoundSolution = bestFoundRoute
	record.MeanBestSolutionCost = vecmath.Mean(trialsCost)
	record.MeanBestSolutionError = vecmath.Mean(trialsError)

	path, err := experiment.Write(cfg.GetString("outdir"), &record)
	if err != nil {
		logger.Error("cannot write results", zap.Error(err))
		return 1
	}
	logger.Warn("saved results", zap.String("path", path))
	return 0
}

// newLogger builds a console logger at the requested verbosity.
func newLogger(verbosity string) (*zap.Logger, error) {
	var level zapcore.Level
	switch strings.ToUpper(verbosity) {
	case "INFO":
		level = zapcore.InfoLevel
	case "WARNING":
		level = zapcore.WarnLevel
	case "ERROR":
		level = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("unknown verbosity level: %s", verbosity)
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	return cfg.Build()
}

// secondsToDuration converts a fractional seconds count to a Duration.
func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
