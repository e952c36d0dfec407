package experiment

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// TrialRecord captures one trial of an experiment: its duration and the log
// of global-best improvements as they happened.
type TrialRecord struct {
	Duration        float64 `json:"duration"`
	TotalIterations int     `json:"total_iterations"`

	BestSolutionsCostLog      []int     `json:"best_solutions_cost_log"`
	BestSolutionsIterationLog []int     `json:"best_solutions_iteration_log"`
	BestSolutionsTimeLog      []float64 `json:"best_solutions_time_log"`
	BestSolutionsErrorLog     []float64 `json:"best_solutions_error_log"`
}

// ACOParameters echoes the engine configuration into the result file.
type ACOParameters struct {
	Ants               int     `json:"ants"`
	EvaporationRate    float64 `json:"evaporation_rate"`
	CandListSize       int     `json:"cand_list_size"`
	LocalSearchEnabled bool    `json:"local_search_enabled"`
}

// Record is the top-level result document written after all trials.
type Record struct {
	ExperimentID         string `json:"experiment_id"`
	TrialsCount          int    `json:"trials_count"`
	InstancePath         string `json:"instance_path"`
	InstanceName         string `json:"instance_name"`
	InstanceDimension    int    `json:"instance_dimension"`
	InstanceProductCount int    `json:"instance_product_count"`
	BestKnownCost        int    `json:"best_known_cost"`
	RNGSeed              uint32 `json:"rng_seed"`

	// Exactly one of the two limits is present, depending on the chosen
	// stop condition.
	MaxIterations *int     `json:"max_iterations,omitempty"`
	Timeout       *float64 `json:"timeout,omitempty"`

	ACOParameters *ACOParameters `json:"aco_parameters,omitempty"`

	Trials []TrialRecord `json:"trials"`

	BestFoundCost         int      `json:"best_found_cost"`
	BestFoundError        float64  `json:"best_found_error"`
	BestFoundSolution     []uint32 `json:"best_found_solution"`
	MeanBestSolutionCost  float64  `json:"mean_best_solution_cost"`
	MeanBestSolutionError float64  `json:"mean_best_solution_error"`
}

// ResultFileName builds the result file name from a label (usually the
// instance name), the local time and the process id, e.g.
// "results_pr76_2006-3-14__15:9:2_4231.js".
func ResultFileName(label string, now time.Time) string {
	return fmt.Sprintf("results_%s_%d-%d-%d__%d:%d:%d_%d.js",
		label,
		now.Year(), int(now.Month()), now.Day(),
		now.Hour(), now.Minute(), now.Second(),
		os.Getpid())
}

// Write stores the record as indented JSON under outdir, creating the
// directory tree when needed, and returns the file path.
func Write(outdir string, rec *Record) (string, error) {
	if err := os.MkdirAll(outdir, 0o755); err != nil {
		return "", fmt.Errorf("experiment: creating %s: %w", outdir, err)
	}
	path := filepath.Join(outdir, ResultFileName(rec.InstanceName, time.Now()))

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("experiment: encoding results: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("experiment: writing %s: %w", path, err)
	}
	return path, nil
}
