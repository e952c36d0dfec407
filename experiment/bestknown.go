// Package experiment handles everything around a solver run that is not the
// search itself: the best-known-solution lookup, per-trial bookkeeping, and
// the JSON result files.
package experiment

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// defaultBestKnownFile is where the best-known-solution database is looked
// for, relative to the working directory.
const defaultBestKnownFile = "best-known.js"

// SolutionInfo is one entry of the best-known database.
type SolutionInfo struct {
	Cost         int
	MarketsCount int
}

// bestKnownEntry mirrors the database's JSON objects.
type bestKnownEntry struct {
	Name        string `json:"name"`
	BestCost    int    `json:"best_cost"`
	BestMarkets int    `json:"best_markets"`
}

// BestKnown looks up the best known solution for the instance at
// instancePath, matching by the trailing file name component. A missing
// database or entry is not an error; the zero SolutionInfo is returned and
// found is false so the caller can warn.
func BestKnown(instancePath string) (info SolutionInfo, found bool) {
	return bestKnownFrom(defaultBestKnownFile, instancePath)
}

func bestKnownFrom(dbPath, instancePath string) (SolutionInfo, bool) {
	data, err := os.ReadFile(dbPath)
	if err != nil {
		return SolutionInfo{}, false
	}
	var entries []bestKnownEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return SolutionInfo{}, false
	}

	filename := filepath.Base(instancePath)
	for _, entry := range entries {
		if entry.Name == filename {
			return SolutionInfo{
				Cost:         entry.BestCost,
				MarketsCount: entry.BestMarkets,
			}, true
		}
	}
	return SolutionInfo{}, false
}
