package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/sugawarayuuta/sonnet"

	"nanoalloy/internal/model"
)

const runIndexFile = "run_index.json"

// RunConfig records the knobs of one sweep for reproduction.
type RunConfig struct {
	RunID       string  `json:"run_id"`
	Metal1      string  `json:"metal1"`
	Metal2      string  `json:"metal2"`
	Shape       string  `json:"shape"`
	MinShells   int     `json:"min_shells"`
	MaxShells   int     `json:"max_shells"`
	PopSize     int     `json:"pop_size"`
	Generations int     `json:"generations"`
	KillRate    float64 `json:"kill_rate"`
	MateRate    float64 `json:"mate_rate"`
	MuteRate    float64 `json:"mute_rate"`
	MuteNum     int     `json:"mute_num"`
	StdCut      float64 `json:"std_cut"`
	Seed        int64   `json:"seed"`
	CreatedAt   string  `json:"created_at_utc"`
}

// CompositionStats holds the per-generation statistics of one composition
// within a sweep.
type CompositionStats struct {
	Formula  string                  `json:"formula"`
	NumAtoms int                     `json:"num_atoms"`
	NMetal2  int                     `json:"n_metal2"`
	NewMin   bool                    `json:"new_min"`
	Stats    []model.GenerationStats `json:"stats"`
}

// RunArtifacts is everything a finished sweep writes under its run directory.
type RunArtifacts struct {
	Config  RunConfig          `json:"config"`
	Stats   []CompositionStats `json:"stats"`
	Results []model.Result     `json:"results"`
}

// RunIndexEntry is one line of the run index kept at the artifact base
// directory.
type RunIndexEntry struct {
	RunID         string `json:"run_id"`
	Metal1        string `json:"metal1"`
	Metal2        string `json:"metal2"`
	Shape         string `json:"shape"`
	NewMinStructs int    `json:"new_min_structs"`
	TotalStructs  int    `json:"total_structs"`
	CreatedAtUTC  string `json:"created_at_utc"`
}

// WriteRunArtifacts writes config.json, stats.json, and results.json under
// baseDir/<run id> and returns the run directory path.
func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Config.RunID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, artifacts.Config.RunID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, "config.json"), artifacts.Config); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "stats.json"), artifacts.Stats); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "results.json"), artifacts.Results); err != nil {
		return "", err
	}
	return runDir, nil
}

// ReadRunStats loads the per-composition statistics of a past run.
func ReadRunStats(baseDir, runID string) ([]CompositionStats, bool, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, runID, "stats.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var stats []CompositionStats
	if err := sonnet.Unmarshal(data, &stats); err != nil {
		return nil, false, err
	}
	return stats, true, nil
}

// AppendRunIndex adds (or replaces) the entry for one run in the index file.
func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// ListRunIndex returns the run index sorted newest first.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, runIndexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return []RunIndexEntry{}, nil
		}
		return nil, err
	}

	var entries []RunIndexEntry
	if err := sonnet.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAtUTC > entries[j].CreatedAtUTC
	})
	return entries, nil
}

func writeJSON(path string, value any) error {
	data, err := sonnet.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}
