package model

import "fmt"

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Result is the best-known chemical ordering for one
// (metal pair, shape, size, composition) cell. Metal1 sorts before Metal2
// alphabetically; Ordering holds one '0' (Metal1) or '1' (Metal2) per atom.
type Result struct {
	VersionedRecord
	Metal1   string  `json:"metal1"`
	Metal2   string  `json:"metal2"`
	Shape    string  `json:"shape"`
	NumAtoms int     `json:"num_atoms"`
	Diameter float64 `json:"diameter"`
	NMetal1  int     `json:"n_metal1"`
	NMetal2  int     `json:"n_metal2"`
	CE       float64 `json:"ce"`
	EE       float64 `json:"ee"`
	Ordering string  `json:"ordering"`
}

// Formula renders the conventional composition string, e.g. "Ag13Cu42".
func (r Result) Formula() string {
	return fmt.Sprintf("%s%d%s%d", r.Metal1, r.NMetal1, r.Metal2, r.NMetal2)
}

// Nanoparticle is a stored atomic skeleton: shape, size, and bond topology.
// Positions are optional; bond indices refer to atoms numbered from 0.
type Nanoparticle struct {
	VersionedRecord
	Shape     string       `json:"shape"`
	NumShells int          `json:"num_shells"`
	NumAtoms  int          `json:"num_atoms"`
	Diameter  float64      `json:"diameter"`
	Bonds     [][2]int     `json:"bonds"`
	Positions [][3]float64 `json:"positions,omitempty"`
}

// RunLog records one completed sweep over sizes and compositions.
type RunLog struct {
	VersionedRecord
	RunID         string `json:"run_id"`
	Metal1        string `json:"metal1"`
	Metal2        string `json:"metal2"`
	Shape         string `json:"shape"`
	Generations   int    `json:"generations"`
	ShellRange    string `json:"shell_range"`
	NewMinStructs int    `json:"new_min_structs"`
	TotalStructs  int    `json:"total_structs"`
	StartedAtUTC  string `json:"started_at_utc"`
	FinishedAtUTC string `json:"finished_at_utc"`
	BatchRunInfo  string `json:"batch_run_info,omitempty"`
}

// GenerationStats is one row of per-generation population statistics.
type GenerationStats struct {
	Min  float64 `json:"min"`
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}
