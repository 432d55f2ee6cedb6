package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sugawarayuuta/sonnet"

	alloyapi "nanoalloy/pkg/nanoalloy"
)

// sweepConfig is the JSON file format accepted by `run -config`. Fields
// mirror the sweep request; flags set explicitly on the command line win
// over the file.
type sweepConfig struct {
	Metal1          string  `json:"metal1"`
	Metal2          string  `json:"metal2"`
	Shape           string  `json:"shape"`
	MinShells       int     `json:"min_shells"`
	MaxShells       int     `json:"max_shells"`
	LatticeConstant float64 `json:"lattice_constant"`
	PopSize         int     `json:"pop_size"`
	Generations     int     `json:"generations"`
	KillRate        float64 `json:"kill_rate"`
	MateRate        float64 `json:"mate_rate"`
	MuteRate        float64 `json:"mute_rate"`
	MuteNum         int     `json:"mute_num"`
	StdCut          float64 `json:"std_cut"`
	Seed            int64   `json:"seed"`
}

func loadSweepConfig(path string) (sweepConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return sweepConfig{}, err
	}
	var cfg sweepConfig
	if err := sonnet.Unmarshal(data, &cfg); err != nil {
		return sweepConfig{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// mergeSweepConfig overlays file values onto the request for every flag the
// user did not set explicitly.
func mergeSweepConfig(req alloyapi.SweepRequest, cfg sweepConfig, fs *flag.FlagSet) alloyapi.SweepRequest {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})

	if !set["metal1"] && cfg.Metal1 != "" {
		req.Metal1 = cfg.Metal1
	}
	if !set["metal2"] && cfg.Metal2 != "" {
		req.Metal2 = cfg.Metal2
	}
	if !set["shape"] && cfg.Shape != "" {
		req.Shape = cfg.Shape
	}
	if !set["min-shells"] && cfg.MinShells != 0 {
		req.MinShells = cfg.MinShells
	}
	if !set["max-shells"] && cfg.MaxShells != 0 {
		req.MaxShells = cfg.MaxShells
	}
	if !set["lattice"] && cfg.LatticeConstant != 0 {
		req.LatticeConstant = cfg.LatticeConstant
	}
	if !set["pop"] && cfg.PopSize != 0 {
		req.PopSize = cfg.PopSize
	}
	if !set["gens"] && cfg.Generations != 0 {
		req.Generations = cfg.Generations
	}
	if !set["kill-rate"] && cfg.KillRate != 0 {
		req.KillRate = cfg.KillRate
	}
	if !set["mate-rate"] && cfg.MateRate != 0 {
		req.MateRate = cfg.MateRate
	}
	if !set["mute-rate"] && cfg.MuteRate != 0 {
		req.MuteRate = cfg.MuteRate
	}
	if !set["mute-num"] && cfg.MuteNum != 0 {
		req.MuteNum = cfg.MuteNum
	}
	if !set["std-cut"] && cfg.StdCut != 0 {
		req.StdCut = cfg.StdCut
	}
	if !set["seed"] && cfg.Seed != 0 {
		req.Seed = cfg.Seed
	}
	return req
}
