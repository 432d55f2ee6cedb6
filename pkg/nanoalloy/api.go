// Package nanoalloy is the public facade: composition sweeps over bimetallic
// nanoparticle skeletons, result queries against the store, and XYZ export.
package nanoalloy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"nanoalloy/internal/energy"
	"nanoalloy/internal/export"
	"nanoalloy/internal/ga"
	"nanoalloy/internal/model"
	"nanoalloy/internal/storage"
	"nanoalloy/internal/topology"
)

const (
	defaultDBPath       = "nanoalloy.db"
	defaultArtifactsDir = "runs"

	// defaultLatticeConstant is a generic noble-metal FCC lattice constant
	// in Angstroms; callers with a specific alloy should pass their own.
	defaultLatticeConstant = 4.09

	// Particles below this atom count sweep every composition; larger ones
	// sample an evenly spaced concentration grid instead.
	smallParticleLimit    = 150
	compositionGridPoints = 11
)

type Options struct {
	StoreKind    string
	DBPath       string
	ArtifactsDir string
}

type Client struct {
	store        storage.Store
	artifactsDir string
}

// SweepRequest configures one composition sweep. Metal1 and Metal2 are
// element symbols in any case; they are canonicalized and sorted
// alphabetically before the run.
type SweepRequest struct {
	Metal1          string
	Metal2          string
	Shape           string
	MinShells       int
	MaxShells       int
	LatticeConstant float64

	PopSize     int
	Generations int
	KillRate    float64
	MateRate    float64
	MuteRate    float64
	MuteNum     int
	StdCut      float64
	Seed        int64

	// Progress, when set, receives one line per completed composition.
	Progress func(line string)
}

type SweepSummary struct {
	RunID         string
	ArtifactsDir  string
	Sizes         int
	TotalStructs  int
	NewMinStructs int
}

type ResultsRequest struct {
	Metal1   string
	Metal2   string
	Shape    string
	NumAtoms int
}

type StatsRequest struct {
	RunID string
}

type ExportRequest struct {
	Metal1   string
	Metal2   string
	Shape    string
	NumAtoms int
	NMetal1  int
}

type RunsRequest struct {
	Limit int
}

func New(opts Options) (*Client, error) {
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	artifactsDir := opts.ArtifactsDir
	if artifactsDir == "" {
		artifactsDir = defaultArtifactsDir
	}

	store, err := storage.NewStore(opts.StoreKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:        store,
		artifactsDir: artifactsDir,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	return c.store.Init(ctx)
}

// RunSweep optimizes the chemical ordering for every composition of a metal
// pair across a range of skeleton sizes, persisting each new minimum and
// writing run artifacts. Monometallic reference rows are created on first
// contact with a size.
func (c *Client) RunSweep(ctx context.Context, req SweepRequest) (SweepSummary, error) {
	metal1, metal2, err := canonicalPair(req.Metal1, req.Metal2)
	if err != nil {
		return SweepSummary{}, err
	}
	if req.Shape == "" {
		return SweepSummary{}, errors.New("shape is required")
	}
	if req.MinShells <= 0 || req.MaxShells < req.MinShells {
		return SweepSummary{}, fmt.Errorf("invalid shell range [%d, %d]", req.MinShells, req.MaxShells)
	}
	if req.LatticeConstant <= 0 {
		req.LatticeConstant = defaultLatticeConstant
	}
	if req.PopSize <= 0 {
		req.PopSize = 50
	}
	if req.Generations <= 0 {
		req.Generations = 5000
	}
	if req.KillRate <= 0 {
		req.KillRate = 0.2
	}
	if req.MateRate <= 0 {
		req.MateRate = 0.8
	}
	if req.MuteRate <= 0 {
		req.MuteRate = 0.2
	}
	if req.MuteNum <= 0 {
		req.MuteNum = 1
	}

	coeffs, err := energy.Coefficients(metal1, metal2)
	if err != nil {
		return SweepSummary{}, err
	}

	now := time.Now().UTC()
	runID := uuid.NewString()
	summary := SweepSummary{RunID: runID}
	var allStats []export.CompositionStats
	var allResults []model.Result

	for nShells := req.MinShells; nShells <= req.MaxShells; nShells++ {
		if err := ctx.Err(); err != nil {
			return SweepSummary{}, err
		}

		positions, topo, err := topology.BuildSkeleton(req.Shape, nShells, req.LatticeConstant)
		if err != nil {
			return SweepSummary{}, err
		}
		ev, err := energy.NewEvaluator(topo, coeffs)
		if err != nil {
			return SweepSummary{}, err
		}
		numAtoms := topo.NumAtoms()
		diameter := topology.Diameter(positions)

		if err := c.store.SaveNanoparticle(ctx, model.Nanoparticle{
			VersionedRecord: storage.CurrentVersion(),
			Shape:           req.Shape,
			NumShells:       nShells,
			NumAtoms:        numAtoms,
			Diameter:        diameter,
			Bonds:           topo.Bonds(),
			Positions:       positions,
		}); err != nil {
			return SweepSummary{}, err
		}

		if err := c.ensureMonometallics(ctx, ev, metal1, metal2, req.Shape, numAtoms, diameter); err != nil {
			return SweepSummary{}, err
		}

		dopeCounts := compositionGrid(numAtoms)
		summary.TotalStructs += len(dopeCounts) - 2

		for _, nDope := range dopeCounts {
			if err := ctx.Err(); err != nil {
				return SweepSummary{}, err
			}
			if nDope == 0 || nDope == numAtoms {
				continue
			}

			key := storage.ResultKey{
				Metal1:   metal1,
				Metal2:   metal2,
				Shape:    req.Shape,
				NumAtoms: numAtoms,
				NMetal1:  numAtoms - nDope,
			}
			cfg := ga.Config{
				PopSize:  req.PopSize,
				KillRate: req.KillRate,
				MateRate: req.MateRate,
				MuteRate: req.MuteRate,
				MuteNum:  req.MuteNum,
				NDope:    nDope,
				Seed:     req.Seed + int64(numAtoms)*1000 + int64(nDope),
			}
			if prev, ok, err := c.store.GetResult(ctx, key); err != nil {
				return SweepSummary{}, err
			} else if ok {
				cfg.PrevBest = &ga.RecalledResult{
					Ordering: parseOrdering(prev.Ordering),
					CE:       prev.CE,
				}
			}

			pop, err := ga.NewPopulation(ev, cfg)
			if err != nil {
				return SweepSummary{}, err
			}
			if err := pop.Run(ctx, req.Generations, req.StdCut); err != nil {
				return SweepSummary{}, err
			}

			newMin := pop.IsNewMin()
			best := pop.Best()
			if newMin {
				ee, err := ev.ExcessEnergy(best.Ordering())
				if err != nil {
					return SweepSummary{}, err
				}
				result := model.Result{
					VersionedRecord: storage.CurrentVersion(),
					Metal1:          metal1,
					Metal2:          metal2,
					Shape:           req.Shape,
					NumAtoms:        numAtoms,
					Diameter:        diameter,
					NMetal1:         numAtoms - nDope,
					NMetal2:         nDope,
					CE:              best.CE(),
					EE:              ee,
					Ordering:        best.OrderingString(),
				}
				written, err := c.store.UpsertMinResult(ctx, result)
				if err != nil {
					return SweepSummary{}, err
				}
				if written {
					summary.NewMinStructs++
					allResults = append(allResults, result)
				}
			}

			allStats = append(allStats, export.CompositionStats{
				Formula:  pop.Formula(),
				NumAtoms: numAtoms,
				NMetal2:  nDope,
				NewMin:   newMin,
				Stats:    pop.Stats(),
			})
			if req.Progress != nil {
				req.Progress(fmt.Sprintf("%s: %d generations, min CE %.6f eV/atom, new min: %v",
					pop.Formula(), pop.Generations(), pop.MinCE(), newMin))
			}
		}
		summary.Sizes++
	}

	finished := time.Now().UTC()
	runDir, err := export.WriteRunArtifacts(c.artifactsDir, export.RunArtifacts{
		Config: export.RunConfig{
			RunID:       runID,
			Metal1:      metal1,
			Metal2:      metal2,
			Shape:       req.Shape,
			MinShells:   req.MinShells,
			MaxShells:   req.MaxShells,
			PopSize:     req.PopSize,
			Generations: req.Generations,
			KillRate:    req.KillRate,
			MateRate:    req.MateRate,
			MuteRate:    req.MuteRate,
			MuteNum:     req.MuteNum,
			StdCut:      req.StdCut,
			Seed:        req.Seed,
			CreatedAt:   now.Format(time.RFC3339Nano),
		},
		Stats:   allStats,
		Results: allResults,
	})
	if err != nil {
		return SweepSummary{}, err
	}
	if err := export.AppendRunIndex(c.artifactsDir, export.RunIndexEntry{
		RunID:         runID,
		Metal1:        metal1,
		Metal2:        metal2,
		Shape:         req.Shape,
		NewMinStructs: summary.NewMinStructs,
		TotalStructs:  summary.TotalStructs,
		CreatedAtUTC:  now.Format(time.RFC3339Nano),
	}); err != nil {
		return SweepSummary{}, err
	}

	if err := c.store.SaveRunLog(ctx, model.RunLog{
		VersionedRecord: storage.CurrentVersion(),
		RunID:           runID,
		Metal1:          metal1,
		Metal2:          metal2,
		Shape:           req.Shape,
		Generations:     req.Generations,
		ShellRange:      fmt.Sprintf("[%d, %d]", req.MinShells, req.MaxShells),
		NewMinStructs:   summary.NewMinStructs,
		TotalStructs:    summary.TotalStructs,
		StartedAtUTC:    now.Format(time.RFC3339Nano),
		FinishedAtUTC:   finished.Format(time.RFC3339Nano),
	}); err != nil {
		return SweepSummary{}, err
	}

	summary.ArtifactsDir = filepath.Clean(runDir)
	return summary, nil
}

// ensureMonometallics writes the two pure reference rows for a size when the
// store does not have them yet. Their excess energy is zero by definition.
func (c *Client) ensureMonometallics(ctx context.Context, ev *energy.Evaluator, metal1, metal2, shape string, numAtoms int, diameter float64) error {
	for species := 0; species < 2; species++ {
		nMetal1 := numAtoms
		if species == 1 {
			nMetal1 = 0
		}
		key := storage.ResultKey{
			Metal1:   metal1,
			Metal2:   metal2,
			Shape:    shape,
			NumAtoms: numAtoms,
			NMetal1:  nMetal1,
		}
		if _, ok, err := c.store.GetResult(ctx, key); err != nil {
			return err
		} else if ok {
			continue
		}

		ordering := make([]uint8, numAtoms)
		if species == 1 {
			for i := range ordering {
				ordering[i] = 1
			}
		}
		buf := make([]byte, numAtoms)
		for i, s := range ordering {
			buf[i] = '0' + s
		}
		if _, err := c.store.UpsertMinResult(ctx, model.Result{
			VersionedRecord: storage.CurrentVersion(),
			Metal1:          metal1,
			Metal2:          metal2,
			Shape:           shape,
			NumAtoms:        numAtoms,
			Diameter:        diameter,
			NMetal1:         nMetal1,
			NMetal2:         numAtoms - nMetal1,
			CE:              ev.PureCE(species),
			EE:              0,
			Ordering:        string(buf),
		}); err != nil {
			return err
		}
	}
	return nil
}

// Results lists stored best-known orderings matching the filter.
func (c *Client) Results(ctx context.Context, req ResultsRequest) ([]model.Result, error) {
	filter := storage.ResultFilter{Shape: req.Shape, NumAtoms: req.NumAtoms}
	if req.Metal1 != "" || req.Metal2 != "" {
		metal1, metal2, err := canonicalPair(req.Metal1, req.Metal2)
		if err != nil {
			return nil, err
		}
		filter.Metal1 = metal1
		filter.Metal2 = metal2
	}
	return c.store.ListResults(ctx, filter)
}

// Stats loads the per-generation statistics of a past run from its artifact
// directory.
func (c *Client) Stats(_ context.Context, req StatsRequest) ([]export.CompositionStats, error) {
	if req.RunID == "" {
		return nil, errors.New("run id is required")
	}
	stats, ok, err := export.ReadRunStats(c.artifactsDir, req.RunID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no artifacts for run %s", req.RunID)
	}
	return stats, nil
}

// Runs lists past sweeps from the store, newest first.
func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]model.RunLog, error) {
	return c.store.ListRunLogs(ctx, req.Limit)
}

// ExportXYZ writes the stored best ordering for one composition as an XYZ
// file. The skeleton's stored positions supply the coordinates.
func (c *Client) ExportXYZ(ctx context.Context, w io.Writer, req ExportRequest) (string, error) {
	metal1, metal2, err := canonicalPair(req.Metal1, req.Metal2)
	if err != nil {
		return "", err
	}

	result, ok, err := c.store.GetResult(ctx, storage.ResultKey{
		Metal1:   metal1,
		Metal2:   metal2,
		Shape:    req.Shape,
		NumAtoms: req.NumAtoms,
		NMetal1:  req.NMetal1,
	})
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("no result for %s%s %s/%d with %d %s atoms", metal1, metal2, req.Shape, req.NumAtoms, req.NMetal1, metal1)
	}

	np, ok, err := c.store.GetNanoparticle(ctx, req.Shape, req.NumAtoms)
	if err != nil {
		return "", err
	}
	if !ok || len(np.Positions) == 0 {
		return "", fmt.Errorf("no stored skeleton positions for %s/%d", req.Shape, req.NumAtoms)
	}

	ordering := parseOrdering(result.Ordering)
	comment := fmt.Sprintf("%s CE=%.6f eV/atom EE=%.6f eV/atom", result.Formula(), result.CE, result.EE)
	if err := export.WriteXYZ(w, export.Symbols(metal1, metal2, ordering), np.Positions, comment); err != nil {
		return "", err
	}
	return export.XYZFilename(metal1, result.NMetal1, metal2, result.NMetal2), nil
}

// compositionGrid returns the dopant counts to sweep for one size: every
// count for small particles, an 11-point concentration grid otherwise.
// Endpoints (monometallics) are included and skipped by the caller.
func compositionGrid(numAtoms int) []int {
	if numAtoms < smallParticleLimit {
		counts := make([]int, numAtoms+1)
		for i := range counts {
			counts[i] = i
		}
		return counts
	}

	counts := make([]int, 0, compositionGridPoints)
	seen := make(map[int]struct{}, compositionGridPoints)
	for i := 0; i < compositionGridPoints; i++ {
		x := float64(i) / float64(compositionGridPoints-1)
		n := int(x * float64(numAtoms))
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		counts = append(counts, n)
	}
	return counts
}

func canonicalPair(metal1, metal2 string) (string, string, error) {
	m1 := energy.CanonicalSymbol(metal1)
	m2 := energy.CanonicalSymbol(metal2)
	if m1 == "" || m2 == "" {
		return "", "", errors.New("both metals are required")
	}
	if m1 == m2 {
		return "", "", fmt.Errorf("metals must differ, got %s twice", m1)
	}
	if m1 > m2 {
		m1, m2 = m2, m1
	}
	return m1, m2, nil
}

func parseOrdering(s string) []uint8 {
	ordering := make([]uint8, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '1' {
			ordering[i] = 1
		}
	}
	return ordering
}
