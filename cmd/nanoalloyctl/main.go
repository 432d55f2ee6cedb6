package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"nanoalloy/internal/storage"
	alloyapi "nanoalloy/pkg/nanoalloy"
)

const (
	defaultDBPath       = "nanoalloy.db"
	defaultArtifactsDir = "runs"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "run":
		return runRun(ctx, args[1:])
	case "results":
		return runResults(ctx, args[1:])
	case "stats":
		return runStats(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: nanoalloyctl <init|run|results|stats|runs|export> [flags]", msg)
}

func newClient(storeKind, dbPath, artifactsDir string) (*alloyapi.Client, error) {
	return alloyapi.New(alloyapi.Options{
		StoreKind:    storeKind,
		DBPath:       dbPath,
		ArtifactsDir: artifactsDir,
	})
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind, "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath, defaultArtifactsDir)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Init(ctx); err != nil {
		return err
	}
	fmt.Printf("initialized store=%s\n", *storeKind)
	return nil
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional sweep config JSON path")
	metal1 := fs.String("metal1", "", "first element symbol, e.g. Ag")
	metal2 := fs.String("metal2", "", "second element symbol, e.g. Cu")
	shape := fs.String("shape", "fcc-cube", "skeleton shape: fcc-cube|simple-cubic")
	minShells := fs.Int("min-shells", 1, "smallest shell count to sweep")
	maxShells := fs.Int("max-shells", 3, "largest shell count to sweep")
	lattice := fs.Float64("lattice", 0, "lattice constant in Angstroms (0 uses the default)")
	popSize := fs.Int("pop", 0, "population size (0 uses the default)")
	generations := fs.Int("gens", 0, "generation budget per composition (0 uses the default)")
	killRate := fs.Float64("kill-rate", 0, "fraction of population replaced per generation")
	mateRate := fs.Float64("mate-rate", 0, "fraction of replacements produced by crossover")
	muteRate := fs.Float64("mute-rate", 0, "fraction of survivors mutated per generation")
	muteNum := fs.Int("mute-num", 0, "swaps per mutation event")
	stdCut := fs.Float64("std-cut", 0, "population std convergence threshold")
	seed := fs.Int64("seed", 1, "rng seed")
	storeKind := fs.String("store", storage.DefaultStoreKind, "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	artifactsDir := fs.String("artifacts-dir", defaultArtifactsDir, "run artifact directory")
	quiet := fs.Bool("quiet", false, "suppress per-composition progress lines")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req := alloyapi.SweepRequest{
		Metal1:          *metal1,
		Metal2:          *metal2,
		Shape:           *shape,
		MinShells:       *minShells,
		MaxShells:       *maxShells,
		LatticeConstant: *lattice,
		PopSize:         *popSize,
		Generations:     *generations,
		KillRate:        *killRate,
		MateRate:        *mateRate,
		MuteRate:        *muteRate,
		MuteNum:         *muteNum,
		StdCut:          *stdCut,
		Seed:            *seed,
	}
	if *configPath != "" {
		loaded, err := loadSweepConfig(*configPath)
		if err != nil {
			return err
		}
		req = mergeSweepConfig(req, loaded, fs)
	}
	if !*quiet {
		req.Progress = func(line string) {
			fmt.Println(line)
		}
	}

	client, err := newClient(*storeKind, *dbPath, *artifactsDir)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	summary, err := client.RunSweep(ctx, req)
	if err != nil {
		return err
	}
	fmt.Printf("run %s: %d sizes, %s structures, %d new minima\nartifacts: %s\n",
		summary.RunID, summary.Sizes, humanize.Comma(int64(summary.TotalStructs)),
		summary.NewMinStructs, summary.ArtifactsDir)
	return nil
}

func runResults(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("results", flag.ContinueOnError)
	metal1 := fs.String("metal1", "", "filter: first element symbol")
	metal2 := fs.String("metal2", "", "filter: second element symbol")
	shape := fs.String("shape", "", "filter: skeleton shape")
	numAtoms := fs.Int("atoms", 0, "filter: atom count (0 matches all)")
	storeKind := fs.String("store", storage.DefaultStoreKind, "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath, defaultArtifactsDir)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	results, err := client.Results(ctx, alloyapi.ResultsRequest{
		Metal1:   *metal1,
		Metal2:   *metal2,
		Shape:    *shape,
		NumAtoms: *numAtoms,
	})
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("no results")
		return nil
	}

	fmt.Printf("%-14s %-12s %8s %10s %12s %12s\n", "formula", "shape", "atoms", "diameter", "CE (eV)", "EE (eV)")
	for _, r := range results {
		fmt.Printf("%-14s %-12s %8s %9.2fA %12.6f %12.6f\n",
			r.Formula(), r.Shape, humanize.Comma(int64(r.NumAtoms)), r.Diameter, r.CE, r.EE)
	}
	return nil
}

func runStats(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id to report")
	artifactsDir := fs.String("artifacts-dir", defaultArtifactsDir, "run artifact directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient("memory", defaultDBPath, *artifactsDir)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	stats, err := client.Stats(ctx, alloyapi.StatsRequest{RunID: *runID})
	if err != nil {
		return err
	}

	for _, comp := range stats {
		last := comp.Stats[len(comp.Stats)-1]
		fmt.Printf("%s: %d generations, min %.6f, mean %.6f, std %.6f, new min: %v\n",
			comp.Formula, len(comp.Stats)-1, last.Min, last.Mean, last.Std, comp.NewMin)
	}
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 10, "maximum runs to list (0 lists all)")
	storeKind := fs.String("store", storage.DefaultStoreKind, "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath, defaultArtifactsDir)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	logs, err := client.Runs(ctx, alloyapi.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if len(logs) == 0 {
		fmt.Println("no runs")
		return nil
	}

	for _, log := range logs {
		when := log.FinishedAtUTC
		if t, err := time.Parse(time.RFC3339Nano, log.FinishedAtUTC); err == nil {
			when = humanize.Time(t)
		}
		fmt.Printf("%s  %s%s %s shells %s: %d/%d new minima, %s\n",
			log.RunID, log.Metal1, log.Metal2, log.Shape, log.ShellRange,
			log.NewMinStructs, log.TotalStructs, when)
	}
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	metal1 := fs.String("metal1", "", "first element symbol")
	metal2 := fs.String("metal2", "", "second element symbol")
	shape := fs.String("shape", "fcc-cube", "skeleton shape")
	numAtoms := fs.Int("atoms", 0, "atom count of the stored result")
	nMetal1 := fs.Int("n-metal1", 0, "atoms of the first metal in the stored result")
	outDir := fs.String("out", "exports", "output directory")
	storeKind := fs.String("store", storage.DefaultStoreKind, "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *numAtoms <= 0 {
		return usageError("export requires -atoms")
	}

	client, err := newClient(*storeKind, *dbPath, defaultArtifactsDir)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(*outDir, "export-*.xyz")
	if err != nil {
		return err
	}

	name, err := client.ExportXYZ(ctx, tmp, alloyapi.ExportRequest{
		Metal1:   *metal1,
		Metal2:   *metal2,
		Shape:    *shape,
		NumAtoms: *numAtoms,
		NMetal1:  *nMetal1,
	})
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}

	path := filepath.Join(*outDir, name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}
