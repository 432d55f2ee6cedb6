package nanoalloy

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(Options{
		StoreKind:    "memory",
		ArtifactsDir: t.TempDir(),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, client.Close())
	})
	require.NoError(t, client.Init(context.Background()))
	return client
}

func smallSweep() SweepRequest {
	return SweepRequest{
		Metal1:      "Ag",
		Metal2:      "Cu",
		Shape:       "simple-cubic",
		MinShells:   1,
		MaxShells:   1,
		PopSize:     10,
		Generations: 20,
		Seed:        7,
	}
}

func TestRunSweepEndToEnd(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	var progress []string
	req := smallSweep()
	req.Progress = func(line string) {
		progress = append(progress, line)
	}

	summary, err := client.RunSweep(ctx, req)
	require.NoError(t, err)
	require.NotEmpty(t, summary.RunID)
	require.Equal(t, 1, summary.Sizes)

	// An 8-atom cube sweeps compositions 1..7 plus two monometallic rows.
	require.Equal(t, 7, summary.TotalStructs)
	require.Equal(t, 7, summary.NewMinStructs)
	require.Len(t, progress, 7)

	results, err := client.Results(ctx, ResultsRequest{Metal1: "Ag", Metal2: "Cu"})
	require.NoError(t, err)
	require.Len(t, results, 9)
	for _, r := range results {
		require.Equal(t, "Ag", r.Metal1)
		require.Equal(t, "Cu", r.Metal2)
		require.Equal(t, 8, r.NumAtoms)
		require.Len(t, r.Ordering, 8)
		require.Negative(t, r.CE)
	}

	// Monometallic references carry zero excess energy.
	for _, nMetal1 := range []int{0, 8} {
		var found bool
		for _, r := range results {
			if r.NMetal1 == nMetal1 {
				require.Zero(t, r.EE)
				found = true
			}
		}
		require.True(t, found)
	}

	stats, err := client.Stats(ctx, StatsRequest{RunID: summary.RunID})
	require.NoError(t, err)
	require.Len(t, stats, 7)
	for _, comp := range stats {
		require.NotEmpty(t, comp.Stats)
	}

	logs, err := client.Runs(ctx, RunsRequest{})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.Equal(t, summary.RunID, logs[0].RunID)
	require.Equal(t, 7, logs[0].NewMinStructs)

	_, err = os.Stat(filepath.Join(summary.ArtifactsDir, "config.json"))
	require.NoError(t, err)
}

func TestRunSweepCanonicalizesMetals(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	req := smallSweep()
	req.Metal1 = "cu"
	req.Metal2 = "ag"
	_, err := client.RunSweep(ctx, req)
	require.NoError(t, err)

	results, err := client.Results(ctx, ResultsRequest{Metal1: "cu", Metal2: "ag"})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, r := range results {
		require.Equal(t, "Ag", r.Metal1)
		require.Equal(t, "Cu", r.Metal2)
	}
}

func TestRunSweepValidation(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	req := smallSweep()
	req.Metal2 = "Ag"
	_, err := client.RunSweep(ctx, req)
	require.Error(t, err, "identical metals")

	req = smallSweep()
	req.Shape = ""
	_, err = client.RunSweep(ctx, req)
	require.Error(t, err)

	req = smallSweep()
	req.MaxShells = 0
	_, err = client.RunSweep(ctx, req)
	require.Error(t, err)

	req = smallSweep()
	req.Metal1 = "Fe"
	_, err = client.RunSweep(ctx, req)
	require.Error(t, err, "unsupported element")
}

func TestRunSweepReusesStoredMinimum(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	first, err := client.RunSweep(ctx, smallSweep())
	require.NoError(t, err)
	require.Equal(t, 7, first.NewMinStructs)

	// Plant an unbeatable stored minimum for every bimetallic composition:
	// the rerun recalls them and must not report new minima or overwrite.
	results, err := client.Results(ctx, ResultsRequest{Metal1: "Ag", Metal2: "Cu"})
	require.NoError(t, err)
	for _, r := range results {
		if r.NMetal1 == 0 || r.NMetal1 == r.NumAtoms {
			continue
		}
		planted := r
		planted.CE = -1000
		_, err := client.store.UpsertMinResult(ctx, planted)
		require.NoError(t, err)
	}

	second, err := client.RunSweep(ctx, smallSweep())
	require.NoError(t, err)
	require.Zero(t, second.NewMinStructs)

	after, err := client.Results(ctx, ResultsRequest{Metal1: "Ag", Metal2: "Cu"})
	require.NoError(t, err)
	for _, r := range after {
		if r.NMetal1 == 0 || r.NMetal1 == r.NumAtoms {
			continue
		}
		require.Equal(t, -1000.0, r.CE)
	}
}

func TestExportXYZ(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	_, err := client.RunSweep(ctx, smallSweep())
	require.NoError(t, err)

	var sb strings.Builder
	name, err := client.ExportXYZ(ctx, &sb, ExportRequest{
		Metal1:   "Ag",
		Metal2:   "Cu",
		Shape:    "simple-cubic",
		NumAtoms: 8,
		NMetal1:  4,
	})
	require.NoError(t, err)
	require.Equal(t, "Ag4Cu4.xyz", name)

	lines := strings.Split(strings.TrimRight(sb.String(), "\n"), "\n")
	require.Len(t, lines, 10)
	require.Equal(t, "8", lines[0])
	require.Contains(t, lines[1], "Ag4Cu4")

	var agAtoms int
	for _, line := range lines[2:] {
		if strings.HasPrefix(line, "Ag ") {
			agAtoms++
		}
	}
	require.Equal(t, 4, agAtoms)
}

func TestExportXYZMissingResult(t *testing.T) {
	client := newTestClient(t)

	var sb strings.Builder
	_, err := client.ExportXYZ(context.Background(), &sb, ExportRequest{
		Metal1:   "Ag",
		Metal2:   "Cu",
		Shape:    "simple-cubic",
		NumAtoms: 8,
		NMetal1:  4,
	})
	require.Error(t, err)
}

func TestCompositionGrid(t *testing.T) {
	counts := compositionGrid(8)
	require.Len(t, counts, 9)
	require.Equal(t, 0, counts[0])
	require.Equal(t, 8, counts[8])

	grid := compositionGrid(200)
	require.Len(t, grid, 11)
	require.Equal(t, 0, grid[0])
	require.Equal(t, 200, grid[len(grid)-1])
	for i := 1; i < len(grid); i++ {
		require.Greater(t, grid[i], grid[i-1])
	}
}

func TestCanonicalPair(t *testing.T) {
	m1, m2, err := canonicalPair("cu", "AG")
	require.NoError(t, err)
	require.Equal(t, "Ag", m1)
	require.Equal(t, "Cu", m2)

	_, _, err = canonicalPair("Cu", "cu")
	require.Error(t, err)

	_, _, err = canonicalPair("", "Cu")
	require.Error(t, err)
}
