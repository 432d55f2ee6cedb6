package topology

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// pathBonds builds the directed bond list of a linear chain 0-1-2-...-(n-1).
func pathBonds(n int) [][2]int {
	var bonds [][2]int
	for i := 0; i < n-1; i++ {
		bonds = append(bonds, [2]int{i, i + 1}, [2]int{i + 1, i})
	}
	return bonds
}

func TestNewDerivesCoordinationNumbers(t *testing.T) {
	topo, err := New(4, pathBonds(4))
	require.NoError(t, err)

	require.Equal(t, 4, topo.NumAtoms())
	require.Equal(t, 6, topo.NumBonds())
	require.Equal(t, []int{1, 2, 2, 1}, topo.CNs())
	require.Equal(t, []int{0, 2}, topo.Neighbors(1))
}

func TestNewRejectsBadBonds(t *testing.T) {
	_, err := New(0, nil)
	require.Error(t, err)

	_, err = New(3, [][2]int{{0, 3}})
	require.Error(t, err, "bond index out of range")

	_, err = New(3, [][2]int{{-1, 0}})
	require.Error(t, err, "negative bond index")

	_, err = New(3, [][2]int{{1, 1}})
	require.Error(t, err, "self-bond")
}

func TestBondsWithinEmitsBothDirections(t *testing.T) {
	positions := [][3]float64{
		{0, 0, 0},
		{1, 0, 0},
		{5, 0, 0},
	}
	bonds := BondsWithin(positions, 1.5)
	require.ElementsMatch(t, [][2]int{{0, 1}, {1, 0}}, bonds)
}

func TestDiameter(t *testing.T) {
	positions := [][3]float64{
		{0, 0, 0},
		{3, 0, 0},
		{0, 4, 0},
	}
	require.InDelta(t, 5.0, Diameter(positions), 1e-12)
}

func TestFCCCubeSingleCell(t *testing.T) {
	// One FCC unit cell: 8 corners + 6 face centers.
	positions := FCCCube(1, 4.0)
	require.Len(t, positions, 14)
}

func TestSimpleCubicCount(t *testing.T) {
	require.Len(t, SimpleCubic(2, 2, 2, 1.0), 8)
	require.Len(t, SimpleCubic(3, 3, 3, 1.0), 27)
}

func TestBuildSkeleton(t *testing.T) {
	positions, topo, err := BuildSkeleton("simple-cubic", 1, 3.0)
	require.NoError(t, err)
	require.Len(t, positions, 8)
	require.Equal(t, 8, topo.NumAtoms())
	// Every corner of a 2x2x2 cube has exactly 3 nearest neighbors.
	for i := 0; i < topo.NumAtoms(); i++ {
		require.Equal(t, 3, topo.CN(i))
	}

	_, fcc, err := BuildSkeleton("fcc-cube", 1, 4.0)
	require.NoError(t, err)
	require.Equal(t, 14, fcc.NumAtoms())
	for i := 0; i < fcc.NumAtoms(); i++ {
		require.Greater(t, fcc.CN(i), 0)
	}

	_, _, err = BuildSkeleton("icosahedron", 2, 4.0)
	require.Error(t, err)

	_, _, err = BuildSkeleton("fcc-cube", 0, 4.0)
	require.Error(t, err)
}
