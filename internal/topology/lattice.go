package topology

import (
	"fmt"
	"math"
)

// BondsWithin runs a cutoff neighbor search over atom positions and returns
// the directed bond list: both (i, j) and (j, i) for every pair closer than
// cutoff. Quadratic in the atom count, which is fine for the particle sizes
// this tool targets.
func BondsWithin(positions [][3]float64, cutoff float64) [][2]int {
	cut2 := cutoff * cutoff
	var bonds [][2]int
	for i := 0; i < len(positions); i++ {
		for j := i + 1; j < len(positions); j++ {
			dx := positions[i][0] - positions[j][0]
			dy := positions[i][1] - positions[j][1]
			dz := positions[i][2] - positions[j][2]
			if dx*dx+dy*dy+dz*dz <= cut2 {
				bonds = append(bonds, [2]int{i, j}, [2]int{j, i})
			}
		}
	}
	return bonds
}

// Diameter returns the largest interatomic distance in the skeleton.
func Diameter(positions [][3]float64) float64 {
	max2 := 0.0
	for i := 0; i < len(positions); i++ {
		for j := i + 1; j < len(positions); j++ {
			dx := positions[i][0] - positions[j][0]
			dy := positions[i][1] - positions[j][1]
			dz := positions[i][2] - positions[j][2]
			d2 := dx*dx + dy*dy + dz*dz
			if d2 > max2 {
				max2 = d2
			}
		}
	}
	return math.Sqrt(max2)
}

// SimpleCubic places atoms on an nx by ny by nz simple cubic grid with
// lattice constant a.
func SimpleCubic(nx, ny, nz int, a float64) [][3]float64 {
	positions := make([][3]float64, 0, nx*ny*nz)
	for x := 0; x < nx; x++ {
		for y := 0; y < ny; y++ {
			for z := 0; z < nz; z++ {
				positions = append(positions, [3]float64{float64(x) * a, float64(y) * a, float64(z) * a})
			}
		}
	}
	return positions
}

// FCCCube builds a cube of nShells face-centered-cubic unit cells per edge
// with lattice constant a. Shared corner and face sites are deduplicated.
// The nearest-neighbor distance is a/sqrt(2).
func FCCCube(nShells int, a float64) [][3]float64 {
	basis := [4][3]float64{
		{0, 0, 0},
		{0.5, 0.5, 0},
		{0.5, 0, 0.5},
		{0, 0.5, 0.5},
	}

	seen := make(map[string]struct{})
	var positions [][3]float64
	for x := 0; x <= nShells; x++ {
		for y := 0; y <= nShells; y++ {
			for z := 0; z <= nShells; z++ {
				for _, b := range basis {
					px := (float64(x) + b[0]) * a
					py := (float64(y) + b[1]) * a
					pz := (float64(z) + b[2]) * a
					side := float64(nShells) * a
					if px > side+1e-9 || py > side+1e-9 || pz > side+1e-9 {
						continue
					}
					key := fmt.Sprintf("%.6f:%.6f:%.6f", px, py, pz)
					if _, ok := seen[key]; ok {
						continue
					}
					seen[key] = struct{}{}
					positions = append(positions, [3]float64{px, py, pz})
				}
			}
		}
	}
	return positions
}

// BuildSkeleton constructs a Topology for a named shape. The cutoff is set
// slightly above the nearest-neighbor distance of the lattice.
func BuildSkeleton(shape string, nShells int, a float64) ([][3]float64, *Topology, error) {
	if nShells <= 0 {
		return nil, nil, fmt.Errorf("shell count must be > 0, got %d", nShells)
	}
	var positions [][3]float64
	var cutoff float64
	switch shape {
	case "fcc-cube":
		positions = FCCCube(nShells, a)
		cutoff = a / math.Sqrt2 * 1.1
	case "simple-cubic":
		n := nShells + 1
		positions = SimpleCubic(n, n, n, a)
		cutoff = a * 1.1
	default:
		return nil, nil, fmt.Errorf("unsupported shape: %s", shape)
	}
	topo, err := New(len(positions), BondsWithin(positions, cutoff))
	if err != nil {
		return nil, nil, err
	}
	return positions, topo, nil
}
