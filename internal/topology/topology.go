// Package topology holds the immutable atomic skeleton consumed by the
// energy evaluator: atom count, directed bond list, and per-atom coordination
// numbers. A bond (i, j) means atom j is within bonding range of atom i; an
// undirected physical bond appears once per direction.
package topology

import "fmt"

type Topology struct {
	numAtoms  int
	bonds     [][2]int
	cns       []int
	neighbors [][]int
}

// New validates the bond list against the atom count and derives coordination
// numbers and adjacency lists. The bond list is copied; a Topology never
// changes after construction.
func New(numAtoms int, bonds [][2]int) (*Topology, error) {
	if numAtoms <= 0 {
		return nil, fmt.Errorf("atom count must be > 0, got %d", numAtoms)
	}

	copied := make([][2]int, len(bonds))
	cns := make([]int, numAtoms)
	neighbors := make([][]int, numAtoms)
	for i, bond := range bonds {
		src, dst := bond[0], bond[1]
		if src < 0 || src >= numAtoms || dst < 0 || dst >= numAtoms {
			return nil, fmt.Errorf("bond %d references atom outside [0, %d): (%d, %d)", i, numAtoms, src, dst)
		}
		if src == dst {
			return nil, fmt.Errorf("bond %d is a self-bond on atom %d", i, src)
		}
		copied[i] = bond
		cns[src]++
		neighbors[src] = append(neighbors[src], dst)
	}

	return &Topology{
		numAtoms:  numAtoms,
		bonds:     copied,
		cns:       cns,
		neighbors: neighbors,
	}, nil
}

func (t *Topology) NumAtoms() int {
	return t.numAtoms
}

func (t *Topology) NumBonds() int {
	return len(t.bonds)
}

// Bonds returns the directed bond list. Callers must not modify it.
func (t *Topology) Bonds() [][2]int {
	return t.bonds
}

// CN returns the coordination number of atom i: the count of bonds where i
// is the source.
func (t *Topology) CN(i int) int {
	return t.cns[i]
}

// CNs returns the per-atom coordination numbers. Callers must not modify it.
func (t *Topology) CNs() []int {
	return t.cns
}

// Neighbors returns the atoms bonded to atom i. Callers must not modify it.
func (t *Topology) Neighbors(i int) []int {
	return t.neighbors[i]
}
