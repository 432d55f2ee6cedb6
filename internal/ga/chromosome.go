// Package ga searches for low-energy chemical orderings of a fixed skeleton:
// a genetic algorithm over populations of orderings, a coordination-number
// seeding heuristic, and a Metropolis local-search walk. All stochastic
// operations draw from an explicitly supplied random source.
package ga

import (
	"errors"
	"fmt"
	"math/rand"

	"nanoalloy/internal/energy"
)

var (
	// ErrInvalidDopeCount reports a requested dopant count outside [0, atom count].
	ErrInvalidDopeCount = errors.New("dopant count exceeds atom count")

	// ErrMutationNotPermitted reports an ordering-changing operation on a
	// chromosome whose evaluator has been detached for persistence.
	ErrMutationNotPermitted = errors.New("chromosome has no evaluator attached")

	// ErrInsufficientOptions reports a sample request larger than the number
	// of combinatorially distinct fills.
	ErrInsufficientOptions = errors.New("not enough distinct fills for requested sample size")
)

// Chromosome is one candidate chemical ordering with its cached cohesive
// energy. The evaluator reference is non-owning: populations (or callers)
// own the evaluator, and Detach/Attach move a chromosome between scorable
// and plain-data form.
type Chromosome struct {
	eval     *energy.Evaluator
	ordering []uint8
	nDope    int
	ce       float64
}

// NewChromosome creates a chromosome with a uniformly random ordering of
// exactly nDope dopant atoms and scores it.
func NewChromosome(ev *energy.Evaluator, nDope int, rng *rand.Rand) (*Chromosome, error) {
	if ev == nil {
		return nil, ErrMutationNotPermitted
	}
	numAtoms := ev.NumAtoms()
	if nDope < 0 || nDope > numAtoms {
		return nil, fmt.Errorf("%w: n_dope=%d, atoms=%d", ErrInvalidDopeCount, nDope, numAtoms)
	}

	ordering := make([]uint8, numAtoms)
	for i := 0; i < nDope; i++ {
		ordering[i] = 1
	}
	rng.Shuffle(numAtoms, func(i, j int) {
		ordering[i], ordering[j] = ordering[j], ordering[i]
	})

	c := &Chromosome{eval: ev, ordering: ordering, nDope: nDope}
	if err := c.score(); err != nil {
		return nil, err
	}
	return c, nil
}

// NewChromosomeFromOrdering creates a chromosome from an explicit ordering;
// the dopant count is derived from the ordering. The ordering is copied.
func NewChromosomeFromOrdering(ev *energy.Evaluator, ordering []uint8) (*Chromosome, error) {
	if ev == nil {
		return nil, ErrMutationNotPermitted
	}
	if len(ordering) != ev.NumAtoms() {
		return nil, fmt.Errorf("ordering length %d does not match atom count %d", len(ordering), ev.NumAtoms())
	}

	copied := make([]uint8, len(ordering))
	nDope := 0
	for i, s := range ordering {
		if s > 1 {
			return nil, fmt.Errorf("ordering[%d] = %d: species must be 0 or 1", i, s)
		}
		copied[i] = s
		nDope += int(s)
	}

	c := &Chromosome{eval: ev, ordering: copied, nDope: nDope}
	if err := c.score(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Chromosome) score() error {
	if c.eval == nil {
		return ErrMutationNotPermitted
	}
	ce, err := c.eval.TotalCE(c.ordering)
	if err != nil {
		return err
	}
	c.ce = ce
	return nil
}

// CE returns the cached cohesive energy.
func (c *Chromosome) CE() float64 {
	return c.ce
}

// DopantCount returns the number of dopant (species 1) atoms.
func (c *Chromosome) DopantCount() int {
	return c.nDope
}

// Ordering returns a copy of the chemical ordering.
func (c *Chromosome) Ordering() []uint8 {
	return append([]uint8(nil), c.ordering...)
}

// OrderingString renders the ordering as a '0'/'1' string for persistence.
func (c *Chromosome) OrderingString() string {
	buf := make([]byte, len(c.ordering))
	for i, s := range c.ordering {
		buf[i] = '0' + s
	}
	return string(buf)
}

// Detach drops the evaluator reference, leaving the chromosome as plain
// serializable data. Mutation and crossover require Attach first.
func (c *Chromosome) Detach() {
	c.eval = nil
}

// Attach restores the evaluator reference after Detach.
func (c *Chromosome) Attach(ev *energy.Evaluator) {
	c.eval = ev
}

func (c *Chromosome) clone() *Chromosome {
	return &Chromosome{
		eval:     c.eval,
		ordering: append([]uint8(nil), c.ordering...),
		nDope:    c.nDope,
		ce:       c.ce,
	}
}

// Mutate performs numSwaps independent dopant/host swaps at distinct indices,
// no index reused within one call, then rescores. The dopant count is
// preserved exactly. Monometallic chromosomes have nothing to swap and are
// left untouched.
func (c *Chromosome) Mutate(numSwaps int, rng *rand.Rand) error {
	if c.eval == nil {
		return ErrMutationNotPermitted
	}
	if c.nDope == 0 || c.nDope == len(c.ordering) {
		return nil
	}
	if numSwaps < 1 {
		return fmt.Errorf("swap count must be >= 1, got %d", numSwaps)
	}
	if free := min(c.nDope, len(c.ordering)-c.nDope); numSwaps > free {
		return fmt.Errorf("cannot make %d swaps with only %d swappable pairs", numSwaps, free)
	}

	used := make(map[int]struct{}, 2*numSwaps)
	for swap := 0; swap < numSwaps; swap++ {
		flippedToOne := false
		flippedToZero := false
		for !flippedToOne || !flippedToZero {
			i := rng.Intn(len(c.ordering))
			if _, ok := used[i]; ok {
				continue
			}
			switch {
			case c.ordering[i] == 0 && !flippedToOne:
				c.ordering[i] = 1
				flippedToOne = true
				used[i] = struct{}{}
			case c.ordering[i] == 1 && !flippedToZero:
				c.ordering[i] = 0
				flippedToZero = true
				used[i] = struct{}{}
			}
		}
	}
	return c.score()
}

// Cross recombines two parents into two children, swapping up to two
// dopant-bearing and up to two host-bearing positions among the sites where
// the parents differ, walked in reverse index order. Both children keep the
// parents' dopant count.
func (c *Chromosome) Cross(other *Chromosome) (*Chromosome, *Chromosome, error) {
	if c.eval == nil || other.eval == nil {
		return nil, nil, ErrMutationNotPermitted
	}
	if len(c.ordering) != len(other.ordering) {
		return nil, nil, fmt.Errorf("ordering lengths differ: %d vs %d", len(c.ordering), len(other.ordering))
	}
	if c.nDope != other.nDope {
		return nil, nil, fmt.Errorf("dopant counts differ: %d vs %d", c.nDope, other.nDope)
	}

	child1 := append([]uint8(nil), c.ordering...)
	child2 := append([]uint8(nil), other.ordering...)
	swapsFromOne, swapsFromZero := 2, 2
	for i := len(child1) - 1; i >= 0; i-- {
		if child1[i] == child2[i] {
			continue
		}
		if child1[i] == 1 {
			if swapsFromOne > 0 {
				child1[i] = 0
				child2[i] = 1
				swapsFromOne--
			}
		} else if swapsFromZero > 0 {
			child1[i] = 1
			child2[i] = 0
			swapsFromZero--
		}
		if swapsFromOne == 0 && swapsFromZero == 0 {
			break
		}
	}

	first, err := NewChromosomeFromOrdering(c.eval, child1)
	if err != nil {
		return nil, nil, err
	}
	second, err := NewChromosomeFromOrdering(c.eval, child2)
	if err != nil {
		return nil, nil, err
	}
	if first.nDope != c.nDope || second.nDope != c.nDope {
		return nil, nil, fmt.Errorf("crossover changed dopant count: %d/%d, want %d", first.nDope, second.nDope, c.nDope)
	}
	return first, second, nil
}
