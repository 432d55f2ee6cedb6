package ga

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"nanoalloy/internal/energy"
	"nanoalloy/internal/model"
)

// RecalledResult is a best-known ordering recalled from the result store for
// the same skeleton and composition, used to seed the initial population.
type RecalledResult struct {
	Ordering []uint8
	CE       float64
}

// Config collects every knob of one genetic-algorithm run. All fields are
// required unless noted; XDope, when positive, overrides NDope as a fraction
// of the atom count.
type Config struct {
	PopSize  int
	KillRate float64 // fraction of the population discarded each generation
	MateRate float64 // fraction of the killed slots refilled by crossover
	MuteRate float64 // fraction of survivors mutated each generation
	MuteNum  int     // swaps per mutation event
	NDope    int
	XDope    float64
	Seed     int64

	// PrevBest, when set, contributes one seed member and the baseline for
	// IsNewMin. Optional.
	PrevBest *RecalledResult
}

// Population evolves a sorted collection of chromosomes against one shared
// evaluator. Lower cohesive energy is better; the collection stays sorted
// ascending by energy after every change.
type Population struct {
	cfg  Config
	eval *energy.Evaluator
	rng  *rand.Rand

	numAtoms int
	nDope    int
	nKill    int
	nMate    int
	nMut     int

	pop       []*Chromosome
	stats     []model.GenerationStats
	hasRun    bool
	continued int
}

// NewPopulation validates the configuration, builds the seeded initial
// population, and records the initial generation statistics.
func NewPopulation(ev *energy.Evaluator, cfg Config) (*Population, error) {
	if ev == nil {
		return nil, fmt.Errorf("evaluator is required")
	}
	if cfg.PopSize <= 0 {
		return nil, fmt.Errorf("population size must be > 0")
	}
	if cfg.KillRate < 0 || cfg.KillRate > 1 {
		return nil, fmt.Errorf("kill rate must be in [0, 1]")
	}
	if cfg.MateRate < 0 || cfg.MateRate > 1 {
		return nil, fmt.Errorf("mate rate must be in [0, 1]")
	}
	if cfg.MuteRate < 0 || cfg.MuteRate > 1 {
		return nil, fmt.Errorf("mutation rate must be in [0, 1]")
	}
	if cfg.MuteNum <= 0 {
		cfg.MuteNum = 1
	}

	numAtoms := ev.NumAtoms()
	nDope := cfg.NDope
	if cfg.XDope > 0 {
		nDope = int(cfg.XDope * float64(numAtoms))
	}
	if nDope < 0 || nDope > numAtoms {
		return nil, fmt.Errorf("%w: n_dope=%d, atoms=%d", ErrInvalidDopeCount, nDope, numAtoms)
	}

	nKill := int(float64(cfg.PopSize) * cfg.KillRate)
	p := &Population{
		cfg:      cfg,
		eval:     ev,
		rng:      rand.New(rand.NewSource(cfg.Seed)),
		numAtoms: numAtoms,
		nDope:    nDope,
		nKill:    nKill,
		nMate:    int(float64(cfg.PopSize) * cfg.KillRate * cfg.MateRate),
		nMut:     int(float64(cfg.PopSize-nKill) * cfg.MuteRate),
	}
	if err := p.buildPop(); err != nil {
		return nil, err
	}
	p.sortPop()
	p.updateStats()
	return p, nil
}

// buildPop seeds the population: lowest-CN-first fill, highest-CN-first
// fill, the recalled best-known ordering when available, then independent
// random orderings for the remaining slots.
func (p *Population) buildPop() error {
	p.pop = p.pop[:0]

	for _, lowFirst := range []bool{true, false} {
		if len(p.pop) == p.cfg.PopSize {
			break
		}
		ordering, _, err := FillByCN(p.eval, p.nDope, DefaultMaxSearch, lowFirst, p.rng)
		if err != nil {
			return err
		}
		seed, err := NewChromosomeFromOrdering(p.eval, ordering)
		if err != nil {
			return err
		}
		p.pop = append(p.pop, seed)
	}

	if p.cfg.PrevBest != nil && !p.monometallic() && len(p.pop) < p.cfg.PopSize {
		recalled, err := NewChromosomeFromOrdering(p.eval, p.cfg.PrevBest.Ordering)
		if err != nil {
			return err
		}
		p.pop = append(p.pop, recalled)
	}

	for len(p.pop) < p.cfg.PopSize {
		c, err := NewChromosome(p.eval, p.nDope, p.rng)
		if err != nil {
			return err
		}
		p.pop = append(p.pop, c)
	}
	return nil
}

func (p *Population) monometallic() bool {
	return p.nDope == 0 || p.nDope == p.numAtoms
}

// sortPop orders the population ascending by energy. The sort is stable so
// that equal-energy members keep their insertion order.
func (p *Population) sortPop() {
	sort.SliceStable(p.pop, func(i, j int) bool {
		return p.pop[i].ce < p.pop[j].ce
	})
}

func (p *Population) updateStats() {
	total := 0.0
	for _, c := range p.pop {
		total += c.ce
	}
	mean := total / float64(len(p.pop))

	variance := 0.0
	for _, c := range p.pop {
		d := c.ce - mean
		variance += d * d
	}
	std := math.Sqrt(variance / float64(len(p.pop)))

	p.stats = append(p.stats, model.GenerationStats{
		Min:  p.pop[0].ce,
		Mean: mean,
		Std:  std,
	})
}

// Step advances the population one generation: truncation selection,
// fittest-paired crossover, random refill, mutation of non-elite members,
// re-sort, and statistics.
func (p *Population) Step() error {
	survivors := p.cfg.PopSize - p.nKill
	if survivors < 1 {
		survivors = 1
	}
	p.pop = p.pop[:min(survivors, len(p.pop))]

	// Crossbreed the current best with the next-fittest survivors in order.
	mated := 0
	toMate := 1
	for len(p.pop) < p.cfg.PopSize && mated < p.nMate && toMate < survivors {
		child1, child2, err := p.pop[0].Cross(p.pop[toMate])
		if err != nil {
			return err
		}
		p.pop = append(p.pop, child1, child2)
		mated += 2
		toMate++
	}

	for len(p.pop) < p.cfg.PopSize {
		c, err := NewChromosome(p.eval, p.nDope, p.rng)
		if err != nil {
			return err
		}
		p.pop = append(p.pop, c)
	}
	p.pop = p.pop[:p.cfg.PopSize]

	// Mutate non-elite members only; index 0 is never touched.
	for i := 0; i < p.nMut && p.cfg.PopSize > 1; i++ {
		idx := 1 + p.rng.Intn(p.cfg.PopSize-1)
		if err := p.pop[idx].Mutate(p.cfg.MuteNum, p.rng); err != nil {
			return err
		}
	}

	p.sortPop()
	p.updateStats()
	return nil
}

// Run iterates Step up to nsteps generations, stopping early once the
// population standard deviation falls to stdCut or below. Monometallic
// compositions have exactly one ordering, already scored at construction,
// so the loop is skipped entirely. A population can run once; use
// ContinueRun afterwards.
func (p *Population) Run(ctx context.Context, nsteps int, stdCut float64) error {
	if p.hasRun {
		return fmt.Errorf("simulation has already run; use ContinueRun")
	}
	if p.eval == nil {
		return ErrMutationNotPermitted
	}

	if !p.monometallic() {
		for i := 0; i < nsteps; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := p.Step(); err != nil {
				return err
			}
			if p.stats[len(p.stats)-1].Std <= stdCut {
				break
			}
		}
	}
	p.hasRun = true
	return nil
}

// ContinueRun resumes a finished run, accumulating onto the existing
// statistics history. The evaluator must be attached (see Attach) since a
// population saved for persistence is detached.
func (p *Population) ContinueRun(ctx context.Context, nsteps int, stdCut float64) error {
	if p.eval == nil {
		return ErrMutationNotPermitted
	}
	p.hasRun = false
	if err := p.Run(ctx, nsteps, stdCut); err != nil {
		return err
	}
	p.continued++
	return nil
}

// Detach strips the evaluator from the population and every chromosome,
// leaving plain serializable data.
func (p *Population) Detach() {
	p.eval = nil
	for _, c := range p.pop {
		c.Detach()
	}
}

// Attach restores a (re)built evaluator on the population and every
// chromosome.
func (p *Population) Attach(ev *energy.Evaluator) {
	p.eval = ev
	for _, c := range p.pop {
		c.Attach(ev)
	}
}

// Best returns a copy of the current fittest chromosome.
func (p *Population) Best() *Chromosome {
	return p.pop[0].clone()
}

// MinCE returns the lowest energy seen across all recorded generations.
func (p *Population) MinCE() float64 {
	low := p.stats[0].Min
	for _, s := range p.stats[1:] {
		if s.Min < low {
			low = s.Min
		}
	}
	return low
}

// Stats returns the per-generation statistics history; index 0 is the
// initial population.
func (p *Population) Stats() []model.GenerationStats {
	return append([]model.GenerationStats(nil), p.stats...)
}

// Generations returns how many steps have been taken.
func (p *Population) Generations() int {
	return len(p.stats) - 1
}

// Continued returns how many times the run has been resumed.
func (p *Population) Continued() int {
	return p.continued
}

// HasRun reports whether Run has completed at least once.
func (p *Population) HasRun() bool {
	return p.hasRun
}

// DopantCount returns the resolved dopant count of this run.
func (p *Population) DopantCount() int {
	return p.nDope
}

// Formula renders the composition string of the evolved particle,
// e.g. "Ag13Cu42".
func (p *Population) Formula() string {
	metal1, metal2 := p.eval.Metals()
	return fmt.Sprintf("%s%d%s%d", metal1, p.numAtoms-p.nDope, metal2, p.nDope)
}

// IsNewMin reports whether this run found a lower energy than the recalled
// best-known result. True when no prior result exists.
func (p *Population) IsNewMin() bool {
	if p.cfg.PrevBest == nil {
		return true
	}
	return p.MinCE() < p.cfg.PrevBest.CE
}
