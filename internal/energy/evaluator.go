package energy

import (
	"fmt"
	"math"

	"nanoalloy/internal/topology"
)

// BoltzmannEV is the Boltzmann constant in eV/K.
const BoltzmannEV = 8.617333262e-5

// RoomTemperature is the default temperature for free-energy-of-mixing
// calculations, in Kelvin.
const RoomTemperature = 298.0

// eeZeroTolerance snaps float noise around zero excess energy, so that
// near-pure orderings report exactly 0.
const eeZeroTolerance = 1e-10

// Evaluator scores chemical orderings of one fixed skeleton under the
// Bond-Centric model. All state is computed at construction and shared
// read-only afterwards, so one Evaluator serves any number of concurrent
// callers and every scoring method is a pure function of its ordering.
type Evaluator struct {
	topo   *topology.Topology
	coeffs *CoeffTable

	// Bond source/destination columns and the per-bond normalization
	// sqrt(12 * cn(source)), cached once per topology.
	src      []int
	dst      []int
	bondNorm []float64

	pureCE [2]float64
}

// NewEvaluator binds a coefficient table to a topology. Metal order follows
// the table: species 0 is coeffs.Metals[0], species 1 is coeffs.Metals[1].
func NewEvaluator(topo *topology.Topology, coeffs *CoeffTable) (*Evaluator, error) {
	if topo == nil {
		return nil, fmt.Errorf("topology is required")
	}
	if coeffs == nil {
		return nil, fmt.Errorf("coefficient table is required")
	}

	bonds := topo.Bonds()
	e := &Evaluator{
		topo:     topo,
		coeffs:   coeffs,
		src:      make([]int, len(bonds)),
		dst:      make([]int, len(bonds)),
		bondNorm: make([]float64, len(bonds)),
	}
	for i, bond := range bonds {
		e.src[i] = bond[0]
		e.dst[i] = bond[1]
		e.bondNorm[i] = math.Sqrt(float64(CNMax * topo.CN(bond[0])))
	}

	for species := 0; species < 2; species++ {
		e.pureCE[species] = e.totalCE(uniformOrdering(topo.NumAtoms(), uint8(species)))
	}
	return e, nil
}

func uniformOrdering(n int, species uint8) []uint8 {
	ordering := make([]uint8, n)
	for i := range ordering {
		ordering[i] = species
	}
	return ordering
}

func (e *Evaluator) NumAtoms() int {
	return e.topo.NumAtoms()
}

func (e *Evaluator) Topology() *topology.Topology {
	return e.topo
}

// Metals returns the species symbols in index order (0, 1).
func (e *Evaluator) Metals() (string, string) {
	return e.coeffs.Metals[0], e.coeffs.Metals[1]
}

// PureCE returns the cohesive energy of the monometallic ordering of the
// given species on this skeleton.
func (e *Evaluator) PureCE(species int) float64 {
	return e.pureCE[species]
}

func (e *Evaluator) checkOrdering(ordering []uint8) error {
	if len(ordering) != e.topo.NumAtoms() {
		return fmt.Errorf("ordering length %d does not match atom count %d", len(ordering), e.topo.NumAtoms())
	}
	return nil
}

// TotalCE computes the cohesive energy of an ordering in eV/atom:
// the sum over bonds of precomp[src][dst]/sqrt(12*CN(src)), divided by the
// atom count.
func (e *Evaluator) TotalCE(ordering []uint8) (float64, error) {
	if err := e.checkOrdering(ordering); err != nil {
		return 0, err
	}
	return e.totalCE(ordering), nil
}

func (e *Evaluator) totalCE(ordering []uint8) float64 {
	sum := 0.0
	for i := range e.src {
		sum += e.coeffs.Precomp[ordering[e.src[i]]][ordering[e.dst[i]]] / e.bondNorm[i]
	}
	return sum / float64(e.topo.NumAtoms())
}

// fractions returns the atom fraction of each species.
func (e *Evaluator) fractions(ordering []uint8) [2]float64 {
	var counts [2]int
	for _, s := range ordering {
		counts[s]++
	}
	n := float64(len(ordering))
	return [2]float64{float64(counts[0]) / n, float64(counts[1]) / n}
}

// ExcessEnergy computes the mixing stabilization of an ordering: its
// cohesive energy minus the composition-weighted monometallic references.
// Pure orderings give exactly zero.
func (e *Evaluator) ExcessEnergy(ordering []uint8) (float64, error) {
	if err := e.checkOrdering(ordering); err != nil {
		return 0, err
	}
	x := e.fractions(ordering)
	ee := e.totalCE(ordering)
	for species := 0; species < 2; species++ {
		ee -= e.pureCE[species] * x[species]
	}
	if math.Abs(ee) < eeZeroTolerance {
		ee = 0
	}
	return ee, nil
}

// MixingEntropy computes the configurational entropy of mixing in eV/K.
// Species with zero fraction are excluded from the sum.
func (e *Evaluator) MixingEntropy(ordering []uint8) (float64, error) {
	if err := e.checkOrdering(ordering); err != nil {
		return 0, err
	}
	smix := 0.0
	for _, xi := range e.fractions(ordering) {
		if xi > 0 {
			smix += xi * math.Log(xi)
		}
	}
	return -BoltzmannEV * smix, nil
}

// MixingFreeEnergy computes G_mix = EE - T*S_mix at temperature T (Kelvin).
func (e *Evaluator) MixingFreeEnergy(ordering []uint8, T float64) (float64, error) {
	ee, err := e.ExcessEnergy(ordering)
	if err != nil {
		return 0, err
	}
	smix, err := e.MixingEntropy(ordering)
	if err != nil {
		return 0, err
	}
	return ee - T*smix, nil
}
