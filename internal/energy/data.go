// Package energy implements the Bond-Centric cohesive-energy model:
// element data sources, gamma weighting factors, precomputed bond
// coefficients, and the ordering evaluator (CE, EE, Smix, Gmix).
//
// Yan, Z. et al., Nano Lett. 2018, 18 (4), 2696-2704.
package energy

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDataNotFound reports that a required bulk cohesive energy or bond
// dissociation energy is absent from both data sources.
var ErrDataNotFound = errors.New("no energy data for element pair")

// Bulk cohesive energies in eV/atom (Kittel, Introduction to Solid State
// Physics, 8th ed.).
var bulkCE = map[string]float64{
	"Ag": -2.95,
	"Au": -3.81,
	"Cu": -3.49,
	"Ni": -4.44,
	"Pd": -3.89,
	"Pt": -5.84,
}

type pair struct {
	a, b string
}

func pairOf(m1, m2 string) pair {
	if m1 > m2 {
		m1, m2 = m2, m1
	}
	return pair{m1, m2}
}

// Experimental homolytic bond dissociation energies in eV, from gas-phase
// dimer spectroscopy. The preferred source; sparse for heteroatomic pairs.
var experimentalBDE = map[pair]float64{
	pairOf("Ag", "Ag"): 1.65,
	pairOf("Au", "Au"): 2.29,
	pairOf("Cu", "Cu"): 2.04,
	pairOf("Ni", "Ni"): 2.07,
	pairOf("Pd", "Pd"): 1.03,
	pairOf("Pt", "Pt"): 3.14,
	pairOf("Ag", "Au"): 2.06,
	pairOf("Ag", "Cu"): 1.72,
	pairOf("Au", "Cu"): 2.36,
	pairOf("Au", "Pd"): 1.54,
	pairOf("Cu", "Ni"): 2.05,
}

// Estimated bond dissociation energies in eV, from DFT dimer calculations.
// Fallback when experiment is unavailable; covers every supported pair.
var estimatedBDE = map[pair]float64{
	pairOf("Ag", "Ag"): 1.63,
	pairOf("Au", "Au"): 2.22,
	pairOf("Cu", "Cu"): 1.99,
	pairOf("Ni", "Ni"): 2.10,
	pairOf("Pd", "Pd"): 1.17,
	pairOf("Pt", "Pt"): 3.08,
	pairOf("Ag", "Au"): 2.02,
	pairOf("Ag", "Cu"): 1.69,
	pairOf("Ag", "Ni"): 1.84,
	pairOf("Ag", "Pd"): 1.42,
	pairOf("Ag", "Pt"): 2.23,
	pairOf("Au", "Cu"): 2.31,
	pairOf("Au", "Ni"): 2.15,
	pairOf("Au", "Pd"): 1.57,
	pairOf("Au", "Pt"): 2.60,
	pairOf("Cu", "Ni"): 2.03,
	pairOf("Cu", "Pd"): 1.55,
	pairOf("Cu", "Pt"): 2.47,
	pairOf("Ni", "Pd"): 1.61,
	pairOf("Ni", "Pt"): 2.56,
	pairOf("Pd", "Pt"): 1.99,
}

// CanonicalSymbol normalizes an element symbol to title case ("cu" -> "Cu").
func CanonicalSymbol(metal string) string {
	metal = strings.TrimSpace(metal)
	if metal == "" {
		return metal
	}
	return strings.ToUpper(metal[:1]) + strings.ToLower(metal[1:])
}

// BulkCE returns the bulk cohesive energy of a metal in eV/atom.
func BulkCE(metal string) (float64, error) {
	ce, ok := bulkCE[CanonicalSymbol(metal)]
	if !ok {
		return 0, fmt.Errorf("bulk cohesive energy for %s: %w", metal, ErrDataNotFound)
	}
	return ce, nil
}

// PairData carries the raw energies needed to parameterize the model for one
// element pair: bulk cohesive energies plus homoatomic and heteroatomic bond
// dissociation energies.
type PairData struct {
	BulkCE1   float64
	BulkCE2   float64
	HomoBDE1  float64
	HomoBDE2  float64
	HeteroBDE float64
}

// LookupPair resolves raw energies for (metal1, metal2). The experimental
// table is preferred; if the heteroatomic entry or either homoatomic entry is
// missing there, every bond energy is taken from the estimated table instead,
// so that the three values stay mutually consistent. Missing from both
// sources yields ErrDataNotFound.
func LookupPair(metal1, metal2 string) (PairData, error) {
	m1 := CanonicalSymbol(metal1)
	m2 := CanonicalSymbol(metal2)

	var data PairData
	var err error
	if data.BulkCE1, err = BulkCE(m1); err != nil {
		return PairData{}, err
	}
	if data.BulkCE2, err = BulkCE(m2); err != nil {
		return PairData{}, err
	}

	source := experimentalBDE
	_, haveHetero := source[pairOf(m1, m2)]
	_, haveHomo1 := source[pairOf(m1, m1)]
	_, haveHomo2 := source[pairOf(m2, m2)]
	if !haveHetero || !haveHomo1 || !haveHomo2 {
		source = estimatedBDE
	}

	var ok bool
	if data.HomoBDE1, ok = source[pairOf(m1, m1)]; !ok {
		return PairData{}, fmt.Errorf("%s-%s bond energy: %w", m1, m1, ErrDataNotFound)
	}
	if data.HomoBDE2, ok = source[pairOf(m2, m2)]; !ok {
		return PairData{}, fmt.Errorf("%s-%s bond energy: %w", m2, m2, ErrDataNotFound)
	}
	if data.HeteroBDE, ok = source[pairOf(m1, m2)]; !ok {
		return PairData{}, fmt.Errorf("%s-%s bond energy: %w", m1, m2, ErrDataNotFound)
	}
	return data, nil
}
