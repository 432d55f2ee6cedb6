package energy

import (
	"math"
	"sort"
)

// CNMax is the bulk coordination number of a close-packed metal lattice.
const CNMax = 12

// GammaFromRaw solves the Bond-Centric weighting factors for one element
// pair from its bond dissociation energies (equations 5 and 6 of Yan et al.):
//
//	gamma1*homo1 + gamma2*homo2 = 2*hetero
//	gamma1 + gamma2 = 2
func GammaFromRaw(homo1, homo2, hetero float64) (float64, float64) {
	gamma1 := 2 * (hetero - homo2) / (homo1 - homo2)
	return gamma1, 2 - gamma1
}

// Gamma returns the weighting factors for (metal1, metal2), in argument
// order. Equal elements give 1.0 for both directions regardless of the
// underlying bond energies.
func Gamma(metal1, metal2 string) (float64, float64, error) {
	if CanonicalSymbol(metal1) == CanonicalSymbol(metal2) {
		return 1.0, 1.0, nil
	}
	data, err := LookupPair(metal1, metal2)
	if err != nil {
		return 0, 0, err
	}
	gamma1, gamma2 := GammaFromRaw(data.HomoBDE1, data.HomoBDE2, data.HeteroBDE)
	return gamma1, gamma2, nil
}

// CoeffTable holds every precomputed quantity of the model for one metal
// pair. Index 0 is the alphabetically first metal. HalfBond[i][j][cn] is the
// half-bond energy contribution of an i atom with coordination number cn
// bonded to a j atom; cn=0 has no defined contribution and is stored as NaN.
type CoeffTable struct {
	Metals   [2]string
	Gamma    [2][2]float64
	Precomp  [2][2]float64
	HalfBond [2][2][CNMax + 1]float64
}

// CoeffsFromRaw builds the table from raw energies, with metal1/metal2 and
// the energies already in canonical (alphabetical) order.
func CoeffsFromRaw(metal1, metal2 string, data PairData) *CoeffTable {
	table := &CoeffTable{Metals: [2]string{metal1, metal2}}

	if metal1 == metal2 {
		table.Gamma = [2][2]float64{{1, 1}, {1, 1}}
	} else {
		gamma1, gamma2 := GammaFromRaw(data.HomoBDE1, data.HomoBDE2, data.HeteroBDE)
		table.Gamma = [2][2]float64{{1, gamma1}, {gamma2, 1}}
	}

	bulk := [2]float64{data.BulkCE1, data.BulkCE2}
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			table.Precomp[i][j] = table.Gamma[i][j] * bulk[i]
			table.HalfBond[i][j][0] = math.NaN()
			for cn := 1; cn <= CNMax; cn++ {
				table.HalfBond[i][j][cn] = table.Precomp[i][j] / math.Sqrt(CNMax) / math.Sqrt(float64(cn))
			}
		}
	}
	return table
}

// Coefficients resolves raw energies from the data sources and builds the
// coefficient table for a metal pair. The pair is canonicalized to
// alphabetical order first.
func Coefficients(metal1, metal2 string) (*CoeffTable, error) {
	m1 := CanonicalSymbol(metal1)
	m2 := CanonicalSymbol(metal2)
	ordered := []string{m1, m2}
	sort.Strings(ordered)
	m1, m2 = ordered[0], ordered[1]

	data, err := LookupPair(m1, m2)
	if err != nil {
		return nil, err
	}
	return CoeffsFromRaw(m1, m2, data), nil
}
