package energy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"nanoalloy/internal/topology"
)

func TestCanonicalSymbol(t *testing.T) {
	require.Equal(t, "Cu", CanonicalSymbol("cu"))
	require.Equal(t, "Ag", CanonicalSymbol(" AG "))
	require.Equal(t, "", CanonicalSymbol(""))
}

func TestBulkCEUnknownElement(t *testing.T) {
	_, err := BulkCE("Xx")
	require.ErrorIs(t, err, ErrDataNotFound)
}

func TestLookupPairPrefersExperiment(t *testing.T) {
	data, err := LookupPair("Ag", "Cu")
	require.NoError(t, err)
	require.InDelta(t, 1.65, data.HomoBDE1, 1e-12)
	require.InDelta(t, 2.04, data.HomoBDE2, 1e-12)
	require.InDelta(t, 1.72, data.HeteroBDE, 1e-12)
}

func TestLookupPairFallsBackAsAWhole(t *testing.T) {
	// Ag-Ni has no experimental heteroatomic entry, so every bond energy
	// must come from the estimated table, including the homoatomic ones.
	data, err := LookupPair("Ag", "Ni")
	require.NoError(t, err)
	require.InDelta(t, 1.63, data.HomoBDE1, 1e-12)
	require.InDelta(t, 2.10, data.HomoBDE2, 1e-12)
	require.InDelta(t, 1.84, data.HeteroBDE, 1e-12)
}

func TestGammaEqualElements(t *testing.T) {
	g1, g2, err := Gamma("Cu", "cu")
	require.NoError(t, err)
	require.Equal(t, 1.0, g1)
	require.Equal(t, 1.0, g2)
}

func TestGammaSumsToTwo(t *testing.T) {
	g1, g2, err := Gamma("Ag", "Cu")
	require.NoError(t, err)
	require.InDelta(t, 2.0, g1+g2, 1e-12)

	// gammaAg*homoAg + gammaCu*homoCu = 2*hetero
	require.InDelta(t, 2*1.72, g1*1.65+g2*2.04, 1e-12)
}

func TestGammaUnknownPair(t *testing.T) {
	_, _, err := Gamma("Ag", "Fe")
	require.ErrorIs(t, err, ErrDataNotFound)
}

func TestCoefficientsTable(t *testing.T) {
	coeffs, err := Coefficients("cu", "ag")
	require.NoError(t, err)

	// Canonicalized and sorted alphabetically.
	require.Equal(t, [2]string{"Ag", "Cu"}, coeffs.Metals)
	require.Equal(t, 1.0, coeffs.Gamma[0][0])
	require.Equal(t, 1.0, coeffs.Gamma[1][1])
	require.InDelta(t, 2.0, coeffs.Gamma[0][1]+coeffs.Gamma[1][0], 1e-12)

	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			require.True(t, math.IsNaN(coeffs.HalfBond[i][j][0]), "cn=0 slot must be NaN")
			require.InDelta(t, coeffs.Precomp[i][j]/12, coeffs.HalfBond[i][j][CNMax], 1e-12)
		}
	}
}

func dimer(t *testing.T) *topology.Topology {
	t.Helper()
	topo, err := topology.New(2, [][2]int{{0, 1}, {1, 0}})
	require.NoError(t, err)
	return topo
}

func newTestEvaluator(t *testing.T, topo *topology.Topology) *Evaluator {
	t.Helper()
	coeffs, err := Coefficients("Ag", "Cu")
	require.NoError(t, err)
	ev, err := NewEvaluator(topo, coeffs)
	require.NoError(t, err)
	return ev
}

func TestTotalCEDimerClosedForm(t *testing.T) {
	ev := newTestEvaluator(t, dimer(t))

	// Pure Ag dimer: two directed bonds of bulkCE/sqrt(12*1), over 2 atoms.
	ce, err := ev.TotalCE([]uint8{0, 0})
	require.NoError(t, err)
	require.InDelta(t, -2.95/math.Sqrt(12), ce, 1e-12)

	ce, err = ev.TotalCE([]uint8{1, 1})
	require.NoError(t, err)
	require.InDelta(t, -3.49/math.Sqrt(12), ce, 1e-12)
}

func TestTotalCELengthMismatch(t *testing.T) {
	ev := newTestEvaluator(t, dimer(t))
	_, err := ev.TotalCE([]uint8{0})
	require.Error(t, err)
}

func TestTotalCERelabelingInvariance(t *testing.T) {
	// A 4-atom chain and the same chain with atom labels reversed must score
	// identically for correspondingly permuted orderings.
	chain, err := topology.New(4, [][2]int{{0, 1}, {1, 0}, {1, 2}, {2, 1}, {2, 3}, {3, 2}})
	require.NoError(t, err)
	reversed, err := topology.New(4, [][2]int{{3, 2}, {2, 3}, {2, 1}, {1, 2}, {1, 0}, {0, 1}})
	require.NoError(t, err)

	evA := newTestEvaluator(t, chain)
	evB := newTestEvaluator(t, reversed)

	ordering := []uint8{0, 1, 1, 0}
	permuted := []uint8{0, 1, 1, 0}
	ceA, err := evA.TotalCE(ordering)
	require.NoError(t, err)
	ceB, err := evB.TotalCE(permuted)
	require.NoError(t, err)
	require.InDelta(t, ceA, ceB, 1e-12)

	asymmetric := []uint8{1, 0, 0, 0}
	reversedOrd := []uint8{0, 0, 0, 1}
	ceA, err = evA.TotalCE(asymmetric)
	require.NoError(t, err)
	ceB, err = evB.TotalCE(reversedOrd)
	require.NoError(t, err)
	require.InDelta(t, ceA, ceB, 1e-12)
}

func TestExcessEnergyPureIsZero(t *testing.T) {
	ev := newTestEvaluator(t, dimer(t))

	for _, ordering := range [][]uint8{{0, 0}, {1, 1}} {
		ee, err := ev.ExcessEnergy(ordering)
		require.NoError(t, err)
		require.Zero(t, ee)
	}
}

func TestMixingEntropyFiftyFifty(t *testing.T) {
	ev := newTestEvaluator(t, dimer(t))

	smix, err := ev.MixingEntropy([]uint8{0, 1})
	require.NoError(t, err)
	require.InDelta(t, BoltzmannEV*math.Ln2, smix, 1e-18)

	// Pure compositions carry no mixing entropy.
	smix, err = ev.MixingEntropy([]uint8{0, 0})
	require.NoError(t, err)
	require.Zero(t, smix)
}

func TestMixingFreeEnergy(t *testing.T) {
	ev := newTestEvaluator(t, dimer(t))

	ordering := []uint8{0, 1}
	ee, err := ev.ExcessEnergy(ordering)
	require.NoError(t, err)
	smix, err := ev.MixingEntropy(ordering)
	require.NoError(t, err)

	gmix, err := ev.MixingFreeEnergy(ordering, RoomTemperature)
	require.NoError(t, err)
	require.InDelta(t, ee-RoomTemperature*smix, gmix, 1e-15)

	// At T=0 the entropy term vanishes.
	gmix, err = ev.MixingFreeEnergy(ordering, 0)
	require.NoError(t, err)
	require.InDelta(t, ee, gmix, 1e-15)
}

func TestPureCECaching(t *testing.T) {
	ev := newTestEvaluator(t, dimer(t))

	ce0, err := ev.TotalCE([]uint8{0, 0})
	require.NoError(t, err)
	ce1, err := ev.TotalCE([]uint8{1, 1})
	require.NoError(t, err)
	require.Equal(t, ce0, ev.PureCE(0))
	require.Equal(t, ce1, ev.PureCE(1))
}
