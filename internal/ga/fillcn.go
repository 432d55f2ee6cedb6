package ga

import (
	"fmt"
	"math/rand"
	"sort"

	"nanoalloy/internal/energy"
)

// DefaultMaxSearch caps how many sub-selection candidates FillByCN scores
// when a coordination tier is larger than the remaining dopant budget.
const DefaultMaxSearch = 50

// combinationCap bounds ncr so it never overflows; counts are only ever
// compared against small search and sample limits.
const combinationCap = 1 << 30

func ncr(n, r int) int {
	if r < 0 || r > n {
		return 0
	}
	if r > n-r {
		r = n - r
	}
	result := 1
	for i := 0; i < r; i++ {
		result = result * (n - i) / (i + 1)
		if result >= combinationCap {
			return combinationCap
		}
	}
	return result
}

// combinations calls fn with every k-subset of [0, n) in lexicographic
// order. The index slice is reused between calls.
func combinations(n, k int, fn func(idxs []int)) {
	if k < 0 || k > n {
		return
	}
	idxs := make([]int, k)
	for i := range idxs {
		idxs[i] = i
	}
	for {
		fn(idxs)
		i := k - 1
		for i >= 0 && idxs[i] == n-k+i {
			i--
		}
		if i < 0 {
			return
		}
		idxs[i]++
		for j := i + 1; j < k; j++ {
			idxs[j] = idxs[j-1] + 1
		}
	}
}

// cnTiers returns the distinct coordination numbers of the skeleton sorted
// ascending (or descending), plus the atom indices of each tier.
func cnTiers(ev *energy.Evaluator, lowFirst bool) ([]int, map[int][]int) {
	cns := ev.Topology().CNs()
	byCN := make(map[int][]int)
	for atom, cn := range cns {
		byCN[cn] = append(byCN[cn], atom)
	}
	tiers := make([]int, 0, len(byCN))
	for cn := range byCN {
		tiers = append(tiers, cn)
	}
	sort.Ints(tiers)
	if !lowFirst {
		for i, j := 0, len(tiers)-1; i < j; i, j = i+1, j-1 {
			tiers[i], tiers[j] = tiers[j], tiers[i]
		}
	}
	return tiers, byCN
}

// FillByCN greedily places dopants on the lowest-coordination sites first
// (or highest, with lowFirst false). A tier that exactly fits the remaining
// budget is assigned deterministically. A tier larger than the budget
// triggers a sub-selection: all combinations are scored when there are at
// most maxSearch of them, otherwise maxSearch random picks are scored, and
// the minimum-energy fill wins.
func FillByCN(ev *energy.Evaluator, nDope, maxSearch int, lowFirst bool, rng *rand.Rand) ([]uint8, float64, error) {
	numAtoms := ev.NumAtoms()
	if nDope < 0 || nDope > numAtoms {
		return nil, 0, fmt.Errorf("%w: n_dope=%d, atoms=%d", ErrInvalidDopeCount, nDope, numAtoms)
	}
	if maxSearch <= 0 {
		maxSearch = DefaultMaxSearch
	}

	if nDope == 0 || nDope == numAtoms {
		ordering := make([]uint8, numAtoms)
		if nDope == numAtoms {
			for i := range ordering {
				ordering[i] = 1
			}
		}
		ce, err := ev.TotalCE(ordering)
		return ordering, ce, err
	}

	tiers, byCN := cnTiers(ev, lowFirst)
	ordering := make([]uint8, numAtoms)
	remaining := nDope
	for _, cn := range tiers {
		spots := byCN[cn]
		switch {
		case len(spots) == remaining:
			for _, atom := range spots {
				ordering[atom] = 1
			}
			ce, err := ev.TotalCE(ordering)
			return ordering, ce, err

		case len(spots) > remaining:
			return fillTier(ev, ordering, spots, remaining, maxSearch, rng)

		default:
			for _, atom := range spots {
				ordering[atom] = 1
			}
			remaining -= len(spots)
		}
	}
	ce, err := ev.TotalCE(ordering)
	return ordering, ce, err
}

// fillTier resolves the partially-filled tier by scoring candidate fills and
// keeping the minimum. The initial best sentinel of 0 relies on cohesive
// energies being negative.
func fillTier(ev *energy.Evaluator, base []uint8, spots []int, budget, maxSearch int, rng *rand.Rand) ([]uint8, float64, error) {
	low := 0.0
	var lowStruct []uint8
	var scoreErr error

	score := func(picks []int) {
		if scoreErr != nil {
			return
		}
		candidate := append([]uint8(nil), base...)
		for _, atom := range picks {
			candidate[atom] = 1
		}
		ce, err := ev.TotalCE(candidate)
		if err != nil {
			scoreErr = err
			return
		}
		if ce < low {
			low = ce
			lowStruct = candidate
		}
	}

	if ncr(len(spots), budget) <= maxSearch {
		picks := make([]int, budget)
		combinations(len(spots), budget, func(idxs []int) {
			for i, idx := range idxs {
				picks[i] = spots[idx]
			}
			score(picks)
		})
	} else {
		for i := 0; i < maxSearch; i++ {
			perm := rng.Perm(len(spots))
			picks := make([]int, budget)
			for j := 0; j < budget; j++ {
				picks[j] = spots[perm[j]]
			}
			score(picks)
		}
	}
	if scoreErr != nil {
		return nil, 0, scoreErr
	}
	return lowStruct, low, nil
}

// SampleByCN returns returnN random orderings drawn from the CN-greedy fill:
// tiers are assigned exactly as in FillByCN until a tier exceeds the
// remaining budget, at which point each sample picks that tier's dopants at
// random. When the greedy fill is fully deterministic a single ordering is
// returned. Requesting more unique samples than distinct fills exist fails
// with ErrInsufficientOptions.
func SampleByCN(ev *energy.Evaluator, nDope, returnN int, lowFirst bool, rng *rand.Rand) ([][]uint8, error) {
	numAtoms := ev.NumAtoms()
	if nDope < 0 || nDope > numAtoms {
		return nil, fmt.Errorf("%w: n_dope=%d, atoms=%d", ErrInvalidDopeCount, nDope, numAtoms)
	}
	if returnN <= 0 {
		return nil, fmt.Errorf("sample size must be > 0, got %d", returnN)
	}

	if nDope == 0 || nDope == numAtoms {
		ordering := make([]uint8, numAtoms)
		if nDope == numAtoms {
			for i := range ordering {
				ordering[i] = 1
			}
		}
		return [][]uint8{ordering}, nil
	}

	tiers, byCN := cnTiers(ev, lowFirst)
	base := make([]uint8, numAtoms)
	remaining := nDope
	for _, cn := range tiers {
		spots := byCN[cn]
		switch {
		case len(spots) == remaining:
			for _, atom := range spots {
				base[atom] = 1
			}
			return [][]uint8{base}, nil

		case len(spots) > remaining:
			if returnN > ncr(len(spots), remaining) {
				return nil, fmt.Errorf("%w: want %d, have %d", ErrInsufficientOptions, returnN, ncr(len(spots), remaining))
			}
			samples := make([][]uint8, 0, returnN)
			for len(samples) < returnN {
				candidate := append([]uint8(nil), base...)
				perm := rng.Perm(len(spots))
				for j := 0; j < remaining; j++ {
					candidate[spots[perm[j]]] = 1
				}
				samples = append(samples, candidate)
			}
			return samples, nil

		default:
			for _, atom := range spots {
				base[atom] = 1
			}
			remaining -= len(spots)
		}
	}
	return [][]uint8{base}, nil
}
