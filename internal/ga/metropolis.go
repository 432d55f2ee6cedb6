package ga

import (
	"context"
	"fmt"
	"math/rand"

	"nanoalloy/internal/energy"
)

// MetropolisResult carries the outcome of one Metropolis walk.
type MetropolisResult struct {
	BestOrdering  []uint8
	BestCE        float64
	EnergyHistory []float64
}

// Metropolis runs a single-ordering stochastic walk for numSteps steps.
// Each step proposes one dopant/host swap: with swapAny the pair is chosen
// uniformly across the particle, otherwise the host is restricted to atoms
// directly bonded to the chosen dopant, which approximates physical
// diffusion. A proposal is accepted when newCE/prevCE exceeds a uniform
// draw; note this ratio criterion is not the Boltzmann exp(-dE/kT) rule.
// The history has length numSteps with the starting energy at index 0.
func Metropolis(ctx context.Context, ev *energy.Evaluator, ordering []uint8, numSteps int, swapAny bool, rng *rand.Rand) (MetropolisResult, error) {
	if numSteps <= 0 {
		return MetropolisResult{}, fmt.Errorf("step count must be > 0, got %d", numSteps)
	}
	current := append([]uint8(nil), ordering...)
	startCE, err := ev.TotalCE(current)
	if err != nil {
		return MetropolisResult{}, err
	}
	nDope := 0
	for _, s := range current {
		nDope += int(s)
	}
	if nDope == 0 || nDope == len(current) {
		return MetropolisResult{}, fmt.Errorf("ordering is monometallic; nothing to swap")
	}

	best := append([]uint8(nil), current...)
	bestCE := startCE
	prevCE := startCE
	history := make([]float64, numSteps)
	history[0] = startCE

	topo := ev.Topology()
	for step := 1; step < numSteps; step++ {
		if err := ctx.Err(); err != nil {
			return MetropolisResult{}, err
		}

		ones := make([]int, 0, nDope)
		zeros := make([]int, 0, len(current)-nDope)
		for i, s := range current {
			if s == 1 {
				ones = append(ones, i)
			} else {
				zeros = append(zeros, i)
			}
		}

		var chosenOne, chosenZero int
		if swapAny {
			chosenOne = ones[rng.Intn(len(ones))]
			chosenZero = zeros[rng.Intn(len(zeros))]
		} else {
			found := false
			for _, idx := range rng.Perm(len(ones)) {
				candidate := ones[idx]
				hosts := bondedHosts(topo.Neighbors(candidate), current)
				if len(hosts) > 0 {
					chosenOne = candidate
					chosenZero = hosts[rng.Intn(len(hosts))]
					found = true
					break
				}
			}
			if !found {
				return MetropolisResult{}, fmt.Errorf("no dopant has a bonded host atom to swap with")
			}
		}

		current[chosenOne] = 0
		current[chosenZero] = 1
		ce, err := ev.TotalCE(current)
		if err != nil {
			return MetropolisResult{}, err
		}

		if ce/prevCE > rng.Float64() {
			history[step] = ce
			prevCE = ce
			if ce < bestCE {
				bestCE = ce
				copy(best, current)
			}
		} else {
			current[chosenOne] = 1
			current[chosenZero] = 0
			history[step] = prevCE
		}
	}

	return MetropolisResult{
		BestOrdering:  best,
		BestCE:        bestCE,
		EnergyHistory: history,
	}, nil
}

func bondedHosts(neighbors []int, ordering []uint8) []int {
	hosts := make([]int, 0, len(neighbors))
	for _, n := range neighbors {
		if ordering[n] == 0 {
			hosts = append(hosts, n)
		}
	}
	return hosts
}
