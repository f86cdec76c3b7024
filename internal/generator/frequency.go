package generator

import (
	"context"
	"math/rand"
	"sort"

	"palpiteiro/internal/model"
)

// FrequencyGenerator draws combinations with each number weighted by how
// often it appeared in the supplied history. With no history every number is
// equally likely. It backs the service when no Gemini key is configured and
// tops up short or invalid Gemini responses.
type FrequencyGenerator struct {
	rng *rand.Rand
}

// NewFrequencyGenerator creates a frequency generator with the given seed
// source. Pass nil to use the shared global source.
func NewFrequencyGenerator(rng *rand.Rand) *FrequencyGenerator {
	return &FrequencyGenerator{rng: rng}
}

func (g *FrequencyGenerator) intn(n int) int {
	if g.rng != nil {
		return g.rng.Intn(n)
	}
	return rand.Intn(n)
}

// Generate proposes count combinations. Weighted sampling without
// replacement: a number's weight is its historical frequency plus one, so an
// unseen number still has a chance.
func (g *FrequencyGenerator) Generate(_ context.Context, v model.Variant, history []model.DrawResult, count int) ([]model.Combination, error) {
	weights := make([]int, v.TotalNumbers+1) // index 1..TotalNumbers
	for i := 1; i <= v.TotalNumbers; i++ {
		weights[i] = 1
	}
	for _, draw := range history {
		for _, n := range draw.Numbers {
			if n >= 1 && n <= v.TotalNumbers {
				weights[n]++
			}
		}
	}

	combinations := make([]model.Combination, 0, count)
	for len(combinations) < count {
		combinations = append(combinations, g.drawCombination(v, weights))
	}
	return combinations, nil
}

// drawCombination samples NumbersPerGame distinct numbers by weight.
func (g *FrequencyGenerator) drawCombination(v model.Variant, weights []int) model.Combination {
	remaining := append([]int(nil), weights...)
	total := 0
	for i := 1; i <= v.TotalNumbers; i++ {
		total += remaining[i]
	}

	combination := make(model.Combination, 0, v.NumbersPerGame)
	for len(combination) < v.NumbersPerGame {
		pick := g.intn(total)
		for n := 1; n <= v.TotalNumbers; n++ {
			pick -= remaining[n]
			if pick < 0 {
				combination = append(combination, n)
				total -= remaining[n]
				remaining[n] = 0 // without replacement
				break
			}
		}
	}

	sort.Ints(combination)
	return combination
}
