// Package generator produces candidate combinations for a lottery variant,
// framed by recent draw history. Suggestions are entertainment, not
// statistics: the service makes no claim about their soundness.
package generator

import (
	"context"

	"palpiteiro/internal/model"
)

// Generator proposes count combinations for a variant. Every returned
// combination is valid for the variant: correct arity, all numbers distinct
// and in range.
type Generator interface {
	Generate(ctx context.Context, v model.Variant, history []model.DrawResult, count int) ([]model.Combination, error)
}
