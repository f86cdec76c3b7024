// Package model defines the data models for the palpiteiro service.
package model

import "sort"

// Variant is the immutable configuration of a lottery game.
type Variant struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	NumbersPerGame int    `json:"numbersPerGame"` // how many numbers one combination holds
	TotalNumbers   int    `json:"totalNumbers"`   // pool size, numbers run 1..TotalNumbers
	PrizeTiers     []int  `json:"prizeTiers"`     // ascending hit counts that pay a prize
}

// IsTier reports whether a hit count qualifies for a prize in this variant.
func (v Variant) IsTier(hits int) bool {
	for _, t := range v.PrizeTiers {
		if t == hits {
			return true
		}
	}
	return false
}

var variants = map[string]Variant{
	"lotofacil": {
		ID:             "lotofacil",
		Name:           "Lotofácil",
		NumbersPerGame: 15,
		TotalNumbers:   25,
		PrizeTiers:     []int{11, 12, 13, 14, 15},
	},
	"megasena": {
		ID:             "megasena",
		Name:           "Mega-Sena",
		NumbersPerGame: 6,
		TotalNumbers:   60,
		PrizeTiers:     []int{4, 5, 6},
	},
}

// VariantByID looks up a registered variant.
func VariantByID(id string) (Variant, bool) {
	v, ok := variants[id]
	return v, ok
}

// RegisterVariant adds or replaces a variant in the registry.
// The two Brazilian games ship built in; additional games only need
// a registration call at startup.
func RegisterVariant(v Variant) {
	variants[v.ID] = v
}

// Variants returns all registered variants sorted by ID.
func Variants() []Variant {
	out := make([]Variant, 0, len(variants))
	for _, v := range variants {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
