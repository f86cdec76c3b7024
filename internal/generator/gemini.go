package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"palpiteiro/internal/model"
)

// GeminiGenerator asks a Gemini model for combinations, grounded on recent
// draws. Responses are re-validated number by number; anything malformed is
// dropped and the shortfall is topped up by the frequency generator, so the
// caller always receives exactly count valid combinations.
type GeminiGenerator struct {
	client   *genai.Client
	model    string
	fallback *FrequencyGenerator
}

// NewGeminiGenerator creates a Gemini-backed generator.
func NewGeminiGenerator(ctx context.Context, apiKey, modelName string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiGenerator{
		client:   client,
		model:    modelName,
		fallback: NewFrequencyGenerator(nil),
	}, nil
}

// Generate requests count combinations from the model. Model failure is not
// fatal: the frequency generator covers the whole request.
func (g *GeminiGenerator) Generate(ctx context.Context, v model.Variant, history []model.DrawResult, count int) ([]model.Combination, error) {
	combinations, err := g.ask(ctx, v, history, count)
	if err != nil {
		log.Warn().Err(err).Str("variant", v.ID).Msg("Gemini generation failed, using frequency fallback")
		combinations = nil
	}

	if len(combinations) < count {
		topUp, err := g.fallback.Generate(ctx, v, history, count-len(combinations))
		if err != nil {
			return nil, err
		}
		combinations = append(combinations, topUp...)
	}
	return combinations[:count], nil
}

func (g *GeminiGenerator) ask(ctx context.Context, v model.Variant, history []model.DrawResult, count int) ([]model.Combination, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		genai.Text(buildPrompt(v, history, count)),
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
		},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}

	return parseCombinations(v, resp.Text(), count)
}

// parseCombinations decodes a model response and keeps only combinations
// that validate against the variant.
func parseCombinations(v model.Variant, text string, count int) ([]model.Combination, error) {
	var raw [][]int
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("gemini response is not a JSON array of arrays: %w", err)
	}

	combinations := make([]model.Combination, 0, count)
	for _, numbers := range raw {
		c := model.Combination(numbers)
		if err := c.Validate(v); err != nil {
			log.Debug().Err(err).Ints("numbers", numbers).Msg("Discarding invalid Gemini combination")
			continue
		}
		combinations = append(combinations, c)
		if len(combinations) == count {
			break
		}
	}
	return combinations, nil
}

// buildPrompt frames the request with recent draws and the variant's rules.
func buildPrompt(v model.Variant, history []model.DrawResult, count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You suggest %s lottery games. Each game picks %d distinct numbers between 1 and %d.\n",
		v.Name, v.NumbersPerGame, v.TotalNumbers)
	if len(history) > 0 {
		b.WriteString("Most recent official draws, newest first:\n")
		for _, draw := range history {
			fmt.Fprintf(&b, "contest %d: %v\n", draw.Contest, draw.Numbers)
		}
	}
	fmt.Fprintf(&b, "Suggest %d games, mixing frequently drawn numbers with overdue ones.\n", count)
	fmt.Fprintf(&b, "Answer with only a JSON array of %d arrays of %d integers.", count, v.NumbersPerGame)
	return b.String()
}
