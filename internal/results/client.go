// Package results fetches official draw results from the Caixa lottery API.
package results

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"palpiteiro/internal/model"
)

// ErrResultNotAvailable signals that a contest has no published result yet or
// the lookup failed. Conference callers treat every flavor the same way: stop
// and try again on the next trigger.
var ErrResultNotAvailable = errors.New("draw result not available")

// maxBodySize caps how much of a response body is read.
const maxBodySize = 1 << 20

// Client talks to the public Caixa lottery results API. The endpoint shape is
// <base>/<variant>/<contest>, with the contest segment omitted for the latest
// draw.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a results client with the given base URL and timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Lookup fetches the result of a specific contest. It satisfies
// conference.ResultLookup.
func (c *Client) Lookup(ctx context.Context, variantID string, contest int) (*model.DrawResult, error) {
	return c.fetch(ctx, variantID, fmt.Sprintf("%s/%s/%d", c.baseURL, variantID, contest))
}

// Latest fetches the most recent published result for a variant.
func (c *Client) Latest(ctx context.Context, variantID string) (*model.DrawResult, error) {
	return c.fetch(ctx, variantID, fmt.Sprintf("%s/%s", c.baseURL, variantID))
}

func (c *Client) fetch(ctx context.Context, variantID, url string) (*model.DrawResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResultNotAvailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResultNotAvailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Debug().
			Str("variant", variantID).
			Str("url", url).
			Int("status", resp.StatusCode).
			Msg("Lottery API returned non-OK status")
		return nil, fmt.Errorf("%w: status %d", ErrResultNotAvailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResultNotAvailable, err)
	}

	result, err := parseDraw(variantID, body)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// parseDraw extracts the fields palpiteiro needs from the Caixa payload. The
// API nests a lot more; gjson lets us pick just the contest number, the drawn
// numbers and the draw date.
func parseDraw(variantID string, body []byte) (*model.DrawResult, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: malformed response body", ErrResultNotAvailable)
	}

	contest := gjson.GetBytes(body, "numero").Int()
	if contest <= 0 {
		return nil, fmt.Errorf("%w: response carries no contest number", ErrResultNotAvailable)
	}

	rawNumbers := gjson.GetBytes(body, "listaDezenas").Array()
	if len(rawNumbers) == 0 {
		return nil, fmt.Errorf("%w: response carries no drawn numbers", ErrResultNotAvailable)
	}
	numbers := make([]int, 0, len(rawNumbers))
	for _, raw := range rawNumbers {
		n, err := strconv.Atoi(strings.TrimSpace(raw.String()))
		if err != nil {
			return nil, fmt.Errorf("%w: bad drawn number %q", ErrResultNotAvailable, raw.String())
		}
		numbers = append(numbers, n)
	}

	result := &model.DrawResult{
		VariantID: variantID,
		Contest:   int(contest),
		Numbers:   numbers,
	}

	// The draw date is informational; a missing or odd format is not fatal.
	if raw := gjson.GetBytes(body, "dataApuracao").String(); raw != "" {
		if date, err := time.Parse("02/01/2006", raw); err == nil {
			result.DrawDate = date
		}
	}

	return result, nil
}
