// Package discovery implements the Gamma-markets HTTP client used by
// L10 to enumerate candidate Polymarket CLOB markets (§4.5 step 1).
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/sawpanic/shadow-engine/internal/candidate"
	"github.com/sawpanic/shadow-engine/internal/transport"
)

func httpGET(ctx context.Context, url, userAgent string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	return req, nil
}

const defaultGammaBase = "https://gamma-api.polymarket.com"

// GammaDiscoverer fetches the active-markets page from the Polymarket
// Gamma API and decodes it into candidate.Market records.
type GammaDiscoverer struct {
	client    transport.Client
	baseURL   string
	userAgent string
	timeout   time.Duration
	log       zerolog.Logger
}

func NewGammaDiscoverer(client transport.Client, baseURL, userAgent string, log zerolog.Logger) *GammaDiscoverer {
	if baseURL == "" {
		baseURL = defaultGammaBase
	}
	return &GammaDiscoverer{client: client, baseURL: baseURL, userAgent: userAgent, timeout: 5 * time.Second, log: log}
}

// Discover implements candidate.Discoverer.
func (g *GammaDiscoverer) Discover(ctx context.Context) ([]candidate.Market, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	url := g.baseURL + "/markets?active=true&closed=false&limit=100"
	req, err := httpGET(ctx, url, g.userAgent)
	if err != nil {
		return nil, err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gamma discover: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("gamma discover: http %d", resp.StatusCode)
	}

	var markets []candidate.Market
	if err := json.NewDecoder(resp.Body).Decode(&markets); err != nil {
		return nil, fmt.Errorf("gamma discover: decode: %w", err)
	}
	g.log.Debug().Int("markets", len(markets)).Msg("gamma discovery page fetched")
	return markets, nil
}

// LivenessURL builds the CLOB orderbook liveness endpoint for a token,
// shared by the readiness prober.
func LivenessURL(clobBase, tokenID string) string {
	if clobBase == "" {
		clobBase = "https://clob.polymarket.com"
	}
	return fmt.Sprintf("%s/midpoint?token_id=%s", clobBase, tokenID)
}

// OrderbookURL builds the CLOB orderbook endpoint for a token, used by
// L6 fetch.
func OrderbookURL(clobBase, tokenID string) string {
	if clobBase == "" {
		clobBase = "https://clob.polymarket.com"
	}
	return fmt.Sprintf("%s/book?token_id=%s", clobBase, tokenID)
}
