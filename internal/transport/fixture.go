package transport

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// NewFixture returns an in-memory Client serving canned, deterministic
// payloads for every endpoint the engine calls, so a whole run can
// execute offline (the POLYMARKET_FIXTURE_MODE convenience described
// in the design notes: the env flag wraps this seam, tests inject it
// directly). Unrecognized paths get a 404.
func NewFixture() *http.Client {
	return &http.Client{Transport: FuncTransport(fixtureRoundTrip)}
}

func fixtureRoundTrip(req *http.Request) (*http.Response, error) {
	path := req.URL.Path
	query := req.URL.RawQuery

	switch {
	case strings.Contains(path, "/markets") && strings.Contains(query, "active"):
		return fixtureJSON(req, 200, fixtureGammaMarkets())
	case strings.Contains(path, "/midpoint"):
		return fixtureJSON(req, 200, `{"mid":"0.50"}`)
	case strings.Contains(path, "/book"):
		return fixtureJSON(req, 200, `{"bids":[["0.48","250"]],"asks":[["0.52","250"]]}`)
	case strings.Contains(path, "/orderbook"):
		return fixtureJSON(req, 200, `{"orderbook":{"yes":{"bids":[[48,120]],"asks":[[52,120]]},"no":{"bids":[[46,120]],"asks":[[54,120]]}}}`)
	case strings.Contains(path, "/ticker/bookTicker"):
		return fixtureJSON(req, 200, `{"bidPrice":"64950.00","askPrice":"65050.00"}`)
	case strings.Contains(path, "/api/v3/time"):
		return fixtureJSON(req, 200, `{"serverTime":`+strconv.FormatInt(time.Now().UnixMilli(), 10)+`}`)
	case strings.Contains(path, "/products/"):
		return fixtureJSON(req, 200, `{"bid":"64950.00","ask":"65050.00"}`)
	case strings.Contains(path, "/pubticker/"):
		return fixtureJSON(req, 200, `{"bid":"64950.00","ask":"65050.00"}`)
	default:
		return fixtureJSON(req, 404, `{"error":"no fixture for path"}`)
	}
}

func fixtureGammaMarkets() string {
	end := time.Now().Add(72 * time.Hour).UTC().Format(time.RFC3339)
	return `[{
		"id": "fixture-market-1",
		"slug": "btc-up-or-down",
		"enableOrderBook": true,
		"acceptingOrders": true,
		"closed": false,
		"restricted": false,
		"endDateIso": "` + end + `",
		"liquidity": 50000,
		"volume24hr": 12000,
		"outcomes": ["Yes", "No"],
		"clobTokenIds": ["1111", "2222"]
	}]`
}

func fixtureJSON(req *http.Request, status int, body string) (*http.Response, error) {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
		Request:    req,
	}, nil
}
