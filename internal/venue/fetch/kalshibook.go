package fetch

import (
	"context"
	"strings"
	"time"

	"github.com/sawpanic/shadow-engine/internal/venue"
	"github.com/sawpanic/shadow-engine/internal/venue/parse"
)

// kalshiNoSuffix marks the synthetic NO-side token ID KalshiBookFetcher
// expects: Kalshi has one combined orderbook endpoint per ticker rather
// than one per token, so the YES/NO distinction is carried on the token
// ID instead of the URL.
const kalshiNoSuffix = "#no"

// KalshiYesToken and KalshiNoToken build the per-side token IDs that
// select which half of the combined payload FetchBook parses.
func KalshiYesToken(ticker string) string { return ticker }
func KalshiNoToken(ticker string) string  { return ticker + kalshiNoSuffix }

// KalshiBookFetcher fetches the centralized venue's single combined
// orderbook payload and parses whichever side tokenID names, deriving
// the other side as its complement (§4.2 step 4), grounded on the
// combined yes/no payload shape the centralized venue's API returns.
type KalshiBookFetcher struct {
	fetcher    *Fetcher
	url        URLFunc
	thresholds parse.Thresholds
	now        func() time.Time
}

func NewKalshiBookFetcher(fetcher *Fetcher, urlFn URLFunc, th parse.Thresholds) *KalshiBookFetcher {
	return &KalshiBookFetcher{fetcher: fetcher, url: urlFn, thresholds: th, now: time.Now}
}

// FetchBook implements pipeline.VenueBookFetcher.
func (b *KalshiBookFetcher) FetchBook(ctx context.Context, tokenID string) venue.Book {
	ts := b.now().Unix()
	ticker := strings.TrimSuffix(tokenID, kalshiNoSuffix)
	wantNo := strings.HasSuffix(tokenID, kalshiNoSuffix)

	raw, err := b.fetcher.FetchJSON(ctx, b.url(ticker))
	if err != nil {
		return venue.Book{Venue: "kalshi", TS: ts, Status: venue.StatusNoTrade, FailReason: venue.FailBookUnavailable}
	}

	yesRaw, noRaw, ok := splitKalshiPayload(raw)
	if !ok {
		return venue.Book{Venue: "kalshi", TS: ts, Status: venue.StatusNoTrade, FailReason: venue.FailParseAmbiguous}
	}
	if wantNo {
		return parse.ParseCentsBook(noRaw, yesRaw, "kalshi", ts, b.thresholds)
	}
	return parse.ParseCentsBook(yesRaw, noRaw, "kalshi", ts, b.thresholds)
}

// splitKalshiPayload extracts the yes/no bid/ask arrays from the
// centralized venue's orderbook response, which nests them either as
// top-level yes_bid/yes_ask/no_bid/no_ask fields or under "yes"/"no"
// sub-objects carrying their own "bids"/"asks" arrays. Returns ok=false
// on any non-object shape, leaving the never-panic contract to the
// caller via PARSE_AMBIGUOUS.
func splitKalshiPayload(raw interface{}) (yesRaw, noRaw map[string]interface{}, ok bool) {
	obj, isObj := raw.(map[string]interface{})
	if !isObj {
		return nil, nil, false
	}
	payload := obj
	if nested, nestedOK := obj["orderbook"].(map[string]interface{}); nestedOK {
		payload = nested
	}

	yesContainer, _ := payload["yes"].(map[string]interface{})
	noContainer, _ := payload["no"].(map[string]interface{})

	yesRaw = map[string]interface{}{
		"bids": firstNonNil(payload["yes_bid"], containerField(yesContainer, "bids")),
		"asks": firstNonNil(payload["yes_ask"], containerField(yesContainer, "asks")),
	}
	noRaw = map[string]interface{}{
		"bids": firstNonNil(payload["no_bid"], containerField(noContainer, "bids")),
		"asks": firstNonNil(payload["no_ask"], containerField(noContainer, "asks")),
	}
	return yesRaw, noRaw, true
}

func containerField(container map[string]interface{}, key string) interface{} {
	if container == nil {
		return nil
	}
	return container[key]
}

func firstNonNil(a, b interface{}) interface{} {
	if a != nil {
		return a
	}
	return b
}
