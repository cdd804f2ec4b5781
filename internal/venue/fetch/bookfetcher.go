package fetch

import (
	"context"
	"time"

	"github.com/sawpanic/shadow-engine/internal/venue"
	"github.com/sawpanic/shadow-engine/internal/venue/parse"
)

// URLFunc builds the order-book endpoint for a token.
type URLFunc func(tokenID string) string

// BookFetcher composes a Fetcher with the CLOB parser into the
// pipeline.VenueBookFetcher surface, so callers never juggle raw JSON.
type BookFetcher struct {
	fetcher    *Fetcher
	url        URLFunc
	venueName  string
	thresholds parse.Thresholds
	now        func() time.Time
}

func NewBookFetcher(fetcher *Fetcher, urlFn URLFunc, venueName string, th parse.Thresholds) *BookFetcher {
	return &BookFetcher{fetcher: fetcher, url: urlFn, venueName: venueName, thresholds: th, now: time.Now}
}

// FetchBook implements pipeline.VenueBookFetcher: it retrieves the raw
// CLOB order-book payload for tokenID and parses it, never returning an
// error — an unreachable venue yields a NO_TRADE book (§4.2, §7
// propagation policy: L5 parsers never panic or escalate).
func (b *BookFetcher) FetchBook(ctx context.Context, tokenID string) venue.Book {
	ts := b.now().Unix()
	raw, err := b.fetcher.FetchJSON(ctx, b.url(tokenID))
	if err != nil {
		return venue.Book{Venue: b.venueName, TS: ts, Status: venue.StatusNoTrade, FailReason: venue.FailBookUnavailable}
	}
	return parse.ParseCLOBBook(raw, b.venueName, ts, b.thresholds)
}
