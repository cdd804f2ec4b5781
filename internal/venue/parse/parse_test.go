package parse

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sawpanic/shadow-engine/internal/venue"
)

func defaultCLOBThresholds() Thresholds {
	return Thresholds{DepthQtyMin: 100, SpreadMax: 0.05}
}

func defaultCentsThresholds() Thresholds {
	return Thresholds{DepthNotionalMin: 100, SpreadMax: 0.05}
}

func TestParseCLOBBook_OK(t *testing.T) {
	raw := map[string]interface{}{
		"bids": []interface{}{[]interface{}{0.48, 150.0}},
		"asks": []interface{}{[]interface{}{0.50, 150.0}},
	}
	b := ParseCLOBBook(raw, "polymarket", 1000, defaultCLOBThresholds())
	require.True(t, b.OK())
	require.Equal(t, 0.48, *b.BestBid)
	require.Equal(t, 0.50, *b.BestAsk)
}

func TestParseCLOBBook_CrossedBookIsAmbiguous(t *testing.T) {
	raw := map[string]interface{}{
		"bids": []interface{}{[]interface{}{0.60, 10.0}},
		"asks": []interface{}{[]interface{}{0.55, 10.0}},
	}
	b := ParseCLOBBook(raw, "polymarket", 1000, defaultCLOBThresholds())
	require.Equal(t, venue.StatusNoTrade, b.Status)
	require.Equal(t, venue.FailParseAmbiguous, b.FailReason)
	require.Nil(t, b.BestBid)
	require.Nil(t, b.BestAsk)
}

func TestParseCLOBBook_ThinBookDepthBelowThreshold(t *testing.T) {
	raw := map[string]interface{}{
		"bids": []interface{}{[]interface{}{0.5, 4.0}},
		"asks": []interface{}{[]interface{}{0.52, 4.0}},
	}
	th := Thresholds{DepthQtyMin: 100, SpreadMax: 0.05}
	b := ParseCLOBBook(raw, "polymarket", 1000, th)
	require.Equal(t, venue.StatusNoTrade, b.Status)
	require.Equal(t, venue.FailDepthBelowThreshold, b.FailReason)
}

func TestParseCLOBBook_PriceAboveOneIsAmbiguous(t *testing.T) {
	// this venue quotes probabilities only: no cents scale to infer.
	raw := map[string]interface{}{
		"bids": []interface{}{[]interface{}{48.0, 200.0}},
		"asks": []interface{}{[]interface{}{50.0, 200.0}},
	}
	b := ParseCLOBBook(raw, "polymarket", 1000, defaultCLOBThresholds())
	require.Equal(t, venue.StatusNoTrade, b.Status)
	require.Equal(t, venue.FailParseAmbiguous, b.FailReason)
}

func TestParseCLOBBook_SinglePriceAboveOneIsAmbiguous(t *testing.T) {
	raw := map[string]interface{}{
		"bids": []interface{}{[]interface{}{0.48, 200.0}},
		"asks": []interface{}{[]interface{}{1.5, 200.0}},
	}
	b := ParseCLOBBook(raw, "polymarket", 1000, defaultCLOBThresholds())
	require.Equal(t, venue.FailParseAmbiguous, b.FailReason)
}

func TestParseCLOBBook_NonObjectPayloadIsAmbiguous(t *testing.T) {
	b := ParseCLOBBook("not-an-object", "polymarket", 1000, defaultCLOBThresholds())
	require.Equal(t, venue.FailParseAmbiguous, b.FailReason)
}

func TestParseCLOBBook_MixedLevelShapesAmbiguous(t *testing.T) {
	raw := map[string]interface{}{
		"bids": []interface{}{
			[]interface{}{0.48, 150.0},
			map[string]interface{}{"price": 0.47, "size": 100.0},
		},
		"asks": []interface{}{[]interface{}{0.50, 150.0}},
	}
	b := ParseCLOBBook(raw, "polymarket", 1000, defaultCLOBThresholds())
	require.Equal(t, venue.FailParseAmbiguous, b.FailReason)
}

func TestParseCLOBBook_DisagreeingQtyFieldsAmbiguous(t *testing.T) {
	raw := map[string]interface{}{
		"bids": []interface{}{map[string]interface{}{"price": 0.48, "size": 100.0, "qty": 200.0}},
		"asks": []interface{}{[]interface{}{0.50, 150.0}},
	}
	b := ParseCLOBBook(raw, "polymarket", 1000, defaultCLOBThresholds())
	require.Equal(t, venue.FailParseAmbiguous, b.FailReason)
}

func TestParseCentsBook_OKCentsScale(t *testing.T) {
	raw := map[string]interface{}{
		"bids": []interface{}{[]interface{}{48.0, 150.0}},
		"asks": []interface{}{[]interface{}{50.0, 150.0}},
	}
	b := ParseCentsBook(raw, nil, "kalshi", 1000, defaultCentsThresholds())
	require.True(t, b.OK())
	require.InDelta(t, 0.48, *b.BestBid, 1e-9)
	require.InDelta(t, 0.50, *b.BestAsk, 1e-9)
}

func TestParseCentsBook_OKProbabilityScale(t *testing.T) {
	// all prices ≤1 infer scale 1: the book is already probabilities.
	raw := map[string]interface{}{
		"bids": []interface{}{[]interface{}{0.48, 300.0}},
		"asks": []interface{}{[]interface{}{0.50, 300.0}},
	}
	b := ParseCentsBook(raw, nil, "kalshi", 1000, defaultCentsThresholds())
	require.True(t, b.OK())
	require.InDelta(t, 0.48, *b.BestBid, 1e-9)
}

func TestParseCentsBook_MixedScaleAmbiguous(t *testing.T) {
	raw := map[string]interface{}{
		"bids": []interface{}{[]interface{}{0.48, 200.0}},
		"asks": []interface{}{[]interface{}{50.0, 200.0}},
	}
	b := ParseCentsBook(raw, nil, "kalshi", 1000, defaultCentsThresholds())
	require.Equal(t, venue.FailParseAmbiguous, b.FailReason)
}

func TestParseCentsBook_PriceAbove100Ambiguous(t *testing.T) {
	raw := map[string]interface{}{
		"bids": []interface{}{[]interface{}{150.0, 200.0}},
		"asks": []interface{}{[]interface{}{160.0, 200.0}},
	}
	b := ParseCentsBook(raw, nil, "kalshi", 1000, defaultCentsThresholds())
	require.Equal(t, venue.FailParseAmbiguous, b.FailReason)
}

func TestParseCentsBook_ComplementDerivation(t *testing.T) {
	raw := map[string]interface{}{
		"bids": []interface{}{[]interface{}{48.0, 150.0}},
		"asks": []interface{}{}, // empty YES asks
	}
	complement := map[string]interface{}{
		"bids": []interface{}{[]interface{}{49.0, 150.0}}, // NO bid -> derives YES ask = 100-49 = 51
		"asks": []interface{}{},
	}
	b := ParseCentsBook(raw, complement, "kalshi", 1000, defaultCentsThresholds())
	require.True(t, b.OK())
	require.InDelta(t, 0.51, *b.BestAsk, 1e-9)
}

func TestParseCentsBook_ComplementScaleFromOtherSide(t *testing.T) {
	// the YES book is entirely empty: the complement's own prices
	// drive the scale inference before derivation.
	raw := map[string]interface{}{
		"bids": []interface{}{},
		"asks": []interface{}{},
	}
	complement := map[string]interface{}{
		"bids": []interface{}{[]interface{}{49.0, 150.0}},
		"asks": []interface{}{[]interface{}{51.0, 150.0}},
	}
	b := ParseCentsBook(raw, complement, "kalshi", 1000, defaultCentsThresholds())
	require.True(t, b.OK())
	require.InDelta(t, 0.49, *b.BestBid, 1e-9)
	require.InDelta(t, 0.51, *b.BestAsk, 1e-9)
}

func TestParseCentsBook_NotionalThreshold(t *testing.T) {
	raw := map[string]interface{}{
		"bids": []interface{}{[]interface{}{48.0, 4.0}}, // notional ~4 USD < 100 min
		"asks": []interface{}{[]interface{}{52.0, 4.0}},
	}
	b := ParseCentsBook(raw, nil, "kalshi", 1000, defaultCentsThresholds())
	require.Equal(t, venue.FailDepthBelowThreshold, b.FailReason)
}

func TestParseBook_NeverPanicsOnGarbage(t *testing.T) {
	garbageInputs := []interface{}{
		nil, 42, "str", []interface{}{1, 2, 3},
		map[string]interface{}{"bids": "garbage", "asks": 123},
		map[string]interface{}{"bids": []interface{}{"oops"}},
	}
	for _, g := range garbageInputs {
		require.NotPanics(t, func() {
			_ = ParseCLOBBook(g, "polymarket", 1000, defaultCLOBThresholds())
			_ = ParseCentsBook(g, nil, "kalshi", 1000, defaultCentsThresholds())
		})
	}
}

func TestEmptyBookIsNoBBO(t *testing.T) {
	raw := map[string]interface{}{"bids": []interface{}{}, "asks": []interface{}{}}
	b := ParseCLOBBook(raw, "polymarket", 1000, defaultCLOBThresholds())
	require.Equal(t, venue.FailNoBBO, b.FailReason)
	require.Nil(t, b.BestBid)
	require.Nil(t, b.BestAsk)
}
