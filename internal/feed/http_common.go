package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sawpanic/shadow-engine/internal/transport"
)

const defaultTimeout = 5 * time.Second

// geoBlockStatus is HTTP 451, Unavailable For Legal Reasons — recognized
// distinctly (geo-block) and never retried (§4.3).
const geoBlockStatus = http.StatusUnavailableForLegalReasons

func getJSON(ctx context.Context, client transport.Client, url string, userAgent string, out interface{}) (status int, err error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}
	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, fmt.Errorf("http %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return resp.StatusCode, err
	}
	return resp.StatusCode, nil
}

func nowMs() int64 { return time.Now().UnixMilli() }
