package fetch

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sawpanic/shadow-engine/internal/transport"
)

func fixtureClient(responses []*http.Response) (*countingClient, transport.Client) {
	c := &countingClient{responses: responses}
	return c, c
}

type countingClient struct {
	calls     int
	responses []*http.Response
}

func (c *countingClient) Do(req *http.Request) (*http.Response, error) {
	idx := c.calls
	if idx >= len(c.responses) {
		idx = len(c.responses) - 1
	}
	c.calls++
	return c.responses[idx], nil
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}

func TestFetchJSON_Success(t *testing.T) {
	counter, client := fixtureClient([]*http.Response{jsonResponse(200, `{"mid":"0.5"}`)})
	f := NewFetcher("test", Config{Client: client})
	v, err := f.FetchJSON(context.Background(), "http://x/book")
	require.NoError(t, err)
	require.Equal(t, map[string]interface{}{"mid": "0.5"}, v)
	require.Equal(t, 1, counter.calls)
}

func TestFetchJSON_RetriesOn5xxThenSucceeds(t *testing.T) {
	counter, client := fixtureClient([]*http.Response{
		jsonResponse(502, ""),
		jsonResponse(502, ""),
		jsonResponse(200, `{"ok":true}`),
	})
	f := NewFetcher("test2", Config{Client: client})
	v, err := f.FetchJSON(context.Background(), "http://x/book")
	require.NoError(t, err)
	require.Equal(t, map[string]interface{}{"ok": true}, v)
	require.Equal(t, 3, counter.calls)
}

func TestFetchJSON_ExhaustsRetriesOn429(t *testing.T) {
	responses := make([]*http.Response, 0, maxRetries+1)
	for i := 0; i <= maxRetries; i++ {
		responses = append(responses, jsonResponse(429, ""))
	}
	counter, client := fixtureClient(responses)
	f := NewFetcher("test3", Config{Client: client})
	_, err := f.FetchJSON(context.Background(), "http://x/book")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrBookUnavailable)
	require.Equal(t, maxRetries+1, counter.calls)
}

func TestFetchJSON_NonRetryable4xxFailsImmediately(t *testing.T) {
	counter, client := fixtureClient([]*http.Response{jsonResponse(404, "")})
	f := NewFetcher("test4", Config{Client: client})
	_, err := f.FetchJSON(context.Background(), "http://x/book")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrBookUnavailable)
	require.Equal(t, 1, counter.calls)
}
