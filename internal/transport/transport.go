// Package transport is the network seam every outbound HTTP call in the
// shadow engine routes through. Production code uses http.DefaultTransport;
// tests inject an in-memory RoundTripper so fixtures never touch the
// network. This generalizes the teacher's env-flag-coupled HTTP mocking
// into a proper seam (see DESIGN.md "Fixture mode").
package transport

import "net/http"

// Client is the minimal surface the rest of the engine depends on.
// *http.Client satisfies it directly.
type Client interface {
	Do(req *http.Request) (*http.Response, error)
}

// New returns a production client over the given RoundTripper (nil
// means http.DefaultTransport, so callers share one underlying transport
// the way the teacher's httpclient.ClientPool does). No client-level
// timeout is set; callers bound each request with a context.
func New(roundTripper http.RoundTripper) *http.Client {
	if roundTripper == nil {
		roundTripper = http.DefaultTransport
	}
	return &http.Client{Transport: roundTripper}
}

// FuncTransport adapts a function to http.RoundTripper, the standard way
// to build an in-memory fixture transport for tests.
type FuncTransport func(req *http.Request) (*http.Response, error)

func (f FuncTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
