package authclient

import "net/http"

// HeaderTransport sets default headers on every outgoing request that does not already
// carry them.
type HeaderTransport struct {
	Base    http.RoundTripper
	Headers map[string]string
}

// NewHeaderTransport wraps base (http.DefaultTransport when nil).
func NewHeaderTransport(base http.RoundTripper, headers map[string]string) *HeaderTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &HeaderTransport{Base: base, Headers: headers}
}

func (t *HeaderTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req2 := req.Clone(req.Context())
	for k, v := range t.Headers {
		if req2.Header.Get(k) == "" {
			req2.Header.Set(k, v)
		}
	}
	return t.Base.RoundTrip(req2)
}
