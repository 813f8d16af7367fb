// Package optimize rewrites outbound request headers before they leave the
// edge toward a backend.
package optimize

import "net/http"

// Config contains the rewrite toggles. Credential stripping is not
// configurable: it is a security boundary, not an optimization.
type Config struct {
	// EnableCompression sets an Accept-Encoding hint on forwarded requests.
	EnableCompression bool

	// EnableKeepAlive sets a Connection: keep-alive hint on forwarded
	// requests.
	EnableKeepAlive bool
}

// Optimizer rewrites headers for forwarding. It is a pure function over the
// input header: no shared state, no failure mode.
type Optimizer struct {
	config Config
}

// New creates an optimizer with the given toggles.
func New(cfg Config) *Optimizer {
	return &Optimizer{config: cfg}
}

// Rewrite returns a forwarding copy of h with credential-bearing headers
// removed and configured hints applied. Stripping Cookie and Authorization
// prevents client auth material from leaking to backends chosen by edge
// configuration; backends must treat edge-forwarded requests as
// unauthenticated unless the deployer reinjects credentials per backend.
func (o *Optimizer) Rewrite(h http.Header) http.Header {
	out := make(http.Header, len(h))
	for k, values := range h {
		out[k] = append([]string(nil), values...)
	}

	out.Del("Cookie")
	out.Del("Authorization")

	if o.config.EnableCompression {
		out.Set("Accept-Encoding", "gzip, deflate")
	}
	if o.config.EnableKeepAlive {
		out.Set("Connection", "keep-alive")
	}

	return out
}
