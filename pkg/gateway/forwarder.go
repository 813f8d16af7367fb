package gateway

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"
)

// Forwarder sends a rewritten request to a backend. Implementations must
// bound the attempt: exceeding the deadline is a failure, never a hang.
type Forwarder interface {
	Forward(ctx context.Context, r *http.Request, backendURL string, header http.Header) (*http.Response, error)
}

// HTTPForwarder forwards requests over a shared http.Client.
type HTTPForwarder struct {
	client  *http.Client
	timeout time.Duration
}

// NewHTTPForwarder creates a forwarder whose attempts are bounded by
// timeout.
func NewHTTPForwarder(timeout time.Duration) *HTTPForwarder {
	return &HTTPForwarder{
		client: &http.Client{
			// Redirects are passed through to the client untouched.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		timeout: timeout,
	}
}

// Forward re-issues the inbound request against backendURL with the given
// (already rewritten) header. The original request path and query are
// preserved. Failures are returned as *ForwardError with the timeout flag
// set for deadline errors.
func (f *HTTPForwarder) Forward(ctx context.Context, r *http.Request, backendURL string, header http.Header) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)

	target := backendURL + r.URL.RequestURI()
	req, err := http.NewRequestWithContext(ctx, r.Method, target, r.Body)
	if err != nil {
		cancel()
		return nil, &ForwardError{Backend: backendURL, Err: err}
	}
	req.Header = header
	req.Header.Set("X-Forwarded-Host", r.Host)
	if ip, _, splitErr := net.SplitHostPort(r.RemoteAddr); splitErr == nil {
		req.Header.Add("X-Forwarded-For", ip)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		cancel()
		return nil, &ForwardError{
			Backend: backendURL,
			Timeout: isTimeout(err),
			Err:     err,
		}
	}

	// The cancel must outlive the response body read; tie it to body close.
	resp.Body = &cancelOnCloseBody{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// isTimeout reports whether the error was a deadline rather than another
// network failure.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// cancelOnCloseBody releases the request context when the response body is
// closed.
type cancelOnCloseBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnCloseBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}
