package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// StatusError reports a non-success, non-redirect HTTP response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: http status %d", e.URL, e.StatusCode)
}

// RedirectError reports an exceeded redirect budget.
type RedirectError struct {
	URL    string
	Budget int
}

func (e *RedirectError) Error() string {
	return fmt.Sprintf("fetch %s: too many redirects (budget %d)", e.URL, e.Budget)
}

// BrowserError reports a failed headless render.
type BrowserError struct {
	URL string
	Err error
}

func (e *BrowserError) Error() string {
	return fmt.Sprintf("render %s: %v", e.URL, e.Err)
}

func (e *BrowserError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether err was caused by the fetch deadline expiring.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
