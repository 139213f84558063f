// Package transport fetches marketplace pages through two interchangeable
// strategies: a light plain-HTTP client and a heavy headless-browser
// session, chained so the cheap path is always tried first.
package transport

import (
	"context"
	"fmt"
	"time"
)

// Fetcher performs a single fetch attempt and returns the page content.
type Fetcher interface {
	Fetch(ctx context.Context, url string, opts FetchOptions) (string, error)
}

type FetchOptions struct {
	// WaitSelector is a CSS selector the heavy transport waits for
	// before extracting the rendered document.
	WaitSelector string
	// Settle is the fixed render-settle time used by the heavy
	// transport when WaitSelector is empty or never appears.
	Settle  time.Duration
	Referer string
}

// FetchError reports a fetch that failed on both transports.
type FetchError struct {
	URL      string
	LightErr error
	HeavyErr error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf(
		"fetch %s failed: light transport: %v; heavy transport: %v",
		e.URL, e.LightErr, e.HeavyErr,
	)
}
