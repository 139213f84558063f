package transport

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const DefaultMaxRetries = 3

// Chain is the smart fetch strategy: the light transport first, retried
// with exponential backoff, then one shot on the heavy transport.
type Chain struct {
	light      Fetcher
	heavy      Fetcher
	maxRetries int
	backoff    time.Duration

	// swapped out in tests to keep backoff schedules instant
	sleep func(ctx context.Context, d time.Duration) error
}

type ChainOptions struct {
	// MaxRetries bounds light transport attempts, defaults to 3.
	MaxRetries int
	// Backoff is the base backoff, doubling per attempt, defaults to 1s.
	Backoff time.Duration
}

func NewChain(light, heavy Fetcher, opts ChainOptions) *Chain {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.Backoff <= 0 {
		opts.Backoff = time.Second
	}
	return &Chain{
		light:      light,
		heavy:      heavy,
		maxRetries: opts.MaxRetries,
		backoff:    opts.Backoff,
		sleep:      sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Chain) Fetch(ctx context.Context, url string, opts FetchOptions) (string, error) {
	ctx, span := tracer.Start(ctx, "Chain:Fetch", trace.WithAttributes(
		attribute.String("url", url),
	))
	defer span.End()

	// one initial attempt plus maxRetries backed-off retries
	var lightErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// 1s, 2s, 4s...
			delay := c.backoff * (1 << (attempt - 1))
			if err := c.sleep(ctx, delay); err != nil {
				return "", err
			}
		}
		content, err := c.light.Fetch(ctx, url, opts)
		if err == nil {
			return content, nil
		}
		lightErr = err
		slog.WarnContext(ctx, "light transport attempt failed",
			"url", url, "attempt", attempt+1, "err", err)
	}

	if c.heavy == nil {
		span.SetStatus(codes.Error, "light transport exhausted, no heavy transport")
		return "", &FetchError{URL: url, LightErr: lightErr}
	}

	slog.InfoContext(ctx, "falling back to heavy transport", "url", url)
	content, heavyErr := c.heavy.Fetch(ctx, url, opts)
	if heavyErr == nil {
		return content, nil
	}

	err := &FetchError{URL: url, LightErr: lightErr, HeavyErr: heavyErr}
	span.RecordError(err)
	span.SetStatus(codes.Error, "both transports failed")
	return "", err
}
