package core

import (
	"context"
	"log/slog"

	"github.com/Legendtss/price-tracker/lib/transport"
)

// FetchListing fetches a search-results page and applies the bot-block
// heuristic: a body below the source's byte threshold is not a parse
// target, it is an interstitial or an empty shell. One fresh retry is
// allowed before the page is treated as an empty result.
func FetchListing(ctx context.Context, fetcher transport.Fetcher, url string, opts transport.FetchOptions, minBytes int) (content string, blocked bool, err error) {
	content, err = fetcher.Fetch(ctx, url, opts)
	if err != nil {
		return "", false, err
	}
	if len(content) >= minBytes {
		return content, false, nil
	}

	slog.WarnContext(ctx, "response implausibly small, retrying with a fresh session",
		"url", url, "bytes", len(content), "min_bytes", minBytes)
	content, err = fetcher.Fetch(ctx, url, opts)
	if err != nil {
		return "", false, err
	}
	if len(content) < minBytes {
		slog.WarnContext(ctx, "still blocked after retry, treating as empty result",
			"url", url, "bytes", len(content))
		return "", true, nil
	}
	return content, false, nil
}
