package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	calls    atomic.Int32
	failures int32
	content  string
	err      error
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string, opts FetchOptions) (string, error) {
	n := f.calls.Add(1)
	if f.err != nil {
		return "", f.err
	}
	if n <= f.failures {
		return "", fmt.Errorf("attempt %d refused", n)
	}
	return f.content, nil
}

func instantSleep(chain *Chain, delays *[]time.Duration) {
	chain.sleep = func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func TestChainRetriesLightWithBackoff(t *testing.T) {
	light := &fakeFetcher{failures: 2, content: "<html>ok</html>"}
	heavy := &fakeFetcher{content: "unused"}
	chain := NewChain(light, heavy, ChainOptions{})

	var delays []time.Duration
	instantSleep(chain, &delays)

	content, err := chain.Fetch(context.Background(), "https://example.com", FetchOptions{})
	require.NoError(t, err)
	require.Equal(t, "<html>ok</html>", content)
	require.Equal(t, int32(3), light.calls.Load())
	require.Equal(t, int32(0), heavy.calls.Load())
	require.Equal(t, []time.Duration{time.Second, 2 * time.Second}, delays)
}

func TestChainFallsBackToHeavyOnce(t *testing.T) {
	light := &fakeFetcher{err: errors.New("blocked")}
	heavy := &fakeFetcher{content: "<html>rendered</html>"}
	chain := NewChain(light, heavy, ChainOptions{MaxRetries: 2})

	var delays []time.Duration
	instantSleep(chain, &delays)

	content, err := chain.Fetch(context.Background(), "https://example.com", FetchOptions{})
	require.NoError(t, err)
	require.Equal(t, "<html>rendered</html>", content)
	require.Equal(t, int32(3), light.calls.Load()) // initial + 2 retries
	require.Equal(t, int32(1), heavy.calls.Load())
}

func TestChainReportsBothFailures(t *testing.T) {
	light := &fakeFetcher{err: errors.New("connection reset")}
	heavy := &fakeFetcher{err: errors.New("render timed out")}
	chain := NewChain(light, heavy, ChainOptions{MaxRetries: 1})

	var delays []time.Duration
	instantSleep(chain, &delays)

	_, err := chain.Fetch(context.Background(), "https://example.com", FetchOptions{})
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.Contains(t, fetchErr.Error(), "connection reset")
	require.Contains(t, fetchErr.Error(), "render timed out")
}

func TestLightFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NotEmpty(t, r.Header.Get("User-Agent"))
		if r.URL.Path == "/blocked" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		fmt.Fprint(w, "<html><body>listing</body></html>")
	}))
	defer server.Close()

	light := NewLight(5 * time.Second)

	content, err := light.Fetch(context.Background(), server.URL, FetchOptions{})
	require.NoError(t, err)
	require.Contains(t, content, "listing")

	_, err = light.Fetch(context.Background(), server.URL+"/blocked", FetchOptions{})
	require.Error(t, err)
}
