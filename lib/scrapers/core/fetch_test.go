package core

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Legendtss/price-tracker/lib/transport"

	"github.com/stretchr/testify/require"
)

type scriptedFetcher struct {
	responses []string
	err       error
	calls     int
}

func (s *scriptedFetcher) Fetch(ctx context.Context, url string, opts transport.FetchOptions) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if s.calls >= len(s.responses) {
		return "", errors.New("no more scripted responses")
	}
	res := s.responses[s.calls]
	s.calls++
	return res, nil
}

func TestFetchListingPassesThroughLargeBody(t *testing.T) {
	body := strings.Repeat("x", 200)
	f := &scriptedFetcher{responses: []string{body}}
	content, blocked, err := FetchListing(context.Background(), f, "https://x", transport.FetchOptions{}, 100)
	require.NoError(t, err)
	require.False(t, blocked)
	require.Equal(t, body, content)
	require.Equal(t, 1, f.calls)
}

func TestFetchListingRetriesOnceOnSmallBody(t *testing.T) {
	body := strings.Repeat("x", 200)
	f := &scriptedFetcher{responses: []string{"tiny", body}}
	content, blocked, err := FetchListing(context.Background(), f, "https://x", transport.FetchOptions{}, 100)
	require.NoError(t, err)
	require.False(t, blocked)
	require.Equal(t, body, content)
	require.Equal(t, 2, f.calls)
}

func TestFetchListingGivesUpAfterSecondSmallBody(t *testing.T) {
	f := &scriptedFetcher{responses: []string{"tiny", "tiny again"}}
	content, blocked, err := FetchListing(context.Background(), f, "https://x", transport.FetchOptions{}, 100)
	require.NoError(t, err)
	require.True(t, blocked)
	require.Empty(t, content)
}

func TestFetchListingPropagatesTransportError(t *testing.T) {
	f := &scriptedFetcher{err: errors.New("both transports failed")}
	_, _, err := FetchListing(context.Background(), f, "https://x", transport.FetchOptions{}, 100)
	require.Error(t, err)
}
