package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jwulff/bgldash/internal/bloodsugar"
	"github.com/jwulff/bgldash/internal/histogram"
)

// LatestReadings fetches the most recent size readings, newest first.
func (c *Client) LatestReadings(ctx context.Context, size int) ([]bloodsugar.Reading, error) {
	query := url.Values{"size": {strconv.Itoa(size)}}

	var readings []bloodsugar.Reading
	if err := c.do(ctx, http.MethodGet, "/bgl", query, nil, &readings); err != nil {
		return nil, err
	}
	return readings, nil
}

// AccountStatsHistogram fetches bucketed statistics for the account.
func (c *Client) AccountStatsHistogram(ctx context.Context, req histogram.StatsRequest) ([]histogram.Bucket, error) {
	var buckets []histogram.Bucket
	if err := c.do(ctx, http.MethodPost, "/bgl/accountStatsHistogram", nil, req, &buckets); err != nil {
		return nil, err
	}
	return buckets, nil
}
