package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/jwulff/bgldash/internal/activitylog"
)

var _ activitylog.Backend = (*Client)(nil)

// ErrMissingID is returned when the backend accepts a new entry without
// assigning it an ID.
var ErrMissingID = errors.New("backend returned no entry id")

// SearchActivityLog runs an activity log search.
func (c *Client) SearchActivityLog(ctx context.Context, params activitylog.SearchParams) (*activitylog.SearchResult, error) {
	var result activitylog.SearchResult
	if err := c.do(ctx, http.MethodPost, "/activityLog/search", nil, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetActivityLog fetches one entry.
func (c *Client) GetActivityLog(ctx context.Context, id string) (*activitylog.Entry, error) {
	var entry activitylog.Entry
	if err := c.do(ctx, http.MethodGet, entryPath(id), nil, nil, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// CreateActivityLog adds an entry and returns it with its server ID.
func (c *Client) CreateActivityLog(ctx context.Context, entry activitylog.Entry) (*activitylog.Entry, error) {
	entry.ID = ""
	var created activitylog.Entry
	if err := c.do(ctx, http.MethodPost, "/activityLog", nil, entry, &created); err != nil {
		return nil, err
	}
	if created.ID == "" {
		return nil, ErrMissingID
	}
	return &created, nil
}

// UpdateActivityLog replaces an entry.
func (c *Client) UpdateActivityLog(ctx context.Context, id string, entry activitylog.Entry) (*activitylog.Entry, error) {
	entry.ID = id
	var updated activitylog.Entry
	if err := c.do(ctx, http.MethodPost, entryPath(id), nil, entry, &updated); err != nil {
		return nil, err
	}
	if updated.ID == "" {
		updated = entry
	}
	return &updated, nil
}

// DeleteActivityLog removes an entry.
func (c *Client) DeleteActivityLog(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, entryPath(id), nil, nil, nil)
}

func entryPath(id string) string {
	return "/activityLog/" + url.PathEscape(id)
}
