package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jwulff/bgldash/internal/account"
	"github.com/jwulff/bgldash/internal/preferences"
)

var _ account.Backend = (*Client)(nil)

// GetUser fetches the signed-in user.
func (c *Client) GetUser(ctx context.Context) (*account.User, error) {
	var user account.User
	if err := c.do(ctx, http.MethodGet, "/user", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SavePreferences stores the user's preferences.
func (c *Client) SavePreferences(ctx context.Context, prefs preferences.Preferences) error {
	return c.do(ctx, http.MethodPost, "/user/preferences", nil, prefs, nil)
}

// AddDataSource connects a data source and returns it with its ID.
func (c *Client) AddDataSource(ctx context.Context, source account.DataSource) (*account.DataSource, error) {
	var added account.DataSource
	if err := c.do(ctx, http.MethodPut, "/user/dataSource", nil, source, &added); err != nil {
		return nil, err
	}
	if added.ID == "" {
		added = source
	}
	return &added, nil
}

// RemoveDataSource disconnects the data source with the given ID.
func (c *Client) RemoveDataSource(ctx context.Context, id string) error {
	query := url.Values{"id": {id}}
	return c.do(ctx, http.MethodDelete, "/user/dataSource", query, nil, nil)
}

// ShareToken fetches a read-only share token for a data source.
func (c *Client) ShareToken(ctx context.Context, dataSourceID string) (*account.ShareToken, error) {
	var token account.ShareToken
	path := "/user/dataSource/" + url.PathEscape(dataSourceID) + "/shareToken"
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &token); err != nil {
		return nil, err
	}
	return &token, nil
}
