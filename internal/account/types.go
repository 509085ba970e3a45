// Package account manages the signed-in user's profile, preferences and
// glucose data sources.
package account

import (
	"time"

	"github.com/jwulff/bgldash/internal/preferences"
)

// User is the response of GET /user.
type User struct {
	ID          string                  `json:"id"`
	Email       string                  `json:"email,omitempty"`
	Name        string                  `json:"name,omitempty"`
	Preferences preferences.Preferences `json:"preferences"`
	DataSources []DataSource            `json:"dataSources,omitempty"`
}

// DataSource is a connected glucose feed such as a CGM share account.
type DataSource struct {
	ID     string            `json:"id,omitempty"`
	Type   string            `json:"type" validate:"required"`
	Name   string            `json:"name,omitempty"`
	Params map[string]string `json:"params,omitempty"`
}

// ShareToken grants read access to one data source.
type ShareToken struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires,omitempty"`
}
