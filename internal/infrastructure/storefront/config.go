package storefront

import (
	"errors"
	"net/url"
	"strings"
)

// Config holds the connection settings for the remote commerce platform
type Config struct {
	// CartBaseURL is the base URL of the authenticated cart API
	CartBaseURL string
	// CatalogBaseURL is the base URL of the collection catalog API
	CatalogBaseURL string
	// TimeoutSeconds is the per-request timeout
	TimeoutSeconds int
}

// Validate checks the configuration for required fields
func (c *Config) Validate() error {
	if err := validateBaseURL(c.CartBaseURL); err != nil {
		return errors.New("storefront: invalid cart base URL")
	}
	if err := validateBaseURL(c.CatalogBaseURL); err != nil {
		return errors.New("storefront: invalid catalog base URL")
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 10
	}
	return nil
}

func validateBaseURL(raw string) error {
	if raw == "" {
		return errors.New("empty URL")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("unsupported scheme")
	}
	return nil
}

func joinURL(base string, parts ...string) string {
	result := strings.TrimRight(base, "/")
	for _, p := range parts {
		result += "/" + strings.Trim(p, "/")
	}
	return result
}
