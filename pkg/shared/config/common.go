package config

import (
	"crypto/tls"
	"path"
	"path/filepath"
	"time"
)

// BaseHTTPConfig holds common HTTP client configuration settings.
type BaseHTTPConfig struct {
	RetryCount       int
	RetryWaitTime    time.Duration
	RetryMaxWaitTime time.Duration
	Timeout          time.Duration
	TLSClientConfig  *tls.Config
	Proxy            string
}

// RestyHTTPClientConfig holds additional configuration settings for the resty http client.
type RestyHTTPClientConfig struct {
	BaseHTTPConfig
	Debug bool
}

// DefaultHTTPConfig returns the base configuration applicable to all HTTP clients.
func DefaultHTTPConfig() BaseHTTPConfig {
	return BaseHTTPConfig{
		RetryCount:       3,
		RetryWaitTime:    1 * time.Second,
		RetryMaxWaitTime: 2 * time.Second,
		Timeout:          10 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12, // Enforce a minimum TLS version
		},
		Proxy: "",
	}
}

// DefaultRestyConfig returns the http config used for resty clients.
func DefaultRestyConfig() RestyHTTPClientConfig {
	baseConfig := DefaultHTTPConfig()
	return RestyHTTPClientConfig{
		BaseHTTPConfig: baseConfig,
		Debug:          false,
	}
}

// GetIssuetrackHome returns the home folder.
func GetIssuetrackHome(cfg *Config) string {
	return cfg.Issuetrack.HomeFolder
}

// GetStorePath returns where the configured backend keeps the tracked issues
// of the project identified by projectID. An explicit store path is used as is.
func GetStorePath(cfg *Config, projectID string) string {
	if cfg.Store.Backend == StoreBackendS3 {
		return path.Join(cfg.Store.Path, "issues", projectID)
	}
	if cfg.Store.Path != "" {
		return cfg.Store.Path
	}
	base := filepath.Join(GetIssuetrackHome(cfg), "issues")
	if cfg.Store.Backend == StoreBackendSQLite {
		return filepath.Join(base, projectID+".db")
	}
	return filepath.Join(base, projectID)
}
