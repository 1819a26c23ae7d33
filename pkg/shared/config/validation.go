package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/scan-io-git/issuetrack/pkg/shared/files"
)

// ValidateConfig checks if the global configurations have valid values and
// fills in defaults taken from the environment.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("YAML global config: configuration object is nil")
	}
	if err := updateHome(cfg); err != nil {
		return fmt.Errorf("YAML global config: issuetrack directive is invalid: %w", err)
	}
	if err := ValidateHTTPConfig(&cfg.HTTPClient); err != nil {
		return fmt.Errorf("YAML global config: http_client directive is invalid: %w", err)
	}
	if err := ValidateStoreConfig(&cfg.Store); err != nil {
		return fmt.Errorf("YAML global config: store directive is invalid: %w", err)
	}
	if err := ValidateServerConfig(&cfg.Server); err != nil {
		return fmt.Errorf("YAML global config: server directive is invalid: %w", err)
	}
	return nil
}

// ValidateHTTPConfig checks if the HTTP configurations have valid values.
func ValidateHTTPConfig(httpConfig *HTTPClient) error {
	if httpConfig == nil {
		return fmt.Errorf("HTTP configuration is nil")
	}
	if httpConfig.RetryCount < 0 || httpConfig.RetryCount > 20 {
		return fmt.Errorf("retry_count must be between 0 and 20: %d", httpConfig.RetryCount)
	}

	durations := map[string]time.Duration{
		"RetryMaxWaitTime": httpConfig.RetryMaxWaitTime,
		"RetryWaitTime":    httpConfig.RetryWaitTime,
		"Timeout":          httpConfig.Timeout,
	}
	for name, duration := range durations {
		if err := validateDuration(duration, name, 100*time.Second); err != nil {
			return err
		}
	}

	if err := validateProxy(&httpConfig.Proxy); err != nil {
		return err
	}

	return nil
}

// ValidateStoreConfig checks the store backend and expands its path.
func ValidateStoreConfig(store *Store) error {
	if store == nil {
		return fmt.Errorf("store configuration is nil")
	}
	switch store.Backend {
	case "":
		store.Backend = StoreBackendFile
	case StoreBackendFile, StoreBackendSQLite:
	case StoreBackendS3:
		if store.S3.Bucket == "" {
			return fmt.Errorf("store.s3.bucket is required for the %q backend", StoreBackendS3)
		}
		if store.S3.Region == "" {
			store.S3.Region = DefaultS3Region
		}
		store.Path = strings.Trim(store.Path, "/")
		return nil
	default:
		return fmt.Errorf("unknown store backend %q, expected %q, %q or %q", store.Backend, StoreBackendFile, StoreBackendSQLite, StoreBackendS3)
	}

	if store.Path != "" {
		expanded, err := files.ExpandPath(store.Path)
		if err != nil {
			return fmt.Errorf("failed to expand store path %q: %w", store.Path, err)
		}
		store.Path = expanded
	}
	return nil
}

// ValidateServerConfig checks the server URL and applies the token from the environment.
func ValidateServerConfig(server *Server) error {
	if server == nil {
		return fmt.Errorf("server configuration is nil")
	}
	if token := os.Getenv("ISSUETRACK_SERVER_TOKEN"); token != "" {
		server.Token = token
	}
	if server.URL == "" {
		return nil
	}

	u, err := url.Parse(server.URL)
	if err != nil {
		return fmt.Errorf("invalid server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server url must use http or https, got %q", server.URL)
	}
	server.URL = strings.TrimRight(server.URL, "/")
	return nil
}

// validateDuration checks that a time.Duration is valid and within a specified maximum duration.
func validateDuration(d time.Duration, name string, max time.Duration) error {
	if d < 0 {
		return fmt.Errorf("invalid duration for %q: %v cannot be negative", name, d)
	}
	if d > max {
		return fmt.Errorf("%q duration is too long: %v exceeds maximum of %v", name, d, max)
	}
	return nil
}

// validateProxy checks if the given Proxy settings are valid.
func validateProxy(proxy *Proxy) error {
	if proxy == nil {
		return fmt.Errorf("proxy configuration is nil")
	}

	// If host or port is not set, skip further validation
	if proxy.Host == "" || proxy.Port == 0 {
		return nil
	}

	if err := validateHost(&proxy.Host); err != nil {
		return err
	}

	if err := validatePort(proxy.Port); err != nil {
		return err
	}

	return nil
}

// validateHost checks if the host part of the proxy configuration is valid.
// It ensures the host includes a scheme; adds "http" if missing.
func validateHost(host *string) error {
	if host == nil {
		return fmt.Errorf("host string pointer is nil")
	}

	if !strings.Contains(*host, "://") {
		*host = "http://" + *host
	}
	*host = strings.TrimRight(*host, "/")

	_, err := url.Parse(*host)
	if err != nil {
		return fmt.Errorf("invalid host URL: %w", err)
	}

	return nil
}

// validatePort checks if the port part of the proxy configuration is valid.
func validatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	return nil
}

// updateHome updates the HomeFolder from environment variables or sets a default value.
func updateHome(cfg *Config) error {
	if homeFolder := os.Getenv("ISSUETRACK_HOME"); homeFolder != "" {
		cfg.Issuetrack.HomeFolder = homeFolder
	} else if cfg.Issuetrack.HomeFolder == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("unable to get user home folder: %w", err)
		}
		cfg.Issuetrack.HomeFolder = filepath.Join(userHome, ".issuetrack")
	}

	expandedHomePath, err := files.ExpandPath(cfg.Issuetrack.HomeFolder)
	if err != nil {
		return fmt.Errorf("failed to expand new home path %q: %w", cfg.Issuetrack.HomeFolder, err)
	}
	cfg.Issuetrack.HomeFolder = expandedHomePath

	if err := files.CreateFolderIfNotExists(expandedHomePath); err != nil {
		return fmt.Errorf("failed to create home folder %q: %w", cfg.Issuetrack.HomeFolder, err)
	}
	return nil
}
