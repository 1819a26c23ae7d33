package config

import (
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v2"
)

// Config is the YAML configuration of issuetrack.
type Config struct {
	Issuetrack Issuetrack `yaml:"issuetrack"`
	Logger     Logger     `yaml:"logger"`
	HTTPClient HTTPClient `yaml:"http_client"`
	Store      Store      `yaml:"store"`
	Server     Server     `yaml:"server"`
}

type Issuetrack struct {
	HomeFolder string `yaml:"home_folder"`
}

type Logger struct {
	Level           string `yaml:"level"`
	DisableTime     *bool  `yaml:"disable_time"`
	JSONFormat      *bool  `yaml:"json_format"`
	IncludeLocation *bool  `yaml:"include_location"`
}

type HTTPClient struct {
	Debug            *bool           `yaml:"debug"`
	RetryCount       int             `yaml:"retry_count"`
	RetryWaitTime    time.Duration   `yaml:"retry_wait_time"`
	RetryMaxWaitTime time.Duration   `yaml:"retry_max_wait_time"`
	Timeout          time.Duration   `yaml:"timeout"`
	TLSClientConfig  TLSClientConfig `yaml:"tls_client_config"`
	Proxy            Proxy           `yaml:"proxy"`
}

type TLSClientConfig struct {
	Verify *bool `yaml:"verify"`
}

type Proxy struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Store selects where tracked issues are persisted between runs.
type Store struct {
	// Backend is "file" (default), "sqlite" or "s3".
	Backend string `yaml:"backend"`
	// Path is a directory for the file backend, a database file for sqlite
	// and a key prefix for s3. Defaults to a location under the home folder.
	Path string  `yaml:"path"`
	S3   S3Store `yaml:"s3"`
}

// S3Store configures the s3 store backend. Credentials follow the AWS SDK
// default chain, optionally narrowed to Profile.
type S3Store struct {
	Bucket         string `yaml:"bucket"`
	Region         string `yaml:"region"`
	Profile        string `yaml:"profile"`
	Endpoint       string `yaml:"endpoint"`
	ForcePathStyle *bool  `yaml:"force_path_style"`
}

// Server configures the remote server used for reconciliation.
type Server struct {
	URL              string `yaml:"url"`
	Token            string `yaml:"token"`
	IdePathPrefix    string `yaml:"ide_path_prefix"`
	ServerPathPrefix string `yaml:"server_path_prefix"`
}

const (
	StoreBackendFile   = "file"
	StoreBackendSQLite = "sqlite"
	StoreBackendS3     = "s3"

	DefaultS3Region = "eu-west-2"
)

func ValidateConfigPath(path string) error {
	s, err := os.Stat(path)
	if err != nil {
		return err
	}
	if s.IsDir() {
		return fmt.Errorf("'%s' is a directory, not a file", path)
	}
	return nil
}

func LoadYAML(configPath string, data interface{}) error {
	if err := ValidateConfigPath(configPath); err != nil {
		return err
	}

	file, err := os.Open(configPath)
	if err != nil {
		return err
	}
	defer file.Close()

	d := yaml.NewDecoder(file)
	if err := d.Decode(data); err != nil {
		return err
	}

	return nil
}

// LoadConfig reads the YAML file at configPath. A missing file yields an empty
// configuration so that defaults and environment variables apply.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	if configPath == "" {
		return config, nil
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return config, nil
	}

	if err := LoadYAML(configPath, config); err != nil {
		return nil, fmt.Errorf("failed to load config %q: %w", configPath, err)
	}

	return config, nil
}
