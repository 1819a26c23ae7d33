package httpclient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/scan-io-git/issuetrack/pkg/shared/config"
)

func TestApplyHTTPClientConfigDefaults(t *testing.T) {
	got := applyHTTPClientConfig(nil)
	def := config.DefaultRestyConfig()

	assert.Equal(t, def.RetryCount, got.RetryCount)
	assert.Equal(t, def.Timeout, got.Timeout)
	assert.False(t, got.Debug)
	assert.Empty(t, got.Proxy)
}

func TestApplyHTTPClientConfigOverrides(t *testing.T) {
	verify := false
	debug := true
	got := applyHTTPClientConfig(&config.HTTPClient{
		Debug:           &debug,
		RetryCount:      5,
		Timeout:         3 * time.Second,
		TLSClientConfig: config.TLSClientConfig{Verify: &verify},
		Proxy:           config.Proxy{Host: "http://proxy.local", Port: 3128},
	})

	assert.True(t, got.Debug)
	assert.Equal(t, 5, got.RetryCount)
	assert.Equal(t, 3*time.Second, got.Timeout)
	assert.Equal(t, config.DefaultRestyConfig().RetryWaitTime, got.RetryWaitTime)
	assert.True(t, got.TLSClientConfig.InsecureSkipVerify)
	assert.Equal(t, "http://proxy.local:3128", got.Proxy)
}

func TestInitializeRestyClient(t *testing.T) {
	client := InitializeRestyClient(nil, &config.Config{HTTPClient: config.HTTPClient{RetryCount: 2}})
	assert.Equal(t, 2, client.RetryCount)
}
