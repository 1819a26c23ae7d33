package logger

import (
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/scan-io-git/issuetrack/pkg/shared/config"
)

// NewLogger builds the named hclog logger used across issuetrack.
// The configured level wins over ISSUETRACK_LOG_LEVEL.
func NewLogger(cfg *config.Config, name string) hclog.Logger {
	var logLevel hclog.Level

	if cfg != nil && cfg.Logger.Level != "" {
		logLevel = getLogLevel(strings.ToUpper(cfg.Logger.Level))
	} else {
		// env variables has the second priority
		logLevelEnv := os.Getenv("ISSUETRACK_LOG_LEVEL")
		logLevel = getLogLevel(strings.ToUpper(logLevelEnv))
	}

	opts := &hclog.LoggerOptions{
		Name:        name,
		DisableTime: true,
		Output:      os.Stderr,
		Level:       logLevel,
	}
	if cfg != nil {
		opts.DisableTime = config.GetBoolValue(cfg.Logger, "DisableTime", true)
		opts.JSONFormat = config.GetBoolValue(cfg.Logger, "JSONFormat", false)
		opts.IncludeLocation = config.GetBoolValue(cfg.Logger, "IncludeLocation", false)
	}

	return hclog.New(opts)
}

func getLogLevel(levelStr string) hclog.Level {
	switch levelStr {
	case "TRACE":
		return hclog.Trace
	case "DEBUG":
		return hclog.Debug
	case "INFO":
		return hclog.Info
	case "WARN":
		return hclog.Warn
	case "ERROR":
		return hclog.Error
	default:
		return hclog.Info
	}
}
