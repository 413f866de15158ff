// Package config reads the small set of environment variables that
// govern eva-mcp's startup behavior.
package config

import (
	"os"
	"strconv"
)

const (
	envWorkspace = "EVA_MCP_WORKSPACE"
	envMaxList   = "EVA_MCP_MAX_LIST"
	envLogLevel  = "EVA_MCP_LOG_LEVEL"

	defaultMaxList  = 1000
	defaultLogLevel = "info"
)

// Config holds the resolved startup configuration.
type Config struct {
	// Workspace is the absolute or relative root the file resource
	// provider is sandboxed to. Empty means "use the process's current
	// working directory" and is resolved by the sandbox constructor.
	Workspace string
	// MaxList caps how many entries a file listing may return.
	MaxList int
	// LogLevel is the diagnostic logger's minimum level.
	LogLevel string
}

// Load reads Config from the environment, applying defaults for any
// variable that is unset or empty, and for a malformed or non-positive
// EVA_MCP_MAX_LIST. A non-empty EVA_MCP_LOG_LEVEL is stored as given;
// diagnostic.New falls back to info for an unrecognized name.
func Load() Config {
	cfg := Config{
		Workspace: os.Getenv(envWorkspace),
		MaxList:   defaultMaxList,
		LogLevel:  defaultLogLevel,
	}

	if v := os.Getenv(envMaxList); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxList = n
		}
	}

	if v := os.Getenv(envLogLevel); v != "" {
		cfg.LogLevel = v
	}

	return cfg
}
