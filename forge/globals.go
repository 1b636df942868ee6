package internal

import (
	"log"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

var (
	// DefaultConfigPath is the default path to the config file
	DefaultAppName    = "loraforge"
	DefaultConfigPath = filepath.Join(getHomeDir(), ".config", DefaultAppName)
	DefaultRunDBPath  = filepath.Join(DefaultConfigPath, "runs.db")
	DefaultOutputDir  = "./out"

	// DefaultIgnoreFile filters dataset shards when scanning a data directory
	DefaultIgnoreFile = ".forgeignore"
)

// getHomeDir falls back to the working directory, then /tmp, so the default
// paths are always usable.
func getHomeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	if cwd, err := os.Getwd(); err == nil {
		log.Printf("home directory unavailable, defaulting to working directory %s", cwd)
		return cwd
	}
	log.Printf("home and working directory unavailable, defaulting to /tmp")
	return "/tmp"
}

// GetLogger returns a properly configured zerolog logger instance
func GetLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
