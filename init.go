// Package stagetrader provides the process-wide defaults shared by the CLI
// and embedding programs.
package stagetrader

import (
	"os"
	"strconv"

	"github.com/quantfoundry/stagetrader/core"
	"github.com/quantfoundry/stagetrader/log/zerolog"
)

// DefaultLog is the default logger instance
var DefaultLog core.Logger

const (
	defaultLogLevel      = "info"
	defaultLogTimeFormat = "2006-01-02 15:04:05"
	defaultLogColored    = "true"
	defaultLogJSON       = "false"
)

// Environment variable names
const (
	envLogLevel      = "STAGETRADER_LOG_LEVEL"
	envLogTimeFormat = "STAGETRADER_LOG_TIME_FORMAT"
	envLogColor      = "STAGETRADER_LOG_COLOR"
	envLogJSON       = "STAGETRADER_LOG_JSON"
)

func init() {
	log, err := initLogger()
	if err != nil {
		panic(err)
	}
	DefaultLog = log
}

// initLogger creates a logger configured from environment variables
func initLogger() (*zerolog.Logger, error) {
	logLevel := getEnvWithDefault(envLogLevel, defaultLogLevel)
	logTimeFormat := getEnvWithDefault(envLogTimeFormat, defaultLogTimeFormat)

	logColored, err := parseBoolEnv(envLogColor, defaultLogColored)
	if err != nil {
		return nil, err
	}
	logJSON, err := parseBoolEnv(envLogJSON, defaultLogJSON)
	if err != nil {
		return nil, err
	}

	return zerolog.New(logLevel, logTimeFormat, logColored, logJSON)
}

// getEnvWithDefault returns the environment variable or the default if unset
func getEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// parseBoolEnv gets a boolean environment variable with a default value
func parseBoolEnv(key, defaultValue string) (bool, error) {
	value := getEnvWithDefault(key, defaultValue)
	return strconv.ParseBool(value)
}
