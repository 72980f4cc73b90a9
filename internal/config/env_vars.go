package config

import (
	"strings"

	"github.com/spf13/viper"
)

const (
	portEnvVar   = "PORT"
	appNameVar   = "APP_NAME"
	envVar       = "ENV"
	logLevelVar  = "LOG_LEVEL"
	logFormatVar = "LOG_FORMAT"
)

type EnvVars struct {
	v *viper.Viper
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	port := e.v.GetString(portEnvVar)
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.v.GetString(appNameVar)
}

func (e EnvVars) GetEnv() string {
	return strings.ToUpper(e.v.GetString(envVar))
}

func (e EnvVars) GetLogLevel() string {
	return e.v.GetString(logLevelVar)
}

// GetLogFormat defaults to console output in DEV and json everywhere else.
func (e EnvVars) GetLogFormat() string {
	if format := e.v.GetString(logFormatVar); format != "" {
		return format
	}
	if e.GetEnv() == "DEV" {
		return "console"
	}
	return "json"
}
