// Package config exposes application settings as small per-concern interfaces.
// Values come from the environment and an optional .env file through viper.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

type Config interface {
	EnvConfig
	CorsConfig
	TokenConfig
	SecurityConfig
	StoreConfig
	AuditConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetLogFormat() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	Token
	Security
	Store
	Audit
}

var defaults = map[string]any{
	portEnvVar:           "8080",
	appNameVar:           "Session Audit",
	envVar:               "DEV",
	logLevelVar:          "info",
	corsOriginsVar:       "*",
	jwtTTLVar:            "168h",
	rateLimitEnabledVar:  true,
	rateLimitRequestsVar: 10,
	rateLimitWindowVar:   "1m",
	storeDriverVar:       "memory",
	mongoDatabaseVar:     "session_audit",
	storeTimeoutVar:      "5s",
	auditDefaultPageSize: 20,
	auditMaxPageSize:     100,
	adminNameVar:         "Administrator",
}

// New reads .env (if present) and the process environment.
func New() Config {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // a missing .env is not an error

	v.AutomaticEnv()
	return fromViper(v)
}

// FromValues builds a Config from explicit key/value pairs on top of the defaults.
// Keys use the environment variable names.
func FromValues(values map[string]any) Config {
	v := viper.New()
	for k, val := range values {
		v.Set(strings.ToUpper(k), val)
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) Config {
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	return mainConfig{
		EnvVars:  EnvVars{v: v},
		Cors:     Cors{v: v},
		Token:    Token{v: v},
		Security: Security{v: v},
		Store:    Store{v: v},
		Audit:    Audit{v: v},
	}
}
