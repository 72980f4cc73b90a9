package config

import (
	"time"

	"github.com/spf13/viper"
)

const (
	jwtSecretVar = "JWT_SECRET"
	jwtTTLVar    = "JWT_TTL"
)

type TokenConfig interface {
	GetJWTSecret() string
	GetTokenExpiry() time.Duration
}

type Token struct {
	v *viper.Viper
}

var _ TokenConfig = Token{}

func (t Token) GetJWTSecret() string {
	return t.v.GetString(jwtSecretVar)
}

// GetTokenExpiry falls back to 7 days when JWT_TTL is unset or not a positive duration.
func (t Token) GetTokenExpiry() time.Duration {
	d := t.v.GetDuration(jwtTTLVar)
	if d <= 0 {
		return 7 * 24 * time.Hour
	}
	return d
}
