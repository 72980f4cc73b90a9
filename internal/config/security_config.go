package config

import (
	"time"

	"github.com/spf13/viper"
)

const (
	rateLimitEnabledVar  = "RATE_LIMIT_ENABLED"
	rateLimitRequestsVar = "RATE_LIMIT_REQUESTS"
	rateLimitWindowVar   = "RATE_LIMIT_WINDOW"
	adminEmailVar        = "ADMIN_EMAIL"
	adminPasswordVar     = "ADMIN_PASSWORD"
	adminNameVar         = "ADMIN_NAME"
	allowAdminSignupVar  = "ALLOW_ADMIN_SIGNUP"
)

type SecurityConfig interface {
	GetEnableRateLimiting() bool
	GetRateLimitRequests() int
	GetRateLimitWindow() time.Duration
	GetAdminEmail() string
	GetAdminPassword() string
	GetAdminName() string
	GetAllowAdminSignup() bool
}

type Security struct {
	v *viper.Viper
}

var _ SecurityConfig = Security{}

func (s Security) GetEnableRateLimiting() bool {
	return s.v.GetBool(rateLimitEnabledVar)
}

func (s Security) GetRateLimitRequests() int {
	if n := s.v.GetInt(rateLimitRequestsVar); n > 0 {
		return n
	}
	return 10
}

func (s Security) GetRateLimitWindow() time.Duration {
	if d := s.v.GetDuration(rateLimitWindowVar); d > 0 {
		return d
	}
	return time.Minute
}

// GetAdminEmail is the identity bootstrapped as administrator at startup. Empty disables bootstrap.
func (s Security) GetAdminEmail() string {
	return s.v.GetString(adminEmailVar)
}

func (s Security) GetAdminPassword() string {
	return s.v.GetString(adminPasswordVar)
}

func (s Security) GetAdminName() string {
	return s.v.GetString(adminNameVar)
}

// GetAllowAdminSignup lets anonymous callers register with the admin role. Off by default.
func (s Security) GetAllowAdminSignup() bool {
	return s.v.GetBool(allowAdminSignupVar)
}
