package config

import "github.com/spf13/viper"

const (
	auditDefaultPageSize = "AUDIT_DEFAULT_PAGE_SIZE"
	auditMaxPageSize     = "AUDIT_MAX_PAGE_SIZE"
)

type AuditConfig interface {
	GetDefaultPageSize() int
	GetMaxPageSize() int
}

type Audit struct {
	v *viper.Viper
}

var _ AuditConfig = Audit{}

func (a Audit) GetDefaultPageSize() int {
	if n := a.v.GetInt(auditDefaultPageSize); n > 0 {
		return n
	}
	return 20
}

func (a Audit) GetMaxPageSize() int {
	if n := a.v.GetInt(auditMaxPageSize); n > 0 {
		return n
	}
	return 100
}
