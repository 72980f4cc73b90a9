package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	storeDriverVar   = "STORE_DRIVER"
	databaseURLVar   = "DATABASE_URL"
	mongoURIVar      = "MONGO_URI"
	mongoDatabaseVar = "MONGO_DATABASE"
	storeTimeoutVar  = "STORE_TIMEOUT"
)

// Supported STORE_DRIVER values
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
)

type StoreConfig interface {
	GetStoreDriver() string
	GetDatabaseURL() string
	GetMongoURI() string
	GetMongoDatabase() string
	GetStoreTimeout() time.Duration
}

type Store struct {
	v *viper.Viper
}

var _ StoreConfig = Store{}

func (s Store) GetStoreDriver() string {
	return strings.ToLower(s.v.GetString(storeDriverVar))
}

// GetDatabaseURL is the Postgres DSN or the SQLite file path, depending on the driver.
func (s Store) GetDatabaseURL() string {
	return s.v.GetString(databaseURLVar)
}

func (s Store) GetMongoURI() string {
	return s.v.GetString(mongoURIVar)
}

func (s Store) GetMongoDatabase() string {
	return s.v.GetString(mongoDatabaseVar)
}

// GetStoreTimeout bounds connecting to the store and each health check.
func (s Store) GetStoreTimeout() time.Duration {
	if d := s.v.GetDuration(storeTimeoutVar); d > 0 {
		return d
	}
	return 5 * time.Second
}
