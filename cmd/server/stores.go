package main

import (
	"context"
	"fmt"

	"github.com/jrsteele09/go-session-audit/audit"
	fakeauditrepo "github.com/jrsteele09/go-session-audit/audit/repofake"
	"github.com/jrsteele09/go-session-audit/internal/config"
	"github.com/jrsteele09/go-session-audit/store/mongostore"
	"github.com/jrsteele09/go-session-audit/store/sqlstore"
	"github.com/jrsteele09/go-session-audit/users"
	fakeuserrepo "github.com/jrsteele09/go-session-audit/users/repofake"
	"github.com/rs/zerolog/log"
)

// stores is the Identity Store and Audit Record Store selected by STORE_DRIVER.
type stores struct {
	users users.UserRepo
	audit audit.Repo
	ping  func(ctx context.Context) error
	close func(ctx context.Context) error
}

func openStores(ctx context.Context, c config.Config) (*stores, error) {
	ctx, cancel := context.WithTimeout(ctx, c.GetStoreTimeout())
	defer cancel()

	switch driver := c.GetStoreDriver(); driver {
	case config.StoreMemory:
		log.Warn().Msg("using in-memory stores, all data is lost on restart")
		return &stores{
			users: fakeuserrepo.NewFakeUserRepo(),
			audit: fakeauditrepo.NewFakeAuditRepo(),
			ping:  func(context.Context) error { return nil },
			close: func(context.Context) error { return nil },
		}, nil

	case config.StoreSQLite, config.StorePostgres:
		dsn := c.GetDatabaseURL()
		if dsn == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the %s store", driver)
		}
		s, err := sqlstore.Open(ctx, sqlstore.Dialect(driver), dsn)
		if err != nil {
			return nil, err
		}
		return &stores{
			users: s.Users(),
			audit: s.Audit(),
			ping:  s.Ping,
			close: func(context.Context) error { return s.Close() },
		}, nil

	case config.StoreMongo:
		uri := c.GetMongoURI()
		if uri == "" {
			return nil, fmt.Errorf("MONGO_URI is required for the mongo store")
		}
		s, err := mongostore.Open(ctx, uri, c.GetMongoDatabase())
		if err != nil {
			return nil, err
		}
		return &stores{
			users: s.Users(),
			audit: s.Audit(),
			ping:  s.Ping,
			close: s.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", driver)
	}
}
