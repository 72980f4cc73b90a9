package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-session-audit/audit"
	"github.com/jrsteele09/go-session-audit/auth"
	"github.com/jrsteele09/go-session-audit/internal/config"
	"github.com/jrsteele09/go-session-audit/internal/logging"
	"github.com/jrsteele09/go-session-audit/server"
	"github.com/jrsteele09/go-session-audit/token"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("error running server")
	}
	log.Info().Msg("server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	logging.Init(logging.Config{Level: c.GetLogLevel(), Format: c.GetLogFormat()})
	displayAppname(c.GetAppName())

	st, err := openStores(context.Background(), c)
	if err != nil {
		return fmt.Errorf("open stores: %w", err)
	}
	defer func() {
		if err := st.close(context.Background()); err != nil {
			log.Err(err).Msg("failed to close stores")
		}
	}()

	handler, err := newHandler(c, st)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- listenAndServe(srv) }()

	select {
	case err := <-errCh:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(srv)
}

func newHandler(c config.Config, st *stores) (http.Handler, error) {
	secret := c.GetJWTSecret()
	if secret == "" {
		generated, err := token.GenerateHMACSecret()
		if err != nil {
			return nil, err
		}
		secret = generated
		log.Warn().Msg("JWT_SECRET not set, using a random secret; tokens will not survive a restart")
	}
	issuer := token.NewIssuer(token.NewHMACSigner(secret), c.GetTokenExpiry())

	manager := audit.NewManager(st.audit)
	authService, err := auth.NewService(st.users, issuer, manager, auth.WithAdminSignup(c.GetAllowAdminSignup()))
	if err != nil {
		return nil, err
	}

	return server.New(c, server.Services{
		Users:  st.users,
		Issuer: issuer,
		Auth:   authService,
		Query: audit.NewQueryService(st.audit, audit.NewUserRepoResolver(st.users),
			audit.WithMaxPageSize(c.GetMaxPageSize())),
		Deletion: audit.NewDeletionService(st.audit),
		Health: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, c.GetStoreTimeout())
			defer cancel()
			return st.ping(ctx)
		},
	})
}

func listenAndServe(srv *http.Server) error {
	log.Info().Str("addr", srv.Addr).Msg("server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe: %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(srv *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
