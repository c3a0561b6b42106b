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
	"github.com/jrsteele09/go-realm-auth/apicreds"
	"github.com/jrsteele09/go-realm-auth/auth"
	"github.com/jrsteele09/go-realm-auth/authz"
	"github.com/jrsteele09/go-realm-auth/internal/config"
	"github.com/jrsteele09/go-realm-auth/internal/metrics"
	"github.com/jrsteele09/go-realm-auth/server"
	"github.com/jrsteele09/go-realm-auth/tenancy"
	"github.com/jrsteele09/go-realm-auth/tenancy/pgstore"
	"github.com/jrsteele09/go-realm-auth/token"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func run(configPath string) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	ctx := context.Background()
	settings, logger, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	displayAppname(settings.GetAppName())

	store, err := openStore(ctx, settings, logger)
	if err != nil {
		return err
	}
	defer store.close()
	if pg, ok := store.Store.(*pgstore.Store); ok {
		if err := pg.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	settings, err = ensureDefaults(ctx, store, settings, logger)
	if err != nil {
		return err
	}
	handle := config.NewHandle(settings, configPath)

	credCache, closeCache := openCache(ctx, settings, logger)
	defer closeCache()

	m := metrics.New()
	tokens := token.New(token.NewHMACSigner(handle), token.WithIssuer(settings.GetIssuer()))
	verifier := apicreds.NewVerifier(store.Credentials(),
		apicreds.WithCache(credCache, settings.GetCredentialCacheTTL()),
		apicreds.WithLogger(logger.With().Str("component", "apicreds").Logger()))
	service, err := auth.NewService(store, tokens,
		auth.WithWriterOptions(tenancy.OnCredentialChange(verifier.Invalidate)),
		auth.WithLogger(logger.With().Str("component", "auth").Logger()),
		auth.WithMetrics(m),
		auth.WithPolicy(authz.Policy{
			MasterRealm: settings.GetMasterRealm(),
			AdminClient: settings.GetAdminClient(),
		}),
	)
	if err != nil {
		return err
	}

	srv, err := server.New(server.Deps{
		Config:      handle,
		Auth:        service,
		Tokens:      tokens,
		Credentials: verifier,
		Metrics:     m,
		Logger:      logger,
		Health:      store.health,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              settings.GetPort(),
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() { serveErr <- listenAndServe(httpServer, logger) }()

	if err := waitForStopSignal(serveErr, handle, logger); err != nil {
		return err
	}
	return shutdown(httpServer)
}

func listenAndServe(server *http.Server, logger zerolog.Logger) error {
	logger.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

// waitForStopSignal blocks until the process is asked to stop or the server
// fails. SIGHUP reloads the config file in place.
func waitForStopSignal(serveErr <-chan error, handle *config.Handle, logger zerolog.Logger) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(stop)

	for {
		select {
		case err := <-serveErr:
			return err
		case sig := <-stop:
			if sig != syscall.SIGHUP {
				logger.Info().Str("signal", sig.String()).Msg("Shutting down")
				return nil
			}
			if err := handle.Reload(); err != nil {
				logger.Error().Err(err).Msg("Config reload failed, keeping current settings")
				continue
			}
			logger.Info().Msg("Config reloaded")
		}
	}
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
