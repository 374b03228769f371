package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/gin-gonic/gin"
	"github.com/princinho/sahoadmin/backend"
	"github.com/princinho/sahoadmin/config"
	"github.com/princinho/sahoadmin/controllers"
	"github.com/princinho/sahoadmin/guard"
	"github.com/princinho/sahoadmin/middleware"
	"github.com/princinho/sahoadmin/router"
	"github.com/princinho/sahoadmin/session"
	"github.com/princinho/sahoadmin/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("admin console stopped")
	}
	log.Info().Msg("admin console stopped")
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	setupLogger(cfg)
	displayAppname(cfg.AppName)

	ctx := context.Background()
	store, closeStore, err := storage.Open(ctx, storage.Options{
		Driver:        cfg.StoreDriver,
		Path:          cfg.StorePath,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
		RedisPrefix:   cfg.RedisPrefix,
	})
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Error().Err(err).Msg("close session store")
		}
	}()

	api := backend.New(cfg.APIURL, backend.WithTimeout(cfg.RequestTimeout))
	sessions := session.New(ctx, api, store,
		session.WithLogger(log.With().Str("component", "session").Logger()),
		session.WithTokenTTL(cfg.TokenTTL),
		session.WithRefreshLead(cfg.RefreshLead),
		session.WithRequestTimeout(cfg.RequestTimeout),
	)
	defer sessions.Close()

	g := guard.New(sessions, guard.WithSettleDelay(cfg.SettleDelay))

	// A session that ends in the background sends the operator to login.
	pending := &middleware.PendingRedirect{}
	unsubscribe := sessions.Subscribe(func(inv session.Invalidation) {
		log.Warn().Err(inv.Err).Str("reason", string(inv.Reason)).Time("at", inv.At).Msg("session invalidated")
		pending.Replace(g.LoginPath())
	})
	defer unsubscribe()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine, err := router.New(router.Deps{
		Sessions:       sessions,
		Guard:          g,
		Categories:     controllers.NewCategoriesController(sessions, api),
		Pending:        pending,
		Logger:         log.With().Str("component", "http").Logger(),
		AllowedOrigins: cfg.AllowedOrigins,
	})
	if err != nil {
		return err
	}

	server := &http.Server{Addr: cfg.Addr(), Handler: engine, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Str("api", cfg.APIURL).Msg("admin console listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-stop:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func setupLogger(cfg config.Config) {
	zerolog.SetGlobalLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = time.RFC3339
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
