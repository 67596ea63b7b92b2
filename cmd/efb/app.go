package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/flightbag/internal/auth"
	"github.com/zulandar/flightbag/internal/config"
	"github.com/zulandar/flightbag/internal/db"
	"github.com/zulandar/flightbag/internal/efb"
	"github.com/zulandar/flightbag/internal/flight"
	"github.com/zulandar/flightbag/internal/gateway"
	"github.com/zulandar/flightbag/internal/kv"
	"github.com/zulandar/flightbag/internal/session"
	"gorm.io/gorm"
)

// app is everything a command needs, wired from one config.
type app struct {
	cfg     *config.Config
	db      *gorm.DB
	session *session.Session
	gateway *gateway.Gateway
	svc     *efb.Service
	auth    *auth.Client
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// openApp loads the config at path and wires the app.
func openApp(path string) (*app, error) {
	cfg, err := loadConfig(path)
	if err != nil {
		return nil, err
	}
	return newApp(cfg)
}

func newApp(cfg *config.Config) (*app, error) {
	gormDB, err := db.Setup(cfg.Storage)
	if err != nil {
		return nil, err
	}
	store, err := kv.NewGormStore(gormDB)
	if err != nil {
		return nil, err
	}
	sess, err := session.New(store)
	if err != nil {
		return nil, err
	}
	gw, err := gateway.New(gateway.Opts{
		Credentials: sess,
		DefaultBase: cfg.API.BaseURL,
		Client:      &http.Client{Timeout: time.Duration(cfg.API.TimeoutSec) * time.Second},
	})
	if err != nil {
		return nil, err
	}
	svc, err := efb.New(efb.Opts{
		KV:           store,
		Syncer:       gw,
		Session:      sess,
		SimNote:      cfg.Simulator.Note,
		SimTimeScale: cfg.Simulator.TimeScale,
	})
	if err != nil {
		return nil, err
	}
	authClient, err := auth.New(auth.Opts{
		Session:      sess,
		Exchanger:    gw,
		ClientID:     cfg.OAuth.ClientID,
		AuthorizeURL: cfg.OAuth.AuthorizeURL,
		RedirectURL:  cfg.OAuth.RedirectURL,
	})
	if err != nil {
		return nil, err
	}
	if cfg.Pilot != "" && sess.User() == "" {
		if err := sess.SetUser(cfg.Pilot); err != nil {
			return nil, err
		}
	}
	return &app{
		cfg:     cfg,
		db:      gormDB,
		session: sess,
		gateway: gw,
		svc:     svc,
		auth:    authClient,
	}, nil
}

// loadRoster fills the roster cache. The proxy is tried first; the sample
// roster is used when it is off or failing.
func (a *app) loadRoster(ctx context.Context) ([]flight.Flight, gateway.Result) {
	return a.svc.RefreshRoster(ctx)
}

// flightOrSelected resolves an explicit --flight value or the current
// selection.
func (a *app) flightOrSelected(id string) (string, error) {
	if id != "" {
		return id, nil
	}
	f, err := a.svc.SelectedFlight()
	if err != nil {
		return "", err
	}
	return f.ID, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(cmd.Context())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			fmt.Fprintf(cmd.OutOrStdout(), "\nReceived %s, shutting down...\n", sig)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}
