package commands

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/marmos91/dittodav/internal/logger"
	"github.com/marmos91/dittodav/pkg/api"
	"github.com/marmos91/dittodav/pkg/audit"
	"github.com/marmos91/dittodav/pkg/auth"
	"github.com/marmos91/dittodav/pkg/compat"
	"github.com/marmos91/dittodav/pkg/config"
	"github.com/marmos91/dittodav/pkg/gateway"
	gwmiddleware "github.com/marmos91/dittodav/pkg/gateway/middleware"
	"github.com/marmos91/dittodav/pkg/metrics"
	prommetrics "github.com/marmos91/dittodav/pkg/metrics/prometheus"
	"github.com/marmos91/dittodav/pkg/mount"
)

// services is everything a running gateway process owns.
type services struct {
	provider *auth.Provider
	mounts   *mount.Table
	gateway  *gateway.Server
	admin    *api.Server     // nil when the admin API is disabled
	metrics  *metrics.Server // nil when metrics are disabled
	watcher  *compat.Watcher // nil when no probe document is file-backed
}

// buildServices wires the gateway from cfg. Metrics collectors are created
// after the registry so a disabled registry leaves them nil.
func buildServices(cfg *config.Config) (*services, error) {
	s := &services{}

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		s.metrics = metrics.NewServer(cfg.Metrics)
	} else {
		metrics.Reset()
	}

	authCfg := cfg.AuthConfig()
	authCfg.Metrics = prommetrics.NewAuthMetrics()
	provider, err := auth.NewProvider(cfg.IdentityClient(), authCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create credential cache: %w", err)
	}
	s.provider = provider

	mounts, err := mount.Build(cfg.MountSpecs())
	if err != nil {
		return nil, fmt.Errorf("failed to build mounts: %w", err)
	}
	s.mounts = mounts

	docs, err := cfg.Compat.Documents(cfg.Server.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to load probe documents: %w", err)
	}
	shim := compat.New(
		compat.DefaultTable(cfg.Server.Root, cfg.Compat.AvatarUser, docs),
		prommetrics.NewCompatMetrics(),
	)
	if cfg.Compat.WatchEnabled() && hasFileDocument(docs) {
		w, err := compat.NewWatcher(docs.Status, docs.Capabilities, docs.Config)
		if err != nil {
			return nil, fmt.Errorf("failed to watch probe documents: %w", err)
		}
		s.watcher = w
	}

	var auditor *audit.Auditor
	if cfg.Audit.IsEnabled() {
		auditor = audit.New(cfg.AuditConfig(), audit.WithMetrics(prommetrics.NewAuditMetrics()))
	}

	s.gateway = gateway.NewServer(cfg.Server, gateway.Deps{
		Users:      provider,
		Mounts:     mounts,
		Shim:       shim,
		Auditor:    auditor,
		Correlator: gwmiddleware.NewCorrelator(),
	})

	if cfg.Admin.IsEnabled() {
		s.admin = api.NewServer(cfg.Admin, api.Deps{Users: provider, Mounts: mounts})
	}

	return s, nil
}

func hasFileDocument(docs compat.Documents) bool {
	for _, d := range []*compat.Document{docs.Status, docs.Capabilities, docs.Config} {
		if d != nil && d.Path() != "" {
			return true
		}
	}
	return false
}

// serve runs every listener until ctx is cancelled or one of them fails.
// A failing listener cancels the others.
func (s *services) serve(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.gateway.Start(gctx)
	})
	if s.admin != nil {
		g.Go(func() error {
			return s.admin.Start(gctx)
		})
	}
	if s.metrics != nil {
		g.Go(func() error {
			return s.metrics.Start(gctx)
		})
	}
	if s.watcher != nil {
		g.Go(func() error {
			logger.Info("Watching probe documents", "files", s.watcher.Len())
			s.watcher.Run(gctx)
			return nil
		})
	}

	return g.Wait()
}
