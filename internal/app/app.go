package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Aahantrikha/BuilderSpace-sub000/internal/access"
	"github.com/Aahantrikha/BuilderSpace-sub000/internal/activity"
	"github.com/Aahantrikha/BuilderSpace-sub000/internal/auth"
	"github.com/Aahantrikha/BuilderSpace-sub000/internal/config"
	"github.com/Aahantrikha/BuilderSpace-sub000/internal/core"
	"github.com/Aahantrikha/BuilderSpace-sub000/internal/log"
	"github.com/Aahantrikha/BuilderSpace-sub000/internal/service/screening"
	"github.com/Aahantrikha/BuilderSpace-sub000/internal/service/teams"
	"github.com/Aahantrikha/BuilderSpace-sub000/internal/service/workspace"
	"github.com/Aahantrikha/BuilderSpace-sub000/internal/store"
	"github.com/Aahantrikha/BuilderSpace-sub000/internal/store/sqlite"
	transporthttp "github.com/Aahantrikha/BuilderSpace-sub000/internal/transport/http"
)

const activityHandlerTimeout = 5 * time.Second

// App wires together storage, the broadcast engine, domain services and transport.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	router          *core.Router
	bus             *activity.Bus
	store           store.Store
	configPath      string
	log             *zerolog.Logger
}

// New constructs the application with provided configuration. configPath,
// when set, is watched for runtime log level changes.
func New(cfg config.Config, configPath string, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	resolver := core.NewBreakerResolver(st, cfg.Resolver.MaxFailures, cfg.Resolver.OpenTimeout, logger)
	router := core.NewRouter(resolver,
		core.WithLiveness(cfg.Realtime.HeartbeatInterval, cfg.Realtime.StaleThreshold),
		core.WithQueueLimits(cfg.Realtime.MaxQueueSize, cfg.Realtime.MaxQueueAge),
		core.WithMaxQueuedUsers(cfg.Realtime.MaxQueuedUsers),
		core.WithStatusWorkers(cfg.Realtime.StatusWorkers),
		core.WithLogger(logger),
	)
	gate := access.NewGate(resolver, logger)

	bus, err := activity.NewBus(logger, activityHandlerTimeout)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("init activity bus: %w", err)
	}
	bus.Handle("stats_update", activity.NewStatsBroadcaster(st, router, logger).Handle)

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.JWTTTL,
	}
	authService := auth.NewService(st, jwtConfig, bus)

	services := transporthttp.Services{
		Teams:     teams.NewService(st, router, bus, logger),
		Screening: screening.NewService(st, gate, router, logger),
		Workspace: workspace.NewService(st, gate, router, logger),
	}
	server := transporthttp.NewServer(router, authService, services, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		router:          router,
		bus:             bus,
		store:           st,
		configPath:      configPath,
		log:             logger,
	}, nil
}

// Run starts the router, the activity bus and the HTTP server, and blocks
// until ctx is cancelled or one of them fails.
func (a *App) Run(ctx context.Context) error {
	if a.configPath != "" {
		config.Watch(a.log, a.configPath, func(cfg config.Config) {
			log.SetLevel(cfg.LogLevel)
			a.log.Info().Str("level", cfg.LogLevel).Msg("log level applied")
		})
	}

	a.router.Start(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := a.bus.Run(gctx); err != nil {
			return fmt.Errorf("activity bus: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return a.shutdown()
	})

	err := g.Wait()
	a.cleanup()
	return err
}

func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	a.log.Info().Msg("shutting down http server")
	// close sockets first so hijacked websocket handlers return
	a.router.Stop()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

// cleanup closes the bus and the database.
func (a *App) cleanup() {
	if err := a.bus.Close(); err != nil {
		a.log.Warn().Err(err).Msg("failed to close activity bus")
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
