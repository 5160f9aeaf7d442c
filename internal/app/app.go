package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/vancomm/shapesweeper/internal/catalog"
	"github.com/vancomm/shapesweeper/internal/config"
	"github.com/vancomm/shapesweeper/internal/middleware"
	"github.com/vancomm/shapesweeper/internal/session"
)

type App struct {
	logger   *slog.Logger
	router   *http.ServeMux
	catalog  catalog.Catalog
	sessions *session.Manager
	cookies  *config.Cookies
	jwt      *config.JWT
	ws       *config.WebSocket

	db  *pgxpool.Pool
	rdb *redis.Client
}

func New(logger *slog.Logger) *App {
	return &App{
		logger: logger,
		router: http.NewServeMux(),
	}
}

// Setup reads the configuration and opens the catalog. It is separate from
// Start so that the routes can be exercised without a listener.
func (a *App) Setup(ctx context.Context) error {
	catalogCfg, err := config.NewCatalog()
	if err != nil {
		return err
	}
	if err := a.openCatalog(ctx, catalogCfg); err != nil {
		return fmt.Errorf("unable to open catalog: %w", err)
	}

	sessionCfg, err := config.NewSession()
	if err != nil {
		return err
	}
	a.sessions = session.NewManager(
		a.logger, a.catalog, sessionCfg.IdleTimeout,
		session.WithTick(sessionCfg.Tick),
	)

	if a.cookies, err = config.NewCookies(); err != nil {
		return err
	}
	if a.jwt, err = config.NewJWT(); err != nil {
		return err
	}
	if a.ws, err = config.NewWebSocket(); err != nil {
		return err
	}

	a.loadRoutes()
	return nil
}

func (a *App) Handler() http.Handler {
	return middleware.Wrap(
		a.router,
		middleware.Auth(a.logger, a.cookies, a.jwt),
		middleware.Cors(config.CorsOrigins()...),
		middleware.Logging(a.logger),
	)
}

// Start serves until ctx is done, then drains requests and stops every
// session.
func (a *App) Start(ctx context.Context) error {
	defer a.Close()
	if err := a.Setup(ctx); err != nil {
		return err
	}

	addr := config.Port()
	server := &http.Server{
		Addr:    addr,
		Handler: a.Handler(),
		BaseContext: func(l net.Listener) context.Context {
			return ctx
		},
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("server listening", slog.String("addr", addr))
		err := server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		return a.sessions.Run(gCtx)
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (a *App) Close() {
	if a.sessions != nil {
		a.sessions.Close()
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Warn("unable to close redis client", slog.Any("error", err))
		}
	}
	if a.db != nil {
		a.db.Close()
	}
}
