package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/TooLazyToCreate/bucketlist/config"
	"github.com/TooLazyToCreate/bucketlist/internal/handler"
	"github.com/TooLazyToCreate/bucketlist/internal/password"
	"github.com/TooLazyToCreate/bucketlist/internal/repository"
	"github.com/TooLazyToCreate/bucketlist/internal/service"
	"github.com/TooLazyToCreate/bucketlist/internal/token"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type stores struct {
	users       repository.UserRepository
	lists       repository.BucketlistRepository
	items       repository.ItemRepository
	revocations repository.RevocationRepository
	closers     []func() error
}

func (s *stores) close(logger *zap.Logger) {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			logger.Error("Store was closed with error", zap.Error(err))
		}
	}
}

func openStores(ctx context.Context, logger *zap.Logger, cfg *config.Config) (*stores, error) {
	s := &stores{}

	switch cfg.Storage {
	case config.StoragePostgres:
		db, err := sql.Open("postgres", cfg.DatabaseUrl)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		s.closers = append(s.closers, db.Close)
		if err := db.PingContext(ctx); err != nil {
			s.close(logger)
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		logger.Info("Connected to database")
		if err := repository.Migrate(ctx, logger, db); err != nil {
			s.close(logger)
			return nil, err
		}
		s.users = repository.NewUserRepository(logger, db)
		s.lists = repository.NewBucketlistRepository(logger, db)
		s.items = repository.NewItemRepository(logger, db)
		if cfg.Revocation.Backend == config.RevocationPostgres {
			s.revocations = repository.NewRevocationRepository(logger, db)
		}
	case config.StorageMemory:
		memory := repository.NewMemory()
		logger.Warn("Using in-memory storage, data will not survive a restart")
		s.users = memory.Users
		s.lists = memory.Bucketlists
		s.items = memory.Items
		if cfg.Revocation.Backend == config.RevocationMemory {
			s.revocations = memory.Revocations
		}
	default:
		return nil, fmt.Errorf("unknown storage %q", cfg.Storage)
	}

	if cfg.Revocation.Backend == config.RevocationRedis {
		rdb, err := repository.InitRedis(ctx, cfg.Revocation.RedisAddr, cfg.Revocation.RedisPassword, cfg.Revocation.RedisDB)
		if err != nil {
			s.close(logger)
			return nil, err
		}
		s.closers = append(s.closers, rdb.Close)
		logger.Info("Connected to redis", zap.String("addr", cfg.Revocation.RedisAddr))
		s.revocations = repository.NewRedisRevocationRepository(logger, rdb)
	}
	return s, nil
}

// NewRouter builds the full HTTP stack around h.
func NewRouter(logger *zap.Logger, cfg *config.Config, h *handler.Handler) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RealIP)
	router.Use(handler.StripPort)
	router.Use(middleware.Recoverer)
	if len(cfg.CorsOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CorsOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			MaxAge:         300,
		}))
	}
	if cfg.IsDev() {
		router.Use(handler.RequestLogger(logger))
	}

	h.Routes(router)
	return router
}

// pruneRevocations drops revocation entries of tokens that have expired
// anyway, until ctx is done.
func pruneRevocations(ctx context.Context, logger *zap.Logger, pruner repository.RevocationPruner, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := pruner.DeleteExpired(ctx, now)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					logger.Error("Failed to delete expired revocations", zap.Error(err))
				}
				continue
			}
			logger.Debug("Expired revocations have been deleted", zap.Int64("count", n))
		}
	}
}

// Run serves the API until ctx is cancelled, then shuts the server down
// gracefully.
func Run(ctx context.Context, logger *zap.Logger, cfg *config.Config) error {
	s, err := openStores(ctx, logger, cfg)
	if err != nil {
		return err
	}
	defer s.close(logger)

	codec, err := token.NewCodec(token.Config{
		Secret:    []byte(cfg.Token.Secret),
		Issuer:    cfg.Token.Issuer,
		TTL:       cfg.Token.TTL,
		ClockSkew: cfg.Token.ClockSkew,
	}, s.revocations)
	if err != nil {
		return err
	}
	authService, err := service.NewAuthService(logger, s.users, password.NewHasher(bcrypt.DefaultCost), codec, s.revocations)
	if err != nil {
		return err
	}
	lists := service.NewBucketlistService(logger, s.lists, s.items)
	h := handler.NewHandler(logger, authService, service.NewGate(logger, codec), lists)

	if pruner, ok := s.revocations.(repository.RevocationPruner); ok {
		go pruneRevocations(ctx, logger, pruner, cfg.Revocation.PruneInterval)
	}
	if !authService.RevocationEnabled() {
		logger.Info("Token revocation is disabled, logout will answer 501")
	}

	serverAddress := cfg.Host + ":" + strconv.Itoa(cfg.Port)
	server := &http.Server{
		Addr:              serverAddress,
		Handler:           NewRouter(logger, cfg, h),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Will serve on " + serverAddress)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
