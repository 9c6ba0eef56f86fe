package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/SalahEddine-Ra/TeamFLow/internal/config"
	repoPostgres "github.com/SalahEddine-Ra/TeamFLow/internal/domain/repository/postgres"
	"github.com/SalahEddine-Ra/TeamFLow/internal/events"
	"github.com/SalahEddine-Ra/TeamFLow/internal/events/kafka"
	infraPostgres "github.com/SalahEddine-Ra/TeamFLow/internal/infrastructure/database/postgres"
	"github.com/SalahEddine-Ra/TeamFLow/internal/infrastructure/geoip"
	"github.com/SalahEddine-Ra/TeamFLow/internal/infrastructure/security"
	"github.com/SalahEddine-Ra/TeamFLow/internal/service"
	"github.com/SalahEddine-Ra/TeamFLow/internal/utils/logger"
	"github.com/SalahEddine-Ra/TeamFLow/internal/worker"
	"github.com/SalahEddine-Ra/TeamFLow/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	log, err := logger.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync() //nolint:errcheck

	if err := run(cfg, log); err != nil {
		log.Fatal("service terminated", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Database.AutoMigrate {
		if err := migrations.Run("file://migrations", cfg.Database.DSN(), log); err != nil {
			return err
		}
	}

	pool, err := infraPostgres.NewDBPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()
	log.Info("connected to postgres",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.DBName))

	userRepo := repoPostgres.NewUserRepositoryPostgres(pool)
	tokenRepo := repoPostgres.NewRefreshTokenRepositoryPostgres(pool)
	txManager := repoPostgres.NewTransactionManager(pool)

	hasher := security.NewPasswordHasher(cfg.Token.BcryptCost)

	jwtService, err := security.NewJWTService(security.JWTConfig{
		Secret:         cfg.JWT.Secret,
		Issuer:         cfg.JWT.Issuer,
		Audience:       cfg.JWT.Audience,
		AccessTokenTTL: cfg.JWT.AccessTokenTTL,
	})
	if err != nil {
		return err
	}

	var locationCache geoip.LocationCache
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to ping redis: %w", err)
		}
		defer rdb.Close()
		locationCache = geoip.NewRedisCache(rdb, cfg.GeoIP.CacheTTL, log)
		log.Info("geolocation cache backed by redis", zap.String("addr", cfg.Redis.Addr))
	} else {
		locationCache = geoip.NewMemoryCache(cfg.GeoIP.CacheCapacity)
	}

	resolver := geoip.NewHTTPResolver(cfg.GeoIP.Endpoint, cfg.GeoIP.Timeout, log.Named("geoip"))
	locator := geoip.NewLocator(locationCache, resolver, cfg.GeoIP.Timeout, log.Named("geoip"))

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.Kafka.Enabled {
		producer, err := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, "teamflow/auth-service", log.Named("kafka"))
		if err != nil {
			return fmt.Errorf("failed to create kafka producer: %w", err)
		}
		defer producer.Close() //nolint:errcheck
		publisher = producer
		log.Info("security events published to kafka", zap.String("topic", cfg.Kafka.Topic))
	}

	anomalyService := service.NewAnomalyService(tokenRepo, locator, service.AnomalyConfig{
		MaxDistanceKm: cfg.Anomaly.MaxDistanceKm,
		MaxSpeedKmh:   cfg.Anomaly.MaxSpeedKmh,
	}, log.Named("anomaly"))

	tokenService := service.NewTokenService(
		tokenRepo,
		userRepo,
		hasher,
		anomalyService,
		txManager,
		publisher,
		service.TokenConfig{
			RefreshTokenTTL: cfg.Token.RefreshTokenTTL,
			CandidateWindow: cfg.Token.CandidateWindow,
			AllowPrivateIPs: cfg.Token.AllowPrivateIPs,
		},
		log.Named("tokens"),
	)

	authService := service.NewAuthService(
		userRepo,
		tokenService,
		jwtService,
		hasher,
		service.AuthConfig{
			DefaultOrgID: cfg.Auth.DefaultOrgID,
			DefaultRole:  cfg.Auth.DefaultRole,
		},
		log.Named("auth"),
	)

	var wg sync.WaitGroup

	if cfg.Cleanup.Enabled {
		cleanup := worker.NewCleanupWorker(tokenService, cfg.Cleanup.Interval, log.Named("cleanup"))
		wg.Add(1)
		go func() {
			defer wg.Done()
			cleanup.Run(ctx)
		}()
	}

	metricsServer := &http.Server{
		Addr:    cfg.Server.MetricsAddr,
		Handler: newOpsMux(pool, authService, log),
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("metrics server listening", zap.String("addr", cfg.Server.MetricsAddr))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Error("metrics server shutdown failed", zap.Error(err))
	}

	wg.Wait()
	log.Info("service stopped")
	return nil
}

// newOpsMux serves the operational endpoints: Prometheus metrics, a liveness
// probe that checks database connectivity, and an admin hook for terminating
// all of a user's sessions. The public auth API lives in the API gateway;
// this listener is internal-only.
func newOpsMux(pinger interface {
	Ping(ctx context.Context) error
}, auth *service.AuthService, log *zap.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := pinger.Ping(r.Context()); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/admin/revoke-sessions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
		if err != nil || userID <= 0 {
			http.Error(w, "user_id is required", http.StatusBadRequest)
			return
		}
		count, err := auth.LogoutAll(r.Context(), userID)
		if err != nil {
			log.Error("mass revocation failed", zap.Int64("user_id", userID), zap.Error(err))
			http.Error(w, "revocation failed", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "revoked %d tokens\n", count)
	})
	return mux
}
