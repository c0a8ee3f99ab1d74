package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	httptransport "github.com/ghaythalijarad/entralized-delivery-platform/internal/api/http"
	"github.com/ghaythalijarad/entralized-delivery-platform/internal/api/http/handlers"
	"github.com/ghaythalijarad/entralized-delivery-platform/internal/auth"
	"github.com/ghaythalijarad/entralized-delivery-platform/internal/config"
	"github.com/ghaythalijarad/entralized-delivery-platform/internal/events"
	"github.com/ghaythalijarad/entralized-delivery-platform/internal/identity"
	"github.com/ghaythalijarad/entralized-delivery-platform/internal/observability"
	"github.com/ghaythalijarad/entralized-delivery-platform/internal/persistence"
	"github.com/ghaythalijarad/entralized-delivery-platform/internal/repository"
	"github.com/ghaythalijarad/entralized-delivery-platform/internal/service"
	"github.com/ghaythalijarad/entralized-delivery-platform/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Pool != nil && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.Pool, cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	rdb := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer rdb.Close()

	dispatcher := events.NewInMemoryDispatcher(logger)
	resolver := auth.NewResolver()

	var notifyClient redis.Cmdable
	if rdb.Enabled() {
		notifyClient = rdb.Client
	}
	notifications := service.NewNotificationService(dispatcher, notifyClient, logger, cfg.Notification)
	notifier := worker.StartNotificationWorker(ctx, notifications, logger)

	routes := httptransport.RouteConfig{
		Metrics:      metrics.Handler(),
		LoginLimiter: httptransport.LoginRateLimiter(cfg.Auth.LoginRatePerMinute, cfg.Auth.LoginBurst),
	}
	cookie := handlers.RefreshCookie{Name: cfg.Auth.RefreshCookieName, Secure: cfg.Auth.RefreshCookieSecure}

	var verifier auth.Verifier
	switch cfg.Auth.Mode {
	case config.AuthModeLocal:
		if pg.Pool == nil {
			logger.Fatal("local auth mode requires POSTGRES_DSN")
		}
		verifier = wireLocal(ctx, cfg, pg, rdb, dispatcher, resolver, cookie, logger, &routes)
	case config.AuthModeCognito:
		verifier = wireCognito(ctx, cfg, dispatcher, resolver, cookie, metrics, logger, &routes)
	}
	routes.Gate = auth.NewGate(verifier, resolver, logger, metrics)

	routes.Health = handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, cfg.Auth.Mode, readinessDependencies(pg, rdb))

	if pg.Pool != nil {
		routes.Delivery = handlers.NewDeliveryHandler(service.NewDeliveryService(service.DeliveryDependencies{
			MerchantRepo: repository.NewMerchantRepository(pg.Pool),
			DriverRepo:   repository.NewDriverRepository(pg.Pool),
			CustomerRepo: repository.NewCustomerRepository(pg.Pool),
			OrderRepo:    repository.NewOrderRepository(pg.Pool),
			Dispatcher:   dispatcher,
			Logger:       logger,
		}))
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.ErrorHandler(logger, metrics),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, routes)

	go func() {
		logger.Info("listening",
			zap.String("addr", cfg.App.Addr()),
			zap.String("auth_mode", cfg.Auth.Mode),
		)
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if notifier != nil {
		notifier.Stop()
	}
}

func wireLocal(
	ctx context.Context,
	cfg *config.Config,
	pg *persistence.Postgres,
	rdb *persistence.Redis,
	dispatcher events.Dispatcher,
	resolver *auth.Resolver,
	cookie handlers.RefreshCookie,
	logger *zap.Logger,
	routes *httptransport.RouteConfig,
) auth.Verifier {
	userRepo := repository.NewUserRepository(pg.Pool)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL())

	var revocations auth.RevocationStore = auth.NoopRevocationStore{}
	if rdb.Enabled() {
		revocations = auth.NewRedisRevocationStore(rdb.Client)
	} else {
		logger.Warn("logout cannot revoke tokens without redis; tokens stay valid until expiry")
	}

	local := service.NewLocalAuthService(cfg.Auth, service.LocalAuthDependencies{
		UserRepo:    userRepo,
		Tokens:      tokens,
		Revocations: revocations,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	users := service.NewUserService(cfg.Auth, userRepo, dispatcher, logger)

	if cfg.Auth.SeedDefaultAdmin {
		created, err := users.EnsureDefaultAdmin(ctx, cfg.Auth)
		if err != nil {
			logger.Fatal("failed to seed default admin", zap.Error(err))
		}
		if created {
			logger.Warn("default admin account created; change its password",
				zap.String("username", cfg.Auth.DefaultAdminUsername))
		}
	}

	routes.Auth = handlers.NewAuthHandler(local, local, resolver, cookie)
	routes.Users = handlers.NewUsersHandler(users)
	return auth.NewLocalVerifier(tokens, revocations, userRepo)
}

func wireCognito(
	ctx context.Context,
	cfg *config.Config,
	dispatcher events.Dispatcher,
	resolver *auth.Resolver,
	cookie handlers.RefreshCookie,
	metrics *observability.Metrics,
	logger *zap.Logger,
	routes *httptransport.RouteConfig,
) auth.Verifier {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Cognito.Region))
	if err != nil {
		logger.Fatal("failed to load aws config", zap.Error(err))
	}
	client := cip.NewFromConfig(awsCfg, func(o *cip.Options) {
		if cfg.Cognito.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Cognito.Endpoint)
		}
	})

	provider := identity.NewCognitoProvider(client, identity.CognitoOptions{
		UserPoolID:     cfg.Cognito.UserPoolID,
		ClientID:       cfg.Cognito.AppClientID,
		Timeout:        cfg.Cognito.Timeout(),
		GroupCacheSize: cfg.Cognito.GroupCacheSize,
		GroupCacheTTL:  cfg.Cognito.GroupCacheTTL(),
		Logger:         logger,
		Observer:       metrics,
	})
	keys := identity.NewKeySet(cfg.Cognito.JWKSURL(), identity.KeySetOptions{
		Timeout:    cfg.Cognito.Timeout(),
		MinRefresh: cfg.Cognito.JWKSMinRefresh(),
		Logger:     logger,
		Recorder:   metrics,
	})
	if err := keys.Refresh(ctx); err != nil {
		logger.Warn("initial jwks fetch failed; retrying on first request", zap.Error(err))
	}

	routes.Auth = handlers.NewAuthHandler(service.NewProviderAuthService(provider, dispatcher, logger), nil, resolver, cookie)
	routes.ProviderAdmin = handlers.NewProviderAdminHandler(provider)
	return identity.NewTokenVerifier(keys, cfg.Cognito.Issuer(), cfg.Cognito.AppClientID, provider, resolver)
}

// readinessDependencies lists the stores the process was configured with.
// An unconfigured store is not a readiness dependency.
func readinessDependencies(pg *persistence.Postgres, rdb *persistence.Redis) map[string]handlers.Pinger {
	dependencies := map[string]handlers.Pinger{}
	if pg != nil && pg.Pool != nil {
		dependencies["postgres"] = pg
	}
	if rdb.Enabled() {
		dependencies["redis"] = rdb
	}
	return dependencies
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
