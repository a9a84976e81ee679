package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Yashop965/CamPass/api/controllers"
	"github.com/Yashop965/CamPass/api/routes"
	"github.com/Yashop965/CamPass/internal/auth"
	"github.com/Yashop965/CamPass/internal/gate"
	"github.com/Yashop965/CamPass/internal/locations"
	"github.com/Yashop965/CamPass/internal/notify"
	"github.com/Yashop965/CamPass/internal/passes"
	"github.com/Yashop965/CamPass/internal/sos"
	"github.com/Yashop965/CamPass/internal/users"
	"github.com/Yashop965/CamPass/pkg/config"
	"github.com/Yashop965/CamPass/pkg/db"
	"github.com/Yashop965/CamPass/pkg/logger"
	"github.com/Yashop965/CamPass/pkg/metrics"
	"github.com/Yashop965/CamPass/pkg/migrate"
	"github.com/Yashop965/CamPass/pkg/pubsub"
	"github.com/Yashop965/CamPass/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	var (
		notifier notify.Notifier = notify.Noop{}
		pubsubP  controllers.Pinger
	)
	if cfg.GCP.ProjectID != "" {
		pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub", err)
			}
		}()

		dispatcher, err := notify.NewDispatcher(pubsubClient.NotificationsPublisher(), logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create notification dispatcher", err)
			os.Exit(1)
		}
		notifier = dispatcher
		pubsubP = pubsubClient
	} else {
		logg.Warn(context.Background(), "no GCP project configured, push notifications disabled")
	}

	usersRepo := users.NewRepository(dbClient.DB())
	passRepo := passes.NewRepository(dbClient.DB())
	sosRepo := sos.NewRepository(dbClient.DB())
	locationRepo := locations.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	usersService, err := users.NewService(usersRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	passesService, err := passes.NewService(passes.ServiceParams{
		Repo:     passRepo,
		Users:    usersRepo,
		Notifier: notifier,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create passes service", err)
		os.Exit(1)
	}

	gateService, err := gate.NewService(gate.ServiceParams{
		Repo:     passRepo,
		Notifier: notifier,
		Metrics:  metrics.NewGateScanMetrics(prometheus.DefaultRegisterer),
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create gate service", err)
		os.Exit(1)
	}

	sosService, err := sos.NewService(sos.ServiceParams{
		Repo:     sosRepo,
		Users:    usersRepo,
		Notifier: notifier,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create sos service", err)
		os.Exit(1)
	}

	locationsService, err := locations.NewService(locations.ServiceParams{
		Repo:   locationRepo,
		Users:  usersRepo,
		Alerts: sosService,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create locations service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, pubsubP, routes.Services{
			Auth:      authService,
			Users:     usersService,
			Passes:    passesService,
			Gate:      gateService,
			Locations: locationsService,
			SOS:       sosService,
		}),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "error during shutdown", err)
			os.Exit(1)
		}
		logg.Info(ctx, "api server shutting down gracefully")
	}
}
