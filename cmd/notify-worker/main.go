package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	firebase "firebase.google.com/go/v4"
	"github.com/joho/godotenv"
	"google.golang.org/api/option"

	"github.com/Yashop965/CamPass/internal/notify"
	"github.com/Yashop965/CamPass/internal/users"
	"github.com/Yashop965/CamPass/pkg/config"
	"github.com/Yashop965/CamPass/pkg/db"
	"github.com/Yashop965/CamPass/pkg/logger"
	"github.com/Yashop965/CamPass/pkg/pubsub"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "notify-worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	cfg.Service.Kind = "notify-worker"

	logg = logger.New(logger.Options{
		ServiceName: "notify-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer pubsubClient.Close()

	var firebaseOpts []option.ClientOption
	if cfg.GCP.CredentialsFile != "" {
		firebaseOpts = append(firebaseOpts, option.WithCredentialsFile(cfg.GCP.CredentialsFile))
	}
	firebaseApp, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.GCP.ProjectID}, firebaseOpts...)
	requireResource(ctx, logg, "firebase app", err)

	messagingClient, err := firebaseApp.Messaging(ctx)
	requireResource(ctx, logg, "firebase messaging", err)

	consumer, err := notify.NewConsumer(
		pubsubClient.NotificationsSubscription(),
		messagingClient,
		users.NewRepository(dbClient.DB()),
		logg,
	)
	requireResource(ctx, logg, "push consumer", err)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"serviceKind": cfg.Service.Kind,
		"env":         cfg.App.Env,
	})
	logg.Info(runCtx, "notify worker ready")

	if err := consumer.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "notify worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(runCtx, "notify worker shutting down gracefully")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
