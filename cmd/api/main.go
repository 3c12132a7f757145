package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/tallycart/tallycart-backend/api/routes"
	"github.com/tallycart/tallycart-backend/internal/cart"
	"github.com/tallycart/tallycart-backend/internal/catalog"
	"github.com/tallycart/tallycart-backend/pkg/config"
	"github.com/tallycart/tallycart-backend/pkg/db"
	"github.com/tallycart/tallycart-backend/pkg/logger"
	"github.com/tallycart/tallycart-backend/pkg/migrate"
	"github.com/tallycart/tallycart-backend/pkg/pubsub"
	"github.com/tallycart/tallycart-backend/pkg/redis"
)

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

	registry := catalog.NewRegistry()
	productRepo, err := catalog.NewProductRepository(dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create product repository", err)
		os.Exit(1)
	}
	if err := catalog.RegisterProducts(registry, productRepo); err != nil {
		logg.Error(context.Background(), "failed to register product resolver", err)
		os.Exit(1)
	}

	cartRepo, err := cart.NewRepository(dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart repository", err)
		os.Exit(1)
	}
	cartCache, err := cart.NewRedisCache(redisClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart cache", err)
		os.Exit(1)
	}

	var notifier cart.Notifier = cart.NopNotifier{}
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
		notifier = cart.NewPubSubNotifier(pubsubClient, logg)
	}

	cartService, err := cart.NewService(cart.ServiceParams{
		Store:    cartRepo,
		Cache:    cartCache,
		Catalog:  registry,
		Notifier: notifier,
		Logger:   logg,
		Options:  cart.OptionsFromConfig(cfg.Cart),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, cartService),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
