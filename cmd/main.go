package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/SergeyBogomolovv/orders-crud-service/docs"
	"github.com/SergeyBogomolovv/orders-crud-service/internal/app"
	"github.com/SergeyBogomolovv/orders-crud-service/internal/config"
	"github.com/SergeyBogomolovv/orders-crud-service/internal/handler"
	"github.com/SergeyBogomolovv/orders-crud-service/internal/postgres"
	"github.com/SergeyBogomolovv/orders-crud-service/internal/repo"
	"github.com/SergeyBogomolovv/orders-crud-service/internal/service"
	"github.com/SergeyBogomolovv/orders-crud-service/pkg/cache"
	"github.com/SergeyBogomolovv/orders-crud-service/pkg/trm"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/joho/godotenv"
)

// @title           Orders CRUD API
// @version         1.0
// @description     CRUD для заказов
// @BasePath        /
func main() {
	conf := config.New()
	logger := newLogger(conf.Env)
	panicIfErr("invalid config", conf.Validate())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	var (
		orderRepo service.OrderRepo
		txManager trm.Manager
	)
	switch conf.Storage.Driver {
	case config.StorageDriverPostgres:
		db, err := postgres.New(ctx, conf.Postgres)
		panicIfErr("failed to connect to db", err)
		defer db.Close()
		logger.Info("postgres connected")

		panicIfErr("failed to migrate db", postgres.Migrate(db, logger))

		txManager = trm.NewManager(db)
		orderRepo = repo.NewPostgresRepo(db, txManager)
	default:
		logger.Warn("using in-memory storage, data will be lost on restart")
		txManager = trm.NewNoopManager()
		orderRepo = repo.NewMemoryRepo()
	}

	orderCache := cache.NewLRUCache(conf.Cache.Capacity, conf.Cache.TTL)
	orderService := service.NewOrderService(logger, txManager, orderRepo, orderCache)

	app := app.New(logger, conf)
	app.SetHTTPHandlers(handler.NewHTTPHandler(logger, orderService))

	if conf.Kafka.Enabled {
		handler.RegisterMetrics(prometheus.DefaultRegisterer)
		app.SetConsumers(handler.NewKafkaHandler(logger, conf.Kafka, orderService))
	}

	app.SetStarters(orderCache, cacheWarmUpAdapter{svc: orderService, count: conf.Cache.Capacity})

	panicIfErr("failed to start app", app.Start(ctx))
	<-ctx.Done()
	panicIfErr("failed to stop app", app.Stop())
}

func init() {
	godotenv.Load()
}

func newLogger(env string) *slog.Logger {
	switch env {
	case "production":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

func panicIfErr(prefix string, err error) {
	if err != nil {
		panic(prefix + ": " + err.Error())
	}
}

type warmUpper interface {
	WarmUpCache(ctx context.Context, count int) error
}

type cacheWarmUpAdapter struct {
	svc   warmUpper
	count int
}

func (a cacheWarmUpAdapter) Start(ctx context.Context) error {
	return a.svc.WarmUpCache(ctx, a.count)
}
