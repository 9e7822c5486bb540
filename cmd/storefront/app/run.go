package app

import (
	"context"
	"database/sql"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/davidogiale/lizzy-han-house-of-fashion-sub000/configs"
	"github.com/davidogiale/lizzy-han-house-of-fashion-sub000/internal/adapter/cache"
	"github.com/davidogiale/lizzy-han-house-of-fashion-sub000/internal/adapter/gateway"
	httpadapter "github.com/davidogiale/lizzy-han-house-of-fashion-sub000/internal/adapter/http"
	"github.com/davidogiale/lizzy-han-house-of-fashion-sub000/internal/adapter/http/middleware"
	"github.com/davidogiale/lizzy-han-house-of-fashion-sub000/internal/adapter/kafka"
	"github.com/davidogiale/lizzy-han-house-of-fashion-sub000/internal/adapter/queue"
	"github.com/davidogiale/lizzy-han-house-of-fashion-sub000/internal/adapter/repo"
	"github.com/davidogiale/lizzy-han-house-of-fashion-sub000/internal/logging"
	"github.com/davidogiale/lizzy-han-house-of-fashion-sub000/internal/usecase"
)

type App struct {
	Router *gin.Engine
}

func InitWithConfig(cfg configs.Config) (*App, func(), error) {
	logging.Init(cfg.App.Name, cfg.App.LogFile)
	l := logging.New("app")

	// init database
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		return nil, nil, err
	}
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)
	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := db.PingContext(ctx); err != nil {
		cancel()
		return nil, nil, err
	}
	cancel()

	// init redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, nil, err
	}

	// event publishers are optional collaborators: a storefront without
	// brokers still settles payments.
	var created usecase.CreatedPublisher
	var amqpConn *amqp.Connection
	if cfg.Rabbit.URL != "" {
		amqpConn, err = amqp.Dial(cfg.Rabbit.URL)
		if err != nil {
			return nil, nil, err
		}
		ch, err := amqpConn.Channel()
		if err != nil {
			return nil, nil, err
		}
		created, err = queue.NewRabbitProducer(ch)
		if err != nil {
			return nil, nil, err
		}
	} else {
		l.Warn("rabbitmq url empty, order.created events disabled")
	}

	var statusEvents usecase.StatusPublisher
	var statusProducer *kafka.StatusProducer
	if len(cfg.Kafka.Brokers) > 0 {
		statusProducer, err = kafka.NewStatusProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicStatus)
		if err != nil {
			return nil, nil, err
		}
		statusEvents = statusProducer
	} else {
		l.Warn("kafka brokers empty, order.status.changed events disabled")
	}

	// infra
	orderRepo := repo.NewMySQLOrderRepo(db)
	cartRepo := repo.NewMySQLCartRepo(db)
	idem := cache.NewRedisIdempotencyStore(rdb, cfg.Idempotency.TTL)
	statusCache := cache.NewRedisCache(rdb, cfg.Cache.TTL)
	paystack := gateway.NewPaystackClient(cfg.Paystack.SecretKey, cfg.Paystack.BaseURL, cfg.Paystack.Timeout)

	// usecases
	transition := usecase.NewPaymentTransition(orderRepo, statusCache, statusEvents)
	checkout := usecase.NewCheckout(orderRepo, cartRepo, paystack, idem, created, cfg.Paystack.Currency)
	reconciler := usecase.NewReconciler(orderRepo, paystack, transition)
	fulfillment := usecase.NewFulfillment(orderRepo, statusEvents)

	// handlers + router + middleware
	co := httpadapter.NewCheckoutHandler(checkout)
	oh := httpadapter.NewOrderHandler(orderRepo, reconciler)
	wh := httpadapter.NewWebhookHandler([]byte(cfg.Paystack.SecretKey), transition)
	ah := httpadapter.NewAdminHandler(fulfillment)
	th := httpadapter.NewTokenHandler(cfg)
	authz := middleware.NewAuthz(cfg)
	router := httpadapter.NewRouter(co, oh, wh, ah, th, authz)

	cleanup := func() {
		_ = db.Close()
		_ = rdb.Close()
		if amqpConn != nil {
			_ = amqpConn.Close()
		}
		if statusProducer != nil {
			_ = statusProducer.Close()
		}
	}

	return &App{Router: router}, cleanup, nil
}
