package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"user-service/internal/cache"
	"user-service/internal/config"
	"user-service/internal/model"
	mysqlClient "user-service/internal/platform/mysql"
	rabbitmqClient "user-service/internal/platform/rabbitmq"
	redisClient "user-service/internal/platform/redis"
	sqliteClient "user-service/internal/platform/sqlite"
	"user-service/internal/repository"
	"user-service/internal/repository/memory"
	"user-service/internal/worker"
)

type App struct {
	Config *config.Config
	Log    *logrus.Logger

	// DB is nil when the memory driver is selected.
	DB    *gorm.DB
	Users repository.UserRepository

	Redis     *redis.Client
	UserCache *cache.UserCache

	MQConn         *amqp.Connection
	EventPublisher *rabbitmqClient.UserEventPublisher
	EventWorker    *worker.UserEventWorker

	StartedAt time.Time
}

func New(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*App, error) {
	app := &App{
		Config:    cfg,
		Log:       log,
		StartedAt: time.Now(),
	}

	if err := app.openStorage(ctx); err != nil {
		_ = app.Close()
		return nil, err
	}

	if cfg.Redis.Enabled {
		redisCli, err := redisClient.New(ctx, cfg.Redis)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		app.Redis = redisCli
		app.UserCache = cache.NewUserCache(redisCli, time.Duration(cfg.Redis.UserTTLSeconds)*time.Second)
	}

	if cfg.RabbitMQ.Enabled {
		mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		app.MQConn = mqConn
		app.EventPublisher = rabbitmqClient.NewUserEventPublisher(mqConn, cfg.RabbitMQ.UserEventQueue)

		// without a cache there is nothing for the worker to evict
		if app.UserCache != nil {
			app.EventWorker = worker.NewUserEventWorker(mqConn, app.UserCache, cfg.RabbitMQ.UserEventQueue, log)
			if err := app.EventWorker.Start(ctx); err != nil {
				_ = app.Close()
				return nil, fmt.Errorf("start user event worker failed: %w", err)
			}
		}
	}

	log.WithFields(logrus.Fields{
		"driver":   cfg.Database.Driver,
		"redis":    cfg.Redis.Enabled,
		"rabbitmq": cfg.RabbitMQ.Enabled,
	}).Info("resources ready")
	return app, nil
}

func (a *App) openStorage(ctx context.Context) error {
	var (
		db  *gorm.DB
		err error
	)
	switch a.Config.Database.Driver {
	case config.DriverMemory:
		a.Users = memory.NewUserRepository()
		return nil
	case config.DriverSQLite:
		db, err = sqliteClient.New(ctx, a.Config.Database.SQLitePath)
	default:
		db, err = mysqlClient.New(ctx, a.Config.MySQLDSN())
	}
	if err != nil {
		return err
	}
	a.DB = db

	if err := db.AutoMigrate(&model.User{}); err != nil {
		return fmt.Errorf("auto migrate tables failed: %w", err)
	}
	a.Users = repository.NewGormUserRepository(db)
	return nil
}

func (a *App) Close() error {
	var closeErr error
	if a.EventWorker != nil {
		a.EventWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
