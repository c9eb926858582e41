package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"friendbox/config"
	"friendbox/database"
	"friendbox/handlers"
	"friendbox/logger"
	"friendbox/middleware"
	"friendbox/notify"
	"friendbox/social"
	"friendbox/store"
	"friendbox/utils"
	"friendbox/websocket"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// backend is what every store implementation provides.
type backend interface {
	social.Store
	social.Directory
	store.Accounts
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	if err := logger.Init(cfg.Env, cfg.LogLevel); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Named("server")
	log.Info("Starting friendbox server...", zap.String("store", cfg.StoreDriver))

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	users, closeStore, err := openStore(ctx, cfg, logger.Named("store"))
	if err != nil {
		log.Fatal("Failed to open store", zap.Error(err))
	}
	defer closeStore()

	hub := websocket.NewHub(logger.Get())
	go hub.Run(ctx)

	publisher, closePublisher, err := openPublisher(ctx, cfg, hub, logger.Named("notify"))
	if err != nil {
		log.Fatal("Failed to set up notifications", zap.Error(err))
	}
	defer closePublisher()

	svc := social.NewService(users, users, publisher, logger.Get())
	tokens := utils.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	h := handlers.New(svc, users, tokens, logger.Get())

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.Logger(logger.Named("access")))
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.CORSAllowedOrigins))
	h.Routes(router, websocket.Handler(hub, tokens, svc, logger.Get()))

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started", zap.String("addr", cfg.ServerAddr))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	stop()

	log.Info("Server exited")
}

func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (backend, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreMySQL:
		db, err := database.ConnectMySQL(ctx, cfg.MysqlDSN, log)
		if err != nil {
			return nil, nil, err
		}
		if err := database.CreateTables(ctx, db, log); err != nil {
			db.Close()
			return nil, nil, err
		}
		return store.NewMySQL(db), func() { db.Close() }, nil

	case config.StoreMongo:
		cli, db, err := database.ConnectMongo(ctx, database.MongoConfig{
			URI:      cfg.MongoURI,
			Database: cfg.MongoDatabase,
		}, log)
		if err != nil {
			return nil, nil, err
		}
		s := store.NewMongo(db)
		if err := s.EnsureIndexes(ctx); err != nil {
			_ = cli.Disconnect(ctx)
			return nil, nil, err
		}
		return s, func() { _ = cli.Disconnect(context.Background()) }, nil
	}

	log.Warn("Using in-memory store; data is lost on restart")
	return store.NewMemory(), func() {}, nil
}

// openPublisher delivers to the local hub, through Redis when configured so
// every instance sees the event, and additionally to NATS when configured.
func openPublisher(ctx context.Context, cfg *config.Config, hub *websocket.Hub, log *zap.Logger) (notify.Publisher, func(), error) {
	var (
		realtime notify.Publisher = hub
		closers  []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.RedisAddr != "" {
		rdb, err := notify.NewRedisClient(notify.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { _ = rdb.Close() })

		relay := notify.NewRedisRelay(rdb, cfg.RedisChannel, hub, log)
		go func() {
			if err := relay.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error("Redis relay stopped", zap.Error(err))
			}
		}()
		realtime = relay
		log.Info("Realtime events relayed through Redis", zap.String("channel", cfg.RedisChannel))
	}

	if cfg.NatsURL == "" {
		return realtime, closeAll, nil
	}

	nats, err := notify.NewNatsPublisher(cfg.NatsURL, cfg.NatsStream)
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	closers = append(closers, nats.Close)
	log.Info("Domain events published to NATS", zap.String("stream", cfg.NatsStream))

	return notify.Fanout{realtime, nats}, closeAll, nil
}
