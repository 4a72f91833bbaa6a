package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"gigboard/adapters/gormstore"
	redisAdapter "gigboard/adapters/redis"
	"gigboard/adapters/sse"
	"gigboard/api/identity"
	"gigboard/market"
	"gigboard/notify"
)

const defaultHeartbeat = 30 * time.Second

type ServerImpl struct {
	service     *market.Service
	store       *gormstore.Store
	hub         *notify.Hub
	sseManager  *sse.ConnectionManager[market.Event]
	verifier    *identity.Verifier
	redisClient *redis.Client
	producer    *redisAdapter.Producer[sse.PublishRequest[market.Event]]
	consumer    *redisAdapter.Consumer[sse.PublishRequest[market.Event]]
	upgrader    websocket.Upgrader
	db          *gorm.DB
	logger      *slog.Logger

	config ServerConfig
}

func openDatabase(config DBConfig) (*gorm.DB, error) {
	switch config.Driver {
	case "sqlite":
		return gormstore.OpenSQLite(config.SQLitePath)
	case "", "postgres":
		return gormstore.OpenPostgres(gormstore.PostgresConfig{
			User:     config.User,
			Password: config.Password,
			Host:     config.Host,
			Port:     config.Port,
			Database: config.Database,
			Schema:   config.Schema,
		})
	default:
		return nil, fmt.Errorf("unsupported database driver %q", config.Driver)
	}
}

func NewServer(config ServerConfig) (*ServerImpl, error) {
	const op = "NewServer"
	logger := slog.Default()
	if config.SSE.Heartbeat <= 0 {
		config.SSE.Heartbeat = defaultHeartbeat
	}
	if config.Auth.CookieName == "" {
		config.Auth.CookieName = "token"
	}

	// 初始化身分驗證
	verifier, err := identity.NewVerifier(config.Auth.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to create token verifier, err=%w", op, err)
	}

	// 初始化資料庫連線
	db, err := openDatabase(config.DB)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to connect to database, err=%w", op, err)
	}
	store, err := gormstore.New(db, gormstore.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to create store, err=%w", op, err)
	}
	if config.DB.AutoMigrate {
		if err := store.Migrate(context.Background()); err != nil {
			return nil, fmt.Errorf("[%s] Fail to migrate database, err=%w", op, err)
		}
	}

	impl := &ServerImpl{
		store:    store,
		verifier: verifier,
		db:       db,
		logger:   logger.With(slog.String("caller", "Server")),
		config:   config,
	}

	// 初始化即時事件的連線管理器
	// 有設定 Redis 時透過 stream 讓所有實例都能推送給自己的連線
	managerOpts := []sse.ManagerOption[market.Event]{
		sse.WithLogger[market.Event](logger),
	}
	if config.Redis.Addr != "" {
		impl.redisClient = redis.NewClient(&redis.Options{
			Addr:     config.Redis.Addr,
			Password: config.Redis.Password,
			DB:       config.Redis.DB,
		})
		impl.producer, err = redisAdapter.NewProducer(
			impl.redisClient,
			config.Redis.StreamKeys.Events,
			redisAdapter.WithProducerLogger[sse.PublishRequest[market.Event]](logger),
		)
		if err != nil {
			return nil, fmt.Errorf("[%s] Fail to create producer, err=%w", op, err)
		}
		impl.consumer, err = redisAdapter.NewConsumer(
			impl.redisClient,
			config.Redis.StreamKeys.Events,
			redisAdapter.WithConsumerLogger[sse.PublishRequest[market.Event]](logger),
		)
		if err != nil {
			return nil, fmt.Errorf("[%s] Fail to create consumer, err=%w", op, err)
		}
		managerOpts = append(managerOpts,
			sse.WithPublisher[market.Event](impl.producer),
			sse.WithSubscriber[market.Event](impl.consumer),
		)
	}
	impl.sseManager, err = sse.NewConnectionManager(managerOpts...)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to create sse connection manager, err=%w", op, err)
	}
	impl.hub, err = notify.NewHub(impl.sseManager, notify.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to create notification hub, err=%w", op, err)
	}

	// 初始化業務邏輯
	impl.service, err = market.NewService(store, impl.hub, market.WithServiceLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to create market service, err=%w", op, err)
	}

	impl.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     impl.checkOrigin,
	}
	return impl, nil
}

// checkOrigin 只接受同源或設定的前端網址建立 WebSocket
func (impl *ServerImpl) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Host == r.Host {
		return true
	}
	return impl.config.ClientURL != "" && origin == impl.config.ClientURL
}

func (impl *ServerImpl) Start() {
	if impl.producer != nil {
		impl.producer.Start()
	}
	if impl.consumer != nil {
		impl.consumer.Start()
	}
	impl.sseManager.Start()
}

func (impl *ServerImpl) Close() {
	// 先關閉所有連線，再停止 stream
	impl.sseManager.Done()
	if impl.consumer != nil {
		impl.consumer.Close()
	}
	if impl.producer != nil {
		impl.producer.Close()
	}
	if impl.redisClient != nil {
		if err := impl.redisClient.Close(); err != nil {
			impl.logger.Warn("Fail to close redis client", slog.Any("error", err))
		}
	}
	if sqlDB, err := impl.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			impl.logger.Warn("Fail to close database", slog.Any("error", err))
		}
	}
}

// RegisterRoutes 註冊所有 API 路由
func (impl *ServerImpl) RegisterRoutes(router gin.IRouter) {
	api := router.Group("/api")
	api.GET("/health", impl.GetHealth)

	gigs := api.Group("/gigs")
	gigs.GET("", impl.GetGigs)
	gigs.GET("/my-gigs", impl.Authenticate(), impl.GetMyGigs)
	gigs.GET("/:id", impl.GetGig)
	gigs.POST("", impl.Authenticate(), impl.PostGig)
	gigs.POST("/:id/admins", impl.Authenticate(), impl.PostGigAdmin)
	gigs.DELETE("/:id/admins/:userId", impl.Authenticate(), impl.DeleteGigAdmin)

	bids := api.Group("/bids", impl.Authenticate())
	bids.POST("", impl.PostBid)
	bids.GET("/my-bids", impl.GetMyBids)
	bids.GET("/:id", impl.GetBidsForGig)
	bids.PATCH("/:id/hire", impl.PatchHire)

	notifications := api.Group("/notifications", impl.Authenticate())
	notifications.GET("", impl.GetNotifications)
	notifications.GET("/events", impl.GetNotificationEvents)
	notifications.PATCH("/:id/read", impl.PatchNotificationRead)

	api.GET("/ws", impl.Authenticate(), impl.GetWebSocket)
}

// Health check
// (GET /api/health)
func (impl *ServerImpl) GetHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := impl.store.Ping(ctx); err != nil {
		impl.logger.Error("Health check failed", slog.Any("error", err))
		abort(c, http.StatusServiceUnavailable, "Database is unavailable")
		return
	}
	ok(c, http.StatusOK, gin.H{"status": "ok"})
}
