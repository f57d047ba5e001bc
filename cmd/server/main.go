// Package main 是应用程序的入口点。
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pastpapers-go/internal/config"
	"pastpapers-go/internal/pipeline"
	"pastpapers-go/internal/repository"
	"pastpapers-go/internal/router"
	"pastpapers-go/internal/service"
	"pastpapers-go/pkg/database"
	"pastpapers-go/pkg/es"
	"pastpapers-go/pkg/kafka"
	"pastpapers-go/pkg/log"
	"pastpapers-go/pkg/storage"
	"pastpapers-go/pkg/tika"
	"pastpapers-go/pkg/token"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisstore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
)

func main() {
	configPath := os.Getenv("PASTPAPERS_CONFIG")
	if configPath == "" {
		configPath = "./configs/config.yaml"
	}

	// 1. 初始化配置
	config.Init(configPath)
	cfg := config.Conf

	// 2. 初始化日志记录器
	if err := log.Init(cfg.Log); err != nil {
		panic(err)
	}
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库、Redis 和对象存储
	database.Init(cfg.Database.DSN)
	if err := database.Migrate(database.DB); err != nil {
		log.Fatal("数据库迁移失败", err)
	}
	var tokenRepo repository.TokenRepository
	if cfg.Database.Redis.Addr != "" {
		database.InitRedis(cfg.Database.Redis)
		tokenRepo = repository.NewTokenRepository(database.RDB)
	}
	store, err := storage.New(cfg.Storage, cfg.MinIO)
	if err != nil {
		log.Fatal("初始化对象存储失败", err)
	}

	// 4. 可选的全文索引：Elasticsearch 与 Kafka 都是可选的，缺失时上传流程不受影响
	var searcher service.PaperSearcher
	var paperIndex *es.PaperIndex
	if cfg.Elasticsearch.Addresses != "" {
		if err := es.InitES(cfg.Elasticsearch); err != nil {
			log.Errorf("es 初始化失败, 全文搜索不可用: %v", err)
		} else {
			paperIndex = es.NewPaperIndex(es.ESClient, cfg.Elasticsearch.IndexName)
			searcher = paperIndex
		}
	}
	var producer service.IndexProducer
	var kafkaProducer *kafka.Producer
	if cfg.Kafka.Brokers != "" {
		kafkaProducer = kafka.NewProducer(cfg.Kafka)
		producer = kafkaProducer
	}

	// 5. 初始化 Repository
	userRepo := repository.NewUserRepository(database.DB)
	paperRepo := repository.NewPaperRepository(database.DB)
	profileRepo := repository.NewProfileRepository(database.DB)
	downloadRepo := repository.NewDownloadRepository(database.DB)

	// 6. 初始化 Service (依赖注入)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours, cfg.JWT.RefreshTokenExpireDays)
	userService := service.NewUserService(userRepo, profileRepo, tokenRepo, jwtManager)
	paperService := service.NewPaperService(paperRepo, store, producer)
	deps := router.Deps{
		JWTManager:      jwtManager,
		UserService:     userService,
		PaperService:    paperService,
		BrowseService:   service.NewBrowseService(paperRepo, cfg.Server.PageSize),
		DownloadService: service.NewDownloadService(paperService, downloadRepo, store),
		ProfileService:  service.NewProfileService(profileRepo, downloadRepo, store, cfg.Server.AdminPageSize),
		AdminService:    service.NewAdminService(paperRepo, store, producer, cfg.Server.AdminPageSize),
		BulkService:     service.NewBulkUploadService(paperRepo, store, producer),
		SearchService:   service.NewSearchService(searcher),
		SessionName:     cfg.Session.Name,
		SessionStore:    newSessionStore(cfg),
		CORSOrigins:     cfg.CORS.AllowedOrigins,
		MediaURL:        cfg.Storage.MediaURL,
	}
	if local, ok := store.(*storage.LocalStore); ok {
		deps.MediaRoot = local.Root()
	}

	// 7. 启动后台 Kafka 消费者，停机时通过 ctx 退出
	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	consumerDone := make(chan struct{})
	if kafkaProducer != nil && paperIndex != nil {
		processor := pipeline.NewProcessor(paperRepo, store, tika.NewClient(cfg.Tika), paperIndex)
		go func() {
			defer close(consumerDone)
			kafka.StartConsumer(consumerCtx, cfg.Kafka, processor, database.RDB)
		}()
	} else {
		log.Warnf("Kafka 或 Elasticsearch 未配置, 不启动索引消费者")
		close(consumerDone)
	}

	// 8. 设置 Gin 模式并注册路由
	gin.SetMode(cfg.Server.Mode)
	r := router.New(deps)

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	// 设置一个5秒的超时上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("HTTP 服务器关闭失败: %v", err)
	}

	stopConsumer()
	select {
	case <-consumerDone:
	case <-ctx.Done():
		log.Warnf("等待 Kafka 消费者退出超时")
	}
	if kafkaProducer != nil {
		if err := kafkaProducer.Close(); err != nil {
			log.Errorf("关闭 Kafka 生产者失败: %v", err)
		}
	}
	database.CloseRedis()
	log.Info("服务已优雅关闭")
}

// newSessionStore 按配置选择 cookie 或 redis 会话存储。
func newSessionStore(cfg config.Config) sessions.Store {
	secret := []byte(cfg.Session.Secret)
	var store sessions.Store
	if cfg.Session.Store == "redis" {
		s, err := redisstore.NewStore(10, "tcp", cfg.Database.Redis.Addr, cfg.Database.Redis.Password, secret)
		if err != nil {
			log.Fatal("初始化 Redis 会话存储失败", err)
		}
		store = s
	} else {
		store = cookie.NewStore(secret)
	}
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   cfg.Session.MaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return store
}
