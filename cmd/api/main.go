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

	"github.com/chatwarden/chatwarden-backend/docs"
	"github.com/chatwarden/chatwarden-backend/internal/config"
	"github.com/chatwarden/chatwarden-backend/internal/domain"
	"github.com/chatwarden/chatwarden-backend/internal/handler"
	"github.com/chatwarden/chatwarden-backend/internal/middleware"
	"github.com/chatwarden/chatwarden-backend/internal/migration"
	"github.com/chatwarden/chatwarden-backend/internal/repository"
	"github.com/chatwarden/chatwarden-backend/internal/routes"
	"github.com/chatwarden/chatwarden-backend/internal/service"
	pkgcache "github.com/chatwarden/chatwarden-backend/pkg/cache"
	"github.com/chatwarden/chatwarden-backend/pkg/cipher"
	"github.com/chatwarden/chatwarden-backend/pkg/clock"
	"github.com/chatwarden/chatwarden-backend/pkg/database"
	"github.com/chatwarden/chatwarden-backend/pkg/jwt"
	pkglogger "github.com/chatwarden/chatwarden-backend/pkg/logger"
	pkgredis "github.com/chatwarden/chatwarden-backend/pkg/redis"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           ChatWarden Backend API
// @version         1.0
// @description     Moderation state engine for group-chat bots
//
// @host            localhost:8080
// @BasePath        /api/v1
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Service token of the chat transport. Example: "Bearer {token}"

// getConfigPath returns config file path based on APP_ENV environment variable
func getConfigPath(env string) string {
	return fmt.Sprintf("configs/config.%s.yaml", env)
}

func main() {
	dotenvFiles, dotenvErr := config.LoadDotEnv()

	// 로거 초기화
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	pkglogger.InitStructured(env)
	log := pkglogger.GetLogger()
	if dotenvErr != nil {
		log.Fatal().Err(dotenvErr).Msg("failed to load env file")
	}
	log.Info().Str("env", env).Strs("env_files", dotenvFiles).Msg("starting")

	// 설정 로드
	configPath := getConfigPath(env)
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", configPath).Msg("failed to load config")
	}
	config.LogResolved(cfg)
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// DB 연결 + 마이그레이션
	db, err := database.Open(cfg.Database.Options())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	if err := migration.Run(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	clk := clock.Real()
	seeded, err := migration.SeedOwner(db, cfg.Moderation.OwnerID, cfg.Moderation.OwnerNick, clk.Now())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to seed owner")
	}
	if seeded {
		log.Info().Int64("owner_id", cfg.Moderation.OwnerID).Msg("owner seeded")
	}

	// Redis 연결 (선택)
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = pkgredis.NewClient(ctx, pkgredis.Options{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, continuing with database-backed votes and local caches")
			redisClient = nil
		} else {
			log.Info().Msg("connected to redis")
		}
	}

	// 감사 로그 암호화 키
	auditCipher, err := newCipher(cfg.Security.EncryptionKey)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid ENCRYPTION_KEY")
	}

	// Caches
	memberCache, err := pkgcache.NewLocal[int64, *domain.Member](cfg.Cache.Size, cfg.Cache.TTLDuration(), clk)
	if err != nil {
		log.Fatal().Err(err).Msg("member cache")
	}
	pollCache, err := pkgcache.NewLocal[int64, *domain.Poll](cfg.Cache.PollSize, cfg.Cache.TTLDuration(), clk)
	if err != nil {
		log.Fatal().Err(err).Msg("poll cache")
	}
	statsCache, err := pkgcache.NewLocal[string, domain.ChatStats](1, pkgcache.TTLStats, clk)
	if err != nil {
		log.Fatal().Err(err).Msg("stats cache")
	}

	// Repositories
	voteStore := repository.NewMuteVoteStore(db)
	var remoteCache pkgcache.Service
	if redisClient != nil {
		voteStore = repository.NewRedisMuteVoteStore(redisClient, cfg.Moderation.Window())
		remoteCache = pkgcache.NewService(redisClient)
	}
	settingsRepo := repository.NewSettingsRepository(db)

	// Services
	directory := service.NewDirectory(repository.NewMemberRepository(db), memberCache)
	auditLog := service.NewAuditLog(repository.NewAuditRepository(db), auditCipher, clk, cfg.Audit.Retention())
	votes := service.NewVoteAggregator(voteStore, directory, clk, cfg.Moderation.Window())
	polls := service.NewPollService(repository.NewPollRepository(db), directory, pollCache, clk)
	moderation := service.NewModerationService(service.ModerationDeps{
		Directory:   directory,
		Audit:       auditLog,
		AuditReader: auditLog,
		Votes:       votes,
		Polls:       polls,
		Escalations: repository.NewEscalationRepository(db),
		Settings:    settingsRepo,
		Clock:       clk,
	}, service.ModerationConfig{
		VoteThreshold:      cfg.Moderation.VoteThreshold,
		MuteDuration:       cfg.Moderation.Mute(),
		EscalationCooldown: cfg.Moderation.Cooldown(),
	})
	members := service.NewMemberService(directory, settingsRepo, clk)
	messages := service.NewMessageService(repository.NewMessageRepository(db), directory, clk)
	stats := service.NewStatsService(repository.NewStatsRepository(db), remoteCache, statsCache)

	// Service token
	var jwtManager *jwt.Manager
	if cfg.Security.ServiceTokenSecret != "" {
		jwtManager = jwt.NewManager(cfg.Security.ServiceTokenSecret)
	} else {
		log.Warn().Msg("SERVICE_TOKEN_SECRET not set, API accepts unauthenticated transports")
	}

	// Gin 라우터 생성
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.BodyLimit(middleware.DefaultBodyLimit))
	router.Use(middleware.Metrics())
	router.Use(middleware.RequestLogger())

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health Check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "chatwarden-backend",
			"time":    clk.Now().Unix(),
		})
	})

	// Swagger UI
	docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", cfg.Server.Port)
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.Setup(router, routes.Handlers{
		Member:     handler.NewMemberHandler(members, directory),
		Moderation: handler.NewModerationHandler(moderation, directory),
		Poll:       handler.NewPollHandler(polls),
		Message:    handler.NewMessageHandler(messages, directory),
		Chat:       handler.NewChatHandler(stats, cfg.Chat),
	}, jwtManager, redisClient, cfg)

	// Background jobs
	go auditLog.RunRetention(ctx, cfg.Audit.Interval())
	go votes.RunPruner(ctx, cfg.Moderation.Window())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// newCipher builds the audit cipher. Without a configured key an ephemeral one is generated,
// so entries written in this run cannot be decrypted after a restart.
func newCipher(encoded string) (*cipher.Cipher, error) {
	if encoded != "" {
		return cipher.NewFromBase64(encoded)
	}
	key, err := cipher.GenerateKey()
	if err != nil {
		return nil, err
	}
	pkglogger.GetLogger().Warn().Msg("ENCRYPTION_KEY not set, using an ephemeral key")
	return cipher.NewFromBase64(key)
}
