package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"

	instrumentapp "github.com/wyfcoding/almrisk/internal/instrument/application"
	instrumentdomain "github.com/wyfcoding/almrisk/internal/instrument/domain"
	instrumentmysql "github.com/wyfcoding/almrisk/internal/instrument/infrastructure/persistence/mysql"
	instrumenthttp "github.com/wyfcoding/almrisk/internal/instrument/interfaces"
	"github.com/wyfcoding/almrisk/internal/valuation/application"
	"github.com/wyfcoding/almrisk/internal/valuation/domain"
	"github.com/wyfcoding/almrisk/internal/valuation/infrastructure/client"
	valuationmysql "github.com/wyfcoding/almrisk/internal/valuation/infrastructure/persistence/mysql"
	valuationredis "github.com/wyfcoding/almrisk/internal/valuation/infrastructure/persistence/redis"
	"github.com/wyfcoding/almrisk/internal/valuation/interfaces"
	"github.com/wyfcoding/almrisk/internal/valuation/interfaces/consumer"
	"github.com/wyfcoding/pkg/app"
	"github.com/wyfcoding/pkg/cache"
	"github.com/wyfcoding/pkg/config"
	"github.com/wyfcoding/pkg/database"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/messagequeue/kafka"
	"github.com/wyfcoding/pkg/messagequeue/outbox"
	"github.com/wyfcoding/pkg/metrics"
	"github.com/wyfcoding/pkg/middleware"
)

// BootstrapName 服务唯一标识
const BootstrapName = "valuation"

// Config 服务扩展配置
type Config struct {
	config.Config `mapstructure:",squash"`
	Valuation     struct {
		MaxParallelism int     `mapstructure:"max_parallelism" toml:"max_parallelism"`
		VarAlertRatio  float64 `mapstructure:"var_alert_ratio" toml:"var_alert_ratio"`
	} `mapstructure:"valuation" toml:"valuation"`
}

// AppContext 应用上下文
type AppContext struct {
	Config            *Config
	CmdService        *application.CommandService
	QueryService      *application.QueryService
	HTTPHandler       *interfaces.HTTPHandler
	InstrumentHandler *instrumenthttp.HTTPHandler
	Metrics           *metrics.Metrics
}

func main() {
	if err := app.NewBuilder[*Config, *AppContext](BootstrapName).
		WithConfig(&Config{}).
		WithService(initService).
		WithGRPC(registerGRPC).
		WithGin(registerGin).
		WithGinMiddleware(
			middleware.CORS(),
			middleware.TimeoutMiddleware(120*time.Second),
		).
		Build().
		Run(); err != nil {
		slog.Error("service bootstrap failed", "error", err)
	}
}

func registerGRPC(s *grpc.Server, ctx *AppContext) {
	// gRPC 面暂未开放，预留注册槽位
}

func registerGin(e *gin.Engine, ctx *AppContext) {
	if ctx.Config.Server.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	api := e.Group("/api/v1")
	{
		ctx.HTTPHandler.RegisterRoutes(api)
		ctx.InstrumentHandler.RegisterRoutes(api)
	}
}

func initService(cfg *Config, m *metrics.Metrics) (*AppContext, func(), error) {
	bootLog := slog.With("module", "bootstrap")
	logger := logging.Default()

	// 1. 数据库
	dbWrapper, err := database.NewDB(cfg.Data.Database, cfg.CircuitBreaker, logger, m)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init db: %w", err)
	}
	db := dbWrapper.RawDB()

	// 自动迁移
	if err := db.AutoMigrate(
		&domain.ValuationRun{},
		&domain.ScenarioResult{},
		&instrumentdomain.InstrumentDefinition{},
		&outbox.Message{},
	); err != nil {
		return nil, nil, fmt.Errorf("failed to migrate tables: %w", err)
	}

	// 2. 消息队列 & Outbox
	producer := kafka.NewProducer(&cfg.MessageQueue.Kafka, logger, m)
	outboxMgr := outbox.NewManager(db, logger.Logger)
	outboxProc := outbox.NewProcessor(outboxMgr, func(ctx context.Context, topic, key string, payload []byte) error {
		return producer.PublishToTopic(ctx, topic, []byte(key), payload)
	}, 100, 5*time.Second)
	outboxProc.Start()

	// 3. Redis 读模型 & 本地缓存
	redisCache, err := cache.NewRedisCache(&cfg.Data.Redis, cfg.CircuitBreaker, logger, m)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init redis: %w", err)
	}
	readRepo := valuationredis.NewRunSummaryRedisRepository(redisCache.GetClient())

	localCache, err := bigcache.New(context.Background(), bigcache.DefaultConfig(10*time.Minute))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init local cache: %w", err)
	}

	// 4. 仓储
	runRepo := valuationmysql.NewValuationRunRepository(db)
	defRepo := instrumentmysql.NewInstrumentDefinitionRepository(db)

	// 5. 服务
	publisher := outbox.NewPublisher(outboxMgr)
	instrumentSvc := instrumentapp.NewService(defRepo, publisher, logger.Logger)
	instrumentSource := client.NewInstrumentServiceSource(instrumentSvc)

	engine := domain.NewValuationEngine(cfg.Valuation.MaxParallelism)
	cmdService := application.NewCommandService(runRepo, instrumentSource, engine, publisher, cfg.Valuation.VarAlertRatio, logger.Logger)
	queryService := application.NewQueryService(runRepo, readRepo, localCache, logger.Logger)
	projectionSvc := application.NewProjectionService(runRepo, readRepo, logger.Logger)

	// 6. 投影消费者
	projectionHandler := consumer.NewProjectionHandler(projectionSvc, logger.Logger)
	projectionTopics := []string{consumer.TopicRunCompleted, consumer.TopicRunFailed}
	consumers := make([]*kafka.Consumer, 0, len(projectionTopics))
	for _, topic := range projectionTopics {
		consumerCfg := cfg.MessageQueue.Kafka
		consumerCfg.Topic = topic
		if consumerCfg.GroupID == "" {
			consumerCfg.GroupID = "valuation-projection-group"
		}
		kc := kafka.NewConsumer(&consumerCfg, logger, m)
		kc.Start(context.Background(), 3, projectionHandler.Handle)
		consumers = append(consumers, kc)
	}

	// 7. Handler
	httpHandler := interfaces.NewHTTPHandler(cmdService, queryService)
	instrumentHandler := instrumenthttp.NewHTTPHandler(instrumentSvc)

	cleanup := func() {
		bootLog.Info("shutting down...")
		outboxProc.Stop()
		for _, kc := range consumers {
			kc.Close()
		}
		if producer != nil {
			producer.Close()
		}
		localCache.Close()
		if sqlDB, err := db.DB(); err == nil && sqlDB != nil {
			sqlDB.Close()
		}
	}

	return &AppContext{
		Config:            cfg,
		CmdService:        cmdService,
		QueryService:      queryService,
		HTTPHandler:       httpHandler,
		InstrumentHandler: instrumentHandler,
		Metrics:           m,
	}, cleanup, nil
}
