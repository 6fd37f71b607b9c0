package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/langchou/fleetmate/internal/api/handlers"
	"github.com/langchou/fleetmate/internal/config"
	"github.com/langchou/fleetmate/internal/repository"
	"github.com/langchou/fleetmate/internal/service"
	"github.com/langchou/fleetmate/internal/state"
	"github.com/langchou/fleetmate/pkg/ws"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	logger := initLogger(cfg.Debug)
	defer logger.Sync()

	logger.Info("Starting Fleetmate", zap.String("port", cfg.ServerPort))

	// 创建 context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 连接数据库
	db, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect database", zap.Error(err))
	}
	defer db.Close()

	// 执行数据库迁移
	if err := db.Migrate(ctx); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}
	logger.Info("Database migrated successfully")

	// 创建 Repository
	vehicleRepo := repository.NewVehicleRepository(db)
	driverRepo := repository.NewDriverRepository(db)
	purposeRepo := repository.NewPurposeRepository(db)
	movementRepo := repository.NewMovementRepository(db)
	fuelRepo := repository.NewFuelRepository(db)
	reportRepo := repository.NewReportRepository(db)
	ledgerStore := repository.NewLedgerStore(db)

	// 创建 WebSocket Hub
	wsHub := ws.NewHub(logger)
	go wsHub.Run()

	// 创建台账服务
	ledger := service.NewLedger(logger, ledgerStore, cfg.TankCapacityLiters, cfg.TankMinLevelLiters, cfg.PumpToleranceLiters, wsHub)

	// 车辆可用性状态机
	stateManager := state.NewManager(func(vehicleID int64, from, to string) {
		logger.Info("Vehicle state changed",
			zap.Int64("vehicle_id", vehicleID),
			zap.String("from", from),
			zap.String("to", to))
	})

	// 出车归队服务
	movementService := service.NewMovementService(logger, movementRepo, stateManager, wsHub)

	// WebSocket 初始数据：液位、读数、未归行程
	wsHub.SetInitDataProvider(func() *ws.InitData {
		initCtx, initCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer initCancel()

		level, err := ledger.TankLevel(initCtx)
		if err != nil {
			logger.Warn("Failed to read tank level for init data", zap.Error(err))
		}
		reading, err := ledger.PumpReading(initCtx)
		if err != nil {
			logger.Warn("Failed to read pump reading for init data", zap.Error(err))
		}
		active, err := movementRepo.ListActive(initCtx)
		if err != nil {
			logger.Warn("Failed to list active movements for init data", zap.Error(err))
		}

		return &ws.InitData{
			TankLevel:       level,
			TankCapacity:    ledger.Capacity(),
			PumpReading:     reading,
			ActiveMovements: active,
		}
	})

	// 创建 HTTP 处理器
	handler := handlers.NewHandler(
		logger,
		vehicleRepo,
		driverRepo,
		purposeRepo,
		movementRepo,
		fuelRepo,
		reportRepo,
		ledger,
		movementService,
		ledgerStore,
		wsHub,
	)

	// 设置 Gin 模式
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	// 注册路由
	handler.RegisterRoutes(router)

	// 启动 HTTP 服务器
	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("addr", server.Addr))

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// 优雅关闭
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// initLogger 初始化日志
func initLogger(debug bool) *zap.Logger {
	var config zap.Config
	if debug {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
	}

	logger, _ := config.Build()
	return logger
}

// corsMiddleware CORS 中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
