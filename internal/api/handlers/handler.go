package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/langchou/fleetmate/internal/models"
	"github.com/langchou/fleetmate/internal/repository"
	"github.com/langchou/fleetmate/internal/service"
	"github.com/langchou/fleetmate/pkg/ws"
)

// driverStore 驾驶员存取入口
type driverStore interface {
	List(ctx context.Context) ([]*models.Driver, error)
	Create(ctx context.Context, d *models.Driver) error
	GetByID(ctx context.Context, id int64) (*models.Driver, error)
	Update(ctx context.Context, d *models.Driver) error
	Delete(ctx context.Context, id int64) error
}

// reportStore 报表聚合查询入口
type reportStore interface {
	Monthly(ctx context.Context, month string) ([]*repository.MonthlyVehicleReport, error)
	AnalyzeDriver(ctx context.Context, driver *models.Driver, from, to string) (*repository.DriverAnalytics, error)
	DriversSummary(ctx context.Context) ([]*repository.DriverSummary, error)
}

// Handler HTTP 处理器
type Handler struct {
	logger       *zap.Logger
	vehicleRepo  *repository.VehicleRepository
	driverRepo   driverStore
	purposeRepo  *repository.PurposeRepository
	movementRepo *repository.MovementRepository
	fuelRepo     *repository.FuelRepository
	reportRepo   reportStore
	ledger       *service.Ledger
	movements    *service.MovementService
	settings     service.Store
	wsHub        *ws.Hub
	upgrader     websocket.Upgrader
}

// NewHandler 创建处理器
func NewHandler(
	logger *zap.Logger,
	vehicleRepo *repository.VehicleRepository,
	driverRepo *repository.DriverRepository,
	purposeRepo *repository.PurposeRepository,
	movementRepo *repository.MovementRepository,
	fuelRepo *repository.FuelRepository,
	reportRepo *repository.ReportRepository,
	ledger *service.Ledger,
	movements *service.MovementService,
	settings service.Store,
	wsHub *ws.Hub,
) *Handler {
	return &Handler{
		logger:       logger,
		vehicleRepo:  vehicleRepo,
		driverRepo:   driverRepo,
		purposeRepo:  purposeRepo,
		movementRepo: movementRepo,
		fuelRepo:     fuelRepo,
		reportRepo:   reportRepo,
		ledger:       ledger,
		movements:    movements,
		settings:     settings,
		wsHub:        wsHub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 开发环境允许所有来源
			},
		},
	}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	// API 路由
	api := r.Group("/api")
	{
		// 车辆
		api.GET("/vehicles", h.ListVehicles)
		api.POST("/vehicles", h.CreateVehicle)
		api.GET("/vehicles/:id", h.GetVehicle)
		api.PUT("/vehicles/:id", h.UpdateVehicle)
		api.DELETE("/vehicles/:id", h.DeleteVehicle)
		api.GET("/vehicles/:id/status", h.GetVehicleStatus)
		api.GET("/vehicles/:id/movements", h.ListVehicleMovements)
		api.GET("/vehicles/:id/fuel", h.ListVehicleFuel)

		// 驾驶员
		api.GET("/drivers", h.ListDrivers)
		api.POST("/drivers", h.CreateDriver)
		api.GET("/drivers/summary", h.GetDriversSummary)
		api.GET("/drivers/:id", h.GetDriver)
		api.PUT("/drivers/:id", h.UpdateDriver)
		api.DELETE("/drivers/:id", h.DeleteDriver)
		api.GET("/drivers/:id/analytics", h.GetDriverAnalytics)

		// 出车事由
		api.GET("/purposes", h.ListPurposes)
		api.POST("/purposes", h.CreatePurpose)
		api.PUT("/purposes/:id", h.UpdatePurpose)
		api.DELETE("/purposes/:id", h.DeactivatePurpose)
		api.POST("/purposes/:id/restore", h.RestorePurpose)

		// 出车归队
		api.GET("/movements/active", h.ListActiveMovements)
		api.GET("/movements/completed", h.ListCompletedMovements)
		api.POST("/movements", h.CheckOutVehicle)
		api.POST("/movements/:id/close", h.CheckInVehicle)

		// 加油
		api.GET("/fuel", h.ListFuelRecords)
		api.POST("/fuel", h.AddFuelRecord)

		// 油罐
		api.GET("/tank/level", h.GetTankLevel)
		api.POST("/tank/refill", h.RefillTank)
		api.POST("/tank/consume", h.ConsumeTank)
		api.GET("/tank/history", h.GetTankHistory)

		// 油泵
		api.GET("/pump/reading", h.GetPumpReading)
		api.POST("/pump/reading", h.UpdatePumpReading)
		api.GET("/pump/history", h.GetPumpHistory)

		// 报表与导出
		api.GET("/reports/monthly", h.GetMonthlyReport)
		api.GET("/exports/movements.csv", h.ExportMovementsCSV)
		api.GET("/exports/fuel.csv", h.ExportFuelCSV)
		api.GET("/exports/monthly.csv", h.ExportMonthlyCSV)

		// 设置
		api.GET("/settings/:key", h.GetSetting)
		api.PUT("/settings/:key", h.PutSetting)
	}

	// WebSocket
	r.GET("/ws", h.HandleWebSocket)

	// 健康检查
	r.GET("/health", h.HealthCheck)
}

// serviceError 统一错误映射：校验 400，业务冲突 409，其余 500
func (h *Handler) serviceError(c *gin.Context, err error) {
	var validationErr *service.ValidationError
	var capacityErr *service.CapacityExceededError
	var shortfallErr *service.InsufficientTankLevelError
	var monotonicErr *service.NonMonotonicReadingError
	var busyErr *service.VehicleBusyError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": validationErr.Error(),
			"field": validationErr.Field,
		})
	case errors.As(err, &capacityErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":        capacityErr.Error(),
			"level":        capacityErr.Level,
			"requested":    capacityErr.Requested,
			"max_fillable": capacityErr.MaxFillable,
		})
	case errors.As(err, &shortfallErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":     shortfallErr.Error(),
			"available": shortfallErr.Available,
			"requested": shortfallErr.Requested,
		})
	case errors.As(err, &monotonicErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":     monotonicErr.Error(),
			"current":   monotonicErr.Current,
			"requested": monotonicErr.Requested,
		})
	case errors.As(err, &busyErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":           busyErr.Error(),
			"vehicle_id":      busyErr.VehicleID,
			"movement_number": busyErr.MovementNumber,
		})
	default:
		h.logger.Error("Request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// HandleWebSocket WebSocket 处理
func (h *Handler) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade websocket", zap.Error(err))
		return
	}

	client := ws.NewClient(h.wsHub, conn)
	client.Register()

	// 启动读写协程
	go client.ReadPump()
	go client.WritePump()
}

// HealthCheck 健康检查
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"ws_clients": h.wsHub.ClientCount(),
	})
}
