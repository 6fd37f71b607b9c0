package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/langchou/fleetmate/internal/service"
)

type fuelRequest struct {
	VehicleID      int64    `json:"vehicle_id"`
	DriverID       int64    `json:"driver_id"`
	Date           string   `json:"date"`
	Liters         float64  `json:"liters"`
	Mileage        *float64 `json:"mileage"`
	Cost           float64  `json:"cost"`
	PumpReading    *float64 `json:"pump_reading"`
	AllowShortfall bool     `json:"allow_shortfall"`
}

type tankEventRequest struct {
	Date           string  `json:"date"`
	Liters         float64 `json:"liters"`
	Notes          string  `json:"notes"`
	AllowShortfall bool    `json:"allow_shortfall"`
}

type pumpReadingRequest struct {
	Date    string  `json:"date"`
	Reading float64 `json:"reading"`
	Plate   string  `json:"plate"`
	Driver  string  `json:"driver"`
	Notes   string  `json:"notes"`
}

// ListFuelRecords 获取加油记录列表
func (h *Handler) ListFuelRecords(c *gin.Context) {
	page, perPage := pagination(c)
	records, err := h.fuelRepo.List(c.Request.Context(), perPage, (page-1)*perPage)
	if err != nil {
		h.logger.Error("Failed to list fuel records", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list fuel records"})
		return
	}

	total, _ := h.fuelRepo.Count(c.Request.Context())

	c.JSON(http.StatusOK, gin.H{
		"data": records,
		"pagination": gin.H{
			"page":     page,
			"per_page": perPage,
			"total":    total,
		},
	})
}

// AddFuelRecord 登记车辆加油，复合事务由台账服务执行
func (h *Handler) AddFuelRecord(c *gin.Context) {
	var req fuelRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	vehicle, err := h.vehicleRepo.GetByID(c.Request.Context(), req.VehicleID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Vehicle not found"})
		return
	}
	driver, err := h.driverRepo.GetByID(c.Request.Context(), req.DriverID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Driver not found"})
		return
	}

	result, err := h.ledger.AddFuelRecord(c.Request.Context(), service.FuelInput{
		VehicleID:      req.VehicleID,
		VehiclePlate:   vehicle.Plate,
		DriverID:       req.DriverID,
		DriverName:     driver.FullName(),
		Date:           req.Date,
		Liters:         req.Liters,
		Mileage:        req.Mileage,
		Cost:           req.Cost,
		PumpReading:    req.PumpReading,
		AllowShortfall: req.AllowShortfall,
	})
	if err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"data":     result.Record,
		"warnings": result.Warnings,
	})
}

// GetTankLevel 获取油罐液位
func (h *Handler) GetTankLevel(c *gin.Context) {
	level, err := h.ledger.TankLevel(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to read tank level", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read tank level"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"level":    level,
			"capacity": h.ledger.Capacity(),
			"low":      h.ledger.LowLevel(level),
		},
	})
}

// RefillTank 油罐注油
func (h *Handler) RefillTank(c *gin.Context) {
	var req tankEventRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	ev, err := h.ledger.RefillTank(c.Request.Context(), req.Date, req.Liters, req.Notes)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": ev})
}

// ConsumeTank 油罐出油
func (h *Handler) ConsumeTank(c *gin.Context) {
	var req tankEventRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	ev, warnings, err := h.ledger.Consume(c.Request.Context(), req.Date, req.Liters, req.Notes, req.AllowShortfall)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"data":     ev,
		"warnings": warnings,
	})
}

// GetTankHistory 获取油罐事件历史
func (h *Handler) GetTankHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit < 1 || limit > 500 {
		limit = 50
	}

	events, err := h.ledger.TankHistory(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list tank events", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list tank events"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": events})
}

// GetPumpReading 获取油泵当前读数
func (h *Handler) GetPumpReading(c *gin.Context) {
	reading, err := h.ledger.PumpReading(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to read pump reading", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read pump reading"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"reading": reading}})
}

// UpdatePumpReading 登记新的油泵读数
func (h *Handler) UpdatePumpReading(c *gin.Context) {
	var req pumpReadingRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	ev, err := h.ledger.UpdatePumpReading(c.Request.Context(), req.Date, req.Reading, req.Plate, req.Driver, req.Notes)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": ev})
}

// GetPumpHistory 获取油泵事件历史
func (h *Handler) GetPumpHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit < 1 || limit > 500 {
		limit = 50
	}

	events, err := h.ledger.PumpHistory(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list pump events", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list pump events"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": events})
}
