package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/langchou/fleetmate/internal/service"
)

type checkOutRequest struct {
	VehicleID   int64   `json:"vehicle_id"`
	DriverID    int64   `json:"driver_id"`
	Date        string  `json:"date"`
	StartKM     float64 `json:"start_km"`
	Route       string  `json:"route"`
	Purpose     string  `json:"purpose"`
	AllowActive bool    `json:"allow_active"`
}

type checkInRequest struct {
	EndKM float64 `json:"end_km"`
}

// ListActiveMovements 获取未归行程列表
func (h *Handler) ListActiveMovements(c *gin.Context) {
	movements, err := h.movementRepo.ListActive(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list active movements", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list movements"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": movements})
}

// ListCompletedMovements 获取已归队行程列表
func (h *Handler) ListCompletedMovements(c *gin.Context) {
	page, perPage := pagination(c)
	movements, err := h.movementRepo.ListCompleted(c.Request.Context(), perPage, (page-1)*perPage)
	if err != nil {
		h.logger.Error("Failed to list completed movements", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list movements"})
		return
	}

	total, _ := h.movementRepo.CountCompleted(c.Request.Context())

	c.JSON(http.StatusOK, gin.H{
		"data": movements,
		"pagination": gin.H{
			"page":     page,
			"per_page": perPage,
			"total":    total,
		},
	})
}

// CheckOutVehicle 车辆出车
func (h *Handler) CheckOutVehicle(c *gin.Context) {
	var req checkOutRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	driver, err := h.driverRepo.GetByID(c.Request.Context(), req.DriverID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Driver not found"})
		return
	}
	if _, err := h.vehicleRepo.GetByID(c.Request.Context(), req.VehicleID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Vehicle not found"})
		return
	}

	m, err := h.movements.CheckOut(c.Request.Context(), service.MovementInput{
		VehicleID:   req.VehicleID,
		DriverID:    req.DriverID,
		DriverName:  driver.FullName(),
		Date:        req.Date,
		StartKM:     req.StartKM,
		Route:       req.Route,
		Purpose:     req.Purpose,
		AllowActive: req.AllowActive,
	})
	if err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": m})
}

// CheckInVehicle 车辆归队
func (h *Handler) CheckInVehicle(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid movement ID"})
		return
	}

	var req checkInRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	m, err := h.movements.CheckIn(c.Request.Context(), id, req.EndKM)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": m})
}
