package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/langchou/fleetmate/internal/models"
)

type vehicleRequest struct {
	Plate     string `json:"plate"`
	Brand     string `json:"brand"`
	Type      string `json:"type"`
	Purpose   string `json:"purpose"`
	PhotoPath string `json:"photo_path"`
}

// ListVehicles 获取车辆列表
func (h *Handler) ListVehicles(c *gin.Context) {
	vehicles, err := h.vehicleRepo.List(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list vehicles", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list vehicles"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": vehicles})
}

// CreateVehicle 创建车辆
func (h *Handler) CreateVehicle(c *gin.Context) {
	var req vehicleRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	plate, err := models.NormalizePlate(req.Plate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": "plate"})
		return
	}

	v := &models.Vehicle{
		Plate:     plate,
		Brand:     req.Brand,
		Type:      req.Type,
		Purpose:   req.Purpose,
		PhotoPath: req.PhotoPath,
	}
	if err := h.vehicleRepo.Create(c.Request.Context(), v); err != nil {
		h.logger.Error("Failed to create vehicle", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create vehicle"})
		return
	}

	h.logger.Info("Vehicle created", zap.String("plate", v.Plate))
	c.JSON(http.StatusCreated, gin.H{"data": v})
}

// GetVehicle 获取车辆详情
func (h *Handler) GetVehicle(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid vehicle ID"})
		return
	}

	v, err := h.vehicleRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Vehicle not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": v})
}

// UpdateVehicle 更新车辆
func (h *Handler) UpdateVehicle(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid vehicle ID"})
		return
	}

	v, err := h.vehicleRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Vehicle not found"})
		return
	}

	var req vehicleRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	plate, err := models.NormalizePlate(req.Plate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": "plate"})
		return
	}

	v.Plate = plate
	v.Brand = req.Brand
	v.Type = req.Type
	v.Purpose = req.Purpose
	v.PhotoPath = req.PhotoPath
	if err := h.vehicleRepo.Update(c.Request.Context(), v); err != nil {
		h.logger.Error("Failed to update vehicle", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update vehicle"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": v})
}

// DeleteVehicle 删除车辆及其关联记录
func (h *Handler) DeleteVehicle(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid vehicle ID"})
		return
	}

	if _, err := h.vehicleRepo.GetByID(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Vehicle not found"})
		return
	}

	if err := h.vehicleRepo.Delete(c.Request.Context(), id); err != nil {
		h.logger.Error("Failed to delete vehicle", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete vehicle"})
		return
	}

	h.logger.Info("Vehicle deleted", zap.Int64("vehicle_id", id))
	c.JSON(http.StatusOK, gin.H{"message": "Vehicle deleted"})
}

// GetVehicleStatus 获取车辆可用性状态
func (h *Handler) GetVehicleStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid vehicle ID"})
		return
	}

	if _, err := h.vehicleRepo.GetByID(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Vehicle not found"})
		return
	}

	status, err := h.movements.VehicleStatus(c.Request.Context(), id)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": status})
}

// ListVehicleMovements 获取车辆出车记录
func (h *Handler) ListVehicleMovements(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid vehicle ID"})
		return
	}

	page, perPage := pagination(c)
	movements, err := h.movementRepo.ListByVehicle(c.Request.Context(), id, perPage, (page-1)*perPage)
	if err != nil {
		h.logger.Error("Failed to list vehicle movements", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list movements"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": movements,
		"pagination": gin.H{
			"page":     page,
			"per_page": perPage,
		},
	})
}

// ListVehicleFuel 获取车辆加油记录
func (h *Handler) ListVehicleFuel(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid vehicle ID"})
		return
	}

	page, perPage := pagination(c)
	records, err := h.fuelRepo.ListByVehicle(c.Request.Context(), id, perPage, (page-1)*perPage)
	if err != nil {
		h.logger.Error("Failed to list vehicle fuel records", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list fuel records"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": records,
		"pagination": gin.H{
			"page":     page,
			"per_page": perPage,
		},
	})
}

// pagination 解析分页参数
func pagination(c *gin.Context) (page, perPage int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return page, perPage
}
