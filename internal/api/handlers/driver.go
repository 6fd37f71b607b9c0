package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/langchou/fleetmate/internal/models"
)

type driverRequest struct {
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Notes   string `json:"notes"`
}

func (h *Handler) bindDriver(c *gin.Context) (*driverRequest, bool) {
	var req driverRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return nil, false
	}

	name, err := models.NormalizeName(req.Name)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": "name"})
		return nil, false
	}
	req.Name = name

	if req.Surname != "" {
		surname, err := models.NormalizeName(req.Surname)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": "surname"})
			return nil, false
		}
		req.Surname = surname
	}

	return &req, true
}

// ListDrivers 获取驾驶员列表
func (h *Handler) ListDrivers(c *gin.Context) {
	drivers, err := h.driverRepo.List(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list drivers", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list drivers"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": drivers})
}

// CreateDriver 创建驾驶员
func (h *Handler) CreateDriver(c *gin.Context) {
	req, ok := h.bindDriver(c)
	if !ok {
		return
	}

	d := &models.Driver{Name: req.Name, Surname: req.Surname, Notes: req.Notes}
	if err := h.driverRepo.Create(c.Request.Context(), d); err != nil {
		h.logger.Error("Failed to create driver", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create driver"})
		return
	}

	h.logger.Info("Driver created", zap.String("name", d.FullName()))
	c.JSON(http.StatusCreated, gin.H{"data": d})
}

// GetDriver 获取驾驶员详情
func (h *Handler) GetDriver(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid driver ID"})
		return
	}

	d, err := h.driverRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Driver not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": d})
}

// UpdateDriver 更新驾驶员
func (h *Handler) UpdateDriver(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid driver ID"})
		return
	}

	d, err := h.driverRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Driver not found"})
		return
	}

	req, ok := h.bindDriver(c)
	if !ok {
		return
	}

	d.Name = req.Name
	d.Surname = req.Surname
	d.Notes = req.Notes
	if err := h.driverRepo.Update(c.Request.Context(), d); err != nil {
		h.logger.Error("Failed to update driver", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update driver"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": d})
}

// DeleteDriver 删除驾驶员及其关联记录
func (h *Handler) DeleteDriver(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid driver ID"})
		return
	}

	if _, err := h.driverRepo.GetByID(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Driver not found"})
		return
	}

	if err := h.driverRepo.Delete(c.Request.Context(), id); err != nil {
		h.logger.Error("Failed to delete driver", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete driver"})
		return
	}

	h.logger.Info("Driver deleted", zap.Int64("driver_id", id))
	c.JSON(http.StatusOK, gin.H{"message": "Driver deleted"})
}

// GetDriverAnalytics 获取驾驶员行为分析
func (h *Handler) GetDriverAnalytics(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid driver ID"})
		return
	}

	d, err := h.driverRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Driver not found"})
		return
	}

	from := c.Query("from")
	to := c.Query("to")
	if from != "" && !models.ValidDate(from) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid from date, expected YYYY-MM-DD"})
		return
	}
	if to != "" && !models.ValidDate(to) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid to date, expected YYYY-MM-DD"})
		return
	}

	analytics, err := h.reportRepo.AnalyzeDriver(c.Request.Context(), d, from, to)
	if err != nil {
		h.logger.Error("Failed to analyze driver", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to analyze driver"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": analytics})
}

// GetDriversSummary 获取驾驶员里程排行
func (h *Handler) GetDriversSummary(c *gin.Context) {
	summary, err := h.reportRepo.DriversSummary(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to build drivers summary", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build drivers summary"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": summary})
}
