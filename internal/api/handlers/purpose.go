package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/langchou/fleetmate/internal/models"
)

type purposeRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// ListPurposes 获取事由列表，include_inactive=true 时包含停用项
func (h *Handler) ListPurposes(c *gin.Context) {
	includeInactive := c.Query("include_inactive") == "true"
	purposes, err := h.purposeRepo.List(c.Request.Context(), includeInactive)
	if err != nil {
		h.logger.Error("Failed to list purposes", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list purposes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": purposes})
}

// CreatePurpose 创建事由
func (h *Handler) CreatePurpose(c *gin.Context) {
	var req purposeRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name is required", "field": "name"})
		return
	}

	p := &models.Purpose{Name: req.Name, Description: req.Description, Category: req.Category}
	if err := h.purposeRepo.Create(c.Request.Context(), p); err != nil {
		h.logger.Error("Failed to create purpose", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create purpose"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": p})
}

// UpdatePurpose 更新事由
func (h *Handler) UpdatePurpose(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid purpose ID"})
		return
	}

	p, err := h.purposeRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Purpose not found"})
		return
	}

	var req purposeRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name is required", "field": "name"})
		return
	}

	p.Name = req.Name
	p.Description = req.Description
	p.Category = req.Category
	if err := h.purposeRepo.Update(c.Request.Context(), p); err != nil {
		h.logger.Error("Failed to update purpose", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update purpose"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": p})
}

// DeactivatePurpose 停用事由，历史记录保留
func (h *Handler) DeactivatePurpose(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid purpose ID"})
		return
	}

	if _, err := h.purposeRepo.GetByID(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Purpose not found"})
		return
	}

	if err := h.purposeRepo.Deactivate(c.Request.Context(), id); err != nil {
		h.logger.Error("Failed to deactivate purpose", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to deactivate purpose"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Purpose deactivated"})
}

// RestorePurpose 恢复停用的事由
func (h *Handler) RestorePurpose(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid purpose ID"})
		return
	}

	if _, err := h.purposeRepo.GetByID(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Purpose not found"})
		return
	}

	if err := h.purposeRepo.Restore(c.Request.Context(), id); err != nil {
		h.logger.Error("Failed to restore purpose", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to restore purpose"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Purpose restored"})
}
