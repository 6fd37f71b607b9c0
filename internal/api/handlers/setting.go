package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type settingRequest struct {
	Value string `json:"value"`
}

// GetSetting 读取设置值
func (h *Handler) GetSetting(c *gin.Context) {
	key := c.Param("key")

	value, err := h.settings.GetSetting(c.Request.Context(), key)
	if err != nil {
		h.logger.Error("Failed to get setting", zap.Error(err), zap.String("key", key))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get setting"})
		return
	}
	if value == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Setting not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"key": key, "value": value}})
}

// PutSetting 写入设置值，存在则覆盖
func (h *Handler) PutSetting(c *gin.Context) {
	key := c.Param("key")

	var req settingRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if req.Value == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Value is required"})
		return
	}

	if err := h.settings.SetSetting(c.Request.Context(), key, req.Value); err != nil {
		h.logger.Error("Failed to set setting", zap.Error(err), zap.String("key", key))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to set setting"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"key": key, "value": req.Value}})
}
