package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lunhatthanh83-boop/bottele/internal/license"
)

type CreateKeyRequest struct {
	Duration string `json:"duration" binding:"required"`
	MaxUsers int    `json:"max_users" binding:"required,min=1"`
}

func (h *Handler) CreateKey(c *gin.Context) {
	var req CreateKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	key, err := h.licenses.Generate(req.Duration, req.MaxUsers, c.GetString("subject"))
	if err != nil {
		h.logger.Error("Key generation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create key"})
		return
	}
	c.JSON(http.StatusCreated, key)
}

func (h *Handler) GetKey(c *gin.Context) {
	key, ok := h.licenses.Get(c.Param("key"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Key not found"})
		return
	}
	c.JSON(http.StatusOK, key)
}

func (h *Handler) DeleteKey(c *gin.Context) {
	activations, err := h.licenses.Remove(c.Param("key"))
	if err != nil {
		if errors.Is(err, license.ErrKeyNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Key not found"})
			return
		}
		h.logger.Error("Key removal failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove key"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": c.Param("key"), "activations": activations})
}
