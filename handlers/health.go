package handlers

import (
	"net/http"

	"classched/utils"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports liveness together with the last dependency check.
type HealthHandler struct {
	Name string
}

func NewHealthHandler(name string) *HealthHandler {
	return &HealthHandler{Name: name}
}

func (h *HealthHandler) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"message":      "Hi, I'm " + h.Name,
		"dependencies": utils.GetHealthStatus(),
	})
}
