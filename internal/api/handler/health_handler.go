package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"etc_backend/internal/domain"
)

// Pinger là phần *sql.DB mà health check cần
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db        Pinger
	ocrEngine string
}

func NewHealthHandler(db Pinger, ocrEngine string) *HealthHandler {
	return &HealthHandler{db: db, ocrEngine: ocrEngine}
}

// GET /api/health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	data := gin.H{
		"ocr_engine": h.ocrEngine,
		"timestamp":  time.Now().UTC(),
	}
	if err := h.db.PingContext(ctx); err != nil {
		data["database"] = "disconnected"
		c.JSON(http.StatusServiceUnavailable, domain.APIResponse{Success: false, Message: "Database không phản hồi", Data: data})
		return
	}
	data["database"] = "connected"
	respond(c, http.StatusOK, "Server hoạt động bình thường", data)
}
