package handler

import (
	"github.com/gin-gonic/gin"

	"etc_backend/internal/domain"
)

func respond(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, domain.APIResponse{Success: true, Message: message, Data: data})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, domain.APIResponse{Success: false, Message: message})
}

// pageData là phần data của các response có phân trang
func pageData(key string, items interface{}, page domain.PageDTO) gin.H {
	return gin.H{
		key:        items,
		"total":    page.Total,
		"page":     page.Page,
		"per_page": page.PerPage,
		"pages":    page.Pages,
	}
}
