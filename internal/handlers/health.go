package handlers

import (
	"net/http"

	"crono/internal/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Health godoc
// @Summary		Health check
// @Tags			system
// @Produce		json
// @Success		200	{object}	response.SuccessResponse
// @Failure		503	{object}	response.ErrorResponse	"DB_UNAVAILABLE"
// @Router			/healthz [get]
func Health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, response.ErrorResponse{
				Code:    "DB_UNAVAILABLE",
				Message: "Database unavailable",
			})
			return
		}
		c.JSON(http.StatusOK, response.SuccessResponse{Message: "ok"})
	}
}
