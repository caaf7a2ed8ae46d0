package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"crono/internal/logger"
	"crono/internal/response"
	"crono/internal/service"
	"crono/internal/ws"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *service.TurnService
	hub *ws.Hub
	l   logger.Logger
}

func New(svc *service.TurnService, hub *ws.Hub, l logger.Logger) *Handler {
	return &Handler{svc: svc, hub: hub, l: l}
}

var errorCodes = map[error]string{
	service.ErrStudentNotFound:   "STUDENT_NOT_FOUND",
	service.ErrEventNotFound:     "EVENT_NOT_FOUND",
	service.ErrTurnNotFound:      "TURN_NOT_FOUND",
	service.ErrTurnAlreadyExists: "TURN_ALREADY_EXISTS",
	service.ErrForbidden:         "FORBIDDEN",
	service.ErrInvalidEventRef:   "INVALID_EVENT",
	service.ErrInvalidTurnRef:    "INVALID_TURN",
	service.ErrTurnIntegrity:     "TURN_INTEGRITY",
}

// writeError maps a service error to its HTTP status and error body.
// Internal errors never leak their details.
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)

	status := http.StatusInternalServerError
	switch service.Kind(err) {
	case service.KindNotFound:
		status = http.StatusNotFound
	case service.KindConflict:
		status = http.StatusConflict
	case service.KindForbidden:
		status = http.StatusForbidden
	case service.KindInvalid:
		status = http.StatusBadRequest
	}

	body := response.ErrorResponse{Code: "INTERNAL_ERROR", Message: "Internal server error"}
	for sentinel, code := range errorCodes {
		if errors.Is(err, sentinel) {
			body.Code = code
			if status != http.StatusInternalServerError {
				body.Message = sentinel.Error()
			}
			break
		}
	}

	c.AbortWithStatusJSON(status, body)
}

func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_ID",
			Message: "Invalid " + name,
			Details: c.Param(name),
		})
		return 0, false
	}
	return uint(id), true
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, response.ErrorResponse{
		Code:    "VALIDATION_ERROR",
		Message: "Invalid request body",
		Details: err.Error(),
	})
}
