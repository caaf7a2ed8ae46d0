package handlers

import (
	"net/http"

	"crono/internal/service"

	"github.com/gin-gonic/gin"
)

// QueueStatus godoc
// @Summary		Queue status
// @Description	Current turns of the event queue ordered by spot
// @Tags			queue
// @Produce		json
// @Param			id	path		int	true	"Event id"
// @Security		BearerAuth
// @Success		200	{object}	service.QueueStatusOutput
// @Failure		400	{object}	response.ErrorResponse	"INVALID_ID"
// @Failure		404	{object}	response.ErrorResponse	"EVENT_NOT_FOUND"
// @Failure		500	{object}	response.ErrorResponse	"INTERNAL_ERROR"
// @Router			/api/events/{id}/queue [get]
func (h *Handler) QueueStatus(c *gin.Context) {
	eventID, ok := parseID(c, "id")
	if !ok {
		return
	}

	out, err := h.svc.QueueStatus(c.Request.Context(), service.EventRef{ID: eventID})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, out)
}

// QueueWebSocket godoc
// @Summary		Queue updates stream
// @Description	Upgrades to a websocket that receives a JSON queue update after every join, cancel or process on the event
// @Tags			queue
// @Param			id	path	int	true	"Event id"
// @Security		BearerAuth
// @Success		101
// @Failure		400	{object}	response.ErrorResponse	"INVALID_ID"
// @Failure		404	{object}	response.ErrorResponse	"EVENT_NOT_FOUND"
// @Router			/api/events/{id}/ws [get]
func (h *Handler) QueueWebSocket(c *gin.Context) {
	eventID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if _, err := h.svc.ResolveEvent(c.Request.Context(), service.EventRef{ID: eventID}); err != nil {
		writeError(c, err)
		return
	}

	if err := h.hub.Serve(c.Writer, c.Request, eventID); err != nil {
		h.l.Warnf(c.Request.Context(), "handlers.QueueWebSocket: %v", err)
	}
}
