package handlers

import (
	"net/http"

	"crono/internal/auth"
	"crono/internal/models"
	"crono/internal/service"

	"github.com/gin-gonic/gin"
)

type JoinRequest struct {
	EventID   uint   `json:"event_id" example:"3"`
	EventCode string `json:"event_code" example:"FER-2025"`
}

type ProcessRequest struct {
	StudentID uint `json:"student_id" binding:"required" example:"20230145"`
	EventID   uint `json:"event_id" binding:"required" example:"3"`
}

type TurnRemovedResponse struct {
	Message string               `json:"message" example:"Turn removed"`
	Result  service.RemoveOutput `json:"result"`
}

// JoinQueue godoc
// @Summary		Join an event queue
// @Description	Gives the authenticated student the next spot of the event queue
// @Tags			turns
// @Accept			json
// @Produce		json
// @Param			body	body		JoinRequest	true	"Event id or event code"
// @Security		BearerAuth
// @Success		201	{object}	service.JoinOutput
// @Failure		400	{object}	response.ErrorResponse	"INVALID_EVENT, VALIDATION_ERROR"
// @Failure		404	{object}	response.ErrorResponse	"STUDENT_NOT_FOUND, EVENT_NOT_FOUND"
// @Failure		409	{object}	response.ErrorResponse	"TURN_ALREADY_EXISTS"
// @Failure		500	{object}	response.ErrorResponse	"INTERNAL_ERROR"
// @Router			/api/turns [post]
func (h *Handler) JoinQueue(c *gin.Context) {
	actor, _ := auth.FromContext(c)

	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	out, err := h.svc.Join(c.Request.Context(), service.JoinInput{
		StudentID: actor.StudentID,
		Event:     service.EventRef{ID: req.EventID, Code: req.EventCode},
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, out)
}

// CancelTurn godoc
// @Summary		Cancel a turn
// @Description	Removes the turn and moves everyone behind it up one spot. Students may only cancel their own turn
// @Tags			turns
// @Produce		json
// @Param			id	path		int	true	"Turn id"
// @Security		BearerAuth
// @Success		200	{object}	TurnRemovedResponse
// @Failure		400	{object}	response.ErrorResponse	"INVALID_ID"
// @Failure		403	{object}	response.ErrorResponse	"FORBIDDEN"
// @Failure		404	{object}	response.ErrorResponse	"TURN_NOT_FOUND"
// @Failure		500	{object}	response.ErrorResponse	"INTERNAL_ERROR, TURN_INTEGRITY"
// @Router			/api/turns/{id} [delete]
func (h *Handler) CancelTurn(c *gin.Context) {
	turnID, ok := parseID(c, "id")
	if !ok {
		return
	}
	actor, _ := auth.FromContext(c)

	out, err := h.svc.Cancel(c.Request.Context(), turnID, actor.CancelPolicy())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, TurnRemovedResponse{Message: "Turn cancelled", Result: *out})
}

// ProcessTurn godoc
// @Summary		Process a turn
// @Description	Marks the student's turn for the event as served and removes it from the queue
// @Tags			turns
// @Accept			json
// @Produce		json
// @Param			body	body		ProcessRequest	true	"Student and event"
// @Security		BearerAuth
// @Success		200	{object}	TurnRemovedResponse
// @Failure		400	{object}	response.ErrorResponse	"VALIDATION_ERROR"
// @Failure		403	{object}	response.ErrorResponse	"FORBIDDEN"
// @Failure		404	{object}	response.ErrorResponse	"TURN_NOT_FOUND"
// @Failure		500	{object}	response.ErrorResponse	"INTERNAL_ERROR, TURN_INTEGRITY"
// @Router			/api/turns/process [post]
func (h *Handler) ProcessTurn(c *gin.Context) {
	var req ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	actor, _ := auth.FromContext(c)

	out, err := h.svc.Process(c.Request.Context(), req.StudentID, req.EventID, actor.ProcessPolicy())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, TurnRemovedResponse{Message: "Turn processed", Result: *out})
}

// MyTurns godoc
// @Summary		List my turns
// @Description	Turns the authenticated student currently holds, with their events
// @Tags			turns
// @Produce		json
// @Security		BearerAuth
// @Success		200	{array}		models.Turn
// @Failure		500	{object}	response.ErrorResponse	"INTERNAL_ERROR"
// @Router			/api/students/me/turns [get]
func (h *Handler) MyTurns(c *gin.Context) {
	actor, _ := auth.FromContext(c)

	turns, err := h.svc.ListTurnsForStudent(c.Request.Context(), actor.StudentID)
	if err != nil {
		writeError(c, err)
		return
	}
	if turns == nil {
		turns = []models.Turn{}
	}

	c.JSON(http.StatusOK, turns)
}
