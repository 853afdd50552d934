package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sushibar/waitline/internal/model"
	"sushibar/waitline/internal/service"
	"sushibar/waitline/pkg/response"
)

// AdminHandler serves the staff board: viewing the line and driving the
// ticket state machine (advance, serve, cancel).
type AdminHandler struct {
	queueService service.QueueService
	logger       *zap.Logger
}

func NewAdminHandler(queueService service.QueueService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{queueService: queueService, logger: logger}
}

type queueEntry struct {
	Code   string            `json:"code"`
	Name   string            `json:"name"`
	Size   int               `json:"size"`
	Status model.PartyStatus `json:"status"`
	Sushi  string            `json:"sushi"`
}

// Queue returns the active line in first-come order.
func (h *AdminHandler) Queue(c *gin.Context) {
	parties, err := h.queueService.ActiveQueue(c.Request.Context())
	if err != nil {
		h.logger.Error("queue read failed", zap.Error(err))
		response.InternalError(c, "could not read the queue")
		return
	}

	entries := make([]queueEntry, 0, len(parties))
	for _, p := range parties {
		entries = append(entries, queueEntry{
			Code:   p.Code,
			Name:   p.Name,
			Size:   p.Size,
			Status: p.Status,
			Sushi:  p.Sushi,
		})
	}
	response.OK(c, gin.H{"queue": entries})
}

// Advance calls the oldest waiting party. An empty waiting set is a normal
// no-op, not an error.
func (h *AdminHandler) Advance(c *gin.Context) {
	message, err := h.queueService.Advance(c.Request.Context())
	if err != nil {
		h.logger.Error("advance failed", zap.Error(err))
		response.InternalError(c, "could not advance the queue")
		return
	}
	response.Message(c, message)
}

// ServeCalled completes the called party with the earliest called_at.
func (h *AdminHandler) ServeCalled(c *gin.Context) {
	message, err := h.queueService.ServeCalled(c.Request.Context())
	if err != nil {
		h.logger.Error("serve failed", zap.Error(err))
		response.InternalError(c, "could not serve the called party")
		return
	}
	response.Message(c, message)
}

// Cancel removes an active party from the line. Canceling an already served
// or canceled ticket is a conflict, not a silent success.
func (h *AdminHandler) Cancel(c *gin.Context) {
	message, err := h.queueService.Cancel(c.Request.Context(), c.Param("code"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTicketNotFound):
			response.NotFound(c, "Ticket not found")
		case errors.Is(err, service.ErrTicketFinal):
			response.Conflict(c, err.Error())
		default:
			h.logger.Error("cancel failed", zap.Error(err))
			response.InternalError(c, "could not cancel the ticket")
		}
		return
	}
	response.Message(c, message)
}
