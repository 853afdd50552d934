package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sushibar/waitline/internal/service"
	"sushibar/waitline/pkg/response"
)

// QueueHandler serves the guest-facing surface: joining the line and polling
// a ticket. Guests poll; there is no push channel.
type QueueHandler struct {
	queueService service.QueueService
	logger       *zap.Logger
}

func NewQueueHandler(queueService service.QueueService, logger *zap.Logger) *QueueHandler {
	return &QueueHandler{queueService: queueService, logger: logger}
}

// JoinRequest carries the walk-in form. Size is a pointer so a missing size
// can default to one guest while an explicit zero still fails validation.
type JoinRequest struct {
	Name  string `json:"name"`
	Size  *int   `json:"size"`
	Sushi string `json:"sushi"`
}

func (h *QueueHandler) Join(c *gin.Context) {
	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	size := 1
	if req.Size != nil {
		size = *req.Size
	}

	result, err := h.queueService.Join(c.Request.Context(), req.Name, size, req.Sushi)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNameRequired),
			errors.Is(err, service.ErrNameTooLong),
			errors.Is(err, service.ErrSizeOutOfRange),
			errors.Is(err, service.ErrSushiRequired):
			response.BadRequest(c, err.Error())
		default:
			h.logger.Error("join failed", zap.Error(err))
			response.InternalError(c, "could not join the waitlist")
		}
		return
	}

	response.Created(c, result)
}

func (h *QueueHandler) Ticket(c *gin.Context) {
	info, err := h.queueService.Ticket(c.Request.Context(), c.Param("code"))
	if err != nil {
		if errors.Is(err, service.ErrTicketNotFound) {
			response.NotFound(c, "Ticket not found")
			return
		}
		h.logger.Error("ticket lookup failed", zap.Error(err))
		response.InternalError(c, "could not look up ticket")
		return
	}

	response.OK(c, info)
}
