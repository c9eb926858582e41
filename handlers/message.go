package handlers

import (
	"friendbox/middleware"
	"friendbox/utils"

	"github.com/gin-gonic/gin"
)

type SendMessageRequest struct {
	Message string `json:"message" binding:"required"`
}

func (h *Handler) GetMessages(c *gin.Context) {
	thread, err := h.social.Thread(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	utils.Success(c, thread)
}

// SendMessage handles POST /api/messages/:id, where id is the recipient.
func (h *Handler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	result, err := h.social.SendMessage(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), req.Message)
	if err != nil {
		h.respondError(c, err)
		return
	}

	utils.Success(c, withWarning(gin.H{"message": result.Message}, result.Partial))
}
