package handlers

import (
	"friendbox/middleware"
	"friendbox/utils"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetCurrentUser(c *gin.Context) {
	profile, err := h.social.Profile(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	utils.Success(c, profile)
}
