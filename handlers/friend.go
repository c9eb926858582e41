package handlers

import (
	"friendbox/middleware"
	"friendbox/utils"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetFriends(c *gin.Context) {
	profile, err := h.social.Profile(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	utils.Success(c, gin.H{
		"friends":          profile.Friends,
		"sentRequests":     profile.SentRequests,
		"receivedRequests": profile.ReceivedRequests,
	})
}

// SendFriendRequest handles PUT /api/friends/:handle.
func (h *Handler) SendFriendRequest(c *gin.Context) {
	result, err := h.social.SendRequest(c.Request.Context(), middleware.GetUserID(c), c.Param("handle"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	utils.Success(c, withWarning(gin.H{
		"message": "Friend request sent",
		"user":    result.User,
	}, result.Partial))
}

// AcceptFriendRequest handles POST /api/friends/:id, where id is the requester.
func (h *Handler) AcceptFriendRequest(c *gin.Context) {
	result, err := h.social.AcceptRequest(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	utils.Success(c, withWarning(gin.H{
		"message": "Friend request accepted!",
		"user":    result.User,
	}, result.Partial))
}

func (h *Handler) CheckConsistency(c *gin.Context) {
	report, err := h.social.CheckPair(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	utils.Success(c, gin.H{
		"consistent": report.Consistent(),
		"report":     report,
	})
}
