package handlers

import (
	"net/http"

	"friendbox/middleware"

	"github.com/gin-gonic/gin"
)

// Routes mounts the API on r. ws serves the realtime socket and may be nil.
func (h *Handler) Routes(r *gin.Engine, ws gin.HandlerFunc) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := r.Group("/api/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", middleware.AuthMiddleware(h.tokens), h.RefreshToken)
	}

	users := r.Group("/api/users")
	users.Use(middleware.AuthMiddleware(h.tokens))
	{
		users.GET("/me", h.GetCurrentUser)
	}

	friends := r.Group("/api/friends")
	friends.Use(middleware.AuthMiddleware(h.tokens))
	{
		friends.GET("", h.GetFriends)
		friends.PUT("/:handle", h.SendFriendRequest)
		friends.POST("/:id", h.AcceptFriendRequest)
		friends.GET("/:id/consistency", h.CheckConsistency)
	}

	messages := r.Group("/api/messages")
	messages.Use(middleware.AuthMiddleware(h.tokens))
	{
		messages.GET("/:id", h.GetMessages)
		messages.POST("/:id", h.SendMessage)
	}

	if ws != nil {
		r.GET("/ws", ws)
	}
}
