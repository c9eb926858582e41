package handlers

import (
	"strings"
	"time"

	"friendbox/errs"
	"friendbox/middleware"
	"friendbox/models"
	"friendbox/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"fullName"`
	Avatar   string `json:"profilePicture"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string             `json:"token"`
	User  models.UserSummary `json:"user"`
}

func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}
	if strings.TrimSpace(req.Username) != req.Username {
		utils.BadRequest(c, "username must not have surrounding spaces")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.InternalError(c, "failed to hash password")
		return
	}

	fullName := req.FullName
	if fullName == "" {
		fullName = req.Username
	}
	user := &models.User{
		ID:           utils.GenerateUUID(),
		Username:     req.Username,
		FullName:     fullName,
		Avatar:       req.Avatar,
		PasswordHash: string(hashedPassword),
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
	if err := h.accounts.CreateUser(c.Request.Context(), user); err != nil {
		h.respondError(c, err)
		return
	}

	token, err := h.tokens.GenerateToken(user.ID)
	if err != nil {
		utils.InternalError(c, "failed to generate token")
		return
	}

	utils.Success(c, AuthResponse{Token: token, User: user.ToSummary()})
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	user, err := h.accounts.FetchUserByHandle(c.Request.Context(), req.Username)
	if errs.IsKind(err, errs.KindTargetNotFound) {
		utils.Unauthorized(c, "invalid username or password")
		return
	}
	if err != nil {
		h.respondError(c, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		utils.Unauthorized(c, "invalid username or password")
		return
	}

	token, err := h.tokens.GenerateToken(user.ID)
	if err != nil {
		utils.InternalError(c, "failed to generate token")
		return
	}

	utils.Success(c, AuthResponse{Token: token, User: user.ToSummary()})
}

func (h *Handler) RefreshToken(c *gin.Context) {
	token, err := h.tokens.GenerateToken(middleware.GetUserID(c))
	if err != nil {
		utils.InternalError(c, "failed to generate token")
		return
	}

	utils.Success(c, gin.H{"token": token})
}
