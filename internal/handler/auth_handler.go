package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mdocs/mdocs/internal/config"
	"github.com/mdocs/mdocs/internal/pkg/errcode"
	"github.com/mdocs/mdocs/internal/pkg/jwt"
	"github.com/mdocs/mdocs/internal/pkg/password"
	"github.com/mdocs/mdocs/internal/pkg/response"
)

type AuthHandler struct {
	cfg config.ServerConfig
}

func NewAuthHandler(cfg config.ServerConfig) *AuthHandler {
	return &AuthHandler{cfg: cfg}
}

type loginRequest struct {
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Password == "" {
		response.Error(c, errcode.ErrInvalid, "password required")
		return
	}
	if !h.cfg.EditingEnabled() {
		response.Error(c, errcode.ErrForbidden, "editing disabled")
		return
	}
	if err := password.Compare(h.cfg.AdminPasswordHash, req.Password); err != nil {
		response.Error(c, errcode.ErrUnauthorized, "wrong password")
		return
	}
	ttl := time.Duration(h.cfg.JWTTTLHours) * time.Hour
	token, err := jwt.GenerateToken("admin", []byte(h.cfg.JWTSecret), ttl)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"token": token})
}
