package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/neoarchive/neoarchive/internal/logger"
	"github.com/neoarchive/neoarchive/internal/repository"
	"github.com/neoarchive/neoarchive/internal/session"
)

// SessionService is the session API used by the controller.
// session.Manager implements it.
type SessionService interface {
	Register(ctx context.Context, profile repository.UserProfile, password string) (repository.UserProfile, error)
	Login(ctx context.Context, username, password string) (repository.UserProfile, error)
	Logout(ctx context.Context) error
	Current() (repository.UserProfile, error)
}

type SessionController struct {
	sessions SessionService
}

func NewSessionController(sessions SessionService) *SessionController {
	return &SessionController{sessions: sessions}
}

type registerRequest struct {
	repository.UserProfile
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register handles POST /session/register.
func (sc *SessionController) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	req.UserProfile.PasswordHash = ""

	u, err := sc.sessions.Register(c.Request.Context(), req.UserProfile, req.Password)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, u)
	case errors.Is(err, session.ErrInvalidProfile):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, session.ErrUsernameTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.WithComponent("session-controller").Errorf("register %s: %v", req.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
	}
}

// Login handles POST /session/login.
func (sc *SessionController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	u, err := sc.sessions.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, session.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		logger.WithComponent("session-controller").Errorf("login %s: %v", req.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	c.JSON(http.StatusOK, u)
}

// Logout handles DELETE /session.
func (sc *SessionController) Logout(c *gin.Context) {
	if err := sc.sessions.Logout(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

// Current handles GET /session.
func (sc *SessionController) Current(c *gin.Context) {
	u, err := sc.sessions.Current()
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, u)
}
