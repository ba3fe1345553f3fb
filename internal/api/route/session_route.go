package route

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/neoarchive/neoarchive/internal/api/controller"
	"github.com/neoarchive/neoarchive/internal/api/middleware"
)

func NewSessionRouter(timeout time.Duration, group *gin.RouterGroup, sessions controller.SessionService) {
	group.Use(middleware.RequestTimeout(timeout))

	sc := controller.NewSessionController(sessions)

	group.GET("session", sc.Current)
	group.POST("session/register", sc.Register)
	group.POST("session/login", sc.Login)
	group.DELETE("session", sc.Logout)
}
