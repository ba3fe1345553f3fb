package route

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/neoarchive/neoarchive/internal/api/middleware"
	"github.com/neoarchive/neoarchive/internal/app"
)

// SetupRoutes builds the engine: middleware, /health, the /api surface and
// the static UI.
func SetupRoutes(appCtx *app.App) *gin.Engine {
	cfg := appCtx.Config

	r := gin.New()
	r.Use(middleware.HoneybadgerMiddleware(os.Getenv("HONEYBADGER_API_KEY"), cfg.Misc.GinMode))
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware(cfg.Server.CORSAllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "UP",
			"sync":    appCtx.Sync.Status(),
		})
	})

	api := r.Group("/api")
	timeout := cfg.Server.RequestTimeout

	NewEntityRouter(timeout, api.Group(""), appCtx.Cache)
	NewSessionRouter(timeout, api.Group(""), appCtx.Sessions)
	// a manual sync may take the whole sync timeout
	NewSyncRouter(timeout, cfg.Remote.SyncTimeout+timeout, api.Group(""), appCtx.Sync)

	NewUIRouter(r, cfg.Server.UIDir)
	return r
}
