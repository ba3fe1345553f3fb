package route

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/neoarchive/neoarchive/internal/api/controller"
	"github.com/neoarchive/neoarchive/internal/api/middleware"
)

// NewSyncRouter registers the sync status and trigger routes. The trigger gets
// its own, longer, timeout.
func NewSyncRouter(timeout, syncTimeout time.Duration, group *gin.RouterGroup, s controller.SyncService) {
	sc := controller.NewSyncController(s)

	group.GET("sync", middleware.RequestTimeout(timeout), sc.Status)
	group.POST("sync", middleware.RequestTimeout(syncTimeout), sc.Trigger)
}
