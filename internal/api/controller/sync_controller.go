package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/neoarchive/neoarchive/internal/syncer"
)

// SyncService is the orchestrator API used by the controller.
type SyncService interface {
	Status() syncer.Status
	BackgroundSync(ctx context.Context) bool
}

type SyncController struct {
	sync SyncService
}

func NewSyncController(s SyncService) *SyncController {
	return &SyncController{sync: s}
}

// Status handles GET /sync.
func (sc *SyncController) Status(c *gin.Context) {
	c.JSON(http.StatusOK, sc.sync.Status())
}

// Trigger handles POST /sync. A failed or skipped sync is not an HTTP error.
func (sc *SyncController) Trigger(c *gin.Context) {
	ok := sc.sync.BackgroundSync(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"synced": ok, "status": sc.sync.Status()})
}
