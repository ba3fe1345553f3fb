package controller

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/neoarchive/neoarchive/internal/syncer"
)

type fakeSync struct {
	status syncer.Status
	result bool
	calls  int
}

func (f *fakeSync) Status() syncer.Status { return f.status }

func (f *fakeSync) BackgroundSync(context.Context) bool {
	f.calls++
	return f.result
}

func TestSyncController(t *testing.T) {
	svc := &fakeSync{status: syncer.Status{State: syncer.Ready, Online: false}}
	sc := NewSyncController(svc)
	r := gin.New()
	r.GET("/api/sync", sc.Status)
	r.POST("/api/sync", sc.Trigger)

	w := doJSON(r, http.MethodGet, "/api/sync", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"state":"ready","online":false}`, w.Body.String())

	w = doJSON(r, http.MethodPost, "/api/sync", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"synced":false,"status":{"state":"ready","online":false}}`, w.Body.String())
	assert.Equal(t, 1, svc.calls)
}
