package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/neoarchive/neoarchive/internal/api/middleware"
	"github.com/neoarchive/neoarchive/internal/logger"
	"github.com/neoarchive/neoarchive/internal/propagate"
)

// CrudService defines the cache operations behind a resource.
type CrudService[T any] interface {
	All() []T
	Get(key string) (T, bool)
	Create(item T) (T, *propagate.Ticket)
	Update(item T) (bool, *propagate.Ticket)
	Delete(key string) *propagate.Ticket
}

// CrudValidator defines the interface for validating a resource.
type CrudValidator[T any] interface {
	Validate(item T) error
}

// Filter keeps the items matching a query parameter value.
type Filter[T any] func(item T, value string) bool

// CrudController provides generic CRUD handlers for resources.
type CrudController[T any] struct {
	Service   CrudService[T]
	Validator CrudValidator[T]
	// SetKey copies the :id path parameter into the payload on update.
	SetKey func(item *T, key string)
	// Filters maps query parameter names to list filters.
	Filters map[string]Filter[T]
	// Component names the controller in logs.
	Component string
}

// RegisterCrudRoutes registers CRUD endpoints for a resource on the given router group.
func (cc *CrudController[T]) RegisterCrudRoutes(rg *gin.RouterGroup, resource string) {
	rg.GET("/"+resource, cc.GetAll)
	rg.POST("/"+resource, cc.Create)
	rg.GET("/"+resource+"/:id", cc.Get)
	rg.PUT("/"+resource+"/:id", cc.Update)
	rg.DELETE("/"+resource+"/:id", cc.Delete)
}

// GetAll handles GET requests to list all resources, optionally filtered.
func (cc *CrudController[T]) GetAll(c *gin.Context) {
	items := cc.Service.All()
	for name, keep := range cc.Filters {
		value, ok := c.GetQuery(name)
		if !ok {
			continue
		}
		filtered := make([]T, 0, len(items))
		for _, item := range items {
			if keep(item, value) {
				filtered = append(filtered, item)
			}
		}
		items = filtered
	}
	c.JSON(http.StatusOK, items)
}

// Get handles GET requests for a single resource.
func (cc *CrudController[T]) Get(c *gin.Context) {
	key := c.Param("id")
	item, ok := cc.Service.Get(key)
	if !ok {
		logger.WithComponent(cc.component()).Debugf("get %s: not found", key)
		c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})
		return
	}
	c.JSON(http.StatusOK, item)
}

// Create handles POST requests. Existing keys are replaced.
func (cc *CrudController[T]) Create(c *gin.Context) {
	var item T
	if !cc.bind(c, &item, nil) {
		return
	}
	created, ticket := cc.Service.Create(item)
	writeRemoteStatus(c, ticket)
	c.JSON(http.StatusCreated, created)
}

// Update handles PUT requests. Unknown keys are not created.
func (cc *CrudController[T]) Update(c *gin.Context) {
	key := c.Param("id")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing resource id"})
		return
	}
	var item T
	if !cc.bind(c, &item, func(item *T) {
		if cc.SetKey != nil {
			cc.SetKey(item, key)
		}
	}) {
		return
	}
	updated, ticket := cc.Service.Update(item)
	if updated {
		writeRemoteStatus(c, ticket)
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// Delete handles DELETE requests. Deleting an unknown key still records it
// as deleted.
func (cc *CrudController[T]) Delete(c *gin.Context) {
	key := c.Param("id")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing resource id"})
		return
	}
	ticket := cc.Service.Delete(key)
	writeRemoteStatus(c, ticket)
	c.JSON(http.StatusOK, gin.H{"deleted": key})
}

// bind decodes the body, applies fix (if any) and validates the result.
func (cc *CrudController[T]) bind(c *gin.Context, item *T, fix func(*T)) bool {
	if err := c.ShouldBindJSON(item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return false
	}
	if fix != nil {
		fix(item)
	}
	if cc.Validator != nil {
		if err := cc.Validator.Validate(*item); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return false
		}
	}
	return true
}

func (cc *CrudController[T]) component() string {
	if cc.Component == "" {
		return "crud-controller"
	}
	return cc.Component
}

// writeRemoteStatus sets the X-Remote-Status header. With ?wait=true the
// handler blocks until the remote write finishes or the request times out.
func writeRemoteStatus(c *gin.Context, ticket *propagate.Ticket) {
	if ticket == nil {
		return
	}
	if c.Query("wait") == "true" {
		_ = ticket.Wait(c.Request.Context())
	}
	c.Header(middleware.RemoteStatusHeader, remoteStatus(ticket))
}

func remoteStatus(ticket *propagate.Ticket) string {
	select {
	case <-ticket.Done():
	default:
		return "pending"
	}
	err := ticket.Err()
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, propagate.ErrOffline):
		return "offline"
	case errors.Is(err, propagate.ErrClosed), errors.Is(err, context.Canceled):
		return "cancelled"
	default:
		return "failed"
	}
}
