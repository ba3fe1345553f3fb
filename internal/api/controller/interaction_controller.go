package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/neoarchive/neoarchive/internal/cache"
	"github.com/neoarchive/neoarchive/internal/logger"
	"github.com/neoarchive/neoarchive/internal/repository"
)

// InteractionController handles likes, comments, views, follows and read markers.
type InteractionController struct {
	store         cache.InteractionStore
	notifications cache.NotificationStore
	messages      cache.MessageStore
}

func NewInteractionController(store cache.InteractionStore, notifications cache.NotificationStore, messages cache.MessageStore) *InteractionController {
	return &InteractionController{store: store, notifications: notifications, messages: messages}
}

type usernameRequest struct {
	Username string `json:"username" binding:"required"`
}

type followRequest struct {
	Follower string `json:"follower" binding:"required"`
}

type conversationReadRequest struct {
	Reader string `json:"reader" binding:"required"`
	Peer   string `json:"peer" binding:"required"`
}

// ToggleLike handles POST /exhibits/:id/like.
func (ic *InteractionController) ToggleLike(c *gin.Context) {
	var req usernameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	liked, ticket := ic.store.ToggleLike(c.Param("id"), req.Username)
	writeRemoteStatus(c, ticket)
	c.JSON(http.StatusOK, gin.H{"liked": liked})
}

// AddComment handles POST /exhibits/:id/comments.
func (ic *InteractionController) AddComment(c *gin.Context) {
	var comment repository.Comment
	if err := c.ShouldBindJSON(&comment); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if err := validate.Struct(comment); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	created, ok, ticket := ic.store.AddComment(c.Param("id"), comment)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "exhibit not found"})
		return
	}
	writeRemoteStatus(c, ticket)
	c.JSON(http.StatusCreated, created)
}

// DeleteComment handles DELETE /exhibits/:id/comments/:commentId.
func (ic *InteractionController) DeleteComment(c *gin.Context) {
	deleted, ticket := ic.store.DeleteComment(c.Param("id"), c.Param("commentId"))
	if deleted {
		writeRemoteStatus(c, ticket)
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// RecordView handles POST /exhibits/:id/view.
func (ic *InteractionController) RecordView(c *gin.Context) {
	views, ticket := ic.store.RecordView(c.Param("id"))
	if views == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "exhibit not found"})
		return
	}
	writeRemoteStatus(c, ticket)
	c.JSON(http.StatusOK, gin.H{"views": views})
}

// ToggleFollow handles POST /users/:id/follow.
func (ic *InteractionController) ToggleFollow(c *gin.Context) {
	var req followRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	following, ticket := ic.store.ToggleFollow(req.Follower, c.Param("id"))
	writeRemoteStatus(c, ticket)
	c.JSON(http.StatusOK, gin.H{"following": following})
}

// MarkNotificationsRead handles POST /notifications/read.
func (ic *InteractionController) MarkNotificationsRead(c *gin.Context) {
	var req usernameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	n, ticket := ic.notifications.MarkNotificationsRead(req.Username)
	writeRemoteStatus(c, ticket)
	logger.WithComponent("interaction-controller").Debugf("marked %d notifications of %s as read", n, req.Username)
	c.JSON(http.StatusOK, gin.H{"marked": n})
}

// MarkConversationRead handles POST /messages/read.
func (ic *InteractionController) MarkConversationRead(c *gin.Context) {
	var req conversationReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	n, ticket := ic.messages.MarkConversationRead(req.Reader, req.Peer)
	writeRemoteStatus(c, ticket)
	c.JSON(http.StatusOK, gin.H{"marked": n})
}
