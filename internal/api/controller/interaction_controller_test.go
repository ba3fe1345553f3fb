package controller

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neoarchive/neoarchive/internal/cache"
	"github.com/neoarchive/neoarchive/internal/repository"
)

func newInteractionRouter(store *cache.Store) *gin.Engine {
	ic := NewInteractionController(store, store, store)
	r := gin.New()
	api := r.Group("/api")
	api.POST("/exhibits/:id/like", ic.ToggleLike)
	api.POST("/exhibits/:id/comments", ic.AddComment)
	api.DELETE("/exhibits/:id/comments/:commentId", ic.DeleteComment)
	api.POST("/exhibits/:id/view", ic.RecordView)
	api.POST("/users/:id/follow", ic.ToggleFollow)
	api.POST("/notifications/read", ic.MarkNotificationsRead)
	api.POST("/messages/read", ic.MarkConversationRead)
	return r
}

func TestInteractionController_Exhibit(t *testing.T) {
	store := cache.NewStore(nil, nil)
	store.CreateExhibit(repository.Exhibit{ID: "walkman", Title: "Walkman", Owner: "ada"})
	r := newInteractionRouter(store)

	w := doJSON(r, http.MethodPost, "/api/exhibits/walkman/like", map[string]string{"username": "grace"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"liked":true}`, w.Body.String())

	w = doJSON(r, http.MethodPost, "/api/exhibits/walkman/like", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/api/exhibits/walkman/comments", map[string]string{"author": "grace", "text": "mint!"})
	require.Equal(t, http.StatusCreated, w.Code)
	var comment repository.Comment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &comment))
	assert.NotEmpty(t, comment.ID)

	w = doJSON(r, http.MethodPost, "/api/exhibits/walkman/comments", map[string]string{"author": "grace"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/api/exhibits/missing/comments", map[string]string{"author": "grace", "text": "?"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodDelete, "/api/exhibits/walkman/comments/"+comment.ID, nil)
	assert.JSONEq(t, `{"deleted":true}`, w.Body.String())

	w = doJSON(r, http.MethodPost, "/api/exhibits/walkman/view", nil)
	assert.JSONEq(t, `{"views":1}`, w.Body.String())

	w = doJSON(r, http.MethodPost, "/api/exhibits/missing/view", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	e, _ := store.Exhibit("walkman")
	assert.Equal(t, 1, e.Likes)
	assert.Empty(t, e.Comments)
}

func TestInteractionController_FollowAndRead(t *testing.T) {
	store := cache.NewStore(nil, nil)
	store.CreateUser(repository.UserProfile{Username: "ada"})
	store.CreateNotification(repository.Notification{ID: "n1", Type: "like", Recipient: "ada"})
	store.CreateMessage(repository.Message{ID: "m1", Sender: "grace", Receiver: "ada", Text: "hi"})
	r := newInteractionRouter(store)

	w := doJSON(r, http.MethodPost, "/api/users/grace/follow", map[string]string{"follower": "ada"})
	assert.JSONEq(t, `{"following":true}`, w.Body.String())

	w = doJSON(r, http.MethodPost, "/api/notifications/read", map[string]string{"username": "ada"})
	assert.JSONEq(t, `{"marked":1}`, w.Body.String())
	// no remote configured
	assert.Equal(t, "offline", w.Header().Get("X-Remote-Status"))

	w = doJSON(r, http.MethodPost, "/api/notifications/read", map[string]string{"username": "ada"})
	assert.JSONEq(t, `{"marked":0}`, w.Body.String())
	assert.Equal(t, "ok", w.Header().Get("X-Remote-Status"))

	w = doJSON(r, http.MethodPost, "/api/messages/read", map[string]string{"reader": "ada", "peer": "grace"})
	assert.JSONEq(t, `{"marked":1}`, w.Body.String())

	w = doJSON(r, http.MethodPost, "/api/messages/read", map[string]string{"reader": "ada"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
