package route

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/neoarchive/neoarchive/internal/api/controller"
	"github.com/neoarchive/neoarchive/internal/api/middleware"
	"github.com/neoarchive/neoarchive/internal/cache"
)

// EntityStore is everything the entity routes need; cache.Store implements it.
type EntityStore interface {
	cache.UserStore
	cache.ExhibitStore
	cache.CollectionStore
	cache.NotificationStore
	cache.MessageStore
	cache.GuestbookStore
	cache.InteractionStore
}

func NewEntityRouter(timeout time.Duration, group *gin.RouterGroup, store EntityStore) {
	group.Use(middleware.RequestTimeout(timeout))

	controller.NewUserController(store).RegisterCrudRoutes(group, "users")
	controller.NewExhibitController(store).RegisterCrudRoutes(group, "exhibits")
	controller.NewCollectionController(store).RegisterCrudRoutes(group, "collections")
	controller.NewNotificationController(store).RegisterCrudRoutes(group, "notifications")
	controller.NewMessageController(store).RegisterCrudRoutes(group, "messages")
	controller.NewGuestbookController(store).RegisterCrudRoutes(group, "guestbook")

	ic := controller.NewInteractionController(store, store, store)

	group.POST("exhibits/:id/like", ic.ToggleLike)
	group.POST("exhibits/:id/comments", ic.AddComment)
	group.DELETE("exhibits/:id/comments/:commentId", ic.DeleteComment)
	group.POST("exhibits/:id/view", ic.RecordView)
	group.POST("users/:id/follow", ic.ToggleFollow)
	group.POST("notifications/read", ic.MarkNotificationsRead)
	group.POST("messages/read", ic.MarkConversationRead)
}
