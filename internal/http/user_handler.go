package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"campus-connect/internal/service"
)

// UserHandler expone la vista publica de las cuentas y su actividad.
type UserHandler struct {
	logger   *zap.Logger
	profiles *service.ProfileService
	posts    *service.PostService
	events   *service.EventService
	groups   *service.GroupService
}

// NewUserHandler crea una instancia de UserHandler con dependencias necesarias.
func NewUserHandler(
	logger *zap.Logger,
	profiles *service.ProfileService,
	posts *service.PostService,
	events *service.EventService,
	groups *service.GroupService,
) *UserHandler {
	return &UserHandler{
		logger:   logger,
		profiles: profiles,
		posts:    posts,
		events:   events,
		groups:   groups,
	}
}

// GetUser maneja GET /api/users/:id.
func (h *UserHandler) GetUser(c *gin.Context) {
	profile, err := h.profiles.PublicProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, h.logger, "get user", err)
		return
	}
	respondOK(c, http.StatusOK, "User retrieved", profile)
}

// UserPosts maneja GET /api/users/:id/posts.
func (h *UserHandler) UserPosts(c *gin.Context) {
	if !h.exists(c) {
		return
	}
	posts, err := h.posts.ListByAuthor(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, h.logger, "list user posts", err)
		return
	}
	respondOK(c, http.StatusOK, "User posts retrieved", gin.H{"posts": posts, "count": len(posts)})
}

// UserEvents maneja GET /api/users/:id/events.
func (h *UserHandler) UserEvents(c *gin.Context) {
	if !h.exists(c) {
		return
	}
	events, err := h.events.UserEvents(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, h.logger, "list user events", err)
		return
	}
	respondOK(c, http.StatusOK, "User events retrieved", gin.H{
		"joined_events": viewEvents(events.Joined),
		"saved_events":  viewEvents(events.Saved),
	})
}

// UserGroups maneja GET /api/users/:id/groups.
func (h *UserHandler) UserGroups(c *gin.Context) {
	if !h.exists(c) {
		return
	}
	groups, err := h.groups.UserGroups(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, h.logger, "list user groups", err)
		return
	}
	respondOK(c, http.StatusOK, "User groups retrieved", gin.H{"groups": groups, "count": len(groups)})
}

func (h *UserHandler) exists(c *gin.Context) bool {
	if _, err := h.profiles.Get(c.Request.Context(), c.Param("id")); err != nil {
		respondServiceError(c, h.logger, "get user", err)
		return false
	}
	return true
}
