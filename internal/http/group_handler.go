package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"campus-connect/internal/service"
)

type GroupHandler struct {
	logger *zap.Logger
	groups *service.GroupService
}

func NewGroupHandler(logger *zap.Logger, groups *service.GroupService) *GroupHandler {
	return &GroupHandler{logger: logger, groups: groups}
}

// List maneja GET /api/groups (acepta ?category=).
func (h *GroupHandler) List(c *gin.Context) {
	if category := c.Query("category"); category != "" {
		h.listByCategory(c, category)
		return
	}
	groups, err := h.groups.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.logger, "list groups", err)
		return
	}
	respondOK(c, http.StatusOK, "Groups retrieved", gin.H{"groups": groups, "count": len(groups)})
}

// ListByCategory maneja GET /api/groups/category/:category.
func (h *GroupHandler) ListByCategory(c *gin.Context) {
	h.listByCategory(c, c.Param("category"))
}

func (h *GroupHandler) listByCategory(c *gin.Context, category string) {
	groups, err := h.groups.ListByCategory(c.Request.Context(), category)
	if err != nil {
		respondServiceError(c, h.logger, "list groups by category", err)
		return
	}
	respondOK(c, http.StatusOK, "Groups retrieved", gin.H{"groups": groups, "count": len(groups)})
}

// Get maneja GET /api/groups/:id.
func (h *GroupHandler) Get(c *gin.Context) {
	g, err := h.groups.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, h.logger, "get group", err)
		return
	}
	respondOK(c, http.StatusOK, "Group retrieved", g)
}

// Create maneja POST /api/groups; el creador queda como miembro.
func (h *GroupHandler) Create(c *gin.Context) {
	user, ok := mustUser(c)
	if !ok {
		return
	}
	var req struct {
		Name        string   `json:"name" binding:"required,max=200"`
		Description string   `json:"description" binding:"required,max=2000"`
		Category    string   `json:"category" binding:"required"`
		MeetingTime string   `json:"meetingTime" binding:"required,max=200"`
		Location    string   `json:"location" binding:"required,max=200"`
		Contact     string   `json:"contact" binding:"required,max=200"`
		Image       string   `json:"image" binding:"omitempty,max=500"`
		Tags        []string `json:"tags" binding:"max=10,dive,max=50"`
	}
	if !bindJSON(c, h.logger, &req) {
		return
	}
	g, err := h.groups.Create(c.Request.Context(), user.ID, service.CreateGroupInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		MeetingTime: req.MeetingTime,
		Location:    req.Location,
		Contact:     req.Contact,
		ImageURL:    req.Image,
		Tags:        req.Tags,
	})
	if err != nil {
		respondServiceError(c, h.logger, "create group", err)
		return
	}
	respondOK(c, http.StatusCreated, "Group created", g)
}

// Join maneja POST /api/groups/:id/join con un mensaje opcional.
func (h *GroupHandler) Join(c *gin.Context) {
	user, ok := mustUser(c)
	if !ok {
		return
	}
	var req struct {
		Message string `json:"message" binding:"max=500"`
	}
	if !bindOptionalJSON(c, h.logger, &req) {
		return
	}
	g, err := h.groups.Join(c.Request.Context(), c.Param("id"), user.ID, req.Message)
	if err != nil {
		respondServiceError(c, h.logger, "join group", err)
		return
	}
	respondOK(c, http.StatusOK, "Successfully joined group", g)
}

// Leave maneja POST /api/groups/:id/leave.
func (h *GroupHandler) Leave(c *gin.Context) {
	user, ok := mustUser(c)
	if !ok {
		return
	}
	g, err := h.groups.Leave(c.Request.Context(), c.Param("id"), user.ID)
	if err != nil {
		respondServiceError(c, h.logger, "leave group", err)
		return
	}
	respondOK(c, http.StatusOK, "Successfully left group", g)
}
