package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"campus-connect/internal/domain"
	"campus-connect/internal/service"
)

type EventHandler struct {
	logger *zap.Logger
	events *service.EventService
}

func NewEventHandler(logger *zap.Logger, events *service.EventService) *EventHandler {
	return &EventHandler{logger: logger, events: events}
}

// eventView agrega los cupos disponibles a la respuesta.
type eventView struct {
	domain.Event
	AvailableSpots int `json:"available_spots"`
}

func viewEvent(e domain.Event) eventView {
	return eventView{Event: e, AvailableSpots: e.AvailableSpots()}
}

func viewEvents(events []domain.Event) []eventView {
	out := make([]eventView, 0, len(events))
	for _, e := range events {
		out = append(out, viewEvent(e))
	}
	return out
}

// List maneja GET /api/events (acepta ?category=).
func (h *EventHandler) List(c *gin.Context) {
	if category := c.Query("category"); category != "" {
		h.listByCategory(c, category)
		return
	}
	events, err := h.events.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.logger, "list events", err)
		return
	}
	respondOK(c, http.StatusOK, "Events retrieved", gin.H{"events": viewEvents(events), "count": len(events)})
}

// ListByCategory maneja GET /api/events/category/:category.
func (h *EventHandler) ListByCategory(c *gin.Context) {
	h.listByCategory(c, c.Param("category"))
}

func (h *EventHandler) listByCategory(c *gin.Context, category string) {
	events, err := h.events.ListByCategory(c.Request.Context(), category)
	if err != nil {
		respondServiceError(c, h.logger, "list events by category", err)
		return
	}
	respondOK(c, http.StatusOK, "Events retrieved", gin.H{"events": viewEvents(events), "count": len(events)})
}

// Get maneja GET /api/events/:id.
func (h *EventHandler) Get(c *gin.Context) {
	e, err := h.events.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, h.logger, "get event", err)
		return
	}
	respondOK(c, http.StatusOK, "Event retrieved", viewEvent(e))
}

// Create maneja POST /api/events.
func (h *EventHandler) Create(c *gin.Context) {
	user, ok := mustUser(c)
	if !ok {
		return
	}
	var req struct {
		Title        string   `json:"title" binding:"required,max=200"`
		Description  string   `json:"description" binding:"required,max=2000"`
		Category     string   `json:"category" binding:"required"`
		Date         string   `json:"date" binding:"required"`
		Time         string   `json:"time" binding:"required,max=20"`
		Location     string   `json:"location" binding:"required,max=200"`
		Organizer    string   `json:"organizer" binding:"required,max=200"`
		MaxAttendees int      `json:"max_attendees" binding:"required,gt=0"`
		Image        string   `json:"image" binding:"omitempty,max=500"`
		Tags         []string `json:"tags" binding:"max=10,dive,max=50"`
	}
	if !bindJSON(c, h.logger, &req) {
		return
	}
	e, err := h.events.Create(c.Request.Context(), user.ID, service.CreateEventInput{
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Date:         req.Date,
		Time:         req.Time,
		Location:     req.Location,
		Organizer:    req.Organizer,
		MaxAttendees: req.MaxAttendees,
		ImageURL:     req.Image,
		Tags:         req.Tags,
	})
	if err != nil {
		respondServiceError(c, h.logger, "create event", err)
		return
	}
	respondOK(c, http.StatusCreated, "Event created", viewEvent(e))
}

// Join maneja POST /api/events/:id/join.
func (h *EventHandler) Join(c *gin.Context) {
	user, ok := mustUser(c)
	if !ok {
		return
	}
	e, err := h.events.Join(c.Request.Context(), c.Param("id"), user.ID)
	if err != nil {
		respondServiceError(c, h.logger, "join event", err)
		return
	}
	respondOK(c, http.StatusOK, "Successfully joined event", viewEvent(e))
}

// Leave maneja POST /api/events/:id/leave.
func (h *EventHandler) Leave(c *gin.Context) {
	user, ok := mustUser(c)
	if !ok {
		return
	}
	e, err := h.events.Leave(c.Request.Context(), c.Param("id"), user.ID)
	if err != nil {
		respondServiceError(c, h.logger, "leave event", err)
		return
	}
	respondOK(c, http.StatusOK, "Successfully left event", viewEvent(e))
}

// Save maneja POST /api/events/:id/save.
func (h *EventHandler) Save(c *gin.Context) {
	user, ok := mustUser(c)
	if !ok {
		return
	}
	if err := h.events.Save(c.Request.Context(), c.Param("id"), user.ID); err != nil {
		respondServiceError(c, h.logger, "save event", err)
		return
	}
	respondOK(c, http.StatusOK, "Event saved", gin.H{"event_id": c.Param("id"), "is_saved": true})
}

// Unsave maneja DELETE /api/events/:id/save.
func (h *EventHandler) Unsave(c *gin.Context) {
	user, ok := mustUser(c)
	if !ok {
		return
	}
	if err := h.events.Unsave(c.Request.Context(), c.Param("id"), user.ID); err != nil {
		respondServiceError(c, h.logger, "unsave event", err)
		return
	}
	respondOK(c, http.StatusOK, "Event removed from saved", gin.H{"event_id": c.Param("id"), "is_saved": false})
}

// Status maneja GET /api/events/:id/status.
func (h *EventHandler) Status(c *gin.Context) {
	user, ok := mustUser(c)
	if !ok {
		return
	}
	st, err := h.events.Status(c.Request.Context(), c.Param("id"), user.ID)
	if err != nil {
		respondServiceError(c, h.logger, "event status", err)
		return
	}
	respondOK(c, http.StatusOK, "Event status retrieved", st)
}
