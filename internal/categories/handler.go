package categories

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/chronoplan/backend/internal/middleware"
	"github.com/chronoplan/backend/pkg/response"
)

// CategoryRequest is the body for POST /categories and PUT /categories/:id.
type CategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

// Handler handles category HTTP endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a category handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Create handles POST /categories.
func (h *Handler) Create(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	actor := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	category, err := h.svc.Create(c.Request.Context(), actor, Input{
		Name:        req.Name,
		Color:       req.Color,
		Description: req.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, category)
}

// List handles GET /categories. Optional ?has_events=true|false filters to
// categories with or without events.
func (h *Handler) List(c *gin.Context) {
	var hasEvents *bool
	if s := c.Query("has_events"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			response.BadRequest(c, "invalid has_events")
			return
		}
		hasEvents = &v
	}
	actor := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.svc.List(c.Request.Context(), actor, hasEvents)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// Get handles GET /categories/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid category id")
		return
	}
	actor := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	category, err := h.svc.Get(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, category)
}

// Update handles PUT /categories/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid category id")
		return
	}
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	actor := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	category, err := h.svc.Update(c.Request.Context(), actor, id, Input{
		Name:        req.Name,
		Color:       req.Color,
		Description: req.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, category)
}

// Delete handles DELETE /categories/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid category id")
		return
	}
	actor := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if err := h.svc.Delete(c.Request.Context(), actor, id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
