package shares

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/chronoplan/backend/internal/middleware"
	"github.com/chronoplan/backend/internal/models"
	"github.com/chronoplan/backend/pkg/response"
)

// ShareRequest is the body for POST /events/:id/shares.
type ShareRequest struct {
	UserID     string `json:"user_id" binding:"required"`
	Permission string `json:"permission" binding:"required"`
}

// PermissionRequest is the body for PUT /events/:id/shares/:user_id.
type PermissionRequest struct {
	Permission string `json:"permission" binding:"required"`
}

// Handler handles sharing HTTP endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a sharing handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func pathIDs(c *gin.Context) (eventID, userID uuid.UUID, ok bool) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return eventID, userID, false
	}
	userID, err = uuid.Parse(c.Param("user_id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return eventID, userID, false
	}
	return eventID, userID, true
}

// Create handles POST /events/:id/shares.
func (h *Handler) Create(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	var req ShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	recipientID, err := uuid.Parse(req.UserID)
	if err != nil {
		response.BadRequest(c, "invalid user_id")
		return
	}
	actor := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	share, err := h.svc.Share(c.Request.Context(), actor, eventID, recipientID, models.Permission(req.Permission))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, share)
}

// ListForEvent handles GET /events/:id/shares.
func (h *Handler) ListForEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	actor := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.svc.ListForEvent(c.Request.Context(), actor, eventID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// Get handles GET /events/:id/shares/:user_id.
func (h *Handler) Get(c *gin.Context) {
	eventID, userID, ok := pathIDs(c)
	if !ok {
		return
	}
	actor := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	share, err := h.svc.GetShare(c.Request.Context(), actor, eventID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, share)
}

// UpdatePermission handles PUT /events/:id/shares/:user_id.
func (h *Handler) UpdatePermission(c *gin.Context) {
	eventID, userID, ok := pathIDs(c)
	if !ok {
		return
	}
	var req PermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	actor := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	share, err := h.svc.ChangePermission(c.Request.Context(), actor, eventID, userID, models.Permission(req.Permission))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, share)
}

// Delete handles DELETE /events/:id/shares/:user_id.
func (h *Handler) Delete(c *gin.Context) {
	eventID, userID, ok := pathIDs(c)
	if !ok {
		return
	}
	actor := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if err := h.svc.Unshare(c.Request.Context(), actor, eventID, userID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListReceived handles GET /shares/received. With ?editable=true only
// EDIT-tier shares are returned.
func (h *Handler) ListReceived(c *gin.Context) {
	actor := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	var (
		list []models.Share
		err  error
	)
	if c.Query("editable") == "true" {
		list, err = h.svc.ListEditable(c.Request.Context(), actor)
	} else {
		list, err = h.svc.ListReceived(c.Request.Context(), actor)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// ListGiven handles GET /shares/given.
func (h *Handler) ListGiven(c *gin.Context) {
	actor := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.svc.ListGiven(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}
