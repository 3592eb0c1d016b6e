package events

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/chronoplan/backend/internal/middleware"
	"github.com/chronoplan/backend/internal/models"
	"github.com/chronoplan/backend/pkg/response"
)

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// ReminderRequest is one reminder entry in an event draft.
type ReminderRequest struct {
	MinutesBefore int   `json:"minutes_before"`
	IsActive      *bool `json:"is_active"` // defaults to true
}

// EventRequest is the body for POST /events and PUT /events/:id. Update
// replaces the full draft including the reminder set.
type EventRequest struct {
	Title       string            `json:"title" binding:"required"`
	Description string            `json:"description"`
	StartTime   string            `json:"start_time" binding:"required"`
	EndTime     string            `json:"end_time" binding:"required"`
	Location    string            `json:"location"`
	CategoryID  *string           `json:"category_id"`
	Reminders   []ReminderRequest `json:"reminders"`
}

// StatusRequest is the body for PATCH /events/:id/status.
type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// Handler handles event HTTP endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates an event handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) draftFromRequest(c *gin.Context, req EventRequest) (Draft, bool) {
	var draft Draft
	start, err := parseTime(req.StartTime)
	if err != nil {
		response.BadRequest(c, "invalid start_time")
		return draft, false
	}
	end, err := parseTime(req.EndTime)
	if err != nil {
		response.BadRequest(c, "invalid end_time")
		return draft, false
	}
	var categoryID *uuid.UUID
	if req.CategoryID != nil && *req.CategoryID != "" {
		id, err := uuid.Parse(*req.CategoryID)
		if err != nil {
			response.BadRequest(c, "invalid category_id")
			return draft, false
		}
		categoryID = &id
	}
	reminders := make([]ReminderInput, len(req.Reminders))
	for i, r := range req.Reminders {
		active := true
		if r.IsActive != nil {
			active = *r.IsActive
		}
		reminders[i] = ReminderInput{MinutesBefore: r.MinutesBefore, IsActive: active}
	}
	return Draft{
		Title:       req.Title,
		Description: req.Description,
		StartTime:   start,
		EndTime:     end,
		Location:    req.Location,
		CategoryID:  categoryID,
		Reminders:   reminders,
	}, true
}

// Create handles POST /events.
func (h *Handler) Create(c *gin.Context) {
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	draft, ok := h.draftFromRequest(c, req)
	if !ok {
		return
	}
	actor := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	proj, err := h.svc.Create(c.Request.Context(), actor, draft)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, proj)
}

// Get handles GET /events/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	actor := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	proj, err := h.svc.Get(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, proj)
}

// Update handles PUT /events/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	draft, ok := h.draftFromRequest(c, req)
	if !ok {
		return
	}
	actor := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	proj, err := h.svc.Update(c.Request.Context(), actor, id, draft)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, proj)
}

// Delete handles DELETE /events/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	actor := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if err := h.svc.Delete(c.Request.Context(), actor, id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UpdateStatus handles PATCH /events/:id/status.
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	actor := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	event, err := h.svc.UpdateStatus(c.Request.Context(), actor, id, models.EventStatus(req.Status))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, event)
}

// List handles GET /events. Optional filters: from+to (RFC3339 range) or
// category_id; without filters it returns all of the actor's events.
func (h *Handler) List(c *gin.Context) {
	actor := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	ctx := c.Request.Context()

	if catStr := c.Query("category_id"); catStr != "" {
		catID, err := uuid.Parse(catStr)
		if err != nil {
			response.BadRequest(c, "invalid category_id")
			return
		}
		list, err := h.svc.ListByCategory(ctx, actor, catID)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, list)
		return
	}

	fromStr, toStr := c.Query("from"), c.Query("to")
	if fromStr != "" || toStr != "" {
		from, err := parseTime(fromStr)
		if err != nil {
			response.BadRequest(c, "invalid from")
			return
		}
		to, err := parseTime(toStr)
		if err != nil {
			response.BadRequest(c, "invalid to")
			return
		}
		list, err := h.svc.ListRange(ctx, actor, from, to)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, list)
		return
	}

	list, err := h.svc.ListMine(ctx, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// ListShared handles GET /events/shared.
func (h *Handler) ListShared(c *gin.Context) {
	actor := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.svc.ListShared(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// ListMonth handles GET /events/month?year=&month=.
func (h *Handler) ListMonth(c *gin.Context) {
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		response.BadRequest(c, "invalid year")
		return
	}
	month, err := strconv.Atoi(c.Query("month"))
	if err != nil || month < 1 || month > 12 {
		response.BadRequest(c, "invalid month")
		return
	}
	actor := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.svc.ListMonth(c.Request.Context(), actor, year, time.Month(month))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// ListWeek handles GET /events/week?year=&week=.
func (h *Handler) ListWeek(c *gin.Context) {
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		response.BadRequest(c, "invalid year")
		return
	}
	week, err := strconv.Atoi(c.Query("week"))
	if err != nil {
		response.BadRequest(c, "invalid week")
		return
	}
	actor := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.svc.ListWeek(c.Request.Context(), actor, year, week)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// ListDay handles GET /events/day?date=YYYY-MM-DD.
func (h *Handler) ListDay(c *gin.Context) {
	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		response.BadRequest(c, "invalid date, expected YYYY-MM-DD")
		return
	}
	actor := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.svc.ListDay(c.Request.Context(), actor, date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// Overlaps handles GET /events/overlaps?start=&end=&exclude_id=. It reports
// which of the actor's events would collide with a candidate range.
func (h *Handler) Overlaps(c *gin.Context) {
	start, err := parseTime(c.Query("start"))
	if err != nil {
		response.BadRequest(c, "invalid start")
		return
	}
	end, err := parseTime(c.Query("end"))
	if err != nil {
		response.BadRequest(c, "invalid end")
		return
	}
	var excludeID *uuid.UUID
	if s := c.Query("exclude_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			response.BadRequest(c, "invalid exclude_id")
			return
		}
		excludeID = &id
	}
	actor := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.svc.FindOverlapping(c.Request.Context(), actor, start, end, excludeID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}
