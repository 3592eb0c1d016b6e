package events

import (
	"path"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chronoplan/backend/internal/middleware"
	"github.com/chronoplan/backend/internal/permissions"
	"github.com/chronoplan/backend/pkg/response"
	"github.com/chronoplan/backend/pkg/storage"
)

// AttachmentHandler serves pre-signed URLs for event attachments. Upload and
// delete require edit access on the event; listing and download require read
// access.
type AttachmentHandler struct {
	resolver *permissions.Resolver
	s3       *storage.S3
	logger   *zap.Logger
}

// NewAttachmentHandler creates an attachment handler.
func NewAttachmentHandler(resolver *permissions.Resolver, s3 *storage.S3, logger *zap.Logger) *AttachmentHandler {
	return &AttachmentHandler{resolver: resolver, s3: s3, logger: logger}
}

type uploadURLRequest struct {
	Filename string `json:"filename" binding:"required"`
}

// UploadURL handles POST /events/:id/attachments/upload-url.
func (h *AttachmentHandler) UploadURL(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	var req uploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if !storage.ValidAttachmentFilename(req.Filename) {
		response.BadRequest(c, "file type not allowed")
		return
	}
	actor := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	ctx := c.Request.Context()
	if _, err := h.resolver.ResolveEventEdit(ctx, actor, eventID); err != nil {
		response.Error(c, err)
		return
	}
	key := storage.AttachmentKey(eventID.String(), req.Filename)
	url, err := h.s3.GeneratePresignedUploadURL(ctx, key, storage.ContentTypeForFilename(req.Filename), h.s3.PresignExpire())
	if err != nil {
		h.logger.Error("presign upload failed", zap.String("key", key), zap.Error(err))
		response.Internal(c, "could not generate upload URL")
		return
	}
	response.OK(c, gin.H{
		"upload_url": url,
		"key":        key,
		"max_size":   storage.MaxAttachmentSize,
	})
}

// List handles GET /events/:id/attachments.
func (h *AttachmentHandler) List(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	actor := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	ctx := c.Request.Context()
	if _, err := h.resolver.ResolveEventRead(ctx, actor, eventID); err != nil {
		response.Error(c, err)
		return
	}
	keys, err := h.s3.ListAttachments(ctx, eventID.String())
	if err != nil {
		h.logger.Error("list attachments failed", zap.String("event_id", eventID.String()), zap.Error(err))
		response.Internal(c, "could not list attachments")
		return
	}
	type attachment struct {
		Key      string `json:"key"`
		Filename string `json:"filename"`
	}
	list := make([]attachment, len(keys))
	for i, k := range keys {
		list[i] = attachment{Key: k, Filename: path.Base(k)}
	}
	response.OK(c, list)
}

// DownloadURL handles GET /events/:id/attachments/download-url?filename=.
func (h *AttachmentHandler) DownloadURL(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	filename := c.Query("filename")
	if filename == "" {
		response.BadRequest(c, "filename is required")
		return
	}
	actor := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	ctx := c.Request.Context()
	if _, err := h.resolver.ResolveEventRead(ctx, actor, eventID); err != nil {
		response.Error(c, err)
		return
	}
	key := storage.AttachmentKey(eventID.String(), filename)
	url, err := h.s3.GeneratePresignedDownloadURL(ctx, key, h.s3.PresignExpire())
	if err != nil {
		h.logger.Error("presign download failed", zap.String("key", key), zap.Error(err))
		response.Internal(c, "could not generate download URL")
		return
	}
	response.OK(c, gin.H{"download_url": url})
}

// Delete handles DELETE /events/:id/attachments?filename=.
func (h *AttachmentHandler) Delete(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	filename := c.Query("filename")
	if filename == "" {
		response.BadRequest(c, "filename is required")
		return
	}
	actor := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	ctx := c.Request.Context()
	if _, err := h.resolver.ResolveEventEdit(ctx, actor, eventID); err != nil {
		response.Error(c, err)
		return
	}
	key := storage.AttachmentKey(eventID.String(), filename)
	if err := h.s3.DeleteAttachment(ctx, key); err != nil {
		h.logger.Error("delete attachment failed", zap.String("key", key), zap.Error(err))
		response.Internal(c, "could not delete attachment")
		return
	}
	response.NoContent(c)
}
