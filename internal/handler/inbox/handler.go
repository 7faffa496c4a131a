package inbox

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/scholarhub/notify-api/pkg/errors"
	"github.com/scholarhub/notify-api/pkg/httputil"

	"github.com/scholarhub/notify-api/internal/middleware"
	"github.com/scholarhub/notify-api/internal/model"
	"github.com/scholarhub/notify-api/internal/service/inbox"
)

type Handler struct {
	service *inbox.Service
}

func NewHandler(service *inbox.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires the public receipt endpoint and the operator surface.
// The caller applies authentication; scopes are enforced here.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	entries := r.Group("/inbox")
	{
		entries.POST("", auth.RequireScope(model.ScopeInbox), h.Receive)
		entries.GET("", auth.RequireScope(model.ScopeAdmin), h.List)
		entries.GET("/:id", auth.RequireScope(model.ScopeAdmin), h.Get)
		entries.POST("/:id/reopen", auth.RequireScope(model.ScopeAdmin), h.Reopen)
	}
}

// Receive accepts one delivered notification. On success the entry is stored
// for asynchronous processing and a 202 receipt points at it.
func (h *Handler) Receive(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthorized(nil))
		return
	}

	raw, err := c.GetRawData()
	if err != nil || len(raw) == 0 {
		httputil.RespondWithError(c, apperrors.BadRequest("empty request body", err))
		return
	}

	receipt, err := h.service.Receive(c.Request.Context(), raw, user)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	c.Header("Location", receipt.Location)
	c.JSON(http.StatusAccepted, gin.H{
		"status":   "accepted",
		"location": receipt.Location,
	})
}

// List returns unprocessed entries, or a text search across the whole inbox
// when a q parameter is given.
func (h *Handler) List(c *gin.Context) {
	if term := c.Query("q"); term != "" {
		var page model.Pagination
		if err := c.ShouldBindQuery(&page); err != nil {
			httputil.RespondWithError(c, apperrors.BadRequest("invalid pagination", err))
			return
		}
		entries, err := h.service.Search(c.Request.Context(), term, page)
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}
		httputil.RespondWithSuccess(c, entries)
		return
	}

	entries, err := h.service.Unprocessed(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, entries)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid entry id", err))
		return
	}

	entry, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, entry)
}

func (h *Handler) Reopen(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid entry id", err))
		return
	}

	if err := h.service.Reopen(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"reopened": id})
}
