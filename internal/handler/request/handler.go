package request

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/scholarhub/notify-api/pkg/errors"
	"github.com/scholarhub/notify-api/pkg/httputil"

	"github.com/scholarhub/notify-api/internal/middleware"
	"github.com/scholarhub/notify-api/internal/service/endorsement"
	"github.com/scholarhub/notify-api/internal/service/request"
)

type Handler struct {
	service        *request.Service
	endorsementSvc *endorsement.Service
}

func NewHandler(service *request.Service, endorsementSvc *endorsement.Service) *Handler {
	return &Handler{service: service, endorsementSvc: endorsementSvc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	records := r.Group("/records/:id")
	{
		records.POST("/endorsement-requests", h.Send)
		records.GET("/endorsement-requests/available", h.AvailableActors)
		records.GET("/endorsements", h.EndorsementInfo)
	}

	requests := r.Group("/endorsement-requests")
	{
		requests.GET("/:id", h.Get)
		requests.GET("/:id/replies", h.ListReplies)
	}
}

type sendRequest struct {
	ActorID uuid.UUID `json:"actor_id" binding:"required"`
}

// Send delivers an offer-of-endorsement to the actor's inbox on behalf of
// the authenticated record owner.
func (h *Handler) Send(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthorized(nil))
		return
	}

	recordID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid record id", err))
		return
	}

	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request payload", err))
		return
	}

	sent, err := h.service.Send(c.Request.Context(), recordID, user.ID, req.ActorID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, sent)
}

func (h *Handler) AvailableActors(c *gin.Context) {
	recordID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid record id", err))
		return
	}

	actors, err := h.service.AvailableActors(c.Request.Context(), recordID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, actors)
}

// EndorsementInfo returns the record's endorsements grouped by actor.
func (h *Handler) EndorsementInfo(c *gin.Context) {
	recordID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid record id", err))
		return
	}

	info, err := h.endorsementSvc.Info(c.Request.Context(), recordID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, info)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request id", err))
		return
	}

	req, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, req)
}

func (h *Handler) ListReplies(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request id", err))
		return
	}

	replies, err := h.service.ListReplies(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, replies)
}
