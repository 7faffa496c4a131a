package actor

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/scholarhub/notify-api/pkg/errors"
	"github.com/scholarhub/notify-api/pkg/httputil"

	"github.com/scholarhub/notify-api/internal/middleware"
	"github.com/scholarhub/notify-api/internal/model"
	"github.com/scholarhub/notify-api/internal/service/actor"
	"github.com/scholarhub/notify-api/internal/service/token"
)

type Handler struct {
	service  *actor.Service
	tokenSvc *token.Service
}

func NewHandler(service *actor.Service, tokenSvc *token.Service) *Handler {
	return &Handler{service: service, tokenSvc: tokenSvc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	actors := r.Group("/actors", auth.RequireScope(model.ScopeAdmin))
	{
		actors.POST("", h.Create)
		actors.GET("", h.List)
		actors.GET("/:id", h.Get)
		actors.PUT("/:id", h.Update)
		actors.DELETE("/:id", h.Delete)

		actors.GET("/:id/members", h.ListMembers)
		actors.POST("/:id/members/:user_id", h.AddMember)
		actors.DELETE("/:id/members/:user_id", h.RemoveMember)
		actors.POST("/:id/members/:user_id/tokens", h.IssueMemberToken)
	}
}

type actorRequest struct {
	ActorID     string `json:"actor_id" binding:"required"`
	Name        string `json:"name" binding:"required"`
	InboxURL    string `json:"inbox_url"`
	InboxToken  string `json:"inbox_api_token"`
	Description string `json:"description"`
}

func (h *Handler) Create(c *gin.Context) {
	var req actorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid actor payload", err))
		return
	}

	a := &model.Actor{
		ActorID:     req.ActorID,
		Name:        req.Name,
		InboxURL:    req.InboxURL,
		Description: req.Description,
	}
	if req.InboxToken != "" {
		a.InboxAPIToken = &req.InboxToken
	}

	if err := h.service.Create(c.Request.Context(), a); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, a)
}

func (h *Handler) List(c *gin.Context) {
	actors, err := h.service.List(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, actors)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid actor id", err))
		return
	}

	a, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, a)
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid actor id", err))
		return
	}

	var req actorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid actor payload", err))
		return
	}

	a := &model.Actor{
		ActorID:     req.ActorID,
		Name:        req.Name,
		InboxURL:    req.InboxURL,
		Description: req.Description,
	}
	a.ID = id
	if req.InboxToken != "" {
		a.InboxAPIToken = &req.InboxToken
	}

	if err := h.service.Update(c.Request.Context(), a); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, a)
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid actor id", err))
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"deleted": id})
}

func (h *Handler) ListMembers(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid actor id", err))
		return
	}

	members, err := h.service.ListMembers(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, members)
}

func (h *Handler) AddMember(c *gin.Context) {
	actorID, userID, err := memberIDs(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	if err := h.service.AddMember(c.Request.Context(), actorID, userID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, gin.H{"actor_id": actorID, "user_id": userID})
}

func (h *Handler) RemoveMember(c *gin.Context) {
	actorID, userID, err := memberIDs(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	if err := h.service.RemoveMember(c.Request.Context(), actorID, userID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"actor_id": actorID, "user_id": userID})
}

type issueTokenRequest struct {
	ExpiresInHours int `json:"expires_in_hours"`
}

// IssueMemberToken mints a delivery token for an actor member. The plaintext
// token appears in this response only.
func (h *Handler) IssueMemberToken(c *gin.Context) {
	actorID, userID, err := memberIDs(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	a, err := h.service.Get(c.Request.Context(), actorID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	member, err := h.service.IsMember(c.Request.Context(), userID, a.ActorID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	if !member {
		httputil.RespondWithError(c, apperrors.Forbidden("user is not a member of the actor", nil))
		return
	}

	var req issueTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid token request", err))
		return
	}
	var expiresAt *time.Time
	if req.ExpiresInHours > 0 {
		t := time.Now().Add(time.Duration(req.ExpiresInHours) * time.Hour)
		expiresAt = &t
	}

	plaintext, token, err := h.tokenSvc.Issue(c.Request.Context(), userID, model.ScopeInbox, expiresAt)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, gin.H{
		"token":      plaintext,
		"token_id":   token.ID,
		"scope":      token.Scope,
		"expires_at": token.ExpiresAt,
	})
}

func memberIDs(c *gin.Context) (uuid.UUID, uuid.UUID, error) {
	actorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, apperrors.BadRequest("invalid actor id", err)
	}
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, apperrors.BadRequest("invalid user id", err)
	}
	return actorID, userID, nil
}
