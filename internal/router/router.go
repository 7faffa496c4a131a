package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/scholarhub/notify-api/internal/handler"
	actorhandler "github.com/scholarhub/notify-api/internal/handler/actor"
	inboxhandler "github.com/scholarhub/notify-api/internal/handler/inbox"
	requesthandler "github.com/scholarhub/notify-api/internal/handler/request"
	"github.com/scholarhub/notify-api/internal/middleware"
)

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	inboxH   *inboxhandler.Handler
	actorH   *actorhandler.Handler
	requestH *requesthandler.Handler
	h        *handler.Handler
}

type Config struct {
	RateLimitRPS float64
	RateBurst    int
	Timeout      time.Duration
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	inboxH *inboxhandler.Handler,
	actorH *actorhandler.Handler,
	requestH *requesthandler.Handler,
	h *handler.Handler,
	config Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Timeout(middleware.TimeoutConfig{Duration: config.Timeout}),
	)

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RPS:   config.RateLimitRPS,
		Burst: config.RateBurst,
	})
	engine.Use(rateLimiter.RateLimit())

	return &Router{
		engine:   engine,
		auth:     auth,
		inboxH:   inboxH,
		actorH:   actorH,
		requestH: requestH,
		h:        h,
	}
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")

	health := api.Group("/health")
	{
		health.GET("/live", r.h.LivenessCheck)
		health.GET("/ready", r.h.ReadinessCheck)
		health.GET("/metrics", r.h.MetricsHandler)
	}

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())

	r.inboxH.RegisterRoutes(protected, r.auth)
	r.actorH.RegisterRoutes(protected, r.auth)
	r.requestH.RegisterRoutes(protected)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
