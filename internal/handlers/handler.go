package handlers

import (
	"time"

	"vitals_overlay/internal/logger"
	"vitals_overlay/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Config tunes the HTTP layer.
type Config struct {
	// AuthEnabled protects /api/v1 with admin bearer tokens.
	AuthEnabled bool

	RateLimitRPS   float64
	RateLimitBurst int

	// StreamBuffer is the per-viewer queue length.
	StreamBuffer            int
	HeartRateStatusInterval time.Duration
	GlucoseStatusInterval   time.Duration
}

const (
	defaultStreamBuffer            = 16
	defaultHeartRateStatusInterval = 5 * time.Second
	defaultGlucoseStatusInterval   = 30 * time.Second
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	cfg      Config
	limiter  *rateLimiter
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger, cfg Config) *Handler {
	if cfg.StreamBuffer <= 0 {
		cfg.StreamBuffer = defaultStreamBuffer
	}
	if cfg.HeartRateStatusInterval <= 0 {
		cfg.HeartRateStatusInterval = defaultHeartRateStatusInterval
	}
	if cfg.GlucoseStatusInterval <= 0 {
		cfg.GlucoseStatusInterval = defaultGlucoseStatusInterval
	}
	h := &Handler{services: services, log: log, cfg: cfg}
	if cfg.RateLimitRPS > 0 {
		h.limiter = newRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	return h
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health endpoint
	router.GET("/health", h.health)

	// Auth endpoints
	h.registerAuthRoutes(router)

	// Versioned control API
	h.registerAPIRoutes(router)

	// Overlay streams stay public: browser sources cannot send tokens.
	h.registerStreamRoutes(router)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	var mw []gin.HandlerFunc
	if h.limiter != nil {
		mw = append(mw, h.rateLimitMiddleware)
	}
	auth := r.Group("/auth", mw...)
	{
		auth.POST("/sign-up", h.signUpGuard, h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	var mw []gin.HandlerFunc
	if h.limiter != nil {
		mw = append(mw, h.rateLimitMiddleware)
	}
	if h.cfg.AuthEnabled {
		mw = append(mw, h.adminMiddleware)
	}
	api := r.Group("/api/v1", mw...)
	{
		h.registerHeartRateRoutes(api)
		h.registerGlucoseRoutes(api)
		h.registerSettingsRoutes(api)
		h.registerEventRoutes(api)
	}
}

func (h *Handler) registerHeartRateRoutes(api *gin.RouterGroup) {
	hr := api.Group("/heartrate")
	{
		// Body example: {"widget_url":"https://app.stromno.com/widget/view/<uuid>"}
		hr.POST("/connect", h.connectHeartRate)
		hr.POST("/disconnect", h.disconnectHeartRate)
		hr.GET("/status", h.heartRateStatus)
	}
}

func (h *Handler) registerGlucoseRoutes(api *gin.RouterGroup) {
	g := api.Group("/glucose")
	{
		// Body example: {"username":"...","password":"...","region":"us"}
		g.POST("/connect", h.connectGlucose)
		g.POST("/disconnect", h.disconnectGlucose)
		g.GET("/status", h.glucoseStatus)
	}
}

func (h *Handler) registerSettingsRoutes(api *gin.RouterGroup) {
	s := api.Group("/settings")
	{
		s.GET("", h.getSettings)
		s.POST("", h.updateSettings)
		s.DELETE("", h.clearSettings)
	}
}

func (h *Handler) registerEventRoutes(api *gin.RouterGroup) {
	api.GET("/events", h.getEvents)
}

func (h *Handler) registerStreamRoutes(r *gin.Engine) {
	stream := r.Group("/stream")
	{
		stream.GET("/heartrate", h.streamHeartRate)
		stream.GET("/glucose", h.streamGlucose)
	}
	ws := r.Group("/ws")
	{
		ws.GET("/heartrate", h.wsHeartRate)
		ws.GET("/glucose", h.wsGlucose)
	}
}
