package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/clinic-api/internal/handler/health"
	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/service/settings"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// PublicHandler exposes routes that do not require a token.
type PublicHandler interface {
	RegisterPublicRoutes(*gin.RouterGroup)
}

type Config struct {
	RateLimit      rate.Limit
	RateBurst      int
	AllowedOrigins []string
	RequestTimeout time.Duration
	MaxBodySize    int64
	// Gatherer backs /metrics; nil uses the default registry.
	Gatherer prometheus.Gatherer
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	settings settings.Provider
	health   *health.Handler
	public   []PublicHandler
	handlers []Handler
	metrics  *metrics.Metrics
	config   Config
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	sp settings.Provider,
	healthH *health.Handler,
	m *metrics.Metrics,
	config Config,
	public []PublicHandler,
	handlers ...Handler,
) *Router {
	engine := gin.New()

	r := &Router{
		engine:   engine,
		auth:     auth,
		settings: sp,
		health:   healthH,
		public:   public,
		handlers: handlers,
		metrics:  m,
		config:   config,
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(),
		middleware.Metrics(m),
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig()),
		middleware.CORS(config.AllowedOrigins),
	)

	if config.RateLimit > 0 {
		rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		})
		engine.Use(rateLimiter.RateLimit())
	}

	engine.NoRoute(func(c *gin.Context) {
		httputil.RespondWithError(c, apperrors.NotFound("route", nil))
	})

	return r
}

func (r *Router) Setup() {
	r.health.RegisterRoutes(r.engine)

	gatherer := r.config.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	maxBody := r.config.MaxBodySize
	if maxBody <= 0 {
		maxBody = middleware.DefaultMaxBodySize
	}

	api := r.engine.Group("/api/v1")
	api.Use(
		middleware.SizeLimit(maxBody),
		middleware.Timeout(r.config.RequestTimeout),
		middleware.Settings(r.settings),
	)

	for _, h := range r.public {
		h.RegisterPublicRoutes(api)
	}

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	for _, h := range r.handlers {
		h.RegisterRoutes(protected)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// Server wraps the engine in an http.Server with the given timeouts.
func (r *Router) Server(addr string, readTimeout, writeTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      r.engine,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
}
