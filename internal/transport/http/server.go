package http

import (
	stdhttp "net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/jwy87/kaoyan/internal/blessing"
	"github.com/jwy87/kaoyan/internal/config"
	"github.com/jwy87/kaoyan/internal/generation"
	"github.com/jwy87/kaoyan/internal/metrics"
)

// Deps are the services exposed over HTTP.
type Deps struct {
	Blessings *blessing.Service
	Generator *generation.Proxy
	Metrics   *metrics.Metrics
	// Gatherer backs /metrics. Nil leaves the route unregistered.
	Gatherer prometheus.Gatherer
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse reports which optional dependencies are configured.
type HealthResponse struct {
	OK             bool `json:"ok"`
	DatabaseURLSet bool `json:"databaseUrlSet"`
}

// NewServer builds the HTTP server with all API routes.
func NewServer(deps Deps, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(deps, cfg, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// NewRouter registers the API routes on a fresh gin engine.
func NewRouter(deps Deps, cfg *config.Config, logger *zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))
	router.Use(MetricsMiddleware(deps.Metrics))

	blessingHandlers := NewBlessingHandlers(deps.Blessings, logger)
	generateHandlers := NewGenerateHandlers(deps.Generator, logger)

	api := router.Group("/api")
	{
		api.GET("/blessings", blessingHandlers.List)
		api.POST("/blessings", blessingHandlers.Create)
		api.POST("/generateBlessing", generateHandlers.Generate)
		api.GET("/health", healthHandler(cfg.DatabaseURL != ""))
	}

	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	router.NoMethod(methodNotAllowed(router))
	router.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, ErrorResponse{Error: "Not Found"})
	})

	return router
}

func healthHandler(databaseURLSet bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(stdhttp.StatusOK, HealthResponse{OK: true, DatabaseURLSet: databaseURLSet})
	}
}

func methodNotAllowed(router *gin.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		if allowed := allowedMethods(router, c.Request.URL.Path); allowed != "" {
			c.Header("Allow", allowed)
		}
		c.JSON(stdhttp.StatusMethodNotAllowed, ErrorResponse{Error: "Method Not Allowed"})
	}
}

func allowedMethods(router *gin.Engine, path string) string {
	var methods []string
	for _, route := range router.Routes() {
		if route.Path == path {
			methods = append(methods, route.Method)
		}
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}
