package server

import (
	"context"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vanshika/graphlink/internal/logging"
	"github.com/vanshika/graphlink/internal/transport"
)

// RouterDependencies collects handler dependencies.
type RouterDependencies struct {
	Health           HealthService
	API              *APIHandlers
	AllowedOrigins   []string
	AllowCredentials bool
}

// NewRouter wires the legacy REST routes under /db/data plus /healthz.
func NewRouter(logger *zap.Logger, deps RouterDependencies) *gin.Engine {
	logger = logging.OrNop(logger)

	router := gin.New()
	// index names may carry an escaped "/"; match on the raw path and unescape params
	router.UseRawPath = true
	router.UnescapePathValues = true
	router.Use(recoveryMiddleware(logger))
	router.Use(loggingMiddleware(logger))
	if len(deps.AllowedOrigins) > 0 {
		router.Use(corsMiddleware(deps.AllowedOrigins, deps.AllowCredentials))
	}

	router.GET("/healthz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		payload := gin.H{"status": "ok"}

		if deps.Health != nil {
			if err := deps.Health.Probe(ctx); err != nil {
				logger.Error("health probe failed", zap.Error(err))
				status = http.StatusServiceUnavailable
				payload["status"] = "degraded"
				payload["error"] = err.Error()
			}
		}
		c.JSON(status, payload)
	})

	if deps.API != nil {
		api := router.Group("/db/data")
		{
			api.GET("/", deps.API.serviceRoot)
			api.POST("/cypher", deps.API.cypher)
			api.POST("/batch", deps.API.batch)

			api.POST("/node", deps.API.createNode)
			api.GET("/node/:id", deps.API.member(http.MethodGet, transport.ResourceNode))
			api.DELETE("/node/:id", deps.API.member(http.MethodDelete, transport.ResourceNode))
			api.GET("/relationship/:id", deps.API.member(http.MethodGet, transport.ResourceRelationship))
			api.DELETE("/relationship/:id", deps.API.member(http.MethodDelete, transport.ResourceRelationship))

			api.GET("/index/:kind", deps.API.indexes)
			api.POST("/index/:kind", deps.API.indexes)
			api.DELETE("/index/:kind/:name", deps.API.indexes)
		}
	}

	return router
}

func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

func recoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic recovered",
					zap.Any("error", err),
					zap.String("stack", string(debug.Stack())),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
				)
				writeError(c, http.StatusInternalServerError, "ServerError", "internal server error")
			}
		}()
		c.Next()
	}
}

func corsMiddleware(allowedOrigins []string, allowCredentials bool) gin.HandlerFunc {
	normalized := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		normalized[origin] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" || (!containsOrigin(normalized, origin) && !containsOrigin(normalized, "*")) {
			if c.Request.Method == http.MethodOptions {
				// reject bare pre-flight if origin is not whitelisted
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
			c.Next()
			return
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Add("Vary", "Origin")
		if allowCredentials {
			c.Header("Access-Control-Allow-Credentials", "true")
		}
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-Id")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func containsOrigin(set map[string]struct{}, origin string) bool {
	_, ok := set[origin]
	return ok
}
