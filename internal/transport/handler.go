package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/anime-shed/channel-engine/internal/analyzer"
	"github.com/anime-shed/channel-engine/internal/config"
	apperrors "github.com/anime-shed/channel-engine/internal/errors"
	"github.com/anime-shed/channel-engine/internal/logger"
	"github.com/anime-shed/channel-engine/internal/service"
	"github.com/anime-shed/channel-engine/internal/ws"
	"github.com/anime-shed/channel-engine/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// MetricsSource reports aggregated decision metrics
type MetricsSource interface {
	GetMetrics() map[string]interface{}
}

// Dependencies are the collaborators the HTTP surface needs. Metrics, Pool
// and Hub are optional.
type Dependencies struct {
	Service service.DecisionService
	Metrics MetricsSource
	Pool    func() analyzer.WorkerPoolStats
	Hub     *ws.Hub
	Config  *config.Config
}

func NewHandler(deps Dependencies) http.Handler {
	r := gin.Default()
	cfg := deps.Config

	// Add middleware
	r.Use(
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	// Configure routes
	r.GET("/health", healthCheck)

	v1 := r.Group("/v1")
	v1.GET("/metrics", metrics(deps))
	v1.GET("/events", events(deps.Hub))

	svc := deps.Service
	v1.POST("/statistics", decide(cfg, "statistics", svc.Statistics))
	v1.POST("/background", decide(cfg, "background", svc.Background))
	v1.POST("/reference", decide(cfg, "reference", svc.Reference))
	v1.POST("/mix", decide(cfg, "mix", svc.Mix))
	v1.POST("/stretch", decide(cfg, "stretch", svc.Stretch))
	v1.POST("/plan", decide(cfg, "plan", svc.Plan))

	return r
}

// decide binds the JSON request, runs the operation under the request
// timeout and writes its result
func decide[Req any, Resp any](cfg *config.Config, operation string, run func(context.Context, Req) (*Resp, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		fields := logrus.Fields{
			"operation": operation,
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"ip":        c.ClientIP(),
		}
		logger.WithFields(fields).Debug("Processing decision request")

		var req Req
		if err := c.ShouldBindJSON(&req); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				respondError(c, http.StatusRequestEntityTooLarge, "request body too large", err)
				return
			}
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}

		result, err := run(ctx, req)
		if err != nil {
			respondError(c, determineStatusCode(err), operation+" failed", err)
			return
		}

		fields["processing_time_ms"] = time.Since(startTime).Milliseconds()
		logger.WithFields(fields).Info("Decision request completed")

		c.JSON(http.StatusOK, result)
	}
}

func metrics(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{"time": time.Now().UTC().Format(time.RFC3339)}
		if deps.Metrics != nil {
			body["decisions"] = deps.Metrics.GetMetrics()
		}
		if deps.Pool != nil {
			body["worker_pool"] = deps.Pool()
		}
		if deps.Hub != nil {
			body["event_subscribers"] = deps.Hub.ClientCount()
		}
		c.JSON(http.StatusOK, body)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// events streams decision events over a websocket
func events(hub *ws.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		if hub == nil {
			respondError(c, http.StatusNotFound, "event stream disabled", apperrors.NewNotFoundError("no event hub", nil))
			return
		}
		if !websocket.IsWebSocketUpgrade(c.Request) {
			respondError(c, http.StatusBadRequest, "websocket upgrade required", apperrors.NewValidationError("missing upgrade headers", nil))
			return
		}
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade has already written the failure response
			logger.WithError(err).WithField("ip", c.ClientIP()).Warn("Websocket upgrade failed")
			return
		}
		client := ws.NewClient(hub, conn)
		hub.Register(client)
		go client.WritePump()
		go client.ReadPump()
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": "1.0.0",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			err := c.Errors.Last()
			respondError(c, determineStatusCode(err.Err), "request processing failed", err.Err)
		}
	}
}

func determineStatusCode(err error) int {
	// Check if it's a custom app error first
	if appErr, ok := apperrors.As(err); ok {
		return appErr.StatusCode
	}

	// Fallback to context-based errors
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	// Log the error with context
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	resp := models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	}
	if appErr, ok := apperrors.As(err); ok {
		resp.Type = string(appErr.Type)
	}
	c.AbortWithStatusJSON(code, resp)
}
