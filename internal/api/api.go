// Package api exposes the observation dataset over HTTP as a JSON API:
// querying with filters, analytics tables, CSV export, row edits and the
// literature search proxy.
package api

import (
	"crypto/rand"
	"log"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lapalma/sunscan-go/internal/ads"
	"github.com/lapalma/sunscan-go/internal/conf"
	"github.com/lapalma/sunscan-go/internal/dataset"
	"github.com/lapalma/sunscan-go/internal/logging"
)

// Controller manages the API routes and handlers.
type Controller struct {
	Echo     *echo.Echo
	Group    *echo.Group
	Settings *conf.Settings
	Loader   *dataset.Loader

	// ADSClient is nil when no API key is configured; the literature
	// routes then answer with a configuration error.
	ADSClient *ads.Client

	logger         *log.Logger
	apiLogger      *slog.Logger
	apiLevelVar    *slog.LevelVar
	apiLoggerClose func() error
}

// New creates the API controller and registers its routes under /api/v1.
func New(e *echo.Echo, settings *conf.Settings, loader *dataset.Loader,
	adsClient *ads.Client, logger *log.Logger) *Controller {

	if logger == nil {
		logger = log.Default()
	}

	c := &Controller{
		Echo:      e,
		Settings:  settings,
		Loader:    loader,
		ADSClient: adsClient,
		logger:    logger,
	}

	// Initialize structured logger for API operations
	logFilePath := filepath.Join("logs", "api.log")
	c.apiLevelVar = new(slog.LevelVar)
	c.apiLevelVar.Set(slog.LevelInfo)
	apiLogger, closeFn, err := logging.NewFileLogger(logFilePath, "api", c.apiLevelVar)
	if err != nil {
		logger.Printf("Failed to initialize API file logger at %s: %v. API logging disabled.", logFilePath, err)
	} else {
		c.apiLogger = apiLogger
		c.apiLoggerClose = closeFn
	}

	c.Group = e.Group("/api/v1")
	c.initRoutes()

	return c
}

// initRoutes registers all API endpoints.
func (c *Controller) initRoutes() {
	c.Group.GET("/health", c.HealthCheck)

	c.initObservationRoutes()
	c.initAnalyticsRoutes()
	c.initLiteratureRoutes()
}

// Shutdown releases controller resources.
func (c *Controller) Shutdown() {
	if c.apiLoggerClose != nil {
		if err := c.apiLoggerClose(); err != nil {
			c.logger.Printf("Error closing API logger: %v", err)
		}
	}
}

// HealthCheck reports service health and whether the dataset loads.
func (c *Controller) HealthCheck(ctx echo.Context) error {
	response := map[string]any{
		"status":    "healthy",
		"name":      c.Settings.Main.Name,
		"timestamp": time.Now().Format(time.RFC3339),
	}

	datasetStatus := "loaded"
	ds, err := c.Loader.Load(c.Settings.Dataset.Path)
	if err != nil {
		datasetStatus = "unavailable"
		response["status"] = "degraded"
		response["dataset_error"] = err.Error()
	} else {
		response["rows"] = len(ds.Rows)
	}
	response["dataset"] = datasetStatus
	response["literature_search"] = c.ADSClient != nil

	return ctx.JSON(http.StatusOK, response)
}

// ErrorResponse is the standard JSON error body.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"` // Unique identifier for tracking this error
}

// NewErrorResponse creates a new API error response.
func NewErrorResponse(err error, message string, code int) *ErrorResponse {
	errorStr := message
	if err != nil {
		errorStr = err.Error()
	}
	return &ErrorResponse{
		Error:         errorStr,
		Message:       message,
		Code:          code,
		CorrelationID: generateCorrelationID(),
	}
}

func generateCorrelationID() string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const length = 8

	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "ERR-RAND"
	}
	for i := range b {
		b[i] = charset[int(b[i])%len(charset)]
	}
	return string(b)
}

// HandleError constructs and returns an appropriate error response.
func (c *Controller) HandleError(ctx echo.Context, err error, message string, code int) error {
	errorResp := NewErrorResponse(err, message, code)

	c.logger.Printf("API Error [%s]: %s: %v", errorResp.CorrelationID, message, err)
	if c.apiLogger != nil {
		errorStr := message
		if err != nil {
			errorStr = err.Error()
		}
		c.apiLogger.Error("API Error",
			"correlation_id", errorResp.CorrelationID,
			"message", message,
			"error", errorStr,
			"code", code,
			"path", ctx.Request().URL.Path,
			"method", ctx.Request().Method,
			"ip", ctx.RealIP(),
		)
	}

	return ctx.JSON(code, errorResp)
}

// Debug logs a debug message when debug mode is enabled.
func (c *Controller) Debug(format string, v ...any) {
	if c.Settings.Debug {
		c.logger.Printf(format, v...)
	}
}
