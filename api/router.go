package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"customer_insights/internal/customers"
)

// Options carries what the routes need beyond the engine.
type Options struct {
	// Source backs GET /analysis; it may be nil when no source is configured.
	Source   customers.Source
	Sheets   []string
	Defaults customers.Params
	Logger   *zap.Logger
}

// InitRoutes registers the analysis endpoints on the given Gin engine.
// It initializes the service and handler, then binds each HTTP method and
// path to the appropriate handler function.
func InitRoutes(e *gin.Engine, opts Options) {
	logger := opts.Logger
	if logger == nil {
		logger, _ = zap.NewProduction()
	}

	service := customers.NewService(opts.Source, logger)
	handler := NewAnalysisHandler(service, opts.Defaults, opts.Sheets, logger)

	e.POST("/analysis", handler.handleAnalyze)
	e.POST("/analysis/export", handler.handleExport)
	e.POST("/analysis/workbook", handler.handleWorkbook)
	e.GET("/analysis", handler.handleSources)

	e.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
}
