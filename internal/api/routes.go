// routes.go - Route registration helpers
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/layout-localizer/backend/internal/storage"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store          storage.Store
	Conversions    ConversionService
	Archive        ElementArchive // nil disables element queries
	SheetExts      []string
	OutputSuffix   string
	OutputExt      string
	AllowDeletions bool
	Version        string
}

// Handlers holds all handler instances
type Handlers struct {
	Health         HealthHandler
	Files          FileHandler
	Conversions    ConversionHandler
	allowDeletions bool
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health:         NewHealthHandler(deps.Version, deps.Archive != nil),
		Files:          NewFileHandler(deps.Store, deps.SheetExts),
		Conversions:    NewConversionHandler(deps.Store, deps.Conversions, deps.Archive, deps.OutputSuffix, deps.OutputExt),
		allowDeletions: deps.AllowDeletions,
	}
}

// RegisterRoutes registers all API routes under /api
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	apiGroup := e.Group("/api")

	apiGroup.GET("/health", handlers.Health.HandleHealth)
	apiGroup.GET("/languages", handlers.Conversions.HandleLanguages)

	// Uploaded sheets
	apiGroup.POST("/files/upload", handlers.Files.HandleUploadFile)
	apiGroup.POST("/files/upload/binary", handlers.Files.HandleUploadBinary)
	apiGroup.GET("/files/recent", handlers.Files.HandleGetRecentFiles)
	apiGroup.GET("/files/:id", handlers.Files.HandleGetFile)

	// Conversions
	apiGroup.POST("/convert", handlers.Conversions.HandleConvert)
	apiGroup.GET("/conversions", handlers.Conversions.HandleListConversions)
	apiGroup.GET("/conversions/:id", handlers.Conversions.HandleGetConversion)
	apiGroup.GET("/conversions/:id/document", handlers.Conversions.HandleGetDocument)
	apiGroup.GET("/conversions/:id/document/msgpack", handlers.Conversions.HandleGetDocumentMsgpack)
	apiGroup.GET("/conversions/:id/download", handlers.Conversions.HandleDownload)
	apiGroup.GET("/conversions/:id/elements", handlers.Conversions.HandleGetElements)

	// Archive
	apiGroup.GET("/archive/conversions", handlers.Conversions.HandleListArchived)
	apiGroup.GET("/archive/conversions/:id", handlers.Conversions.HandleGetArchived)

	// Conditional delete based on config
	if handlers.allowDeletions {
		apiGroup.DELETE("/files/:id", handlers.Files.HandleDeleteFile)
		apiGroup.DELETE("/conversions/:id", handlers.Conversions.HandleDeleteConversion)
	}
}

// MiddlewareOptions carries the server settings middleware depends on
type MiddlewareOptions struct {
	RequestLogging    bool
	RequestTimeout    time.Duration
	EnableCompression bool
	CompressionLevel  int
	BodyLimit         string
	EnableCORS        bool
	AllowOrigins      string
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo, opts MiddlewareOptions) {
	e.HTTPErrorHandler = ErrorHandler

	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			if !opts.RequestLogging {
				return true
			}
			return c.Request().URL.Path == "/api/health"
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize:         1024 * 4,
		DisablePrintStack: false,
	}))

	if opts.RequestTimeout > 0 {
		e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
			Timeout: opts.RequestTimeout,
			Skipper: func(c echo.Context) bool {
				path := c.Request().URL.Path
				return strings.HasSuffix(path, "/convert") ||
					strings.Contains(path, "/upload")
			},
			ErrorMessage: "Request timeout - query took too long",
		}))
	}

	if opts.EnableCompression {
		e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
			Level: opts.CompressionLevel,
		}))
	}

	if opts.BodyLimit != "" {
		e.Use(middleware.BodyLimit(opts.BodyLimit))
	}

	if opts.EnableCORS {
		origins := strings.Split(opts.AllowOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		if len(origins) == 0 || (len(origins) == 1 && origins[0] == "") {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}
}
