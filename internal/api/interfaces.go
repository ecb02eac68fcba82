// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/layout-localizer/backend/internal/archive"
	"github.com/layout-localizer/backend/internal/models"
)

// FileHandler handles uploaded sheet operations
type FileHandler interface {
	HandleUploadFile(c echo.Context) error
	HandleUploadBinary(c echo.Context) error
	HandleGetRecentFiles(c echo.Context) error
	HandleGetFile(c echo.Context) error
	HandleDeleteFile(c echo.Context) error
}

// ConversionHandler handles conversion operations
type ConversionHandler interface {
	HandleLanguages(c echo.Context) error
	HandleConvert(c echo.Context) error
	HandleListConversions(c echo.Context) error
	HandleGetConversion(c echo.Context) error
	HandleGetDocument(c echo.Context) error
	HandleGetDocumentMsgpack(c echo.Context) error
	HandleDownload(c echo.Context) error
	HandleGetElements(c echo.Context) error
	HandleDeleteConversion(c echo.Context) error
	HandleListArchived(c echo.Context) error
	HandleGetArchived(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// ConversionService runs and keeps conversions.
// Implemented by *session.Manager; mocked in tests.
type ConversionService interface {
	Languages() map[string]string
	Convert(ctx context.Context, fileID, fileName, filePath string) (*models.ConversionSession, error)
	GetSession(id string) (*models.ConversionSession, bool)
	GetDocument(id string) (*models.Document, *models.ConversionSession, bool)
	ListSessions(limit int) []*models.ConversionSession
	DeleteSession(ctx context.Context, id string) error
}

// ElementArchive queries archived conversions. Implemented by *archive.DuckStore.
type ElementArchive interface {
	ListConversions(ctx context.Context, limit int) ([]models.ConversionRecord, error)
	GetConversion(ctx context.Context, id string) (models.ConversionRecord, error)
	Elements(ctx context.Context, id string, q archive.ElementQuery) ([]models.ArchivedElement, error)
}
