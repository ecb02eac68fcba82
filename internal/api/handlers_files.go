// handlers_files.go - Uploaded sheet handlers
package api

import (
	"encoding/base64"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/layout-localizer/backend/internal/models"
	"github.com/layout-localizer/backend/internal/storage"
)

// recentFilesLimit caps GET /files/recent.
const recentFilesLimit = 20

// FileHandlerImpl implements the FileHandler interface
type FileHandlerImpl struct {
	store      storage.Store
	extensions []string
}

// NewFileHandler creates a new file handler. extensions lists the sheet
// types shown by the recent-files listing.
func NewFileHandler(store storage.Store, extensions []string) FileHandler {
	return &FileHandlerImpl{
		store:      store,
		extensions: extensions,
	}
}

// HandleUploadFile accepts a file as base64 JSON and saves it to storage
func (h *FileHandlerImpl) HandleUploadFile(c echo.Context) error {
	var req uploadFileRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}

	if err := req.validate(); err != nil {
		return err
	}

	decoded, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		return NewBadRequestError("invalid base64 data", err)
	}

	info, err := h.store.SaveBytes(req.Name, decoded)
	if err != nil {
		return NewInternalError("failed to save file", err)
	}

	return c.JSON(http.StatusCreated, info)
}

// HandleUploadBinary accepts a multipart/form-data upload in field "file"
func (h *FileHandlerImpl) HandleUploadBinary(c echo.Context) error {
	info, err := saveFormFile(c, h.store)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, info)
}

// HandleGetRecentFiles returns recently uploaded sheets
func (h *FileHandlerImpl) HandleGetRecentFiles(c echo.Context) error {
	files, err := h.store.List(50)
	if err != nil {
		return NewInternalError("failed to list files", err)
	}

	sheets := filterSheetFiles(files, h.extensions)
	if len(sheets) > recentFilesLimit {
		sheets = sheets[:recentFilesLimit]
	}

	return c.JSON(http.StatusOK, sheets)
}

// HandleGetFile returns metadata for a specific file
func (h *FileHandlerImpl) HandleGetFile(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}

	info, err := h.store.Get(id)
	if err != nil {
		return NewNotFoundError("file", id)
	}

	return c.JSON(http.StatusOK, info)
}

// HandleDeleteFile deletes an uploaded file. Conversions made from it are kept.
func (h *FileHandlerImpl) HandleDeleteFile(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}

	if err := h.store.Delete(id); err != nil {
		if errors.Is(err, storage.ErrFileNotFound) {
			return NewNotFoundError("file", id)
		}
		return NewInternalError("failed to delete file", err)
	}

	return c.NoContent(http.StatusNoContent)
}

// Request/Response types

type uploadFileRequest struct {
	Name string `json:"name"`
	Data string `json:"data"` // Base64-encoded content
}

func (r *uploadFileRequest) validate() error {
	if r.Name == "" {
		return NewValidationError("name")
	}
	if r.Data == "" {
		return NewValidationError("data")
	}
	return nil
}

// Helper functions

// saveFormFile stores the multipart field "file".
func saveFormFile(c echo.Context, store storage.Store) (*models.FileInfo, error) {
	file, err := c.FormFile("file")
	if err != nil {
		return nil, NewBadRequestError("no file provided", err)
	}

	src, err := file.Open()
	if err != nil {
		return nil, NewInternalError("failed to open uploaded file", err)
	}
	defer src.Close()

	info, err := store.Save(file.Filename, src)
	if err != nil {
		return nil, NewInternalError("failed to save file", err)
	}
	return info, nil
}

// filterSheetFiles keeps files whose extension is in extensions.
// An empty list keeps everything.
func filterSheetFiles(files []*models.FileInfo, extensions []string) []*models.FileInfo {
	sheets := make([]*models.FileInfo, 0, len(files))
	for _, f := range files {
		if len(extensions) == 0 || hasExtension(f.Name, extensions) {
			sheets = append(sheets, f)
		}
	}
	return sheets
}

func hasExtension(name string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range extensions {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}
