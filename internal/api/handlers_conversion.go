// handlers_conversion.go - Conversion handlers
package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/layout-localizer/backend/internal/archive"
	"github.com/layout-localizer/backend/internal/export"
	"github.com/layout-localizer/backend/internal/models"
	"github.com/layout-localizer/backend/internal/parser"
	"github.com/layout-localizer/backend/internal/session"
	"github.com/layout-localizer/backend/internal/storage"
)

const (
	defaultConversionsLimit = 50
	defaultElementsLimit    = 1000
)

// ConversionHandlerImpl implements the ConversionHandler interface
type ConversionHandlerImpl struct {
	store        storage.Store
	conversions  ConversionService
	archive      ElementArchive
	outputSuffix string
	outputExt    string
}

// NewConversionHandler creates a new conversion handler. archive may be nil,
// in which case element queries answer 503.
func NewConversionHandler(store storage.Store, conversions ConversionService, archive ElementArchive, outputSuffix, outputExt string) ConversionHandler {
	if outputSuffix == "" {
		outputSuffix = export.DefaultOutputSuffix
	}
	if outputExt == "" {
		outputExt = export.DefaultOutputExt
	}
	return &ConversionHandlerImpl{
		store:        store,
		conversions:  conversions,
		archive:      archive,
		outputSuffix: outputSuffix,
		outputExt:    outputExt,
	}
}

// HandleLanguages returns the active language label to code table
func (h *ConversionHandlerImpl) HandleLanguages(c echo.Context) error {
	return c.JSON(http.StatusOK, h.conversions.Languages())
}

// HandleConvert converts a sheet. The sheet is either uploaded in the
// multipart field "file" or referenced by the form value "fileId".
func (h *ConversionHandlerImpl) HandleConvert(c echo.Context) error {
	var info *models.FileInfo
	if fileID := c.FormValue("fileId"); fileID != "" {
		existing, err := h.store.Get(fileID)
		if err != nil {
			return NewNotFoundError("file", fileID)
		}
		info = existing
	} else {
		saved, err := saveFormFile(c, h.store)
		if err != nil {
			return err
		}
		info = saved
	}

	path, err := h.store.GetFilePath(info.ID)
	if err != nil {
		return NewInternalError("failed to locate file", err)
	}

	sess, err := h.conversions.Convert(c.Request().Context(), info.ID, info.Name, path)
	if err != nil {
		h.store.SetStatus(info.ID, "error")
		if errors.Is(err, parser.ErrUnsupportedFormat) {
			return NewUnsupportedFormatError(info.Name, err)
		}
		apiErr := NewConversionError(fmt.Sprintf("failed to convert %s", info.Name), err)
		if sess != nil {
			apiErr.Details = fmt.Sprintf("session %s: %v", sess.ID, err)
		}
		return apiErr
	}

	h.store.SetStatus(info.ID, "converted")
	return c.JSON(http.StatusCreated, sess)
}

// HandleListConversions returns recent conversions, newest first
func (h *ConversionHandlerImpl) HandleListConversions(c echo.Context) error {
	limit := defaultConversionsLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return NewValidationError("limit")
		}
		limit = n
	}
	return c.JSON(http.StatusOK, h.conversions.ListSessions(limit))
}

// HandleGetConversion returns the metadata of one conversion
func (h *ConversionHandlerImpl) HandleGetConversion(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}

	sess, ok := h.conversions.GetSession(id)
	if !ok {
		return NewNotFoundError("conversion", id)
	}
	return c.JSON(http.StatusOK, sess)
}

// HandleGetDocument returns the converted document as JSON
func (h *ConversionHandlerImpl) HandleGetDocument(c echo.Context) error {
	doc, _, err := h.document(c)
	if err != nil {
		return err
	}

	data, err := export.MarshalJSON(doc)
	if err != nil {
		return NewInternalError("failed to encode document", err)
	}
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSONCharsetUTF8, data)
}

// HandleGetDocumentMsgpack returns the converted document as MessagePack
func (h *ConversionHandlerImpl) HandleGetDocumentMsgpack(c echo.Context) error {
	doc, _, err := h.document(c)
	if err != nil {
		return err
	}

	data, err := export.MarshalMsgpack(doc)
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}
	return c.Blob(http.StatusOK, "application/msgpack", data)
}

// HandleDownload returns the JSON document as a file attachment named
// after the uploaded sheet.
func (h *ConversionHandlerImpl) HandleDownload(c echo.Context) error {
	doc, sess, err := h.document(c)
	if err != nil {
		return err
	}

	data, err := export.MarshalJSON(doc)
	if err != nil {
		return NewInternalError("failed to encode document", err)
	}

	name := export.OutputName(sess.FileName, h.outputSuffix, h.outputExt)
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(name)))
	return c.Blob(http.StatusOK, "text/plain; charset=UTF-8", data)
}

// HandleGetElements returns archived elements of a conversion, optionally
// filtered by context key and page index.
func (h *ConversionHandlerImpl) HandleGetElements(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}
	if h.archive == nil {
		return NewServiceUnavailableError("archive is disabled")
	}

	q := archive.ElementQuery{
		ContextKey: c.QueryParam("context"),
		Limit:      defaultElementsLimit,
	}
	if raw := c.QueryParam("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 0 {
			return NewValidationError("page")
		}
		q.PageIndex = &page
	}
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return NewValidationError("limit")
		}
		q.Limit = limit
	}

	elements, err := h.archive.Elements(c.Request().Context(), id, q)
	if err != nil {
		if errors.Is(err, archive.ErrNotFound) {
			return NewNotFoundError("archived conversion", id)
		}
		return NewInternalError("failed to query elements", err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"conversionId": id,
		"count":        len(elements),
		"elements":     elements,
	})
}

// HandleDeleteConversion removes a conversion and its archived elements
func (h *ConversionHandlerImpl) HandleDeleteConversion(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}

	if err := h.conversions.DeleteSession(c.Request().Context(), id); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return NewNotFoundError("conversion", id)
		}
		return NewInternalError("failed to delete conversion", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleListArchived returns archived conversions, newest first. The
// archive outlives in-memory sessions.
func (h *ConversionHandlerImpl) HandleListArchived(c echo.Context) error {
	if h.archive == nil {
		return NewServiceUnavailableError("archive is disabled")
	}

	limit := defaultConversionsLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return NewValidationError("limit")
		}
		limit = n
	}

	records, err := h.archive.ListConversions(c.Request().Context(), limit)
	if err != nil {
		return NewInternalError("failed to list archived conversions", err)
	}
	return c.JSON(http.StatusOK, records)
}

// HandleGetArchived returns one archived conversion record
func (h *ConversionHandlerImpl) HandleGetArchived(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}
	if h.archive == nil {
		return NewServiceUnavailableError("archive is disabled")
	}

	rec, err := h.archive.GetConversion(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, archive.ErrNotFound) {
			return NewNotFoundError("archived conversion", id)
		}
		return NewInternalError("failed to load archived conversion", err)
	}
	return c.JSON(http.StatusOK, rec)
}

// document loads the document of a completed conversion.
func (h *ConversionHandlerImpl) document(c echo.Context) (*models.Document, *models.ConversionSession, error) {
	id := c.Param("id")
	if id == "" {
		return nil, nil, NewValidationError("id")
	}

	doc, sess, ok := h.conversions.GetDocument(id)
	if !ok {
		return nil, nil, NewNotFoundError("document", id)
	}
	return doc, sess, nil
}
