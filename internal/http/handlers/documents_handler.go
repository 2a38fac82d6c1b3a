// Document HTTP handlers.
//
//   - GET    /documents       (user documents, newest first, ETag support)
//   - POST   /upload          (multipart "document", Idempotency-Key aware)
//   - DELETE /documents/{id}  (user documents only)
//
// The admin variants in admin_handler.go share the upload and error mapping
// defined here.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/rag-chat-backend/internal/domain"
	"github.com/tbourn/rag-chat-backend/internal/extract"
	"github.com/tbourn/rag-chat-backend/internal/http/middleware"
	"github.com/tbourn/rag-chat-backend/internal/services"
	"github.com/tbourn/rag-chat-backend/internal/utils"
)

// uploadField is the multipart field carrying the file.
const uploadField = "document"

// HeaderTotalCount carries the unpaged total of a document listing.
const HeaderTotalCount = "X-Total-Count"

// DocumentSummary is one entry of the user document listing.
type DocumentSummary struct {
	ID           string    `json:"id" example:"3f1c2a9e-7c1d-4a53-9f0e-1a2b3c4d5e6f"`
	OriginalName string    `json:"original_name" example:"pricing.pdf"`
	FileSize     int64     `json:"file_size" example:"2048"`
	UploadDate   time.Time `json:"upload_date"`
}

// UploadResponse identifies a stored document.
type UploadResponse struct {
	Success  bool   `json:"success" example:"true"`
	ID       string `json:"id" example:"3f1c2a9e-7c1d-4a53-9f0e-1a2b3c4d5e6f"`
	Filename string `json:"filename" example:"1717171717171-pricing.pdf.txt"`
}

func summarize(docs []domain.Document) []DocumentSummary {
	out := make([]DocumentSummary, len(docs))
	for i, d := range docs {
		out[i] = DocumentSummary{
			ID:           d.ID,
			OriginalName: d.OriginalName,
			FileSize:     d.FileSize,
			UploadDate:   d.CreatedAt,
		}
	}
	return out
}

// documentPagination reads optional page/page_size. Without page_size the
// whole listing is returned (pageSize 0).
func documentPagination(c *gin.Context) (page, pageSize int) {
	const maxPageSize = 100
	page = utils.AtoiDefault(c.Query("page"), 1)
	if page < 1 {
		page = 1
	}
	pageSize = utils.Clamp(utils.AtoiDefault(c.Query("page_size"), 0), 0, maxPageSize)
	return page, pageSize
}

// notModified sets a weak ETag derived from the listing's row count and
// newest timestamp and reports whether If-None-Match already matches it.
// Stats failures only disable the shortcut.
func (h *Handlers) notModified(c *gin.Context, system bool, variant string) bool {
	count, newest, err := h.docs.Stats(c.Request.Context(), system)
	if err != nil {
		return false
	}
	var ts int64
	if newest != nil {
		ts = newest.UnixNano()
	}
	kind := "documents"
	if system {
		kind = "system-documents"
	}
	etag := fmt.Sprintf(`W/"%s:%d:%d:%s"`, kind, count, ts, variant)
	c.Header("ETag", etag)
	if c.GetHeader("If-None-Match") == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}

// ListDocuments godoc
// @ID          listDocuments
// @Summary     List uploaded documents
// @Description Returns user-uploaded documents, newest first. System documents are never listed here.
// @Description Pass page_size to page through the listing; the unpaged total is sent in X-Total-Count.
// @Tags        Documents
// @Produce     json
// @Param       page       query  int  false  "Page number"     minimum(1) default(1)
// @Param       page_size  query  int  false  "Items per page"  minimum(1) maximum(100)
// @Param       If-None-Match header string false "ETag from a previous listing"
// @Success     200  {array}   handlers.DocumentSummary
// @Success     304  "Not modified"
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /documents [get]
func (h *Handlers) ListDocuments(c *gin.Context) {
	page, pageSize := documentPagination(c)
	if h.notModified(c, false, strconv.Itoa(page)+"/"+strconv.Itoa(pageSize)) {
		return
	}

	docs, total, err := h.docs.List(c.Request.Context(), page, pageSize)
	if err != nil {
		failErr(c, http.StatusInternalServerError, ErrCodeListFailed, err)
		return
	}
	c.Header(HeaderTotalCount, strconv.FormatInt(total, 10))
	ok(c, http.StatusOK, summarize(docs))
}

// UploadDocument godoc
// @ID          uploadDocument
// @Summary     Upload a knowledge base document
// @Description Extracts text from a PDF or plain text file and stores it with its retrieval chunks.
// @Description The type comes from the part's Content-Type, or is sniffed when that is missing.
// @Description A repeated Idempotency-Key returns the first result with Idempotency-Replayed: true.
// @Tags        Documents
// @Accept      multipart/form-data
// @Produce     json
// @Param       document         formData  file    true   "PDF or TXT file"
// @Param       Idempotency-Key  header    string  false  "Key for safe retries"
// @Success     200  {object}  handlers.UploadResponse
// @Failure     400  {object}  handlers.ErrorResponse  "No file, empty or unreadable document"
// @Failure     413  {object}  handlers.ErrorResponse  "File too large"
// @Failure     415  {object}  handlers.ErrorResponse  "Only PDF and TXT files are supported"
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /upload [post]
func (h *Handlers) UploadDocument(c *gin.Context) {
	h.upload(c, false)
}

func (h *Handlers) upload(c *gin.Context, system bool) {
	fh, err := c.FormFile(uploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			fail(c, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge,
				fmt.Sprintf("file exceeds %d bytes", tooLarge.Limit))
		case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "No file uploaded")
		default:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		}
		return
	}
	f, err := fh.Open()
	if err != nil {
		failErr(c, http.StatusInternalServerError, ErrCodeUploadFailed, err)
		return
	}
	defer f.Close()

	key, _ := middleware.GetIdempotencyKey(c)
	res, err := h.docs.Upload(c.Request.Context(), services.Upload{
		File:           f,
		OriginalName:   fh.Filename,
		ContentType:    fh.Header.Get("Content-Type"),
		System:         system,
		IdempotencyKey: key,
	})
	if err != nil {
		failUpload(c, err)
		return
	}
	if res.Replayed {
		c.Header("Idempotency-Replayed", "true")
	}
	ok(c, http.StatusOK, UploadResponse{Success: true, ID: res.ID, Filename: res.Filename})
}

func failUpload(c *gin.Context, err error) {
	switch {
	case errors.Is(err, extract.ErrUnsupportedType):
		fail(c, http.StatusUnsupportedMediaType, ErrCodeUnsupportedMediaType, extract.ErrUnsupportedType.Error())
	case errors.Is(err, services.ErrNoFile):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "No file uploaded")
	case errors.Is(err, extract.ErrEmptyContent), errors.Is(err, extract.ErrExtraction):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	default:
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(c, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge,
				fmt.Sprintf("file exceeds %d bytes", tooLarge.Limit))
			return
		}
		failErr(c, http.StatusInternalServerError, ErrCodeUploadFailed, err)
	}
}

// DeleteDocument godoc
// @ID          deleteDocument
// @Summary     Delete an uploaded document
// @Description Removes a user document and its chunks. System documents cannot be deleted here and report 404.
// @Tags        Documents
// @Produce     json
// @Param       id   path  string  true  "Document ID"
// @Success     200  {object}  handlers.SuccessResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Document not found"
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /documents/{id} [delete]
func (h *Handlers) DeleteDocument(c *gin.Context) {
	h.deleteDoc(c, h.docs.Delete)
}

func (h *Handlers) deleteDoc(c *gin.Context, del func(context.Context, string) error) {
	if err := del(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, services.ErrDocumentNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "Document not found")
			return
		}
		failErr(c, http.StatusInternalServerError, ErrCodeDeleteFailed, err)
		return
	}
	succeeded(c)
}
