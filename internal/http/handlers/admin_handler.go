package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/rag-chat-backend/internal/domain"
)

// ListSystemDocuments godoc
// @ID          listSystemDocuments
// @Summary     List system documents
// @Description Returns the business-owned documents that are hidden from the user listing.
// @Tags        Admin
// @Produce     json
// @Success     200  {array}   domain.Document
// @Success     304  "Not modified"
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /admin/documents [get]
func (h *Handlers) ListSystemDocuments(c *gin.Context) {
	if h.notModified(c, true, "all") {
		return
	}
	docs, err := h.docs.ListSystem(c.Request.Context())
	if err != nil {
		failErr(c, http.StatusInternalServerError, ErrCodeListFailed, err)
		return
	}
	if docs == nil {
		docs = []domain.Document{}
	}
	ok(c, http.StatusOK, docs)
}

// UploadSystemDocument godoc
// @ID          uploadSystemDocument
// @Summary     Upload a system document
// @Description Same as /upload but the document is flagged as a system document.
// @Tags        Admin
// @Accept      multipart/form-data
// @Produce     json
// @Param       document         formData  file    true   "PDF or TXT file"
// @Param       Idempotency-Key  header    string  false  "Key for safe retries"
// @Success     200  {object}  handlers.UploadResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     413  {object}  handlers.ErrorResponse
// @Failure     415  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /admin/upload [post]
func (h *Handlers) UploadSystemDocument(c *gin.Context) {
	h.upload(c, true)
}

// DeleteSystemDocument godoc
// @ID          deleteSystemDocument
// @Summary     Delete a system document
// @Description Removes a system document and its chunks. User documents report 404 here.
// @Tags        Admin
// @Produce     json
// @Param       id   path  string  true  "Document ID"
// @Success     200  {object}  handlers.SuccessResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /admin/documents/{id} [delete]
func (h *Handlers) DeleteSystemDocument(c *gin.Context) {
	h.deleteDoc(c, h.docs.DeleteSystem)
}
