package handler

import (
	"net/http"

	"stockly/internal/middleware"
	"stockly/internal/model"
	"stockly/internal/service"
	"stockly/pkg/pagination"
	"stockly/pkg/response"

	"github.com/gin-gonic/gin"
)

// DocumentHandler serves invoices and estimates. Both resources share one
// handler: the route group decides the document type.
type DocumentHandler struct {
	documentService service.DocumentService
}

func NewDocumentHandler(documentService service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

func (h *DocumentHandler) RegisterRoutes(router *gin.RouterGroup) {
	h.registerGroup(router.Group("/api/invoices"), model.DocTypeInvoice)
	h.registerGroup(router.Group("/api/estimates"), model.DocTypeEstimate)
}

func (h *DocumentHandler) registerGroup(group *gin.RouterGroup, docType string) {
	group.GET("", middleware.RequireAuth(), h.list(docType))
	group.GET("/:id", middleware.RequireAuth(), h.Get)
	group.POST("", middleware.RequireAuth(), h.create(docType))
	group.PUT("/:id", middleware.RequireAuth(), h.Update)
	group.PATCH("/:id/status", middleware.RequireAuth(), h.UpdateStatus)
	group.DELETE("/:id", middleware.RequireRole(model.RoleAdmin), h.Delete)
}

// list returns paginated documents of one type with optional status filter
// @Summary      List invoices or estimates
// @Tags         documents
// @Security     BearerAuth
// @Produce      json
// @Param        page    query  int     false  "Page number (default: 1)"
// @Param        limit   query  int     false  "Items per page (default: 20)"
// @Param        status  query  string  false  "Filter by status"
// @Success      200  {object}  response.Response
// @Router       /api/invoices [get]
func (h *DocumentHandler) list(docType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := pagination.Parse(c)
		docs, total, err := h.documentService.GetDocuments(c.Request.Context(), docType, p.Page, p.Limit, c.Query("status"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, docs, p.Page, p.Limit, total))
	}
}

// Get returns a single document with line items and custom fields
// @Summary      Get invoice or estimate
// @Tags         documents
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Document ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/invoices/{id} [get]
func (h *DocumentHandler) Get(c *gin.Context) {
	doc, err := h.documentService.GetDocument(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// create creates a new document, assigning the next sequential number
// @Summary      Create invoice or estimate
// @Tags         documents
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreateDocumentRequest  true  "Document payload"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/invoices [post]
func (h *DocumentHandler) create(docType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.CreateDocumentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
			return
		}

		doc, err := h.documentService.CreateDocument(c.Request.Context(), c.GetString("userID"), docType, req)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
			return
		}

		c.JSON(http.StatusCreated, response.Success(http.StatusCreated, doc))
	}
}

// Update replaces a document's fields and line items, recomputing totals
// @Summary      Update invoice or estimate
// @Tags         documents
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                         true  "Document ID"
// @Param        payload  body  service.UpdateDocumentRequest  true  "Update payload"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/invoices/{id} [put]
func (h *DocumentHandler) Update(c *gin.Context) {
	var req service.UpdateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	doc, err := h.documentService.UpdateDocument(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// UpdateStatus changes a document's status
// @Summary      Update invoice or estimate status
// @Tags         documents
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                       true  "Document ID"
// @Param        payload  body  service.UpdateStatusRequest  true  "Status payload"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/invoices/{id}/status [patch]
func (h *DocumentHandler) UpdateStatus(c *gin.Context) {
	var req service.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	doc, err := h.documentService.UpdateStatus(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// Delete removes a document, detaching its line items
// @Summary      Delete invoice or estimate
// @Tags         documents
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Document ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/invoices/{id} [delete]
func (h *DocumentHandler) Delete(c *gin.Context) {
	if err := h.documentService.DeleteDocument(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Document deleted successfully"}))
}
