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

type ItemHandler struct {
	itemService service.ItemService
}

func NewItemHandler(itemService service.ItemService) *ItemHandler {
	return &ItemHandler{itemService: itemService}
}

func (h *ItemHandler) RegisterRoutes(router *gin.RouterGroup) {
	items := router.Group("/api/items")
	{
		items.GET("", middleware.RequireAuth(), h.ListItems)
		items.GET("/low-stock", middleware.RequireAuth(), h.ListLowStock)
		items.GET("/:id", middleware.RequireAuth(), h.GetItem)
		items.GET("/:id/movements", middleware.RequireAuth(), h.ListMovements)
		items.POST("", middleware.RequireAuth(), h.CreateItem)
		items.PUT("/:id", middleware.RequireAuth(), h.UpdateItem)
		items.POST("/:id/stock", middleware.RequireAuth(), h.AdjustStock)
		items.DELETE("/:id", middleware.RequireRole(model.RoleAdmin), h.DeleteItem)
	}
}

// ListItems returns paginated inventory items with optional filters
// @Summary      List items
// @Tags         items
// @Security     BearerAuth
// @Produce      json
// @Param        page      query     int     false  "Page number (default: 1)"
// @Param        limit     query     int     false  "Items per page (default: 20)"
// @Param        search    query     string  false  "Search by name, SKU, barcode"
// @Param        category  query     string  false  "Filter by category name"
// @Success      200  {object}  response.Response
// @Router       /api/items [get]
func (h *ItemHandler) ListItems(c *gin.Context) {
	p := pagination.Parse(c)
	search := c.Query("search")
	category := c.Query("category")

	items, total, err := h.itemService.GetItems(c.Request.Context(), p.Page, p.Limit, search, category)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, items, p.Page, p.Limit, total))
}

// ListLowStock returns every item at or below its minimum stock level
// @Summary      List low stock items
// @Tags         items
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/items/low-stock [get]
func (h *ItemHandler) ListLowStock(c *gin.Context) {
	items, err := h.itemService.GetLowStock(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, items))
}

// GetItem returns a single item by id
// @Summary      Get item
// @Tags         items
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Item ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/items/{id} [get]
func (h *ItemHandler) GetItem(c *gin.Context) {
	item, err := h.itemService.GetItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// ListMovements returns the stock movement ledger of an item
// @Summary      List stock movements
// @Tags         items
// @Security     BearerAuth
// @Produce      json
// @Param        id     path   string  true   "Item ID"
// @Param        page   query  int     false  "Page number (default: 1)"
// @Param        limit  query  int     false  "Items per page (default: 20)"
// @Success      200  {object}  response.Response
// @Router       /api/items/{id}/movements [get]
func (h *ItemHandler) ListMovements(c *gin.Context) {
	p := pagination.Parse(c)
	movements, total, err := h.itemService.GetStockMovements(c.Request.Context(), c.Param("id"), p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, movements, p.Page, p.Limit, total))
}

// CreateItem creates a new inventory item
// @Summary      Create item
// @Tags         items
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreateItemRequest  true  "Item payload"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/items [post]
func (h *ItemHandler) CreateItem(c *gin.Context) {
	var req service.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	item, err := h.itemService.CreateItem(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		if _, ok := err.(*service.SKUConflictError); ok {
			c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
			return
		}
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, item))
}

// UpdateItem updates an existing item
// @Summary      Update item
// @Tags         items
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                     true  "Item ID"
// @Param        payload  body  service.UpdateItemRequest  true  "Update payload"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/items/{id} [put]
func (h *ItemHandler) UpdateItem(c *gin.Context) {
	var req service.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	item, err := h.itemService.UpdateItem(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		if _, ok := err.(*service.SKUConflictError); ok {
			c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
			return
		}
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// AdjustStock records a stock movement against an item
// @Summary      Adjust stock
// @Tags         items
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                      true  "Item ID"
// @Param        payload  body  service.AdjustStockRequest  true  "Adjustment payload"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/items/{id}/stock [post]
func (h *ItemHandler) AdjustStock(c *gin.Context) {
	var req service.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	item, err := h.itemService.AdjustStock(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// DeleteItem deletes an item
// @Summary      Delete item
// @Tags         items
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Item ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/items/{id} [delete]
func (h *ItemHandler) DeleteItem(c *gin.Context) {
	if err := h.itemService.DeleteItem(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Item deleted successfully"}))
}
