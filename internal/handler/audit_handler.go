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

type AuditHandler struct {
	auditService service.AuditService
}

func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	logs := router.Group("/api/audit-logs")
	{
		logs.GET("", middleware.RequireRole(model.RoleAdmin), h.ListLogs)
	}
}

// ListLogs returns paginated audit log entries with optional action filter
// @Summary      List audit logs
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        page    query  int     false  "Page number (default: 1)"
// @Param        limit   query  int     false  "Items per page (default: 20)"
// @Param        action  query  string  false  "Filter by action, e.g. CREATE_ITEM"
// @Success      200  {object}  response.Response
// @Router       /api/audit-logs [get]
func (h *AuditHandler) ListLogs(c *gin.Context) {
	p := pagination.Parse(c)
	logs, total, err := h.auditService.ListLogs(c.Request.Context(), p.Page, p.Limit, c.Query("action"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, logs, p.Page, p.Limit, total))
}
