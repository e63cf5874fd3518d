package handler

import (
	"net/http"

	"stokledger/internal/middleware"
	"stokledger/internal/model"
	"stokledger/internal/service"
	"stokledger/pkg/pagination"
	"stokledger/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
	authMW       *middleware.AuthMiddleware
}

func NewAuditHandler(auditService service.AuditService, authMW *middleware.AuthMiddleware) *AuditHandler {
	return &AuditHandler{auditService: auditService, authMW: authMW}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	audits := router.Group("/api/orgs/:orgId/audit", h.authMW.RequireAuth())
	{
		audits.GET("", h.authMW.RequireMember(model.RoleAdmin), h.ListAuditLog)
	}
}

// ListAuditLog returns the organization's audit trail
// @Summary      List audit log
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        orgId   path      string  true   "Organization ID"
// @Param        action  query     string  false  "Filter by action"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200     {object}  response.Response{data=object}
// @Router       /api/orgs/{orgId}/audit [get]
func (h *AuditHandler) ListAuditLog(c *gin.Context) {
	params := pagination.Parse(c)

	logs, total, err := h.auditService.List(c.Request.Context(), authFromContext(c), c.Query("action"), params.Page, params.Limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"entries": logs,
		"total":   total,
		"page":    params.Page,
		"limit":   params.Limit,
	}))
}
