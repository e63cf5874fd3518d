package handler

import (
	"net/http"

	"stokledger/internal/middleware"
	"stokledger/internal/model"
	"stokledger/internal/service"
	"stokledger/pkg/response"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reportService service.ReportService
	authMW        *middleware.AuthMiddleware
}

func NewReportHandler(reportService service.ReportService, authMW *middleware.AuthMiddleware) *ReportHandler {
	return &ReportHandler{reportService: reportService, authMW: authMW}
}

func (h *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	reports := router.Group("/api/orgs/:orgId/reports", h.authMW.RequireAuth())
	{
		reports.GET("/monthly", h.authMW.RequireMember(model.RoleAnggota), h.MonthlyReport)
	}
}

// MonthlyReport reconstructs a product's ledger for a calendar month
// @Summary      Monthly report
// @Description  Derives the opening balance and replays the month's entries with their frozen running balances
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        orgId       path      string  true  "Organization ID"
// @Param        product_id  query     string  true  "Product ID"
// @Param        month       query     string  true  "Month (YYYY-MM)"
// @Success      200         {object}  response.Response{data=service.MonthlyReport}
// @Failure      400         {object}  response.Response
// @Failure      404         {object}  response.Response
// @Router       /api/orgs/{orgId}/reports/monthly [get]
func (h *ReportHandler) MonthlyReport(c *gin.Context) {
	productID := c.Query("product_id")
	month := c.Query("month")
	if productID == "" || month == "" {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "product_id and month query parameters are required"))
		return
	}

	report, err := h.reportService.ReconstructMonth(c.Request.Context(), authFromContext(c), productID, month)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}
