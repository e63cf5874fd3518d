package handler

import (
	"net/http"
	"time"

	"stokledger/internal/middleware"
	"stokledger/internal/model"
	"stokledger/internal/service"
	"stokledger/pkg/pagination"
	"stokledger/pkg/response"

	"github.com/gin-gonic/gin"
)

type TransactionHandler struct {
	ledgerService service.LedgerService
	authMW        *middleware.AuthMiddleware
}

func NewTransactionHandler(ledgerService service.LedgerService, authMW *middleware.AuthMiddleware) *TransactionHandler {
	return &TransactionHandler{ledgerService: ledgerService, authMW: authMW}
}

func (h *TransactionHandler) RegisterRoutes(router *gin.RouterGroup) {
	txs := router.Group("/api/orgs/:orgId/transactions", h.authMW.RequireAuth())
	{
		txs.GET("", h.authMW.RequireMember(model.RoleAnggota), h.ListTransactions)
		txs.POST("", h.authMW.RequireMember(model.RoleStaf), h.AppendTransaction)
		txs.DELETE("/:id", h.authMW.RequireMember(model.RoleLogistik), h.DeleteTransaction)
		txs.POST("/bulk-delete", h.authMW.RequireMember(model.RoleLogistik), h.BulkDeleteTransactions)
	}
}

type bulkDeleteRequest struct {
	IDs []string `json:"ids" binding:"required,min=1"`
}

// ListTransactions lists a product's ledger entries by insertion recency
// @Summary      List transactions
// @Tags         transactions
// @Security     BearerAuth
// @Produce      json
// @Param        orgId       path      string  true   "Organization ID"
// @Param        product_id  query     string  true   "Product ID"
// @Param        month       query     string  false  "Restrict to month (YYYY-MM)"
// @Param        page        query     int     false  "Page number (default 1)"
// @Param        limit       query     int     false  "Number of items per page (default 20)"
// @Success      200         {object}  response.Response{data=object}
// @Failure      400         {object}  response.Response
// @Router       /api/orgs/{orgId}/transactions [get]
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	productID := c.Query("product_id")
	if productID == "" {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "product_id query parameter is required"))
		return
	}
	params := pagination.Parse(c)

	txs, total, err := h.ledgerService.ListTransactions(c.Request.Context(), authFromContext(c),
		productID, c.Query("month"), params.Page, params.Limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"transactions": txs,
		"total":        total,
		"page":         params.Page,
		"limit":        params.Limit,
	}))
}

// AppendTransaction records one IN/OUT stock movement
// @Summary      Append transaction
// @Description  Appends a stock movement; the entry and the stock patch commit atomically
// @Tags         transactions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        orgId    path      string                            true  "Organization ID"
// @Param        payload  body      service.AppendTransactionRequest  true  "Append Transaction Payload"
// @Success      201      {object}  response.Response{data=service.TransactionResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/orgs/{orgId}/transactions [post]
func (h *TransactionHandler) AppendTransaction(c *gin.Context) {
	var req service.AppendTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	entry, err := h.ledgerService.Append(c.Request.Context(), authFromContext(c), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, entry))
}

// DeleteTransaction reverses and deletes a ledger entry
// @Summary      Delete transaction
// @Description  Reverses the entry's effect on current stock and deletes it, honoring the role/time-window policy
// @Tags         transactions
// @Security     BearerAuth
// @Produce      json
// @Param        orgId  path      string  true  "Organization ID"
// @Param        id     path      string  true  "Transaction ID"
// @Success      200    {object}  response.Response
// @Failure      403    {object}  response.Response
// @Failure      404    {object}  response.Response
// @Router       /api/orgs/{orgId}/transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	err := h.ledgerService.ReverseAndDelete(c.Request.Context(), authFromContext(c), c.Param("id"), time.Now())
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Transaction deleted successfully"))
}

// BulkDeleteTransactions reverses and deletes several entries, best effort
// @Summary      Bulk delete transactions
// @Description  Applies the single-entry reversal per id; failures do not roll back prior deletions
// @Tags         transactions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        orgId    path      string             true  "Organization ID"
// @Param        payload  body      bulkDeleteRequest  true  "Transaction IDs"
// @Success      200      {object}  response.Response{data=service.BulkDeleteResult}
// @Router       /api/orgs/{orgId}/transactions/bulk-delete [post]
func (h *TransactionHandler) BulkDeleteTransactions(c *gin.Context) {
	var req bulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.ledgerService.BulkReverseAndDelete(c.Request.Context(), authFromContext(c), req.IDs, time.Now())
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
