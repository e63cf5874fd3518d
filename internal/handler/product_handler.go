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

type ProductHandler struct {
	ledgerService service.LedgerService
	authMW        *middleware.AuthMiddleware
}

func NewProductHandler(ledgerService service.LedgerService, authMW *middleware.AuthMiddleware) *ProductHandler {
	return &ProductHandler{ledgerService: ledgerService, authMW: authMW}
}

func (h *ProductHandler) RegisterRoutes(router *gin.RouterGroup) {
	products := router.Group("/api/orgs/:orgId/products", h.authMW.RequireAuth())
	{
		products.GET("", h.authMW.RequireMember(model.RoleAnggota), h.ListProducts)
		products.GET("/:id", h.authMW.RequireMember(model.RoleAnggota), h.GetProduct)
		products.POST("", h.authMW.RequireMember(model.RoleStaf), h.CreateProduct)
	}
}

// ListProducts retrieves paginated products with current stock
// @Summary      List products
// @Tags         products
// @Security     BearerAuth
// @Produce      json
// @Param        orgId   path      string  true   "Organization ID"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Param        search  query     string  false  "Search by product name"
// @Success      200     {object}  response.Response{data=object}
// @Failure      500     {object}  response.Response
// @Router       /api/orgs/{orgId}/products [get]
func (h *ProductHandler) ListProducts(c *gin.Context) {
	params := pagination.Parse(c)
	search := c.Query("search")

	products, total, err := h.ledgerService.ListProducts(c.Request.Context(), authFromContext(c), params.Page, params.Limit, search)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"products": products,
		"total":    total,
		"page":     params.Page,
		"limit":    params.Limit,
	}))
}

// GetProduct retrieves a single product
// @Summary      Get product
// @Tags         products
// @Security     BearerAuth
// @Produce      json
// @Param        orgId  path      string  true  "Organization ID"
// @Param        id     path      string  true  "Product ID"
// @Success      200    {object}  response.Response{data=service.ProductResponse}
// @Failure      404    {object}  response.Response
// @Router       /api/orgs/{orgId}/products/{id} [get]
func (h *ProductHandler) GetProduct(c *gin.Context) {
	product, err := h.ledgerService.GetProduct(c.Request.Context(), authFromContext(c), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// CreateProduct creates a product; non-zero initial stock seeds the
// opening ledger entry
// @Summary      Create product
// @Description  Creates a product; initial stock > 0 seeds a "Stok Awal" ledger entry
// @Tags         products
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        orgId    path      string                        true  "Organization ID"
// @Param        payload  body      service.CreateProductRequest  true  "Create Product Payload"
// @Success      201      {object}  response.Response{data=service.ProductResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/orgs/{orgId}/products [post]
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req service.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	product, err := h.ledgerService.CreateProduct(c.Request.Context(), authFromContext(c), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, product))
}
