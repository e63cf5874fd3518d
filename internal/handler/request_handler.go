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

type RequestHandler struct {
	requestService service.RequestService
	authMW         *middleware.AuthMiddleware
}

func NewRequestHandler(requestService service.RequestService, authMW *middleware.AuthMiddleware) *RequestHandler {
	return &RequestHandler{requestService: requestService, authMW: authMW}
}

func (h *RequestHandler) RegisterRoutes(router *gin.RouterGroup) {
	requests := router.Group("/api/orgs/:orgId/requests", h.authMW.RequireAuth())
	{
		requests.GET("", h.authMW.RequireMember(model.RoleAnggota), h.ListRequests)
		requests.POST("", h.authMW.RequireMember(model.RoleAnggota), h.CreateRequest)
		requests.PUT("/:id/fulfill", h.authMW.RequireMember(model.RoleLogistik), h.FulfillRequest)
		requests.PUT("/:id/cancel", h.authMW.RequireMember(model.RoleAnggota), h.CancelRequest)
	}
}

// ListRequests lists stock requests, optionally filtered by status
// @Summary      List stock requests
// @Tags         requests
// @Security     BearerAuth
// @Produce      json
// @Param        orgId   path      string  true   "Organization ID"
// @Param        status  query     string  false  "Filter by status (PENDING, FULFILLED, CANCELLED)"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200     {object}  response.Response{data=object}
// @Router       /api/orgs/{orgId}/requests [get]
func (h *RequestHandler) ListRequests(c *gin.Context) {
	params := pagination.Parse(c)
	filter := service.RequestFilter{
		Status: c.Query("status"),
		Page:   params.Page,
		Limit:  params.Limit,
	}

	requests, total, err := h.requestService.List(c.Request.Context(), authFromContext(c), filter)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"requests": requests,
		"total":    total,
		"page":     params.Page,
		"limit":    params.Limit,
	}))
}

// CreateRequest records the intent to withdraw stock
// @Summary      Create stock request
// @Description  Creates a pending withdrawal request; no ledger write happens until fulfillment
// @Tags         requests
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        orgId    path      string                    true  "Organization ID"
// @Param        payload  body      service.CreateRequestDTO  true  "Create Request Payload"
// @Success      201      {object}  response.Response{data=service.StockRequestResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/orgs/{orgId}/requests [post]
func (h *RequestHandler) CreateRequest(c *gin.Context) {
	var req service.CreateRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	request, err := h.requestService.Create(c.Request.Context(), authFromContext(c), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, request))
}

// FulfillRequest turns a pending request into an OUT ledger entry
// @Summary      Fulfill stock request
// @Description  Writes the OUT entry and finalizes the request in one transaction
// @Tags         requests
// @Security     BearerAuth
// @Produce      json
// @Param        orgId  path      string  true  "Organization ID"
// @Param        id     path      string  true  "Request ID"
// @Success      200    {object}  response.Response{data=service.FulfillResult}
// @Failure      403    {object}  response.Response
// @Failure      409    {object}  response.Response
// @Router       /api/orgs/{orgId}/requests/{id}/fulfill [put]
func (h *RequestHandler) FulfillRequest(c *gin.Context) {
	result, err := h.requestService.Fulfill(c.Request.Context(), authFromContext(c), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// CancelRequest finalizes a pending request without touching stock
// @Summary      Cancel stock request
// @Description  Requester may cancel their own request; logistik and above may cancel any
// @Tags         requests
// @Security     BearerAuth
// @Produce      json
// @Param        orgId  path      string  true  "Organization ID"
// @Param        id     path      string  true  "Request ID"
// @Success      200    {object}  response.Response{data=service.StockRequestResponse}
// @Failure      403    {object}  response.Response
// @Failure      409    {object}  response.Response
// @Router       /api/orgs/{orgId}/requests/{id}/cancel [put]
func (h *RequestHandler) CancelRequest(c *gin.Context) {
	request, err := h.requestService.Cancel(c.Request.Context(), authFromContext(c), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, request))
}
