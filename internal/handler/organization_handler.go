package handler

import (
	"net/http"

	"stokledger/internal/middleware"
	"stokledger/internal/model"
	"stokledger/internal/service"
	"stokledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type OrganizationHandler struct {
	orgService service.OrganizationService
	authMW     *middleware.AuthMiddleware
}

func NewOrganizationHandler(orgService service.OrganizationService, authMW *middleware.AuthMiddleware) *OrganizationHandler {
	return &OrganizationHandler{orgService: orgService, authMW: authMW}
}

func (h *OrganizationHandler) RegisterRoutes(router *gin.RouterGroup) {
	orgs := router.Group("/api/orgs", h.authMW.RequireAuth())
	{
		orgs.POST("", h.CreateOrganization)
		orgs.GET("", h.ListOrganizations)
		orgs.GET("/:orgId/members", h.authMW.RequireMember(model.RoleAnggota), h.ListMembers)
		orgs.POST("/:orgId/members", h.authMW.RequireMember(model.RoleAdmin), h.AddMember)
	}
}

// CreateOrganization creates an organization owned by the caller
// @Summary      Create organization
// @Description  Creates an organization; the creator becomes pemilik
// @Tags         organizations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateOrganizationRequest  true  "Create Organization Payload"
// @Success      201      {object}  response.Response{data=service.OrganizationResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/orgs [post]
func (h *OrganizationHandler) CreateOrganization(c *gin.Context) {
	var req service.CreateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID, _ := c.Value(middleware.CtxUserID).(uuid.UUID)
	org, err := h.orgService.Create(c.Request.Context(), userID, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, org))
}

// ListOrganizations lists organizations the caller belongs to
// @Summary      List organizations
// @Tags         organizations
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]service.OrganizationResponse}
// @Router       /api/orgs [get]
func (h *OrganizationHandler) ListOrganizations(c *gin.Context) {
	userID, _ := c.Value(middleware.CtxUserID).(uuid.UUID)
	orgs, err := h.orgService.ListForUser(c.Request.Context(), userID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, orgs))
}

// ListMembers lists the organization's members with their roles
// @Summary      List members
// @Tags         organizations
// @Security     BearerAuth
// @Produce      json
// @Param        orgId  path      string  true  "Organization ID"
// @Success      200    {object}  response.Response{data=[]service.MemberResponse}
// @Router       /api/orgs/{orgId}/members [get]
func (h *OrganizationHandler) ListMembers(c *gin.Context) {
	members, err := h.orgService.ListMembers(c.Request.Context(), authFromContext(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, members))
}

// AddMember adds a user to the organization with a role
// @Summary      Add member
// @Description  Adds an existing user to the organization (admin and above)
// @Tags         organizations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        orgId    path      string                    true  "Organization ID"
// @Param        payload  body      service.AddMemberRequest  true  "Add Member Payload"
// @Success      201      {object}  response.Response{data=service.MemberResponse}
// @Failure      403      {object}  response.Response
// @Router       /api/orgs/{orgId}/members [post]
func (h *OrganizationHandler) AddMember(c *gin.Context) {
	var req service.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	member, err := h.orgService.AddMember(c.Request.Context(), authFromContext(c), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, member))
}
