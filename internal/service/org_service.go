package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"stokledger/internal/model"
	"stokledger/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateOrganizationRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type AddMemberRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"required"`
}

type OrganizationResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

type MemberResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	JoinedAt string `json:"joined_at"`
}

type OrganizationService interface {
	Create(ctx context.Context, actorID uuid.UUID, req CreateOrganizationRequest) (OrganizationResponse, error)
	ListForUser(ctx context.Context, actorID uuid.UUID) ([]OrganizationResponse, error)
	AddMember(ctx context.Context, auth AuthContext, req AddMemberRequest) (MemberResponse, error)
	ListMembers(ctx context.Context, auth AuthContext) ([]MemberResponse, error)
}

type organizationService struct {
	orgRepo        repository.OrganizationRepository
	membershipRepo repository.MembershipRepository
	userRepo       repository.UserRepository
	auditRepo      repository.AuditRepository
	txManager      repository.TransactionManager
	onMemberChange func(orgID, userID uuid.UUID)
}

// NewOrganizationService builds the org/membership glue around the core.
// onMemberChange is invoked after membership writes so the middleware's
// role cache can drop stale entries; nil is fine.
func NewOrganizationService(
	orgRepo repository.OrganizationRepository,
	membershipRepo repository.MembershipRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	onMemberChange func(orgID, userID uuid.UUID),
) OrganizationService {
	return &organizationService{
		orgRepo:        orgRepo,
		membershipRepo: membershipRepo,
		userRepo:       userRepo,
		auditRepo:      auditRepo,
		txManager:      txManager,
		onMemberChange: onMemberChange,
	}
}

// Create makes a new organization whose creator becomes pemilik.
func (s *organizationService) Create(ctx context.Context, actorID uuid.UUID, req CreateOrganizationRequest) (OrganizationResponse, error) {
	if strings.TrimSpace(req.Name) == "" {
		return OrganizationResponse{}, validationErrorf("organization name must not be empty")
	}

	org := model.Organization{
		Name:        req.Name,
		Description: req.Description,
		CreatedBy:   actorID,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.orgRepo.Create(txCtx, &org); createErr != nil {
			return fmt.Errorf("failed to create organization: %w", createErr)
		}

		membership := model.Membership{
			OrganizationID: org.ID,
			UserID:         actorID,
			Role:           model.RolePemilik,
		}
		if createErr := s.membershipRepo.Create(txCtx, &membership); createErr != nil {
			return fmt.Errorf("failed to create membership: %w", createErr)
		}

		details, _ := json.Marshal(req)
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			OrganizationID: &org.ID,
			UserID:         &actorID,
			Action:         model.ActionCreateOrganization,
			EntityID:       org.ID.String(),
			EntityName:     org.Name,
			Details:        string(details),
		})
	})
	if err != nil {
		return OrganizationResponse{}, err
	}

	return toOrganizationResponse(org), nil
}

func (s *organizationService) ListForUser(ctx context.Context, actorID uuid.UUID) ([]OrganizationResponse, error) {
	orgs, err := s.orgRepo.ListForUser(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}

	res := make([]OrganizationResponse, 0, len(orgs))
	for _, org := range orgs {
		res = append(res, toOrganizationResponse(org))
	}
	return res, nil
}

func (s *organizationService) AddMember(ctx context.Context, auth AuthContext, req AddMemberRequest) (MemberResponse, error) {
	if !model.MeetsMinimum(auth.Role, model.RoleAdmin) {
		return MemberResponse{}, ErrForbidden
	}
	if !model.ValidRole(req.Role) {
		return MemberResponse{}, validationErrorf("unknown role %q", req.Role)
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return MemberResponse{}, ErrNotFound
		}
		return MemberResponse{}, fmt.Errorf("database error: %w", err)
	}

	membership := model.Membership{
		OrganizationID: auth.OrganizationID,
		UserID:         user.ID,
		Role:           req.Role,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.membershipRepo.Create(txCtx, &membership); createErr != nil {
			return fmt.Errorf("failed to create membership: %w", createErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"user_id": user.ID.String(),
			"role":    req.Role,
		})
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			OrganizationID: &auth.OrganizationID,
			UserID:         &auth.ActorID,
			Action:         model.ActionAddMember,
			EntityID:       user.ID.String(),
			EntityName:     user.Username,
			Details:        string(details),
		})
	})
	if err != nil {
		return MemberResponse{}, err
	}

	if s.onMemberChange != nil {
		s.onMemberChange(auth.OrganizationID, user.ID)
	}

	return MemberResponse{
		UserID:   user.ID.String(),
		Username: user.Username,
		Email:    user.Email,
		Role:     req.Role,
		JoinedAt: membership.CreatedAt.Format(time.RFC3339),
	}, nil
}

func (s *organizationService) ListMembers(ctx context.Context, auth AuthContext) ([]MemberResponse, error) {
	members, err := s.membershipRepo.ListMembers(ctx, auth.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	res := make([]MemberResponse, 0, len(members))
	for _, m := range members {
		member := MemberResponse{
			UserID:   m.UserID.String(),
			Role:     m.Role,
			JoinedAt: m.CreatedAt.Format(time.RFC3339),
		}
		if m.User != nil {
			member.Username = m.User.Username
			member.Email = m.User.Email
		}
		res = append(res, member)
	}
	return res, nil
}

func toOrganizationResponse(org model.Organization) OrganizationResponse {
	return OrganizationResponse{
		ID:          org.ID.String(),
		Name:        org.Name,
		Description: org.Description,
		CreatedAt:   org.CreatedAt.Format(time.RFC3339),
	}
}
