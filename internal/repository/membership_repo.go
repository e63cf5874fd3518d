package repository

import (
	"context"

	"stokledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrganizationRepository interface {
	Create(ctx context.Context, org *model.Organization) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Organization, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Organization, error)
}

type MembershipRepository interface {
	Create(ctx context.Context, m *model.Membership) error
	FindRole(ctx context.Context, orgID, userID uuid.UUID) (string, error)
	ListMembers(ctx context.Context, orgID uuid.UUID) ([]model.Membership, error)
}

type organizationRepository struct {
	db *gorm.DB
}

func NewOrganizationRepository(db *gorm.DB) OrganizationRepository {
	return &organizationRepository{db: db}
}

func (r *organizationRepository) Create(ctx context.Context, org *model.Organization) error {
	return GetDB(ctx, r.db).Create(org).Error
}

func (r *organizationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	var org model.Organization
	if err := GetDB(ctx, r.db).First(&org, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *organizationRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Organization, error) {
	var orgs []model.Organization
	err := GetDB(ctx, r.db).
		Joins("JOIN memberships ON memberships.organization_id = organizations.id").
		Where("memberships.user_id = ?", userID).
		Order("organizations.created_at ASC").
		Find(&orgs).Error
	if err != nil {
		return nil, err
	}
	return orgs, nil
}

type membershipRepository struct {
	db *gorm.DB
}

func NewMembershipRepository(db *gorm.DB) MembershipRepository {
	return &membershipRepository{db: db}
}

func (r *membershipRepository) Create(ctx context.Context, m *model.Membership) error {
	return GetDB(ctx, r.db).Create(m).Error
}

func (r *membershipRepository) FindRole(ctx context.Context, orgID, userID uuid.UUID) (string, error) {
	var m model.Membership
	if err := GetDB(ctx, r.db).
		Where("organization_id = ? AND user_id = ?", orgID, userID).
		First(&m).Error; err != nil {
		return "", err
	}
	return m.Role, nil
}

func (r *membershipRepository) ListMembers(ctx context.Context, orgID uuid.UUID) ([]model.Membership, error) {
	var members []model.Membership
	if err := GetDB(ctx, r.db).Preload("User").
		Where("organization_id = ?", orgID).
		Order("created_at ASC").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}
