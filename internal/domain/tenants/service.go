// Package tenants manages tenant records and resolves the tenant of a request.
package tenants

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"adminpanel/internal/core/apperror"
	"adminpanel/internal/core/entity"
	"adminpanel/internal/core/tenant"
	"adminpanel/internal/core/tx"
	"adminpanel/internal/domain/audit"
	"adminpanel/pkg/logger"
)

// Tenant is an organization whose users share a data scope.
type Tenant struct {
	entity.BaseEntity
	Name                string          `db:"name" json:"name"`
	Domain              *string         `db:"domain" json:"domain,omitempty"`
	LogoURL             *string         `db:"logo_url" json:"logoUrl,omitempty"`
	IsActive            bool            `db:"is_active" json:"isActive"`
	SubscriptionEndDate *time.Time      `db:"subscription_end_date" json:"subscriptionEndDate,omitempty"`
	Settings            json.RawMessage `db:"settings" json:"settings,omitempty"`
}

// Usable reports whether requests may run in this tenant at now.
func (t *Tenant) Usable(now time.Time) error {
	if !t.IsActive {
		return tenant.ErrTenantNotActive
	}
	if t.SubscriptionEndDate != nil && t.SubscriptionEndDate.Before(now) {
		return tenant.ErrSubscriptionExpired
	}
	return nil
}

// Repository is the tenant store. Lookups exclude soft-deleted tenants.
type Repository interface {
	GetByID(ctx context.Context, tenantID int64) (*Tenant, error)
	// List returns tenants ordered by name.
	List(ctx context.Context) ([]Tenant, error)
	ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error)
	Create(ctx context.Context, t *Tenant) error
	Update(ctx context.Context, t *Tenant) error
}

// Request creates or updates a tenant.
type Request struct {
	Name                string          `json:"name" binding:"required,max=200"`
	Domain              *string         `json:"domain" binding:"omitempty,max=200"`
	LogoURL             *string         `json:"logoUrl" binding:"omitempty,max=500"`
	SubscriptionEndDate *time.Time      `json:"subscriptionEndDate"`
	Settings            json.RawMessage `json:"settings"`
}

type Service struct {
	repo      Repository
	txManager tx.Manager
	audit     audit.Writer
	now       func() time.Time
}

func NewService(repo Repository, txManager tx.Manager, recorder audit.Writer) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
		audit:     recorder,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) GetByID(ctx context.Context, tenantID int64) (*Tenant, error) {
	return s.repo.GetByID(ctx, tenantID)
}

func (s *Service) GetAll(ctx context.Context) ([]Tenant, error) {
	return s.repo.List(ctx)
}

// Resolve loads a tenant for request scoping and rejects tenants that are
// inactive or past their subscription.
func (s *Service) Resolve(ctx context.Context, tenantID int64) (*Tenant, error) {
	t, err := s.repo.GetByID(ctx, tenantID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewForbidden(tenant.ErrTenantNotFound.Error()).
				WithDetail("tenant_id", tenantID).WithCause(tenant.ErrTenantNotFound)
		}
		return nil, err
	}
	if err := t.Usable(s.now()); err != nil {
		return nil, apperror.NewForbidden(err.Error()).WithDetail("tenant_id", tenantID).WithCause(err)
	}
	return t, nil
}

func (s *Service) Create(ctx context.Context, req Request) (*Tenant, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.NewValidation("name is required")
	}
	if err := validSettings(req.Settings); err != nil {
		return nil, err
	}

	t := &Tenant{
		Name:                name,
		Domain:              req.Domain,
		LogoURL:             req.LogoURL,
		IsActive:            true,
		SubscriptionEndDate: req.SubscriptionEndDate,
		Settings:            req.Settings,
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		exists, err := s.repo.ExistsByName(ctx, name, 0)
		if err != nil {
			return err
		}
		if exists {
			return apperror.NewDuplicate("tenant", "name", name)
		}
		t.StampCreated(ctx, s.now())
		return s.repo.Create(ctx, t)
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.EntityTenant, t.ID, audit.ActionCreate, nil, t)
	logger.Info(ctx, "tenant created", "tenant", t.ID, "name", t.Name)
	return t, nil
}

func (s *Service) Update(ctx context.Context, tenantID int64, req Request) (*Tenant, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.NewValidation("name is required")
	}
	if err := validSettings(req.Settings); err != nil {
		return nil, err
	}

	var before, after Tenant
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		t, err := s.repo.GetByID(ctx, tenantID)
		if err != nil {
			return err
		}
		before = *t

		exists, err := s.repo.ExistsByName(ctx, name, tenantID)
		if err != nil {
			return err
		}
		if exists {
			return apperror.NewDuplicate("tenant", "name", name)
		}

		t.Name = name
		t.Domain = req.Domain
		t.LogoURL = req.LogoURL
		t.SubscriptionEndDate = req.SubscriptionEndDate
		if req.Settings != nil {
			t.Settings = req.Settings
		}
		t.StampUpdated(ctx, s.now())
		if err := s.repo.Update(ctx, t); err != nil {
			return err
		}
		after = *t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.EntityTenant, tenantID, audit.ActionUpdate, before, after)
	return &after, nil
}

// SetActive activates or deactivates a tenant.
func (s *Service) SetActive(ctx context.Context, tenantID int64, active bool) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		t, err := s.repo.GetByID(ctx, tenantID)
		if err != nil {
			return err
		}
		t.IsActive = active
		t.StampUpdated(ctx, s.now())
		return s.repo.Update(ctx, t)
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, audit.EntityTenant, tenantID, audit.ActionUpdate,
		map[string]bool{"isActive": !active}, map[string]bool{"isActive": active})
	return nil
}

// ToggleStatus flips IsActive and returns the new value.
func (s *Service) ToggleStatus(ctx context.Context, tenantID int64) (bool, error) {
	t, err := s.repo.GetByID(ctx, tenantID)
	if err != nil {
		return false, err
	}
	active := !t.IsActive
	if err := s.SetActive(ctx, tenantID, active); err != nil {
		return false, err
	}
	return active, nil
}

func validSettings(raw json.RawMessage) error {
	if len(raw) == 0 {
		return nil
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return apperror.NewValidation("settings must be a JSON object")
	}
	return nil
}
