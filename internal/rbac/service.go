package rbac

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tavolo-pos/tavolo-pos/internal/shared"
)

// Repository persists role permission overrides.
type Repository interface {
	GetRole(ctx context.Context, role string) (RoleRecord, error)
	UpsertRole(ctx context.Context, role string, permissions RolePermissions) (RoleRecord, error)
	ListRoles(ctx context.Context) ([]RoleRecord, error)
}

// Service orchestrates permission lookups and updates.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Matrix returns the static capability matrix.
func (s *Service) Matrix() []CapabilityModule {
	return CapabilityMatrix()
}

// GetRolePermissions returns the stored overrides for a role.
// Roles with no stored record return shared.ErrNotFound; callers treat that as no access.
func (s *Service) GetRolePermissions(ctx context.Context, role string) (RoleRecord, error) {
	role = normalizeRole(role)
	if role == "" {
		return RoleRecord{}, fmt.Errorf("%w: role required", shared.ErrValidation)
	}
	return s.repo.GetRole(ctx, role)
}

// SetRolePermissions validates the grants against the capability matrix and upserts them.
func (s *Service) SetRolePermissions(ctx context.Context, role string, permissions RolePermissions) (RoleRecord, error) {
	role = normalizeRole(role)
	if role == "" {
		return RoleRecord{}, fmt.Errorf("%w: role required", shared.ErrValidation)
	}
	if err := validatePermissions(permissions); err != nil {
		return RoleRecord{}, err
	}
	return s.repo.UpsertRole(ctx, role, permissions)
}

// ListRolePermissions returns every stored role record.
func (s *Service) ListRolePermissions(ctx context.Context) ([]RoleRecord, error) {
	return s.repo.ListRoles(ctx)
}

// Check evaluates one permission for a role, loading its overrides.
// A missing role record evaluates to a denial, never an error.
func (s *Service) Check(ctx context.Context, role, module, action string) (Decision, error) {
	role = normalizeRole(role)
	record, err := s.repo.GetRole(ctx, role)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Evaluate(role, module, action, nil), nil
		}
		return Deny("permission lookup failed"), err
	}
	return Evaluate(role, module, action, record.Permissions), nil
}

func validatePermissions(permissions RolePermissions) error {
	known := make(map[string]map[string]bool, len(CapabilityMatrix()))
	for _, mod := range CapabilityMatrix() {
		actions := make(map[string]bool, len(mod.Actions))
		for _, a := range mod.Actions {
			actions[a] = true
		}
		known[mod.Name] = actions
	}
	for module, grants := range permissions {
		actions, ok := known[module]
		if !ok {
			return fmt.Errorf("%w: unknown module %q", shared.ErrValidation, module)
		}
		for action := range grants.Actions {
			if !actions[action] {
				return fmt.Errorf("%w: unknown action %q for module %q", shared.ErrValidation, action, module)
			}
		}
	}
	return nil
}

func normalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}
