package rbac

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tavolo-pos/tavolo-pos/internal/shared"
)

type memoryRepo struct {
	records map[string]RoleRecord
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{records: make(map[string]RoleRecord)}
}

func (r *memoryRepo) GetRole(ctx context.Context, role string) (RoleRecord, error) {
	record, ok := r.records[role]
	if !ok {
		return RoleRecord{}, shared.ErrNotFound
	}
	return record, nil
}

func (r *memoryRepo) UpsertRole(ctx context.Context, role string, permissions RolePermissions) (RoleRecord, error) {
	record := RoleRecord{Role: role, Permissions: permissions, UpdatedAt: time.Now()}
	r.records[role] = record
	return record, nil
}

func (r *memoryRepo) ListRoles(ctx context.Context) ([]RoleRecord, error) {
	out := make([]RoleRecord, 0, len(r.records))
	for _, record := range r.records {
		out = append(out, record)
	}
	return out, nil
}

func TestCheckFailsClosedForUnknownRole(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	decision, err := svc.Check(ctx, "guest", ModuleBilling, ActionView)
	require.NoError(t, err)
	require.False(t, decision.Granted)
	require.NotEmpty(t, decision.Reason)
}

func TestCheckGrantsStoredAction(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.SetRolePermissions(ctx, "cashier", RolePermissions{
		ModuleBilling: {Actions: map[string]bool{ActionView: true, ActionCreate: true}},
	})
	require.NoError(t, err)

	granted, err := svc.Check(ctx, "cashier", ModuleBilling, ActionCreate)
	require.NoError(t, err)
	require.True(t, granted.Granted)

	denied, err := svc.Check(ctx, "cashier", ModuleBilling, ActionDelete)
	require.NoError(t, err)
	require.False(t, denied.Granted)

	otherModule, err := svc.Check(ctx, "cashier", ModuleStock, ActionView)
	require.NoError(t, err)
	require.False(t, otherModule.Granted)
}

func TestViewBillsRule(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.SetRolePermissions(ctx, "waiter", RolePermissions{
		ModuleBilling: {Actions: map[string]bool{ActionViewDailyBills: true}},
	})
	require.NoError(t, err)
	_, err = svc.SetRolePermissions(ctx, "manager", RolePermissions{
		ModuleBilling: {Actions: map[string]bool{ActionViewAllBills: true}},
	})
	require.NoError(t, err)
	_, err = svc.SetRolePermissions(ctx, "cook", RolePermissions{
		ModuleBilling: {Actions: map[string]bool{ActionView: true}},
	})
	require.NoError(t, err)

	daily, err := svc.Check(ctx, "waiter", ModuleBilling, ActionViewBills)
	require.NoError(t, err)
	require.True(t, daily.Granted)

	all, err := svc.Check(ctx, "manager", ModuleBilling, ActionViewBills)
	require.NoError(t, err)
	require.True(t, all.Granted)

	neither, err := svc.Check(ctx, "cook", ModuleBilling, ActionViewBills)
	require.NoError(t, err)
	require.False(t, neither.Granted)
}

func TestSetRolePermissionsRejectsUnknownCapability(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.SetRolePermissions(ctx, "cashier", RolePermissions{
		"reservations": {Actions: map[string]bool{ActionView: true}},
	})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.SetRolePermissions(ctx, "cashier", RolePermissions{
		ModuleDashboard: {Actions: map[string]bool{ActionDelete: true}},
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestRoleNameNormalised(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.SetRolePermissions(ctx, "  Cashier ", RolePermissions{
		ModuleProducts: {Actions: map[string]bool{ActionView: true}},
	})
	require.NoError(t, err)

	decision, err := svc.Check(ctx, "CASHIER", ModuleProducts, ActionView)
	require.NoError(t, err)
	require.True(t, decision.Granted)
}

func TestEvaluateWithNilOverrides(t *testing.T) {
	decision := Evaluate("guest", ModuleProducts, ActionView, nil)
	require.False(t, decision.Granted)

	decision = Evaluate("", ModuleProducts, ActionView, RolePermissions{})
	require.False(t, decision.Granted)
}
