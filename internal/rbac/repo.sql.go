package rbac

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tavolo-pos/tavolo-pos/internal/shared"
)

// PGRepository persists role permissions in PostgreSQL as JSONB documents.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) GetRole(ctx context.Context, role string) (RoleRecord, error) {
	var (
		record RoleRecord
		raw    []byte
	)
	err := r.pool.QueryRow(ctx, `SELECT role, permissions, created_at, updated_at FROM role_permissions WHERE role=$1`, role).
		Scan(&record.Role, &raw, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RoleRecord{}, shared.ErrNotFound
		}
		return RoleRecord{}, err
	}
	if err := json.Unmarshal(raw, &record.Permissions); err != nil {
		return RoleRecord{}, fmt.Errorf("rbac: decode permissions for role %s: %w", role, err)
	}
	return record, nil
}

func (r *PGRepository) UpsertRole(ctx context.Context, role string, permissions RolePermissions) (RoleRecord, error) {
	raw, err := json.Marshal(permissions)
	if err != nil {
		return RoleRecord{}, fmt.Errorf("rbac: encode permissions for role %s: %w", role, err)
	}
	var record RoleRecord
	var stored []byte
	err = r.pool.QueryRow(ctx, `INSERT INTO role_permissions (role, permissions, created_at, updated_at)
VALUES ($1, $2, NOW(), NOW())
ON CONFLICT (role) DO UPDATE SET permissions=EXCLUDED.permissions, updated_at=NOW()
RETURNING role, permissions, created_at, updated_at`, role, raw).
		Scan(&record.Role, &stored, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		return RoleRecord{}, err
	}
	if err := json.Unmarshal(stored, &record.Permissions); err != nil {
		return RoleRecord{}, fmt.Errorf("rbac: decode permissions for role %s: %w", role, err)
	}
	return record, nil
}

func (r *PGRepository) ListRoles(ctx context.Context) ([]RoleRecord, error) {
	rows, err := r.pool.Query(ctx, `SELECT role, permissions, created_at, updated_at FROM role_permissions ORDER BY role ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	records := []RoleRecord{}
	for rows.Next() {
		var (
			record RoleRecord
			raw    []byte
		)
		if err := rows.Scan(&record.Role, &raw, &record.CreatedAt, &record.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &record.Permissions); err != nil {
			return nil, fmt.Errorf("rbac: decode permissions for role %s: %w", record.Role, err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
