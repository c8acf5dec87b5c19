package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/estate/api/internal/database"
)

// RoleRepository resolves the role stored in the profile of an identity.
type RoleRepository interface {
	// RoleOf returns the stored role, or "" when the identity has no profile.
	RoleOf(ctx context.Context, userID uuid.UUID) (string, error)
}

type roleRepository struct {
	db database.DB
}

// NewRoleRepository creates a new instance of RoleRepository.
func NewRoleRepository(db database.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) RoleOf(ctx context.Context, userID uuid.UUID) (string, error) {
	var role string
	err := r.db.QueryRow(ctx, `SELECT role FROM profiles WHERE id = $1`, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to query role of %s: %w", userID, err)
	}
	return role, nil
}
