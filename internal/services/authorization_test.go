package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stwalsh4118/estate/api/internal/auth"
	"github.com/stwalsh4118/estate/api/internal/models"
)

func TestCanMutate(t *testing.T) {
	creator := uuid.New()
	other := uuid.New()
	property := &models.Property{ID: uuid.New(), CreatedBy: &creator}
	orphan := &models.Property{ID: uuid.New()}

	tests := []struct {
		name     string
		actor    *auth.Actor
		property *models.Property
		allowed  bool
		elevated bool
		wantErr  error
	}{
		{"unauthenticated", nil, property, false, false, ErrAuthenticationRequired},
		{"super admin on any property", &auth.Actor{ID: other, Role: auth.RoleSuperAdmin}, property, true, true, nil},
		{"super admin on property without creator", &auth.Actor{ID: other, Role: auth.RoleSuperAdmin}, orphan, true, true, nil},
		{"admin who created it", &auth.Actor{ID: creator, Role: auth.RoleAdmin}, property, true, false, nil},
		{"admin who did not create it", &auth.Actor{ID: other, Role: auth.RoleAdmin}, property, false, false, ErrForbidden},
		{"admin on property without creator", &auth.Actor{ID: creator, Role: auth.RoleAdmin}, orphan, false, false, ErrForbidden},
		{"plain user who created it", &auth.Actor{ID: creator, Role: auth.RoleUser}, property, false, false, ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := CanMutate(tt.actor, tt.property)

			assert.Equal(t, tt.allowed, d.Allowed)
			assert.Equal(t, tt.elevated, d.Elevated)
			if tt.wantErr == nil {
				assert.NoError(t, d.Err())
			} else {
				assert.ErrorIs(t, d.Err(), tt.wantErr)
				assert.NotEmpty(t, d.Reason)
			}
		})
	}
}

func TestCanCreate(t *testing.T) {
	assert.ErrorIs(t, CanCreate(nil).Err(), ErrAuthenticationRequired)
	assert.ErrorIs(t, CanCreate(&auth.Actor{ID: uuid.New(), Role: auth.RoleUser}).Err(), ErrForbidden)

	admin := CanCreate(&auth.Actor{ID: uuid.New(), Role: auth.RoleAdmin})
	assert.True(t, admin.Allowed)
	assert.False(t, admin.Elevated)

	super := CanCreate(&auth.Actor{ID: uuid.New(), Role: auth.RoleSuperAdmin})
	assert.True(t, super.Allowed)
	assert.True(t, super.Elevated)
}
