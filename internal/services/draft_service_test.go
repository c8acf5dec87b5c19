package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/estate/api/internal/auth"
	"github.com/stwalsh4118/estate/api/internal/drafts"
	"github.com/stwalsh4118/estate/api/internal/logger"
	"github.com/stwalsh4118/estate/api/internal/models"
)

func newDraftService() *DraftService {
	svc := NewDraftService(drafts.NewMemoryStore(), logger.Nop())
	svc.now = func() time.Time { return time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC) }
	return svc
}

func TestDraftService_RoundTripDropsFiles(t *testing.T) {
	svc := newDraftService()
	ctx := context.Background()
	actor := adminActor()

	saved, err := svc.Save(ctx, actor, "", &models.PropertyDraft{
		Title:     "X",
		Images:    []string{"blob:local-preview"},
		Amenities: []uuid.UUID{uuid.New()},
	})
	require.NoError(t, err)
	assert.True(t, saved)

	draft, err := svc.Load(ctx, actor, drafts.DefaultSlot)
	require.NoError(t, err)
	require.NotNil(t, draft)
	assert.Equal(t, "X", draft.Title)
	assert.Equal(t, []string{}, draft.Images)
	assert.Equal(t, []string{}, draft.Documents)
	assert.Equal(t, []string{}, draft.FloorPlans)
	assert.Len(t, draft.Amenities, 1)
	assert.Equal(t, []uuid.UUID{}, draft.Views)
	assert.Equal(t, time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC), draft.SavedAt)
}

func TestDraftService_WithoutTitleIsNotSaved(t *testing.T) {
	svc := newDraftService()
	ctx := context.Background()
	actor := adminActor()

	saved, err := svc.Save(ctx, actor, "", &models.PropertyDraft{Title: "  ", Bedrooms: intPtr(3)})
	require.NoError(t, err)
	assert.False(t, saved)

	draft, err := svc.Load(ctx, actor, "")
	require.NoError(t, err)
	assert.Nil(t, draft)
}

func TestDraftService_KeyedBySlotAndUser(t *testing.T) {
	svc := newDraftService()
	ctx := context.Background()
	alice, bob := adminActor(), adminActor()

	_, err := svc.Save(ctx, alice, "tower-a", &models.PropertyDraft{Title: "Tower A"})
	require.NoError(t, err)
	_, err = svc.Save(ctx, alice, "tower-b", &models.PropertyDraft{Title: "Tower B"})
	require.NoError(t, err)

	a, err := svc.Load(ctx, alice, "tower-a")
	require.NoError(t, err)
	assert.Equal(t, "Tower A", a.Title)

	other, err := svc.Load(ctx, bob, "tower-a")
	require.NoError(t, err)
	assert.Nil(t, other)

	require.NoError(t, svc.Clear(ctx, alice, "tower-a"))
	a, err = svc.Load(ctx, alice, "tower-a")
	require.NoError(t, err)
	assert.Nil(t, a)

	b, err := svc.Load(ctx, alice, "tower-b")
	require.NoError(t, err)
	assert.Equal(t, "Tower B", b.Title)
}

func TestDraftService_LaterSaveOverwrites(t *testing.T) {
	svc := newDraftService()
	ctx := context.Background()
	actor := adminActor()

	_, err := svc.Save(ctx, actor, "", &models.PropertyDraft{Title: "First"})
	require.NoError(t, err)
	_, err = svc.Save(ctx, actor, "", &models.PropertyDraft{Title: "Second"})
	require.NoError(t, err)

	draft, err := svc.Load(ctx, actor, "")
	require.NoError(t, err)
	assert.Equal(t, "Second", draft.Title)
}

func TestDraftService_Errors(t *testing.T) {
	svc := newDraftService()
	ctx := context.Background()

	_, err := svc.Save(ctx, nil, "", &models.PropertyDraft{Title: "X"})
	assert.ErrorIs(t, err, ErrAuthenticationRequired)

	_, err = svc.Load(ctx, &auth.Actor{ID: uuid.New(), Role: auth.RoleUser}, "no spaces allowed")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestNormalizeSlot(t *testing.T) {
	slot, err := NormalizeSlot("  ")
	require.NoError(t, err)
	assert.Equal(t, drafts.DefaultSlot, slot)

	slot, err = NormalizeSlot("listing_42")
	require.NoError(t, err)
	assert.Equal(t, "listing_42", slot)

	slot, err = NormalizeSlot(strings.Repeat("a", 64))
	require.NoError(t, err)
	assert.Len(t, slot, 64)

	for _, bad := range []string{"../../etc", "a b", "café", "draft:1", strings.Repeat("a", 65)} {
		_, err = NormalizeSlot(bad)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, bad)
		assert.Contains(t, verr.Fields, "slot")
	}
}
