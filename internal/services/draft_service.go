package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/stwalsh4118/estate/api/internal/auth"
	"github.com/stwalsh4118/estate/api/internal/drafts"
	"github.com/stwalsh4118/estate/api/internal/logger"
	"github.com/stwalsh4118/estate/api/internal/models"
)

// slotTags are the validator tags a non-blank draft slot must pass.
const slotTags = "max=64,slotchars"

// NormalizeSlot returns the slot to use for a draft key. Blank slots map to
// drafts.DefaultSlot.
func NormalizeSlot(slot string) (string, error) {
	slot = strings.TrimSpace(slot)
	if slot == "" {
		return drafts.DefaultSlot, nil
	}
	if err := validate.Var(slot, slotTags); err != nil {
		return "", invalidField("slot", "must be 1-64 letters, digits, '-' or '_'")
	}
	return slot, nil
}

// DraftService keeps one in-progress creation form per user and slot.
type DraftService struct {
	store drafts.Store
	log   *logger.Logger
	now   func() time.Time
}

// NewDraftService creates a DraftService over store.
func NewDraftService(store drafts.Store, log *logger.Logger) *DraftService {
	return &DraftService{store: store, log: log.WithComponent("drafts"), now: time.Now}
}

// Save overwrites the slot with draft. Drafts without a title are not
// persisted and Save reports false. File references are never stored.
func (s *DraftService) Save(ctx context.Context, actor *auth.Actor, slot string, draft *models.PropertyDraft) (bool, error) {
	key, err := s.key(actor, slot)
	if err != nil {
		return false, err
	}
	if draft == nil || !draft.HasSignal() {
		return false, nil
	}

	snapshot := *draft
	snapshot.Normalize()
	snapshot.SavedAt = s.now().UTC()

	if err := s.store.Save(ctx, key, &snapshot); err != nil {
		s.log.Error("Failed to save draft", err, map[string]interface{}{
			"actor_id": actor.ID.String(),
			"key":      key,
		})
		return false, fmt.Errorf("failed to save draft: %w", err)
	}
	return true, nil
}

// Load returns the draft in the slot, or nil when there is none.
func (s *DraftService) Load(ctx context.Context, actor *auth.Actor, slot string) (*models.PropertyDraft, error) {
	key, err := s.key(actor, slot)
	if err != nil {
		return nil, err
	}

	draft, err := s.store.Load(ctx, key)
	if err != nil {
		s.log.Error("Failed to load draft", err, map[string]interface{}{
			"actor_id": actor.ID.String(),
			"key":      key,
		})
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}
	if draft == nil {
		return nil, nil
	}
	draft.Normalize()
	return draft, nil
}

// Clear discards the draft in the slot.
func (s *DraftService) Clear(ctx context.Context, actor *auth.Actor, slot string) error {
	key, err := s.key(actor, slot)
	if err != nil {
		return err
	}
	if err := s.store.Clear(ctx, key); err != nil {
		return fmt.Errorf("failed to clear draft: %w", err)
	}
	return nil
}

func (s *DraftService) key(actor *auth.Actor, slot string) (string, error) {
	if actor == nil {
		return "", ErrAuthenticationRequired
	}
	slot, err := NormalizeSlot(slot)
	if err != nil {
		return "", err
	}
	return drafts.Key(actor.ID, slot), nil
}
