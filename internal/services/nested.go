package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stwalsh4118/estate/api/internal/logger"
	"github.com/stwalsh4118/estate/api/internal/models"
	"github.com/stwalsh4118/estate/api/internal/repository"
)

// DroppedEntry identifies a nested entry that was not written.
type DroppedEntry struct {
	Reason string `json:"reason"`
	Index  int    `json:"index"`
}

// NestedOutcome summarises one nested collection write.
type NestedOutcome struct {
	Dropped []DroppedEntry `json:"dropped"`
	Written int            `json:"written"`
}

// NestedWriter appends child rows owned by one property. Incomplete entries
// are dropped and logged so a half-filled form row does not block the rest.
type NestedWriter struct {
	repo repository.NestedRepository
	log  *logger.Logger
	now  func() time.Time
}

// NewNestedWriter creates a NestedWriter.
func NewNestedWriter(repo repository.NestedRepository, log *logger.Logger) *NestedWriter {
	return &NestedWriter{repo: repo, log: log.WithComponent("nested"), now: time.Now}
}

// WriteNearbyPoints appends the complete entries.
func (w *NestedWriter) WriteNearbyPoints(ctx context.Context, propertyID uuid.UUID, entries []models.NearbyPointInput) (NestedOutcome, error) {
	outcome := NestedOutcome{Dropped: []DroppedEntry{}}
	points := make([]models.NearbyPoint, 0, len(entries))
	for i, in := range entries {
		p, reason := nearbyPointFromInput(in)
		if reason != "" {
			outcome.Dropped = append(outcome.Dropped, DroppedEntry{Index: i, Reason: reason})
			w.logDropped("nearby_point", propertyID, i, reason)
			continue
		}
		points = append(points, p)
	}
	if len(points) == 0 {
		return outcome, nil
	}

	inserted, err := w.repo.InsertNearbyPoints(ctx, propertyID, points)
	if err != nil {
		return outcome, referenceError("nearbyPoints", err)
	}
	outcome.Written = len(inserted)
	return outcome, nil
}

// WriteConstructionUpdates appends the complete entries.
func (w *NestedWriter) WriteConstructionUpdates(ctx context.Context, propertyID uuid.UUID, entries []models.ConstructionUpdateInput) (NestedOutcome, error) {
	outcome := NestedOutcome{Dropped: []DroppedEntry{}}
	updates := make([]models.ConstructionUpdate, 0, len(entries))
	for i, in := range entries {
		u, reason := w.constructionUpdateFromInput(in)
		if reason != "" {
			outcome.Dropped = append(outcome.Dropped, DroppedEntry{Index: i, Reason: reason})
			w.logDropped("construction_update", propertyID, i, reason)
			continue
		}
		updates = append(updates, u)
	}
	if len(updates) == 0 {
		return outcome, nil
	}

	inserted, err := w.repo.InsertConstructionUpdates(ctx, propertyID, updates)
	if err != nil {
		return outcome, referenceError("constructionUpdates", err)
	}
	outcome.Written = len(inserted)
	return outcome, nil
}

// AppendNearbyPoint writes a single entry. Unlike the bulk write an
// incomplete entry is rejected.
func (w *NestedWriter) AppendNearbyPoint(ctx context.Context, propertyID uuid.UUID, in models.NearbyPointInput) (*models.NearbyPoint, error) {
	p, reason := nearbyPointFromInput(in)
	if reason != "" {
		return nil, invalidField("nearbyPoint", reason)
	}
	inserted, err := w.repo.InsertNearbyPoints(ctx, propertyID, []models.NearbyPoint{p})
	if err != nil {
		return nil, referenceError("nearbyPoint", err)
	}
	return &inserted[0], nil
}

// AppendConstructionUpdate writes a single entry, rejecting an incomplete one.
func (w *NestedWriter) AppendConstructionUpdate(ctx context.Context, propertyID uuid.UUID, in models.ConstructionUpdateInput) (*models.ConstructionUpdate, error) {
	u, reason := w.constructionUpdateFromInput(in)
	if reason != "" {
		return nil, invalidField("constructionUpdate", reason)
	}
	inserted, err := w.repo.InsertConstructionUpdates(ctx, propertyID, []models.ConstructionUpdate{u})
	if err != nil {
		return nil, referenceError("constructionUpdate", err)
	}
	return &inserted[0], nil
}

// DeleteNearbyPoint removes one point of the property.
func (w *NestedWriter) DeleteNearbyPoint(ctx context.Context, propertyID, pointID uuid.UUID) error {
	ok, err := w.repo.DeleteNearbyPoint(ctx, propertyID, pointID)
	if err != nil {
		return fmt.Errorf("failed to delete nearby point: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: nearby point %s", ErrAssetNotFound, pointID)
	}
	return nil
}

// DeleteConstructionUpdate removes one update of the property.
func (w *NestedWriter) DeleteConstructionUpdate(ctx context.Context, propertyID, updateID uuid.UUID) error {
	ok, err := w.repo.DeleteConstructionUpdate(ctx, propertyID, updateID)
	if err != nil {
		return fmt.Errorf("failed to delete construction update: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: construction update %s", ErrAssetNotFound, updateID)
	}
	return nil
}

func (w *NestedWriter) logDropped(kind string, propertyID uuid.UUID, index int, reason string) {
	w.log.Warn("Dropped incomplete nested entry", map[string]interface{}{
		"property_id": propertyID.String(),
		"kind":        kind,
		"index":       index,
		"reason":      reason,
	})
}

// nearbyPointFromInput returns the row to insert, or a non-empty reason the
// entry cannot be written.
func nearbyPointFromInput(in models.NearbyPointInput) (models.NearbyPoint, string) {
	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		return models.NearbyPoint{}, "name is required"
	case in.CategoryID == nil || *in.CategoryID == uuid.Nil:
		return models.NearbyPoint{}, "category is required"
	case in.DistanceKm != nil && *in.DistanceKm < 0:
		return models.NearbyPoint{}, "distance in km must not be negative"
	case in.DistanceMinutes != nil && *in.DistanceMinutes < 0:
		return models.NearbyPoint{}, "distance in minutes must not be negative"
	case in.Latitude != nil && (*in.Latitude < -90 || *in.Latitude > 90):
		return models.NearbyPoint{}, "latitude must be between -90 and 90"
	case in.Longitude != nil && (*in.Longitude < -180 || *in.Longitude > 180):
		return models.NearbyPoint{}, "longitude must be between -180 and 180"
	}

	return models.NearbyPoint{
		CategoryID:      *in.CategoryID,
		Name:            name,
		DistanceKm:      in.DistanceKm,
		DistanceMinutes: in.DistanceMinutes,
		Latitude:        in.Latitude,
		Longitude:       in.Longitude,
	}, ""
}

// constructionUpdateFromInput defaults a missing date to today and a
// missing progress to 0.
func (w *NestedWriter) constructionUpdateFromInput(in models.ConstructionUpdateInput) (models.ConstructionUpdate, string) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return models.ConstructionUpdate{}, "text is required"
	}

	progress := 0
	if in.ProgressPercentage != nil {
		progress = *in.ProgressPercentage
	}
	if progress < 0 || progress > 100 {
		return models.ConstructionUpdate{}, "progress must be between 0 and 100"
	}

	date := w.now().UTC().Truncate(24 * time.Hour)
	if in.UpdateDate != nil {
		if raw, bad := in.UpdateDate.Malformed(); bad {
			return models.ConstructionUpdate{}, fmt.Sprintf("updateDate %s is not a date", raw)
		}
		if !in.UpdateDate.IsZero() {
			date = in.UpdateDate.Time
		}
	}

	return models.ConstructionUpdate{
		UpdateText:         text,
		ProgressPercentage: progress,
		UpdateDate:         date,
	}, ""
}

// referenceError turns a foreign key violation into a validation error
// naming field.
func referenceError(field string, err error) error {
	if errors.Is(err, repository.ErrReferenced) {
		return &ValidationError{
			Fields: map[string]string{field: "references an unknown id"},
			cause:  err,
		}
	}
	return fmt.Errorf("failed to write %s: %w", field, err)
}
