package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/stwalsh4118/estate/api/internal/logger"
	"github.com/stwalsh4118/estate/api/internal/models"
	"github.com/stwalsh4118/estate/api/internal/repository"
)

// AssociationReconciler replaces the many-to-many relation sets of a
// property with the desired set supplied by the client.
type AssociationReconciler struct {
	repo repository.AssociationRepository
	log  *logger.Logger
}

// NewAssociationReconciler creates an AssociationReconciler.
func NewAssociationReconciler(repo repository.AssociationRepository, log *logger.Logger) *AssociationReconciler {
	return &AssociationReconciler{repo: repo, log: log.WithComponent("associations")}
}

// Reconcile makes the stored relation set equal desired. A nil desired
// leaves the relation untouched and reports false; an empty one clears it.
// The stored set is never merged with the prior one.
func (r *AssociationReconciler) Reconcile(ctx context.Context, propertyID uuid.UUID, relation models.Relation, desired *[]uuid.UUID) (bool, error) {
	if desired == nil {
		return false, nil
	}

	ids := distinct(*desired)
	if err := r.repo.Replace(ctx, relation, propertyID, ids); err != nil {
		r.log.Error("Failed to reconcile relation", err, map[string]interface{}{
			"property_id": propertyID.String(),
			"relation":    string(relation),
			"count":       len(ids),
		})
		return false, referenceError(string(relation), err)
	}

	r.log.Debug("Relation reconciled", map[string]interface{}{
		"property_id": propertyID.String(),
		"relation":    string(relation),
		"count":       len(ids),
	})
	return true, nil
}

// ReconcileAll reconciles every relation present in sets, in the fixed
// relation order. The first failure stops the remaining relations.
func (r *AssociationReconciler) ReconcileAll(ctx context.Context, propertyID uuid.UUID, sets map[models.Relation]*[]uuid.UUID) ([]models.Relation, error) {
	var applied []models.Relation
	for _, relation := range models.Relations {
		ok, err := r.Reconcile(ctx, propertyID, relation, sets[relation])
		if err != nil {
			return applied, err
		}
		if ok {
			applied = append(applied, relation)
		}
	}
	return applied, nil
}

// Append adds a single reference to the relation. Adding an existing
// reference is a no-op.
func (r *AssociationReconciler) Append(ctx context.Context, propertyID uuid.UUID, relation models.Relation, refID uuid.UUID) error {
	if err := r.repo.Add(ctx, relation, propertyID, []uuid.UUID{refID}); err != nil {
		r.log.Error("Failed to append relation", err, map[string]interface{}{
			"property_id": propertyID.String(),
			"relation":    string(relation),
			"ref_id":      refID.String(),
		})
		return referenceError(string(relation), err)
	}
	return nil
}

// Remove deletes a single reference and reports whether it existed.
func (r *AssociationReconciler) Remove(ctx context.Context, propertyID uuid.UUID, relation models.Relation, refID uuid.UUID) (bool, error) {
	n, err := r.repo.Remove(ctx, relation, propertyID, []uuid.UUID{refID})
	if err != nil {
		return false, fmt.Errorf("failed to remove %s reference: %w", relation, err)
	}
	return n > 0, nil
}
