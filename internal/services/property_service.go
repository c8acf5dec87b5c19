package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/estate/api/internal/auth"
	"github.com/stwalsh4118/estate/api/internal/drafts"
	"github.com/stwalsh4118/estate/api/internal/logger"
	"github.com/stwalsh4118/estate/api/internal/media"
	"github.com/stwalsh4118/estate/api/internal/models"
	"github.com/stwalsh4118/estate/api/internal/repository"
)

// MediaScheduler runs media jobs after the request has been answered.
type MediaScheduler interface {
	Enqueue(job media.Job) (media.JobStatus, error)
	Status(id uuid.UUID) (media.JobStatus, bool)
}

// AssetFiles stores and removes the bytes behind single media assets.
type AssetFiles interface {
	Store(ctx context.Context, propertyID uuid.UUID, category models.MediaCategory, upload media.Upload) (models.StoredAsset, error)
	Remove(ctx context.Context, propertyID uuid.UUID, category models.MediaCategory, ids []uuid.UUID) (int, error)
}

// WriteResult is returned by create and update. The scalar record is
// committed; MediaJob tracks the deferred media work, if any.
type WriteResult struct {
	Property            *models.Property  `json:"property"`
	MediaJob            *media.JobStatus  `json:"mediaJob,omitempty"`
	Reconciled          []models.Relation `json:"reconciled"`
	NearbyPoints        NestedOutcome     `json:"nearbyPoints"`
	ConstructionUpdates NestedOutcome     `json:"constructionUpdates"`
}

// PropertyService defines the write and read operations on the property
// aggregate. Every mutation is gated by CanCreate or CanMutate.
type PropertyService interface {
	// Create inserts the scalar row, reconciles the supplied relations,
	// appends nested entries and schedules media. A non-empty draftSlot
	// clears the creator's draft in that slot on success.
	Create(ctx context.Context, actor *auth.Actor, in *PropertyInput, draftSlot string) (*WriteResult, error)

	// Update applies a partial update. Relations whose key is absent are
	// left untouched.
	Update(ctx context.Context, actor *auth.Actor, id uuid.UUID, in *PropertyInput) (*WriteResult, error)

	// Delete clears the associations and then removes, or soft-deletes,
	// the scalar row.
	Delete(ctx context.Context, actor *auth.Actor, id uuid.UUID, soft bool) error

	// Get returns the full aggregate. Soft-deleted properties are not found.
	Get(ctx context.Context, id uuid.UUID) (*models.PropertyAggregate, error)

	// GetDetails returns documents, floor plans and construction updates.
	GetDetails(ctx context.Context, id uuid.UUID) (*models.PropertyDetails, error)

	AddRelation(ctx context.Context, actor *auth.Actor, id uuid.UUID, relation models.Relation, refID uuid.UUID) error
	RemoveRelation(ctx context.Context, actor *auth.Actor, id uuid.UUID, relation models.Relation, refID uuid.UUID) error

	AddNearbyPoint(ctx context.Context, actor *auth.Actor, id uuid.UUID, in models.NearbyPointInput) (*models.NearbyPoint, error)
	DeleteNearbyPoint(ctx context.Context, actor *auth.Actor, id, pointID uuid.UUID) error
	AddConstructionUpdate(ctx context.Context, actor *auth.Actor, id uuid.UUID, in models.ConstructionUpdateInput) (*models.ConstructionUpdate, error)
	DeleteConstructionUpdate(ctx context.Context, actor *auth.Actor, id, updateID uuid.UUID) error

	// UploadAsset stores one file and inserts its row synchronously.
	UploadAsset(ctx context.Context, actor *auth.Actor, id uuid.UUID, category models.MediaCategory, upload media.Upload) (*repository.InsertedAsset, error)
	// DeleteAsset removes one asset row and its stored bytes.
	DeleteAsset(ctx context.Context, actor *auth.Actor, id uuid.UUID, category models.MediaCategory, assetID uuid.UUID) error

	// ScheduleMedia queues a batch media reconciliation for the property.
	ScheduleMedia(ctx context.Context, actor *auth.Actor, id uuid.UUID, in MediaInput, uploads map[models.MediaCategory][]media.Upload) (*media.JobStatus, error)
	// MediaJob returns the status record of a media job.
	MediaJob(ctx context.Context, jobID uuid.UUID) (*media.JobStatus, error)
}

// PropertyDeps are the collaborators of the property service.
type PropertyDeps struct {
	Properties repository.PropertyRepository
	Assets     repository.MediaRepository
	Relations  *AssociationReconciler
	Nested     *NestedWriter
	Files      AssetFiles
	Scheduler  MediaScheduler
	Drafts     drafts.Store
}

type propertyService struct {
	PropertyDeps
	log *logger.Logger
}

// NewPropertyService creates a new instance of PropertyService.
func NewPropertyService(deps PropertyDeps, log *logger.Logger) PropertyService {
	return &propertyService{PropertyDeps: deps, log: log.WithComponent("properties")}
}

func (s *propertyService) Create(ctx context.Context, actor *auth.Actor, in *PropertyInput, draftSlot string) (*WriteResult, error) {
	if err := in.validate(true); err != nil {
		return nil, err
	}
	if draftSlot != "" {
		slot, err := NormalizeSlot(draftSlot)
		if err != nil {
			return nil, err
		}
		draftSlot = slot
	}

	p := in.toProperty()
	p.Slug = EffectiveSlug(p.Title, in.Slug)
	if p.Slug == "" {
		return nil, invalidField("slug", "cannot be derived from the title")
	}

	decision := CanCreate(actor)
	if err := decision.Err(); err != nil {
		s.logDenied("create", actor, uuid.Nil, decision)
		return nil, err
	}
	p.CreatedBy = &actor.ID

	if err := s.Properties.Create(ctx, p); err != nil {
		s.log.Error("Failed to create property", err, map[string]interface{}{
			"slug":     p.Slug,
			"actor_id": actor.ID.String(),
		})
		return nil, scalarWriteError(p.Slug, err)
	}

	s.log.Info("Property created", map[string]interface{}{
		"property_id": p.ID.String(),
		"slug":        p.Slug,
		"actor_id":    actor.ID.String(),
	})

	result, err := s.writeRelations(ctx, p, in, false)
	if err != nil {
		return nil, err
	}

	if draftSlot != "" && s.Drafts != nil {
		if err := s.Drafts.Clear(ctx, drafts.Key(actor.ID, draftSlot)); err != nil {
			s.log.Warn("Failed to clear draft after create", map[string]interface{}{
				"actor_id": actor.ID.String(),
				"slot":     draftSlot,
				"error":    err.Error(),
			})
		}
	}

	return result, nil
}

func (s *propertyService) Update(ctx context.Context, actor *auth.Actor, id uuid.UUID, in *PropertyInput) (*WriteResult, error) {
	current, err := s.authorize(ctx, "update", actor, id)
	if err != nil {
		return nil, err
	}

	if err := in.validate(false); err != nil {
		return nil, err
	}

	changes := in.toChanges()
	if in.Slug != nil {
		title := current.Title
		if changes.Title != nil {
			title = *changes.Title
		}
		slugValue := EffectiveSlug(title, in.Slug)
		if slugValue == "" {
			return nil, invalidField("slug", "cannot be derived from the title")
		}
		changes.Slug = &slugValue
	}

	updated, err := s.Properties.Update(ctx, id, changes)
	if err != nil {
		s.log.Error("Failed to update property", err, map[string]interface{}{
			"property_id": id.String(),
		})
		slugValue := current.Slug
		if changes.Slug != nil {
			slugValue = *changes.Slug
		}
		return nil, scalarWriteError(slugValue, err)
	}
	if updated == nil {
		return nil, ErrPropertyNotFound
	}

	s.log.Info("Property updated", map[string]interface{}{
		"property_id": id.String(),
		"actor_id":    actor.ID.String(),
	})

	return s.writeRelations(ctx, updated, in, true)
}

// writeRelations runs the synchronous relation writes and schedules media.
// The scalar row is already committed, so failures here surface as the
// operation's error without rolling it back.
func (s *propertyService) writeRelations(ctx context.Context, p *models.Property, in *PropertyInput, includeDeletes bool) (*WriteResult, error) {
	result := &WriteResult{Property: p, Reconciled: []models.Relation{}}

	applied, err := s.Relations.ReconcileAll(ctx, p.ID, in.relationSets())
	if err != nil {
		return nil, err
	}
	if applied != nil {
		result.Reconciled = applied
	}

	if result.NearbyPoints, err = s.Nested.WriteNearbyPoints(ctx, p.ID, in.NearbyPoints); err != nil {
		return nil, err
	}
	if result.ConstructionUpdates, err = s.Nested.WriteConstructionUpdates(ctx, p.ID, in.ConstructionUpdates); err != nil {
		return nil, err
	}

	result.MediaJob = s.enqueue(in.mediaJob(p.ID, includeDeletes))
	return result, nil
}

// enqueue hands a job to the scheduler. A job that cannot be queued is
// still reported through its failed status record.
func (s *propertyService) enqueue(job media.Job) *media.JobStatus {
	if job.Empty() || s.Scheduler == nil {
		return nil
	}
	status, err := s.Scheduler.Enqueue(job)
	if err != nil {
		s.log.Error("Failed to schedule media job", err, map[string]interface{}{
			"property_id": job.PropertyID.String(),
			"job_id":      job.ID.String(),
		})
		if errors.Is(err, media.ErrQueueClosed) {
			return nil
		}
	}
	return &status
}

func (s *propertyService) Delete(ctx context.Context, actor *auth.Actor, id uuid.UUID, soft bool) error {
	if _, err := s.authorize(ctx, "delete", actor, id); err != nil {
		return err
	}

	var err error
	if soft {
		err = s.Properties.SoftDelete(ctx, id)
	} else {
		err = s.Properties.Delete(ctx, id)
	}

	switch {
	case err == nil:
	case errors.Is(err, pgx.ErrNoRows):
		return ErrPropertyNotFound
	case errors.Is(err, repository.ErrReferenced):
		s.log.Warn("Property delete blocked by references", map[string]interface{}{
			"property_id": id.String(),
			"error":       err.Error(),
		})
		return fmt.Errorf("%w: remove the records that still point at it first", ErrDependencyConflict)
	default:
		s.log.Error("Failed to delete property", err, map[string]interface{}{
			"property_id": id.String(),
			"soft":        soft,
		})
		return fmt.Errorf("failed to delete property: %w", err)
	}

	s.log.Info("Property deleted", map[string]interface{}{
		"property_id": id.String(),
		"actor_id":    actor.ID.String(),
		"soft":        soft,
	})
	return nil
}

func (s *propertyService) Get(ctx context.Context, id uuid.UUID) (*models.PropertyAggregate, error) {
	aggregate, err := s.Properties.GetAggregate(ctx, id)
	if err != nil {
		s.log.Error("Failed to load property", err, map[string]interface{}{
			"property_id": id.String(),
		})
		return nil, fmt.Errorf("failed to load property: %w", err)
	}
	if aggregate == nil {
		return nil, ErrPropertyNotFound
	}
	return aggregate, nil
}

func (s *propertyService) GetDetails(ctx context.Context, id uuid.UUID) (*models.PropertyDetails, error) {
	details, err := s.Properties.GetDetails(ctx, id)
	if err != nil {
		s.log.Error("Failed to load property details", err, map[string]interface{}{
			"property_id": id.String(),
		})
		return nil, fmt.Errorf("failed to load property details: %w", err)
	}
	if details == nil {
		return nil, ErrPropertyNotFound
	}
	return details, nil
}

func (s *propertyService) AddRelation(ctx context.Context, actor *auth.Actor, id uuid.UUID, relation models.Relation, refID uuid.UUID) error {
	if _, err := s.authorize(ctx, "add_"+string(relation), actor, id); err != nil {
		return err
	}
	return s.Relations.Append(ctx, id, relation, refID)
}

func (s *propertyService) RemoveRelation(ctx context.Context, actor *auth.Actor, id uuid.UUID, relation models.Relation, refID uuid.UUID) error {
	if _, err := s.authorize(ctx, "remove_"+string(relation), actor, id); err != nil {
		return err
	}
	ok, err := s.Relations.Remove(ctx, id, relation, refID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s reference %s", ErrAssetNotFound, relation, refID)
	}
	return nil
}

func (s *propertyService) AddNearbyPoint(ctx context.Context, actor *auth.Actor, id uuid.UUID, in models.NearbyPointInput) (*models.NearbyPoint, error) {
	if _, err := s.authorize(ctx, "add_nearby_point", actor, id); err != nil {
		return nil, err
	}
	return s.Nested.AppendNearbyPoint(ctx, id, in)
}

func (s *propertyService) DeleteNearbyPoint(ctx context.Context, actor *auth.Actor, id, pointID uuid.UUID) error {
	if _, err := s.authorize(ctx, "delete_nearby_point", actor, id); err != nil {
		return err
	}
	return s.Nested.DeleteNearbyPoint(ctx, id, pointID)
}

func (s *propertyService) AddConstructionUpdate(ctx context.Context, actor *auth.Actor, id uuid.UUID, in models.ConstructionUpdateInput) (*models.ConstructionUpdate, error) {
	if _, err := s.authorize(ctx, "add_construction_update", actor, id); err != nil {
		return nil, err
	}
	return s.Nested.AppendConstructionUpdate(ctx, id, in)
}

func (s *propertyService) DeleteConstructionUpdate(ctx context.Context, actor *auth.Actor, id, updateID uuid.UUID) error {
	if _, err := s.authorize(ctx, "delete_construction_update", actor, id); err != nil {
		return err
	}
	return s.Nested.DeleteConstructionUpdate(ctx, id, updateID)
}

func (s *propertyService) UploadAsset(ctx context.Context, actor *auth.Actor, id uuid.UUID, category models.MediaCategory, upload media.Upload) (*repository.InsertedAsset, error) {
	if _, err := s.authorize(ctx, "upload_"+string(category), actor, id); err != nil {
		return nil, err
	}
	if len(upload.Data) == 0 {
		return nil, invalidField("file", "is required")
	}

	asset, err := s.Files.Store(ctx, id, category, upload)
	if err != nil {
		s.log.Error("Failed to store uploaded file", err, map[string]interface{}{
			"property_id": id.String(),
			"category":    string(category),
			"file":        upload.Filename,
		})
		return nil, fmt.Errorf("failed to store %s: %w", upload.Filename, err)
	}

	inserted, err := s.Assets.InsertAssets(ctx, category, id, []models.StoredAsset{asset})
	if err != nil {
		s.log.Error("Failed to insert asset row", err, map[string]interface{}{
			"property_id":  id.String(),
			"category":     string(category),
			"storage_path": asset.StoragePath,
		})
		return nil, referenceError(string(category), err)
	}

	s.log.Info("Asset uploaded", map[string]interface{}{
		"property_id": id.String(),
		"category":    string(category),
		"asset_id":    inserted[0].ID.String(),
	})
	return &inserted[0], nil
}

func (s *propertyService) DeleteAsset(ctx context.Context, actor *auth.Actor, id uuid.UUID, category models.MediaCategory, assetID uuid.UUID) error {
	if _, err := s.authorize(ctx, "delete_"+string(category), actor, id); err != nil {
		return err
	}

	n, err := s.Files.Remove(ctx, id, category, []uuid.UUID{assetID})
	if err != nil {
		s.log.Error("Failed to delete asset", err, map[string]interface{}{
			"property_id": id.String(),
			"category":    string(category),
			"asset_id":    assetID.String(),
		})
		return fmt.Errorf("failed to delete %s asset: %w", category, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s asset %s", ErrAssetNotFound, category, assetID)
	}
	return nil
}

func (s *propertyService) ScheduleMedia(ctx context.Context, actor *auth.Actor, id uuid.UUID, in MediaInput, uploads map[models.MediaCategory][]media.Upload) (*media.JobStatus, error) {
	if _, err := s.authorize(ctx, "schedule_media", actor, id); err != nil {
		return nil, err
	}
	if err := validateStruct(&in); err != nil {
		return nil, err
	}

	input := &PropertyInput{Media: in, Uploads: uploads}
	job := input.mediaJob(id, true)
	if job.Empty() {
		return nil, invalidField("media", "no media changes supplied")
	}

	status, err := s.Scheduler.Enqueue(job)
	if err != nil {
		s.log.Error("Failed to schedule media job", err, map[string]interface{}{
			"property_id": id.String(),
			"job_id":      job.ID.String(),
		})
		return nil, fmt.Errorf("failed to schedule media job: %w", err)
	}
	return &status, nil
}

func (s *propertyService) MediaJob(ctx context.Context, jobID uuid.UUID) (*media.JobStatus, error) {
	status, ok := s.Scheduler.Status(jobID)
	if !ok {
		return nil, ErrJobNotFound
	}
	return &status, nil
}

// authorize loads the live property and applies CanMutate.
func (s *propertyService) authorize(ctx context.Context, action string, actor *auth.Actor, id uuid.UUID) (*models.Property, error) {
	if actor == nil {
		s.logDenied(action, nil, id, Decision{Reason: ReasonUnauthenticated})
		return nil, ErrAuthenticationRequired
	}

	p, err := s.Properties.GetByID(ctx, id)
	if err != nil {
		s.log.Error("Failed to load property", err, map[string]interface{}{
			"property_id": id.String(),
		})
		return nil, fmt.Errorf("failed to load property: %w", err)
	}
	if p == nil {
		return nil, ErrPropertyNotFound
	}

	decision := CanMutate(actor, p)
	if err := decision.Err(); err != nil {
		s.logDenied(action, actor, id, decision)
		return nil, err
	}
	return p, nil
}

func (s *propertyService) logDenied(action string, actor *auth.Actor, id uuid.UUID, d Decision) {
	fields := map[string]interface{}{
		"action": action,
		"reason": d.Reason,
	}
	if id != uuid.Nil {
		fields["property_id"] = id.String()
	}
	if actor != nil {
		fields["actor_id"] = actor.ID.String()
		fields["role"] = string(actor.Role)
	}
	s.log.Warn("Write denied", fields)
}

// scalarWriteError maps constraint violations of the properties row.
func scalarWriteError(slugValue string, err error) error {
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return fmt.Errorf("%w: slug %q is already in use", ErrConflict, slugValue)
	case errors.Is(err, repository.ErrReferenced):
		return &ValidationError{
			Fields: map[string]string{"property": "references an unknown vocabulary id"},
			cause:  err,
		}
	default:
		return fmt.Errorf("failed to write property: %w", err)
	}
}
