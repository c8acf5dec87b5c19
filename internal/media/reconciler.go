package media

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/sourcegraph/conc/pool"
	"github.com/stwalsh4118/estate/api/internal/logger"
	"github.com/stwalsh4118/estate/api/internal/models"
	"github.com/stwalsh4118/estate/api/internal/repository"
	"github.com/stwalsh4118/estate/api/internal/storage"
)

// AssetWriter is the persistence used by the reconciler.
type AssetWriter interface {
	InsertAssets(ctx context.Context, category models.MediaCategory, propertyID uuid.UUID, assets []models.StoredAsset) ([]repository.InsertedAsset, error)
	DeleteAssets(ctx context.Context, category models.MediaCategory, propertyID uuid.UUID, ids []uuid.UUID) (*repository.DeletedAssets, error)
}

// Reconciler applies media jobs: per category it removes the listed assets
// and appends newly stored ones. Every subtask is retried on its own and a
// failing subtask never stops the others.
type Reconciler struct {
	assets      AssetWriter
	store       storage.Store
	log         *logger.Logger
	sleep       func(ctx context.Context, d time.Duration) error
	maxAttempts int
	backoff     time.Duration
}

// NewReconciler creates a Reconciler. maxAttempts below 1 is treated as 1.
func NewReconciler(assets AssetWriter, store storage.Store, log *logger.Logger, maxAttempts int, backoff time.Duration) *Reconciler {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Reconciler{
		assets:      assets,
		store:       store,
		log:         log.WithComponent("media"),
		sleep:       sleepContext,
		maxAttempts: maxAttempts,
		backoff:     backoff,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// retry runs fn until it succeeds or attempts run out, waiting backoff*n
// between attempts. It returns the number of attempts made.
func (r *Reconciler) retry(ctx context.Context, fn func() error) (int, error) {
	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil {
			return attempt, nil
		}
		if attempt >= r.maxAttempts {
			return attempt, err
		}
		if sleepErr := r.sleep(ctx, r.backoff*time.Duration(attempt)); sleepErr != nil {
			return attempt, err
		}
	}
}

// report collects subtask outcomes from concurrent goroutines.
type report struct {
	mu sync.Mutex
	Report
}

func (rep *report) fail(f Failure) {
	rep.mu.Lock()
	rep.Failures = append(rep.Failures, f)
	rep.mu.Unlock()
}

func (rep *report) add(attempts, inserted, deleted int) {
	rep.mu.Lock()
	rep.Attempts += attempts
	rep.Inserted += inserted
	rep.Deleted += deleted
	rep.mu.Unlock()
}

// Run executes every subtask of the job concurrently and waits for all of
// them. Failures are returned in the report, never as an error.
func (r *Reconciler) Run(ctx context.Context, job Job) Report {
	log := r.log.With(map[string]interface{}{
		"job_id":      job.ID.String(),
		"property_id": job.PropertyID.String(),
	})
	log.Info("Media job started", nil)

	rep := &report{}
	p := pool.New().WithErrors()

	for _, category := range models.MediaCategories {
		changes, ok := job.Changes[category]
		if !ok || changes.empty() {
			continue
		}

		if len(changes.Delete) > 0 {
			p.Go(func() error {
				return r.runDelete(ctx, log, rep, job.PropertyID, category, changes.Delete)
			})
		}
		if len(changes.Uploads) > 0 || len(changes.Stored) > 0 {
			p.Go(func() error {
				return r.runStoreAndInsert(ctx, log, rep, job.PropertyID, category, changes)
			})
		}
	}

	if err := p.Wait(); err != nil {
		log.Warn("Media job finished with failures", map[string]interface{}{
			"failures": len(rep.Failures),
			"error":    err.Error(),
		})
	} else {
		log.Info("Media job finished", map[string]interface{}{
			"inserted": rep.Inserted,
			"deleted":  rep.Deleted,
		})
	}

	return rep.Report
}

func (r *Reconciler) runDelete(ctx context.Context, log *logger.Logger, rep *report, propertyID uuid.UUID, category models.MediaCategory, ids []uuid.UUID) error {
	var deleted *repository.DeletedAssets
	attempts, err := r.retry(ctx, func() error {
		var err error
		deleted, err = r.assets.DeleteAssets(ctx, category, propertyID, ids)
		return err
	})
	if err != nil {
		log.Error("Media delete failed", err, map[string]interface{}{
			"category": string(category),
			"attempts": attempts,
		})
		rep.add(attempts, 0, 0)
		rep.fail(Failure{Category: category, Op: OpDelete, Error: err.Error(), Attempts: attempts})
		return fmt.Errorf("%s delete: %w", category, err)
	}
	rep.add(attempts, 0, deleted.Count)

	for _, f := range r.removeBytes(ctx, log, category, deleted.StoragePaths) {
		rep.fail(f)
	}
	return nil
}

// removeBytes deletes stored objects after their rows are gone. Failures
// leave orphaned bytes only and are logged.
func (r *Reconciler) removeBytes(ctx context.Context, log *logger.Logger, category models.MediaCategory, paths []string) []Failure {
	var failures []Failure
	for _, objectPath := range paths {
		attempts, err := r.retry(ctx, func() error {
			return r.store.Delete(ctx, category.Bucket(), objectPath)
		})
		if err != nil {
			log.Warn("Failed to delete stored media bytes", map[string]interface{}{
				"category": string(category),
				"path":     objectPath,
				"error":    err.Error(),
			})
			failures = append(failures, Failure{
				Category: category, Op: OpDeleteBytes, File: objectPath, Error: err.Error(), Attempts: attempts,
			})
		}
	}
	return failures
}

func (r *Reconciler) runStoreAndInsert(ctx context.Context, log *logger.Logger, rep *report, propertyID uuid.UUID, category models.MediaCategory, changes CategoryChanges) error {
	// Results are indexed by upload position so insertion keeps upload order.
	stored := make([]*models.StoredAsset, len(changes.Uploads))
	uploads := pool.New()
	for i, upload := range changes.Uploads {
		uploads.Go(func() {
			var asset models.StoredAsset
			attempts, err := r.retry(ctx, func() error {
				var err error
				asset, err = r.Store(ctx, propertyID, category, upload)
				return err
			})
			rep.add(attempts, 0, 0)
			if err != nil {
				log.Error("Media upload failed", err, map[string]interface{}{
					"category": string(category),
					"file":     upload.Filename,
					"attempts": attempts,
				})
				rep.fail(Failure{Category: category, Op: OpStore, File: upload.Filename, Error: err.Error(), Attempts: attempts})
				return
			}
			stored[i] = &asset
		})
	}
	uploads.Wait()

	records := make([]models.StoredAsset, 0, len(changes.Stored)+len(stored))
	records = append(records, changes.Stored...)
	for _, asset := range stored {
		if asset != nil {
			records = append(records, *asset)
		}
	}
	if len(records) == 0 {
		return fmt.Errorf("%s: no files stored", category)
	}

	var inserted []repository.InsertedAsset
	attempts, err := r.retry(ctx, func() error {
		var err error
		inserted, err = r.assets.InsertAssets(ctx, category, propertyID, records)
		return err
	})
	if err != nil {
		log.Error("Media insert failed", err, map[string]interface{}{
			"category": string(category),
			"records":  len(records),
			"attempts": attempts,
		})
		rep.add(attempts, 0, 0)
		rep.fail(Failure{Category: category, Op: OpInsert, Error: err.Error(), Attempts: attempts})

		// Bytes stored by this run have no row; pre-stored records belong
		// to the caller and are left alone.
		var orphans []string
		for _, asset := range stored {
			if asset != nil && asset.StoragePath != "" {
				orphans = append(orphans, asset.StoragePath)
			}
		}
		for _, f := range r.removeBytes(ctx, log, category, orphans) {
			rep.fail(f)
		}
		return fmt.Errorf("%s insert: %w", category, err)
	}
	rep.add(attempts, len(inserted), 0)

	if len(records) < len(changes.Stored)+len(changes.Uploads) {
		return fmt.Errorf("%s: %d of %d uploads failed", category,
			len(changes.Uploads)-(len(records)-len(changes.Stored)), len(changes.Uploads))
	}
	return nil
}

// Store writes an upload to its category bucket under the property and
// returns the record to insert.
func (r *Reconciler) Store(ctx context.Context, propertyID uuid.UUID, category models.MediaCategory, upload Upload) (models.StoredAsset, error) {
	objectPath := ObjectPath(propertyID, upload.Filename)
	url, err := r.store.Put(ctx, category.Bucket(), objectPath, bytes.NewReader(upload.Data))
	if err != nil {
		return models.StoredAsset{}, err
	}

	asset := upload.Meta
	asset.URL = url
	asset.StoragePath = objectPath
	return asset, nil
}

// Remove deletes asset rows of the property and then their stored bytes.
// It returns the number of rows deleted.
func (r *Reconciler) Remove(ctx context.Context, propertyID uuid.UUID, category models.MediaCategory, ids []uuid.UUID) (int, error) {
	deleted, err := r.assets.DeleteAssets(ctx, category, propertyID, ids)
	if err != nil {
		return 0, err
	}
	r.removeBytes(ctx, r.log.With(map[string]interface{}{"property_id": propertyID.String()}), category, deleted.StoragePaths)
	return deleted.Count, nil
}

// ObjectPath builds a collision-free object path that keeps a readable,
// slugged form of the original filename.
func ObjectPath(propertyID uuid.UUID, filename string) string {
	base := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	ext := strings.ToLower(path.Ext(base))
	name := slug.Make(strings.TrimSuffix(base, path.Ext(base)))
	if name == "" {
		name = "file"
	}
	return fmt.Sprintf("%s/%s-%s%s", propertyID, uuid.NewString()[:8], name, ext)
}
