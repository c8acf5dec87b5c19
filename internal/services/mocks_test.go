package services

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stwalsh4118/estate/api/internal/media"
	"github.com/stwalsh4118/estate/api/internal/models"
	"github.com/stwalsh4118/estate/api/internal/repository"
)

// MockPropertyRepository is a mock implementation of PropertyRepository for testing
type MockPropertyRepository struct {
	mock.Mock
}

func (m *MockPropertyRepository) Create(ctx context.Context, p *models.Property) error {
	args := m.Called(ctx, p)
	if args.Error(0) == nil && p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockPropertyRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*models.Property)
	return p, args.Error(1)
}

func (m *MockPropertyRepository) Update(ctx context.Context, id uuid.UUID, changes repository.PropertyChanges) (*models.Property, error) {
	args := m.Called(ctx, id, changes)
	p, _ := args.Get(0).(*models.Property)
	return p, args.Error(1)
}

func (m *MockPropertyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockPropertyRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockPropertyRepository) GetAggregate(ctx context.Context, id uuid.UUID) (*models.PropertyAggregate, error) {
	args := m.Called(ctx, id)
	a, _ := args.Get(0).(*models.PropertyAggregate)
	return a, args.Error(1)
}

func (m *MockPropertyRepository) GetDetails(ctx context.Context, id uuid.UUID) (*models.PropertyDetails, error) {
	args := m.Called(ctx, id)
	d, _ := args.Get(0).(*models.PropertyDetails)
	return d, args.Error(1)
}

// MockMediaRepository is a mock implementation of MediaRepository for testing
type MockMediaRepository struct {
	mock.Mock
}

func (m *MockMediaRepository) InsertAssets(ctx context.Context, category models.MediaCategory, propertyID uuid.UUID, assets []models.StoredAsset) ([]repository.InsertedAsset, error) {
	args := m.Called(ctx, category, propertyID, assets)
	out, _ := args.Get(0).([]repository.InsertedAsset)
	return out, args.Error(1)
}

func (m *MockMediaRepository) DeleteAssets(ctx context.Context, category models.MediaCategory, propertyID uuid.UUID, ids []uuid.UUID) (*repository.DeletedAssets, error) {
	args := m.Called(ctx, category, propertyID, ids)
	out, _ := args.Get(0).(*repository.DeletedAssets)
	return out, args.Error(1)
}

func (m *MockMediaRepository) ListImages(ctx context.Context, propertyIDs []uuid.UUID) (map[uuid.UUID][]models.Image, error) {
	args := m.Called(ctx, propertyIDs)
	out, _ := args.Get(0).(map[uuid.UUID][]models.Image)
	return out, args.Error(1)
}

// MockFiles is a mock implementation of AssetFiles for testing
type MockFiles struct {
	mock.Mock
}

func (m *MockFiles) Store(ctx context.Context, propertyID uuid.UUID, category models.MediaCategory, upload media.Upload) (models.StoredAsset, error) {
	args := m.Called(ctx, propertyID, category, upload)
	return args.Get(0).(models.StoredAsset), args.Error(1)
}

func (m *MockFiles) Remove(ctx context.Context, propertyID uuid.UUID, category models.MediaCategory, ids []uuid.UUID) (int, error) {
	args := m.Called(ctx, propertyID, category, ids)
	return args.Int(0), args.Error(1)
}

// MockScheduler is a mock implementation of MediaScheduler for testing
type MockScheduler struct {
	mock.Mock
}

func (m *MockScheduler) Enqueue(job media.Job) (media.JobStatus, error) {
	args := m.Called(job)
	return args.Get(0).(media.JobStatus), args.Error(1)
}

func (m *MockScheduler) Status(id uuid.UUID) (media.JobStatus, bool) {
	args := m.Called(id)
	return args.Get(0).(media.JobStatus), args.Bool(1)
}

// MockCatalogRepository is a mock implementation of CatalogRepository for testing
type MockCatalogRepository struct {
	mock.Mock
}

func (m *MockCatalogRepository) Search(ctx context.Context, q repository.CatalogQuery) (*repository.CatalogPage, error) {
	args := m.Called(ctx, q)
	page, _ := args.Get(0).(*repository.CatalogPage)
	return page, args.Error(1)
}

// memoryAssociations keeps relation sets in memory with set semantics, so
// reconciliation properties can be checked against stored state.
type memoryAssociations struct {
	sets     map[models.Relation]map[uuid.UUID]map[uuid.UUID]int
	failWith error
	mu       sync.Mutex
}

func newMemoryAssociations() *memoryAssociations {
	return &memoryAssociations{sets: make(map[models.Relation]map[uuid.UUID]map[uuid.UUID]int)}
}

func (m *memoryAssociations) rows(relation models.Relation, propertyID uuid.UUID) map[uuid.UUID]int {
	if m.sets[relation] == nil {
		m.sets[relation] = make(map[uuid.UUID]map[uuid.UUID]int)
	}
	if m.sets[relation][propertyID] == nil {
		m.sets[relation][propertyID] = make(map[uuid.UUID]int)
	}
	return m.sets[relation][propertyID]
}

func (m *memoryAssociations) Replace(_ context.Context, relation models.Relation, propertyID uuid.UUID, ids []uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	rows := make(map[uuid.UUID]int, len(ids))
	for _, id := range ids {
		// Counting rows rather than keys exposes duplicate inserts.
		rows[id]++
	}
	m.rows(relation, propertyID)
	m.sets[relation][propertyID] = rows
	return nil
}

func (m *memoryAssociations) Add(_ context.Context, relation models.Relation, propertyID uuid.UUID, ids []uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	rows := m.rows(relation, propertyID)
	for _, id := range ids {
		rows[id] = 1
	}
	return nil
}

func (m *memoryAssociations) Remove(_ context.Context, relation models.Relation, propertyID uuid.UUID, ids []uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.rows(relation, propertyID)
	var n int64
	for _, id := range ids {
		if _, ok := rows[id]; ok {
			delete(rows, id)
			n++
		}
	}
	return n, nil
}

func (m *memoryAssociations) List(_ context.Context, relation models.Relation, propertyID uuid.UUID) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []uuid.UUID{}
	for id, count := range m.rows(relation, propertyID) {
		for range count {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

// MockNestedRepository is a mock implementation of NestedRepository for testing
type MockNestedRepository struct {
	mock.Mock
}

func (m *MockNestedRepository) InsertNearbyPoints(ctx context.Context, propertyID uuid.UUID, points []models.NearbyPoint) ([]models.NearbyPoint, error) {
	args := m.Called(ctx, propertyID, points)
	if err := args.Error(1); err != nil {
		return nil, err
	}
	out := make([]models.NearbyPoint, 0, len(points))
	for _, p := range points {
		p.ID = uuid.New()
		p.PropertyID = propertyID
		out = append(out, p)
	}
	return out, nil
}

func (m *MockNestedRepository) InsertConstructionUpdates(ctx context.Context, propertyID uuid.UUID, updates []models.ConstructionUpdate) ([]models.ConstructionUpdate, error) {
	args := m.Called(ctx, propertyID, updates)
	if err := args.Error(1); err != nil {
		return nil, err
	}
	out := make([]models.ConstructionUpdate, 0, len(updates))
	for _, u := range updates {
		u.ID = uuid.New()
		u.PropertyID = propertyID
		out = append(out, u)
	}
	return out, nil
}

func (m *MockNestedRepository) DeleteNearbyPoint(ctx context.Context, propertyID, pointID uuid.UUID) (bool, error) {
	args := m.Called(ctx, propertyID, pointID)
	return args.Bool(0), args.Error(1)
}

func (m *MockNestedRepository) DeleteConstructionUpdate(ctx context.Context, propertyID, updateID uuid.UUID) (bool, error) {
	args := m.Called(ctx, propertyID, updateID)
	return args.Bool(0), args.Error(1)
}

func (m *MockNestedRepository) ListNearbyPoints(ctx context.Context, propertyID uuid.UUID) ([]models.NearbyPoint, error) {
	args := m.Called(ctx, propertyID)
	out, _ := args.Get(0).([]models.NearbyPoint)
	return out, args.Error(1)
}

func (m *MockNestedRepository) ListConstructionUpdates(ctx context.Context, propertyID uuid.UUID) ([]models.ConstructionUpdate, error) {
	args := m.Called(ctx, propertyID)
	out, _ := args.Get(0).([]models.ConstructionUpdate)
	return out, args.Error(1)
}
