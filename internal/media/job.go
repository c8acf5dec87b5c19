package media

import (
	"time"

	"github.com/google/uuid"
	"github.com/stwalsh4118/estate/api/internal/models"
)

// Upload is a file received with a request whose bytes still have to be
// stored. Data is held in memory because the job outlives the request.
type Upload struct {
	// Meta carries the category-specific fields of the row to insert.
	// Its URL and StoragePath are filled in once the bytes are stored.
	Meta     models.StoredAsset
	Filename string
	Data     []byte
}

// CategoryChanges are the instructions for one media category.
type CategoryChanges struct {
	Delete  []uuid.UUID
	Uploads []Upload
	// Stored are records whose bytes already live in storage.
	Stored []models.StoredAsset
}

func (c CategoryChanges) empty() bool {
	return len(c.Delete) == 0 && len(c.Uploads) == 0 && len(c.Stored) == 0
}

// Job is one media reconciliation for a property.
type Job struct {
	Changes    map[models.MediaCategory]CategoryChanges
	ID         uuid.UUID
	PropertyID uuid.UUID
}

// NewJob creates a job with a fresh id.
func NewJob(propertyID uuid.UUID) Job {
	return Job{
		ID:         uuid.New(),
		PropertyID: propertyID,
		Changes:    make(map[models.MediaCategory]CategoryChanges),
	}
}

// Empty reports whether the job has nothing to do.
func (j Job) Empty() bool {
	for _, c := range j.Changes {
		if !c.empty() {
			return false
		}
	}
	return true
}

// State is the lifecycle stage of a media job.
type State string

const (
	StateQueued    State = "queued"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StatePartial   State = "partial"
	StateFailed    State = "failed"
)

// Finished reports whether the job will not change state again.
func (s State) Finished() bool {
	return s == StateSucceeded || s == StatePartial || s == StateFailed
}

// Operation names a media subtask.
type Operation string

const (
	OpDelete      Operation = "delete"
	OpDeleteBytes Operation = "delete-bytes"
	OpStore       Operation = "store"
	OpInsert      Operation = "insert"
	OpEnqueue     Operation = "enqueue"
)

// Failure describes one subtask that did not complete.
type Failure struct {
	Category models.MediaCategory `json:"category,omitempty"`
	Op       Operation            `json:"operation"`
	File     string               `json:"file,omitempty"`
	Error    string               `json:"error"`
	Attempts int                  `json:"attempts"`
}

// Report is the outcome of running a job.
type Report struct {
	Failures []Failure
	Inserted int
	Deleted  int
	Attempts int
}

// State derives the final job state from the report.
func (r Report) State() State {
	switch {
	case len(r.Failures) == 0:
		return StateSucceeded
	case r.Inserted > 0 || r.Deleted > 0:
		return StatePartial
	default:
		return StateFailed
	}
}

// JobStatus is the pollable record of a job.
type JobStatus struct {
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	State      State     `json:"state"`
	Failures   []Failure `json:"failures"`
	ID         uuid.UUID `json:"id"`
	PropertyID uuid.UUID `json:"propertyId"`
	Attempts   int       `json:"attempts"`
	Inserted   int       `json:"inserted"`
	Deleted    int       `json:"deleted"`
}
