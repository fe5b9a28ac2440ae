// Package storage defines the Storage interface: the contract that any
// document store backend must satisfy to hold student records.
//
// Handlers and the service depend only on this interface. Switching
// backends means implementing it for the new engine and selecting it in
// main.go; tests pass the in-memory backend.
package storage

import (
	"context"
	"errors"

	"github.com/aanand-mishra/student-records/internal/types"
)

// ErrNotFound is returned (possibly wrapped) when no record matches an id.
var ErrNotFound = errors.New("student not found")

// ListLimit is the maximum number of records a single list call returns.
const ListLimit = 100

// Storage is the document store contract. Every call is a single-document
// operation except GetStudents; backends guarantee per-document atomicity
// and nothing more.
type Storage interface {
	// CreateStudent inserts a new record and returns the id the store
	// assigned to it. Any id set on student is ignored.
	CreateStudent(ctx context.Context, student types.Student) (types.StudentID, error)

	// GetStudentByID fetches a single record. Returns ErrNotFound if absent.
	GetStudentByID(ctx context.Context, id types.StudentID) (types.Student, error)

	// GetStudents returns at most limit records matching filter, projected
	// to name and age, in the engine's natural order. Returns an empty
	// slice (not nil) if nothing matches.
	GetStudents(ctx context.Context, filter types.StudentFilter, limit int) ([]types.StudentSummary, error)

	// UpdateStudentByID writes the non-nil fields of update to the record.
	// Returns ErrNotFound if no record matched at write time.
	UpdateStudentByID(ctx context.Context, id types.StudentID, update types.StudentUpdate) error

	// DeleteStudentByID removes a record permanently. Returns ErrNotFound
	// if nothing was deleted.
	DeleteStudentByID(ctx context.Context, id types.StudentID) error

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error

	// Close releases the connection. The store must not be used afterwards.
	Close(ctx context.Context) error
}
