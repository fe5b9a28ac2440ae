// Package service implements the student record operations on top of a
// storage.Storage. It holds no state of its own between requests; all
// consistency comes from the store's single-document atomicity.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/types"
)

// ErrConflict is returned by Update when the record existed at the check
// but the write matched nothing, i.e. it was deleted concurrently.
var ErrConflict = errors.New("student changed during update")

// Recorder receives domain events for metrics. A nil Recorder is allowed.
type Recorder interface {
	StudentCreated()
}

// Service is the student record service.
type Service struct {
	store    storage.Storage
	log      *slog.Logger
	recorder Recorder
}

// New returns a Service backed by store.
func New(store storage.Storage, log *slog.Logger, recorder Recorder) *Service {
	return &Service{store: store, log: log, recorder: recorder}
}

// Create persists a new record and returns its store-assigned id.
// Identical records are allowed.
func (s *Service) Create(ctx context.Context, student types.Student) (types.StudentID, error) {
	id, err := s.store.CreateStudent(ctx, student)
	if err != nil {
		return types.StudentID{}, err
	}
	if s.recorder != nil {
		s.recorder.StudentCreated()
	}
	s.log.Info("student created", slog.String("id", id.String()))
	return id, nil
}

// List returns up to storage.ListLimit records matching filter.
func (s *Service) List(ctx context.Context, filter types.StudentFilter) ([]types.StudentSummary, error) {
	return s.store.GetStudents(ctx, filter, storage.ListLimit)
}

// Get fetches one record.
func (s *Service) Get(ctx context.Context, id types.StudentID) (types.Student, error) {
	return s.store.GetStudentByID(ctx, id)
}

// Update applies patch to the record with the given id.
//
// The existing record is read first so a partial address can be merged
// into the stored one. The read and the write are separate store calls: a
// delete landing between them surfaces as ErrConflict rather than
// storage.ErrNotFound.
func (s *Service) Update(ctx context.Context, id types.StudentID, patch types.StudentPatch) (types.StudentUpdate, error) {
	if err := patch.Validate(); err != nil {
		return types.StudentUpdate{}, err
	}

	existing, err := s.store.GetStudentByID(ctx, id)
	if err != nil {
		return types.StudentUpdate{}, err
	}

	update := types.MergePatch(existing, patch)
	if update.IsEmpty() {
		return update, nil
	}

	if err := s.store.UpdateStudentByID(ctx, id, update); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.log.Warn("student vanished between read and write",
				slog.String("id", id.String()))
			return types.StudentUpdate{}, fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return types.StudentUpdate{}, err
	}

	s.log.Info("student updated", slog.String("id", id.String()))
	return update, nil
}

// Delete removes the record with the given id.
func (s *Service) Delete(ctx context.Context, id types.StudentID) error {
	if err := s.store.DeleteStudentByID(ctx, id); err != nil {
		return err
	}
	s.log.Info("student deleted", slog.String("id", id.String()))
	return nil
}
