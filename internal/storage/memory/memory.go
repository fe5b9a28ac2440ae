// Package memory provides an in-process implementation of storage.Storage.
// Records live in a map guarded by a RWMutex, so the package is safe for
// concurrent use. Nothing survives a restart; it backs the tests and the
// "memory" driver for local runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/types"
)

// Memory is the in-memory implementation of storage.Storage.
type Memory struct {
	mu       sync.RWMutex
	students map[types.StudentID]types.Student
	// order keeps insertion order so listing is deterministic.
	order []types.StudentID
}

// New returns an empty store.
func New() *Memory {
	return &Memory{students: make(map[types.StudentID]types.Student)}
}

func (m *Memory) CreateStudent(_ context.Context, student types.Student) (types.StudentID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	student.ID = types.NewStudentID()
	m.students[student.ID] = student
	m.order = append(m.order, student.ID)
	return student.ID, nil
}

func (m *Memory) GetStudentByID(_ context.Context, id types.StudentID) (types.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	student, ok := m.students[id]
	if !ok {
		return types.Student{}, fmt.Errorf("GetStudentByID: %s: %w", id, storage.ErrNotFound)
	}
	return student, nil
}

func (m *Memory) GetStudents(_ context.Context, filter types.StudentFilter, limit int) ([]types.StudentSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	students := make([]types.StudentSummary, 0)
	for _, id := range m.order {
		if len(students) >= limit {
			break
		}
		s, ok := m.students[id]
		if !ok || !filter.Matches(s) {
			continue
		}
		students = append(students, types.StudentSummary{Name: s.Name, Age: s.Age})
	}
	return students, nil
}

func (m *Memory) UpdateStudentByID(_ context.Context, id types.StudentID, update types.StudentUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	student, ok := m.students[id]
	if !ok {
		return fmt.Errorf("UpdateStudentByID: %s: %w", id, storage.ErrNotFound)
	}
	m.students[id] = update.Apply(student)
	return nil
}

func (m *Memory) DeleteStudentByID(_ context.Context, id types.StudentID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.students[id]; !ok {
		return fmt.Errorf("DeleteStudentByID: %s: %w", id, storage.ErrNotFound)
	}
	delete(m.students, id)
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close(context.Context) error { return nil }

var _ storage.Storage = (*Memory)(nil)
