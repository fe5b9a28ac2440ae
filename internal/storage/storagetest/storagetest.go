// Package storagetest is a behaviour suite every storage.Storage backend
// must pass. Backend packages run it from their own tests.
package storagetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/types"
)

// Run executes the suite. newStore must return an empty store each call.
func Run(t *testing.T, newStore func(t *testing.T) storage.Storage) {
	t.Helper()
	suite.Run(t, &StorageSuite{newStore: newStore})
}

// StorageSuite checks the storage.Storage contract.
type StorageSuite struct {
	suite.Suite
	newStore func(t *testing.T) storage.Storage
	store    storage.Storage
	ctx      context.Context
}

func (s *StorageSuite) SetupTest() {
	s.store = s.newStore(s.T())
	s.ctx = context.Background()
}

func (s *StorageSuite) create(name string, age int, city, country string) types.StudentID {
	id, err := s.store.CreateStudent(s.ctx, types.Student{
		Name:    name,
		Age:     age,
		Address: types.Address{City: city, Country: country},
	})
	s.Require().NoError(err)
	s.Require().False(id.IsZero())
	return id
}

func (s *StorageSuite) TestCreateAndGet() {
	id := s.create("Alice", 20, "Pune", "IN")

	got, err := s.store.GetStudentByID(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(id, got.ID)
	s.Equal("Alice", got.Name)
	s.Equal(20, got.Age)
	s.Equal(types.Address{City: "Pune", Country: "IN"}, got.Address)
}

func (s *StorageSuite) TestDuplicatesGetDistinctIDs() {
	a := s.create("Alice", 20, "Pune", "IN")
	b := s.create("Alice", 20, "Pune", "IN")
	s.NotEqual(a, b)
}

func (s *StorageSuite) TestGetMissing() {
	_, err := s.store.GetStudentByID(s.ctx, types.NewStudentID())
	s.Require().ErrorIs(err, storage.ErrNotFound)
}

func (s *StorageSuite) TestListFilters() {
	s.create("Alice", 20, "Pune", "IN")
	s.create("Bob", 17, "Delhi", "IN")
	s.create("Carol", 30, "Paris", "FR")

	s.Run("no filter returns all projected", func() {
		got, err := s.store.GetStudents(s.ctx, types.StudentFilter{}, storage.ListLimit)
		s.Require().NoError(err)
		s.ElementsMatch([]types.StudentSummary{
			{Name: "Alice", Age: 20},
			{Name: "Bob", Age: 17},
			{Name: "Carol", Age: 30},
		}, got)
	})

	s.Run("country", func() {
		got, err := s.store.GetStudents(s.ctx, types.StudentFilter{Country: "IN"}, storage.ListLimit)
		s.Require().NoError(err)
		s.ElementsMatch([]types.StudentSummary{
			{Name: "Alice", Age: 20},
			{Name: "Bob", Age: 17},
		}, got)
	})

	s.Run("min age", func() {
		got, err := s.store.GetStudents(s.ctx, types.StudentFilter{MinAge: 18}, storage.ListLimit)
		s.Require().NoError(err)
		s.ElementsMatch([]types.StudentSummary{
			{Name: "Alice", Age: 20},
			{Name: "Carol", Age: 30},
		}, got)
	})

	s.Run("country and min age", func() {
		got, err := s.store.GetStudents(s.ctx, types.StudentFilter{Country: "IN", MinAge: 18}, storage.ListLimit)
		s.Require().NoError(err)
		s.Equal([]types.StudentSummary{{Name: "Alice", Age: 20}}, got)
	})

	s.Run("nothing matches gives empty slice", func() {
		got, err := s.store.GetStudents(s.ctx, types.StudentFilter{Country: "JP"}, storage.ListLimit)
		s.Require().NoError(err)
		s.NotNil(got)
		s.Empty(got)
	})

	s.Run("limit", func() {
		got, err := s.store.GetStudents(s.ctx, types.StudentFilter{}, 2)
		s.Require().NoError(err)
		s.Len(got, 2)
	})
}

func (s *StorageSuite) TestUpdate() {
	id := s.create("Alice", 20, "Pune", "IN")

	name := "Alicia"
	addr := types.Address{City: "Mumbai", Country: "IN"}
	err := s.store.UpdateStudentByID(s.ctx, id, types.StudentUpdate{Name: &name, Address: &addr})
	s.Require().NoError(err)

	got, err := s.store.GetStudentByID(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(id, got.ID)
	s.Equal("Alicia", got.Name)
	s.Equal(20, got.Age)
	s.Equal(addr, got.Address)
}

func (s *StorageSuite) TestUpdateSameValuesStillMatches() {
	id := s.create("Alice", 20, "Pune", "IN")
	age := 20
	s.Require().NoError(s.store.UpdateStudentByID(s.ctx, id, types.StudentUpdate{Age: &age}))
}

func (s *StorageSuite) TestUpdateMissing() {
	age := 21
	err := s.store.UpdateStudentByID(s.ctx, types.NewStudentID(), types.StudentUpdate{Age: &age})
	s.Require().ErrorIs(err, storage.ErrNotFound)

	err = s.store.UpdateStudentByID(s.ctx, types.NewStudentID(), types.StudentUpdate{})
	s.Require().ErrorIs(err, storage.ErrNotFound)
}

func (s *StorageSuite) TestDelete() {
	id := s.create("Alice", 20, "Pune", "IN")

	s.Require().NoError(s.store.DeleteStudentByID(s.ctx, id))

	_, err := s.store.GetStudentByID(s.ctx, id)
	s.Require().ErrorIs(err, storage.ErrNotFound)

	err = s.store.DeleteStudentByID(s.ctx, id)
	s.Require().ErrorIs(err, storage.ErrNotFound)
}

func (s *StorageSuite) TestPing() {
	s.Require().NoError(s.store.Ping(s.ctx))
}
