// Package types holds all shared data structures (models) used across
// the application. Keeping them in one place prevents import cycles:
// handlers, the service, and every storage backend import types without
// depending on each other.
package types

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StudentID is the identifier assigned to a student by the storage layer.
//
// Internally it is a 12-byte document-store object id. At the HTTP boundary
// it always travels as its 24 character hex form; ParseStudentID and String
// are the only two places that convert between the representations.
type StudentID struct {
	oid primitive.ObjectID
}

// NewStudentID generates a fresh identifier. Backends that do not assign
// ids themselves (sqlite, memory) use this so every backend hands out ids
// in the same format.
func NewStudentID() StudentID {
	return StudentID{oid: primitive.NewObjectID()}
}

// StudentIDFromObjectID wraps an id returned by the document store.
func StudentIDFromObjectID(oid primitive.ObjectID) StudentID {
	return StudentID{oid: oid}
}

// ParseStudentID converts the text form of an id into a StudentID.
// Malformed input returns a *ValidationError.
func ParseStudentID(s string) (StudentID, error) {
	oid, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return StudentID{}, NewValidationError("id",
			fmt.Sprintf("%q is not a valid student id", s))
	}
	return StudentID{oid: oid}, nil
}

// ObjectID returns the engine-native representation.
func (id StudentID) ObjectID() primitive.ObjectID { return id.oid }

// String returns the canonical hex form.
func (id StudentID) String() string { return id.oid.Hex() }

// IsZero reports whether the id was never assigned.
func (id StudentID) IsZero() bool { return id.oid.IsZero() }

// MarshalText encodes the id as hex so it appears as a JSON string.
func (id StudentID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText decodes a hex id.
func (id *StudentID) UnmarshalText(b []byte) error {
	parsed, err := ParseStudentID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Address is the structured location of a student.
type Address struct {
	City    string `json:"city"`
	Country string `json:"country"`
}

// Student represents a stored student record.
type Student struct {
	ID      StudentID `json:"id"`
	Name    string    `json:"name"`
	Age     int       `json:"age"`
	Address Address   `json:"address"`
}

// StudentSummary is the projection returned by list: name and age only.
type StudentSummary struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
}

// NewAddress is the address part of a create request.
//
// Pointers let the validator tell "missing" apart from "empty":
// required on a pointer only checks that the key was sent.
type NewAddress struct {
	City    *string `json:"city"    validate:"required"`
	Country *string `json:"country" validate:"required"`
}

// NewStudent is the create request body.
//
// Struct tags serve two purposes:
//
//  1. json:"..."  controls how the field is decoded from the request.
//  2. validate:"..." rules are checked by go-playground/validator.
//     Age is a pointer so that an age of 0 still counts as supplied.
type NewStudent struct {
	Name    string      `json:"name"    validate:"required"`
	Age     *int        `json:"age"     validate:"required"`
	Address *NewAddress `json:"address" validate:"required"`
}

// Student converts a validated create request into a record without an id.
func (n NewStudent) Student() Student {
	s := Student{Name: n.Name}
	if n.Age != nil {
		s.Age = *n.Age
	}
	if n.Address != nil {
		if n.Address.City != nil {
			s.Address.City = *n.Address.City
		}
		if n.Address.Country != nil {
			s.Address.Country = *n.Address.Country
		}
	}
	return s
}

// StudentFilter narrows a list query. Zero values mean "not supplied".
type StudentFilter struct {
	Country string
	MinAge  int
}

// Matches reports whether s passes the filter. Backends that cannot push
// the filter down to the engine use this.
//
// MinAge is checked for truthiness, not presence: a MinAge of 0 never
// filters anything out.
func (f StudentFilter) Matches(s Student) bool {
	if f.Country != "" && s.Address.Country != f.Country {
		return false
	}
	if f.MinAge != 0 && s.Age < f.MinAge {
		return false
	}
	return true
}
