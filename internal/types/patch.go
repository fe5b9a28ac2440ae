package types

import (
	"bytes"
	"encoding/json"
)

// Optional holds a JSON field that may be absent, present with a value,
// or present as an explicit null.
//
// The zero value is "absent". UnmarshalJSON is only invoked by
// encoding/json when the key appears in the input, which is what marks
// the field as present.
type Optional[T any] struct {
	value T
	set   bool
	null  bool
}

// Some returns a present Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

// Null returns a present Optional holding an explicit null.
func Null[T any]() Optional[T] {
	return Optional[T]{set: true, null: true}
}

// Get returns the value and true when the field is present and not null.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set && !o.null
}

// IsSet reports whether the field appeared in the input at all.
func (o Optional[T]) IsSet() bool { return o.set }

// IsNull reports whether the field appeared as an explicit null.
func (o Optional[T]) IsNull() bool { return o.set && o.null }

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.null = true
		var zero T
		o.value = zero
		return nil
	}
	o.null = false
	return json.Unmarshal(data, &o.value)
}

// AddressPatch is the address part of a partial update.
type AddressPatch struct {
	City    Optional[string] `json:"city"`
	Country Optional[string] `json:"country"`
}

// StudentPatch is the body of a partial update. Only fields present in the
// request are applied.
type StudentPatch struct {
	Name    Optional[string]       `json:"name"`
	Age     Optional[int]          `json:"age"`
	Address Optional[AddressPatch] `json:"address"`
}

// Validate rejects patches that would clear a field the record must keep.
func (p StudentPatch) Validate() error {
	var verr ValidationError
	if p.Name.IsNull() {
		verr.add("name", "field name cannot be null")
	} else if name, ok := p.Name.Get(); ok && name == "" {
		verr.add("name", "field name cannot be empty")
	}
	if p.Age.IsNull() {
		verr.add("age", "field age cannot be null")
	}
	if p.Address.IsNull() {
		verr.add("address", "field address cannot be null")
	} else if addr, ok := p.Address.Get(); ok {
		if addr.City.IsNull() {
			verr.add("address.city", "field address.city cannot be null")
		}
		if addr.Country.IsNull() {
			verr.add("address.country", "field address.country cannot be null")
		}
	}
	if len(verr.Fields) > 0 {
		return &verr
	}
	return nil
}

// StudentUpdate is the set of fields written by a partial update.
// A nil field is left untouched. Address, when set, is always complete.
type StudentUpdate struct {
	Name    *string
	Age     *int
	Address *Address
}

// IsEmpty reports whether the update writes nothing.
func (u StudentUpdate) IsEmpty() bool {
	return u.Name == nil && u.Age == nil && u.Address == nil
}

// Apply returns s with the update's fields written over it. The id is
// never changed.
func (u StudentUpdate) Apply(s Student) Student {
	if u.Name != nil {
		s.Name = *u.Name
	}
	if u.Age != nil {
		s.Age = *u.Age
	}
	if u.Address != nil {
		s.Address = *u.Address
	}
	return s
}

// MergePatch computes the update that p makes to existing.
//
// Top-level fields present in p overwrite. A present address is merged
// field by field over existing.Address, so sub-fields absent from the
// patch keep their stored values.
func MergePatch(existing Student, p StudentPatch) StudentUpdate {
	var u StudentUpdate
	if name, ok := p.Name.Get(); ok {
		u.Name = &name
	}
	if age, ok := p.Age.Get(); ok {
		u.Age = &age
	}
	if ap, ok := p.Address.Get(); ok {
		merged := existing.Address
		if city, ok := ap.City.Get(); ok {
			merged.City = city
		}
		if country, ok := ap.Country.Get(); ok {
			merged.Country = country
		}
		u.Address = &merged
	}
	return u
}
