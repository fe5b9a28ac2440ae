package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodePatch(t *testing.T, body string) StudentPatch {
	t.Helper()
	var p StudentPatch
	require.NoError(t, json.Unmarshal([]byte(body), &p))
	return p
}

func TestOptionalDecoding(t *testing.T) {
	p := decodePatch(t, `{"name":"Alicia","age":null}`)

	name, ok := p.Name.Get()
	assert.True(t, ok)
	assert.Equal(t, "Alicia", name)

	assert.True(t, p.Age.IsSet())
	assert.True(t, p.Age.IsNull())
	_, ok = p.Age.Get()
	assert.False(t, ok)

	assert.False(t, p.Address.IsSet())
}

func TestOptionalRejectsWrongType(t *testing.T) {
	var p StudentPatch
	err := json.Unmarshal([]byte(`{"age":"twenty"}`), &p)
	assert.Error(t, err)
}

func TestMergePatchAddressKeepsUnsentFields(t *testing.T) {
	existing := Student{
		ID:      NewStudentID(),
		Name:    "Alice",
		Age:     20,
		Address: Address{City: "Pune", Country: "IN"},
	}
	p := decodePatch(t, `{"address":{"city":"Mumbai"}}`)

	u := MergePatch(existing, p)

	assert.Nil(t, u.Name)
	assert.Nil(t, u.Age)
	require.NotNil(t, u.Address)
	assert.Equal(t, Address{City: "Mumbai", Country: "IN"}, *u.Address)

	got := u.Apply(existing)
	assert.Equal(t, existing.ID, got.ID)
	assert.Equal(t, "Alice", got.Name)
	assert.Equal(t, 20, got.Age)
	assert.Equal(t, Address{City: "Mumbai", Country: "IN"}, got.Address)
}

func TestMergePatchTopLevelFields(t *testing.T) {
	existing := Student{Name: "Alice", Age: 20, Address: Address{City: "Pune", Country: "IN"}}

	u := MergePatch(existing, decodePatch(t, `{"age":21}`))
	require.NotNil(t, u.Age)
	assert.Equal(t, 21, *u.Age)
	assert.Nil(t, u.Name)
	assert.Nil(t, u.Address)

	assert.Equal(t, Student{Name: "Alice", Age: 21, Address: existing.Address}, u.Apply(existing))
}

func TestMergePatchEmpty(t *testing.T) {
	existing := Student{Name: "Alice", Age: 20, Address: Address{City: "Pune", Country: "IN"}}

	assert.True(t, MergePatch(existing, decodePatch(t, `{}`)).IsEmpty())

	// An empty address object merges to the stored address.
	u := MergePatch(existing, decodePatch(t, `{"address":{}}`))
	require.NotNil(t, u.Address)
	assert.Equal(t, existing.Address, *u.Address)
}

func TestMergePatchIsPure(t *testing.T) {
	existing := Student{Name: "Alice", Age: 20, Address: Address{City: "Pune", Country: "IN"}}
	before := existing

	_ = MergePatch(existing, decodePatch(t, `{"name":"X","address":{"country":"FR"}}`))

	assert.Equal(t, before, existing)
}

func TestStudentPatchValidate(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		fields []string
	}{
		{"empty patch", `{}`, nil},
		{"values", `{"name":"A","age":0,"address":{"city":""}}`, nil},
		{"null name", `{"name":null}`, []string{"name"}},
		{"empty name", `{"name":""}`, []string{"name"}},
		{"null age", `{"age":null}`, []string{"age"}},
		{"null address", `{"address":null}`, []string{"address"}},
		{"null sub-fields", `{"address":{"city":null,"country":null}}`, []string{"address.city", "address.country"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := decodePatch(t, tt.body).Validate()
			if tt.fields == nil {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			var got []string
			for _, f := range verr.Fields {
				got = append(got, f.Field)
			}
			assert.Equal(t, tt.fields, got)
		})
	}
}
