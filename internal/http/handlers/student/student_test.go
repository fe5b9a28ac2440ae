package student

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/student-records/internal/service"
	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/storage/memory"
	"github.com/aanand-mishra/student-records/internal/types"
)

type listResponse struct {
	Data []types.StudentSummary `json:"data"`
}

type errorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

func newRouter(t *testing.T, store storage.Storage) http.Handler {
	t.Helper()
	log := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	mux := http.NewServeMux()
	Register(mux, service.New(store, log, nil), log)
	return mux
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func create(t *testing.T, h http.Handler, body string) string {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/students", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decode[map[string]string](t, rec)
	require.NotEmpty(t, resp["id"])
	return resp["id"]
}

const aliceBody = `{"name":"Alice","age":20,"address":{"city":"Pune","country":"IN"}}`

func TestCreateThenGet(t *testing.T) {
	h := newRouter(t, memory.New())
	id := create(t, h, aliceBody)

	rec := do(t, h, http.MethodGet, "/students/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[map[string]any](t, rec)
	assert.Equal(t, map[string]any{
		"id":      id,
		"name":    "Alice",
		"age":     float64(20),
		"address": map[string]any{"city": "Pune", "country": "IN"},
	}, got)
}

func TestCreateValidation(t *testing.T) {
	h := newRouter(t, memory.New())

	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty body", "", "request body is empty"},
		{"malformed", `{"name":`, ""},
		{"wrong type", `{"name":"A","age":"x","address":{"city":"c","country":"d"}}`, ""},
		{"missing name", `{"age":20,"address":{"city":"Pune","country":"IN"}}`, "field name is required"},
		{"missing age", `{"name":"A","address":{"city":"Pune","country":"IN"}}`, "field age is required"},
		{"missing address", `{"name":"A","age":20}`, "field address is required"},
		{"missing country", `{"name":"A","age":20,"address":{"city":"Pune"}}`, "field address.country is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/students", tt.body)
			require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			resp := decode[errorResponse](t, rec)
			assert.Equal(t, "error", resp.Status)
			if tt.want != "" {
				assert.Contains(t, resp.Error, tt.want)
			}
		})
	}

	rec := do(t, h, http.MethodGet, "/students", "")
	assert.Empty(t, decode[listResponse](t, rec).Data)
}

func TestCreateAcceptsZeroAge(t *testing.T) {
	h := newRouter(t, memory.New())
	create(t, h, `{"name":"Baby","age":0,"address":{"city":"Pune","country":"IN"}}`)
}

func TestCreateAllowsDuplicates(t *testing.T) {
	h := newRouter(t, memory.New())
	a := create(t, h, aliceBody)
	b := create(t, h, aliceBody)
	assert.NotEqual(t, a, b)
}

func TestList(t *testing.T) {
	h := newRouter(t, memory.New())
	create(t, h, aliceBody)
	create(t, h, `{"name":"Bob","age":17,"address":{"city":"Delhi","country":"IN"}}`)
	create(t, h, `{"name":"Carol","age":30,"address":{"city":"Paris","country":"FR"}}`)

	list := func(query string) []types.StudentSummary {
		rec := do(t, h, http.MethodGet, "/students"+query, "")
		require.Equal(t, http.StatusOK, rec.Code)
		return decode[listResponse](t, rec).Data
	}

	all := []types.StudentSummary{{Name: "Alice", Age: 20}, {Name: "Bob", Age: 17}, {Name: "Carol", Age: 30}}

	t.Run("no filters, projected to name and age", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/students", "")
		var raw struct {
			Data []map[string]any `json:"data"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&raw))
		require.Len(t, raw.Data, 3)
		for _, item := range raw.Data {
			assert.ElementsMatch(t, []string{"name", "age"}, keys(item))
		}
	})

	t.Run("country", func(t *testing.T) {
		assert.ElementsMatch(t, []types.StudentSummary{{Name: "Alice", Age: 20}, {Name: "Bob", Age: 17}}, list("?country=IN"))
	})

	t.Run("min age", func(t *testing.T) {
		assert.ElementsMatch(t, []types.StudentSummary{{Name: "Alice", Age: 20}, {Name: "Carol", Age: 30}}, list("?minAge=18"))
	})

	t.Run("min age zero is ignored", func(t *testing.T) {
		assert.ElementsMatch(t, all, list("?minAge=0"))
		assert.ElementsMatch(t, list(""), list("?minAge=0"))
	})

	t.Run("both filters", func(t *testing.T) {
		assert.Equal(t, []types.StudentSummary{{Name: "Alice", Age: 20}}, list("?country=IN&minAge=18"))
	})

	t.Run("empty country is ignored", func(t *testing.T) {
		assert.ElementsMatch(t, all, list("?country="))
	})

	t.Run("legacy age parameter", func(t *testing.T) {
		assert.ElementsMatch(t, []types.StudentSummary{{Name: "Carol", Age: 30}}, list("?age=25"))
		assert.ElementsMatch(t, []types.StudentSummary{{Name: "Alice", Age: 20}, {Name: "Carol", Age: 30}}, list("?age=25&minAge=18"))
	})

	t.Run("non-integer min age", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/students?minAge=old", "")
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestGetErrors(t *testing.T) {
	h := newRouter(t, memory.New())

	rec := do(t, h, http.MethodGet, "/students/not-an-id", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, h, http.MethodGet, "/students/"+types.NewStudentID().String(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, errorResponse{Status: "error", Error: "Student not found."}, decode[errorResponse](t, rec))
}

func TestUpdateMergesAddress(t *testing.T) {
	h := newRouter(t, memory.New())
	id := create(t, h, aliceBody)

	rec := do(t, h, http.MethodPatch, "/students/"+id, `{"address":{"city":"Mumbai"}}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	got := decode[types.Student](t, do(t, h, http.MethodGet, "/students/"+id, ""))
	assert.Equal(t, types.Address{City: "Mumbai", Country: "IN"}, got.Address)
	assert.Equal(t, "Alice", got.Name)
	assert.Equal(t, 20, got.Age)
}

func TestUpdateOneFieldLeavesOthersUnchanged(t *testing.T) {
	h := newRouter(t, memory.New())
	id := create(t, h, aliceBody)

	before := decode[types.Student](t, do(t, h, http.MethodGet, "/students/"+id, ""))

	rec := do(t, h, http.MethodPatch, "/students/"+id, `{"age":21}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	after := decode[types.Student](t, do(t, h, http.MethodGet, "/students/"+id, ""))
	before.Age = 21
	assert.Equal(t, before, after)
}

func TestUpdateErrors(t *testing.T) {
	h := newRouter(t, memory.New())
	id := create(t, h, aliceBody)

	tests := []struct {
		name   string
		target string
		body   string
		code   int
	}{
		{"missing record", "/students/" + types.NewStudentID().String(), `{"age":30}`, http.StatusNotFound},
		{"bad id", "/students/xyz", `{"age":30}`, http.StatusUnprocessableEntity},
		{"null name", "/students/" + id, `{"name":null}`, http.StatusUnprocessableEntity},
		{"empty name", "/students/" + id, `{"name":""}`, http.StatusUnprocessableEntity},
		{"wrong type", "/students/" + id, `{"age":"old"}`, http.StatusUnprocessableEntity},
		{"empty body", "/students/" + id, "", http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPatch, tt.target, tt.body)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
		})
	}

	got := decode[types.Student](t, do(t, h, http.MethodGet, "/students/"+id, ""))
	assert.Equal(t, "Alice", got.Name)
	assert.Equal(t, 20, got.Age)
}

// vanishingStore deletes the record between the service's read and write.
type vanishingStore struct {
	*memory.Memory
}

func (v vanishingStore) UpdateStudentByID(ctx context.Context, id types.StudentID, u types.StudentUpdate) error {
	_ = v.Memory.DeleteStudentByID(ctx, id)
	return v.Memory.UpdateStudentByID(ctx, id, u)
}

func TestUpdateConflictIs500(t *testing.T) {
	h := newRouter(t, vanishingStore{Memory: memory.New()})
	id := create(t, h, aliceBody)

	rec := do(t, h, http.MethodPatch, "/students/"+id, `{"age":21}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Error updating student.", decode[errorResponse](t, rec).Error)
}

func TestDelete(t *testing.T) {
	h := newRouter(t, memory.New())
	id := create(t, h, aliceBody)

	rec := do(t, h, http.MethodDelete, "/students/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{
		"message":    "Student deleted successfully.",
		"student id": id,
	}, decode[map[string]string](t, rec))

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/students/"+id, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/students/"+id, "").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, do(t, h, http.MethodDelete, "/students/bad", "").Code)
}
