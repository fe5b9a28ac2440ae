// Package student contains all HTTP handlers related to the Student resource.
//
// Handlers follow the closure / factory pattern: each exported function
// receives its dependencies once at startup and returns the
// http.HandlerFunc the router calls on every request.
//
//	router.HandleFunc("POST /students", student.New(svc))
package student

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/student-records/internal/service"
	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/types"
	"github.com/aanand-mishra/student-records/internal/utils/response"
)

const (
	msgNotFound      = "Student not found."
	msgUpdateFailed  = "Error updating student."
	msgDeleted       = "Student deleted successfully."
	msgEmptyBody     = "request body is empty"
	queryCountry     = "country"
	queryMinAge      = "minAge"
	queryMinAgeAlias = "age"
)

// validate reports field names by their json tag so errors match the
// request body the client sent.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Register mounts every student route on router.
func Register(router *http.ServeMux, svc *service.Service, log *slog.Logger) {
	router.HandleFunc("POST /students", New(svc, log))
	router.HandleFunc("GET /students", GetList(svc, log))
	router.HandleFunc("GET /students/{id}", GetByID(svc, log))
	router.HandleFunc("PATCH /students/{id}", Update(svc, log))
	router.HandleFunc("DELETE /students/{id}", Delete(svc, log))
}

// writeError translates a service or storage error into a response.
func writeError(w http.ResponseWriter, log *slog.Logger, err error) {
	var verr *types.ValidationError
	switch {
	case errors.As(err, &verr):
		response.WriteJSON(w, http.StatusUnprocessableEntity, response.FieldErrors(verr))
	case errors.Is(err, service.ErrConflict):
		log.Error("update conflict", slog.String("error", err.Error()))
		response.WriteJSON(w, http.StatusInternalServerError, response.Message(msgUpdateFailed))
	case errors.Is(err, storage.ErrNotFound):
		response.WriteJSON(w, http.StatusNotFound, response.Message(msgNotFound))
	default:
		log.Error("storage error", slog.String("error", err.Error()))
		response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
	}
}

// decodeBody reads a JSON body into v. It writes the 422 itself and
// returns false when the body is empty or malformed.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		response.WriteJSON(w, http.StatusUnprocessableEntity,
			response.GeneralError(errors.New(msgEmptyBody)))
		return false
	}
	if err != nil {
		var verr *types.ValidationError
		if errors.As(err, &verr) {
			response.WriteJSON(w, http.StatusUnprocessableEntity, response.FieldErrors(verr))
			return false
		}
		response.WriteJSON(w, http.StatusUnprocessableEntity, response.GeneralError(err))
		return false
	}
	return true
}

// pathID parses the {id} segment. It writes the 422 itself and returns
// false when the id is malformed.
func pathID(w http.ResponseWriter, r *http.Request) (types.StudentID, bool) {
	id, err := types.ParseStudentID(r.PathValue("id"))
	if err != nil {
		var verr *types.ValidationError
		errors.As(err, &verr)
		response.WriteJSON(w, http.StatusUnprocessableEntity, response.FieldErrors(verr))
		return types.StudentID{}, false
	}
	return id, true
}

// New handles POST /students.
//
// Request body:
//
//	{ "name": "Alice", "age": 20, "address": { "city": "Pune", "country": "IN" } }
//
// Success response (201 Created):
//
//	{ "id": "66f1c2..." }
func New(svc *service.Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("creating a student")

		var req types.NewStudent
		if !decodeBody(w, r, &req) {
			return
		}

		if err := validate.Struct(req); err != nil {
			var validateErrs validator.ValidationErrors
			if errors.As(err, &validateErrs) {
				response.WriteJSON(w, http.StatusUnprocessableEntity,
					response.ValidationError(validateErrs))
				return
			}
			response.WriteJSON(w, http.StatusUnprocessableEntity, response.GeneralError(err))
			return
		}

		id, err := svc.Create(r.Context(), req.Student())
		if err != nil {
			writeError(w, log, err)
			return
		}

		response.WriteJSON(w, http.StatusCreated, map[string]string{"id": id.String()})
	}
}

// listFilter reads country and minAge from the query string. "age" is
// accepted for minAge when minAge itself is absent.
func listFilter(r *http.Request) (types.StudentFilter, error) {
	q := r.URL.Query()
	filter := types.StudentFilter{Country: q.Get(queryCountry)}

	raw := q.Get(queryMinAge)
	if raw == "" {
		raw = q.Get(queryMinAgeAlias)
	}
	if raw != "" {
		minAge, err := strconv.Atoi(raw)
		if err != nil {
			return types.StudentFilter{}, types.NewValidationError(queryMinAge,
				"query parameter minAge must be an integer")
		}
		filter.MinAge = minAge
	}
	return filter, nil
}

// GetList handles GET /students?country=&minAge=.
//
// Success response (200 OK), at most 100 entries:
//
//	{ "data": [ { "name": "Alice", "age": 20 } ] }
func GetList(svc *service.Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := listFilter(r)
		if err != nil {
			writeError(w, log, err)
			return
		}

		log.Debug("listing students",
			slog.String("country", filter.Country),
			slog.Int("min_age", filter.MinAge))

		students, err := svc.List(r.Context(), filter)
		if err != nil {
			writeError(w, log, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, map[string][]types.StudentSummary{"data": students})
	}
}

// GetByID handles GET /students/{id}.
//
// Success response (200 OK):
//
//	{ "id": "66f1c2...", "name": "Alice", "age": 20, "address": { "city": "Pune", "country": "IN" } }
func GetByID(svc *service.Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		log.Debug("getting a student", slog.String("id", id.String()))

		student, err := svc.Get(r.Context(), id)
		if err != nil {
			writeError(w, log, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, student)
	}
}

// Update handles PATCH /students/{id}.
//
// Only the fields present in the body are changed; a partial address is
// merged into the stored one. Success is 204 with no body.
func Update(svc *service.Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		log.Debug("updating a student", slog.String("id", id.String()))

		var patch types.StudentPatch
		if !decodeBody(w, r, &patch) {
			return
		}

		if _, err := svc.Update(r.Context(), id, patch); err != nil {
			writeError(w, log, err)
			return
		}

		response.NoContent(w)
	}
}

// Delete handles DELETE /students/{id}.
//
// Success response (200 OK):
//
//	{ "message": "Student deleted successfully.", "student id": "66f1c2..." }
func Delete(svc *service.Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		log.Debug("deleting a student", slog.String("id", id.String()))

		if err := svc.Delete(r.Context(), id); err != nil {
			writeError(w, log, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, map[string]string{
			"message":    msgDeleted,
			"student id": id.String(),
		})
	}
}
