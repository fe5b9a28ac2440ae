// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// SQLite is used here as a local document store: each student is one JSON
// document in the doc column, keyed by the same object id format the
// MongoDB backend uses. Filters and partial updates are pushed into SQL
// with SQLite's built-in JSON functions, so a single UPDATE is atomic for
// one document just like UpdateOne.
//
// The blank import below registers the sqlite3 driver with database/sql.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aanand-mishra/student-records/internal/config"
	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/types"

	// Blank import: side-effect only (registers the "sqlite3" driver).
	_ "github.com/mattn/go-sqlite3"
)

// SQLite is the concrete implementation of storage.Storage.
// It holds a *sql.DB which is a connection pool managed by database/sql.
// A single *sql.DB is safe for concurrent use by multiple goroutines.
type SQLite struct {
	Db *sql.DB
}

// document is the JSON stored in the doc column. The id lives in its own
// column and is not repeated here.
type document struct {
	Name    string        `json:"name"`
	Age     int           `json:"age"`
	Address types.Address `json:"address"`
}

// New opens the SQLite database at cfg.StoragePath, creates the students
// table if it does not already exist, and returns a ready-to-use *SQLite.
func New(cfg *config.Config) (*SQLite, error) {
	db, err := sql.Open("sqlite3", cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// Schema:
	//   id  - 24 char hex object id, assigned by CreateStudent
	//   doc - the student document as JSON text
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS students (
			id  TEXT PRIMARY KEY,
			doc TEXT NOT NULL CHECK (json_valid(doc))
		)
	`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite.New: create table: %w", err)
	}

	return &SQLite{Db: db}, nil
}

func (s *SQLite) CreateStudent(ctx context.Context, student types.Student) (types.StudentID, error) {
	doc, err := json.Marshal(document{
		Name:    student.Name,
		Age:     student.Age,
		Address: student.Address,
	})
	if err != nil {
		return types.StudentID{}, fmt.Errorf("CreateStudent: encode: %w", err)
	}

	stmt, err := s.Db.PrepareContext(ctx, "INSERT INTO students (id, doc) VALUES (?, ?)")
	if err != nil {
		return types.StudentID{}, fmt.Errorf("CreateStudent: prepare: %w", err)
	}
	defer stmt.Close()

	id := types.NewStudentID()
	if _, err := stmt.ExecContext(ctx, id.String(), string(doc)); err != nil {
		return types.StudentID{}, fmt.Errorf("CreateStudent: exec: %w", err)
	}

	return id, nil
}

func (s *SQLite) GetStudentByID(ctx context.Context, id types.StudentID) (types.Student, error) {
	stmt, err := s.Db.PrepareContext(ctx, "SELECT doc FROM students WHERE id = ? LIMIT 1")
	if err != nil {
		return types.Student{}, fmt.Errorf("GetStudentByID: prepare: %w", err)
	}
	defer stmt.Close()

	var raw string
	if err := stmt.QueryRowContext(ctx, id.String()).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Student{}, fmt.Errorf("GetStudentByID: %s: %w", id, storage.ErrNotFound)
		}
		return types.Student{}, fmt.Errorf("GetStudentByID: scan: %w", err)
	}

	var doc document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return types.Student{}, fmt.Errorf("GetStudentByID: decode: %w", err)
	}

	return types.Student{
		ID:      id,
		Name:    doc.Name,
		Age:     doc.Age,
		Address: doc.Address,
	}, nil
}

// GetStudents returns matching documents projected to name and age.
//
// The numbered parameters let one statement serve every filter
// combination: an empty country or a zero min age disables its condition.
func (s *SQLite) GetStudents(ctx context.Context, filter types.StudentFilter, limit int) ([]types.StudentSummary, error) {
	stmt, err := s.Db.PrepareContext(ctx, `
		SELECT json_extract(doc, '$.name'), json_extract(doc, '$.age')
		FROM students
		WHERE (?1 = '' OR json_extract(doc, '$.address.country') = ?1)
		  AND (?2 = 0 OR json_extract(doc, '$.age') >= ?2)
		LIMIT ?3
	`)
	if err != nil {
		return nil, fmt.Errorf("GetStudents: prepare: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, filter.Country, filter.MinAge, limit)
	if err != nil {
		return nil, fmt.Errorf("GetStudents: query: %w", err)
	}
	defer rows.Close()

	students := make([]types.StudentSummary, 0)
	for rows.Next() {
		var student types.StudentSummary
		if err := rows.Scan(&student.Name, &student.Age); err != nil {
			return nil, fmt.Errorf("GetStudents: scan row: %w", err)
		}
		students = append(students, student)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetStudents: rows iteration: %w", err)
	}

	return students, nil
}

// setArgs builds the json_set path/value pairs for update. The address is
// bound as JSON text and wrapped in json() so it is stored as an object.
func setArgs(update types.StudentUpdate) (string, []any, error) {
	var (
		paths []string
		args  []any
	)
	if update.Name != nil {
		paths = append(paths, "'$.name', ?")
		args = append(args, *update.Name)
	}
	if update.Age != nil {
		paths = append(paths, "'$.age', ?")
		args = append(args, *update.Age)
	}
	if update.Address != nil {
		addr, err := json.Marshal(update.Address)
		if err != nil {
			return "", nil, err
		}
		paths = append(paths, "'$.address', json(?)")
		args = append(args, string(addr))
	}
	return strings.Join(paths, ", "), args, nil
}

func (s *SQLite) UpdateStudentByID(ctx context.Context, id types.StudentID, update types.StudentUpdate) error {
	if update.IsEmpty() {
		var exists int
		err := s.Db.QueryRowContext(ctx, "SELECT 1 FROM students WHERE id = ?", id.String()).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("UpdateStudentByID: %s: %w", id, storage.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("UpdateStudentByID: exists: %w", err)
		}
		return nil
	}

	paths, args, err := setArgs(update)
	if err != nil {
		return fmt.Errorf("UpdateStudentByID: encode: %w", err)
	}

	stmt, err := s.Db.PrepareContext(ctx,
		"UPDATE students SET doc = json_set(doc, "+paths+") WHERE id = ?",
	)
	if err != nil {
		return fmt.Errorf("UpdateStudentByID: prepare: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, append(args, id.String())...)
	if err != nil {
		return fmt.Errorf("UpdateStudentByID: exec: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateStudentByID: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("UpdateStudentByID: %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

func (s *SQLite) DeleteStudentByID(ctx context.Context, id types.StudentID) error {
	stmt, err := s.Db.PrepareContext(ctx, "DELETE FROM students WHERE id = ?")
	if err != nil {
		return fmt.Errorf("DeleteStudentByID: prepare: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, id.String())
	if err != nil {
		return fmt.Errorf("DeleteStudentByID: exec: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("DeleteStudentByID: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("DeleteStudentByID: %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

func (s *SQLite) Ping(ctx context.Context) error {
	return s.Db.PingContext(ctx)
}

func (s *SQLite) Close(context.Context) error {
	return s.Db.Close()
}

var _ storage.Storage = (*SQLite)(nil)
