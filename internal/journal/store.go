package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Record is one journaled log entry.
type Record struct {
	ID      int64
	Time    time.Time
	Level   string
	Message string
	Attrs   string // JSON object of the record attributes, empty if none
}

// Store appends and reads journal records.
//
// Writes go through a single WAL-mode connection; reads use a separate
// read-only connection. Both are opened lazily.
type Store struct {
	dbPath string

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

// Open returns a store for the SQLite database at dbPath. The file and schema
// are created on the first write.
func Open(dbPath string) *Store {
	return &Store{dbPath: dbPath}
}

func (s *Store) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL"))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}
		db.SetMaxOpenConns(1)

		if _, err = db.Exec(initSchemaSQL); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *Store) getReadDB() (*sql.DB, error) {
	// The schema must exist before a read-only connection can see it.
	if _, err := s.getWriteDB(); err != nil {
		return nil, err
	}

	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "mode=ro"))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

// Append stores one record.
//
// Parameters:
//   - ctx: Context for cancellation
//   - rec: Record to store; ID is ignored
//
// Returns:
//   - int64: ID assigned to the record
//   - error: Database failure
func (s *Store) Append(ctx context.Context, rec Record) (id int64, err error) {
	db, err := s.getWriteDB()
	if err != nil {
		return 0, fmt.Errorf("getting write connection: %w", err)
	}

	attrs := sql.NullString{String: rec.Attrs, Valid: rec.Attrs != ""}

	stmt, err := db.PrepareContext(ctx, insertRecordSQL)
	if err != nil {
		return 0, fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	result, err := stmt.ExecContext(ctx, rec.Time.UTC(), rec.Level, rec.Message, attrs)
	if err != nil {
		return 0, fmt.Errorf("inserting record: %w", err)
	}

	return result.LastInsertId()
}

// Recent returns up to limit most recent records, oldest first.
func (s *Store) Recent(ctx context.Context, limit int) (records []Record, err error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}

	rows, err := db.QueryContext(ctx, selectRecentRecordsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var (
			rec   Record
			attrs sql.NullString
		)
		if err = rows.Scan(&rec.ID, &rec.Time, &rec.Level, &rec.Message, &attrs); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		rec.Attrs = attrs.String
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}

	slices.Reverse(records)

	return records, nil
}

// Close closes the database connections. It is safe to call Close multiple times.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		var writeErr, readErr error

		if s.writeDB != nil {
			writeErr = s.writeDB.Close()
			s.writeDB = nil
		}

		if s.readDB != nil {
			readErr = s.readDB.Close()
			s.readDB = nil
		}

		s.closeErr = errors.Join(writeErr, readErr)
	})

	return s.closeErr
}

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}
