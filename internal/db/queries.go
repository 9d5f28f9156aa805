package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hpungsan/hamper/internal/errors"
	"github.com/hpungsan/hamper/internal/laundry"
)

// storedLaundry is the on-disk value. The id is kept out-of-line in the id
// column, so the JSON document never carries it.
type storedLaundry struct {
	laundry.Garment
	Solutions []laundry.Solution `json:"solutions"`
}

func encode(l *laundry.Laundry) (string, error) {
	data, err := json.Marshal(storedLaundry{Garment: l.Garment, Solutions: l.Solutions})
	if err != nil {
		return "", errors.NewInternal(err)
	}
	return string(data), nil
}

func decode(id int64, raw string) (*laundry.Laundry, error) {
	var s storedLaundry
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("corrupt laundry value for id %d: %w", id, err))
	}
	return &laundry.Laundry{ID: id, Garment: s.Garment, Solutions: s.Solutions}, nil
}

// Queryer is satisfied by both *sql.DB and *sql.Tx.
type Queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Execer is satisfied by both *sql.DB and *sql.Tx, so writes can join a
// caller's transaction.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func get(ctx context.Context, q Queryer, id int64) (*laundry.Laundry, error) {
	var raw string
	err := q.QueryRowContext(ctx, "SELECT value FROM laundry WHERE id = ?", id).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return decode(id, raw)
}

// Exists reports whether a record with id is stored.
func Exists(ctx context.Context, q Queryer, id int64) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, "SELECT 1 FROM laundry WHERE id = ?", id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return true, nil
}

// Get retrieves a laundry record by id.
func Get(ctx context.Context, db *sql.DB, id int64) (*laundry.Laundry, error) {
	return get(ctx, db, id)
}

// GetMany retrieves records in the order of ids. Missing ids are skipped;
// a repeated id yields the record once per occurrence.
func GetMany(ctx context.Context, db *sql.DB, ids []int64) ([]laundry.Laundry, error) {
	if len(ids) == 0 {
		return []laundry.Laundry{}, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	query := "SELECT id, value FROM laundry WHERE id IN (" + strings.Join(placeholders, ",") + ")"
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	found := make(map[int64]*laundry.Laundry, len(ids))
	for rows.Next() {
		var (
			id  int64
			raw string
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, errors.NewInternal(err)
		}
		l, err := decode(id, raw)
		if err != nil {
			return nil, err
		}
		found[id] = l
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	result := make([]laundry.Laundry, 0, len(ids))
	for _, id := range ids {
		if l, ok := found[id]; ok {
			result = append(result, l.Clone())
		}
	}
	return result, nil
}

// GetAll returns every record in ascending id order.
func GetAll(ctx context.Context, db *sql.DB) ([]laundry.Laundry, error) {
	rows, err := db.QueryContext(ctx, "SELECT id, value FROM laundry ORDER BY id")
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	result := []laundry.Laundry{}
	for rows.Next() {
		var (
			id  int64
			raw string
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, errors.NewInternal(err)
		}
		l, err := decode(id, raw)
		if err != nil {
			return nil, err
		}
		result = append(result, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return result, nil
}

// Page returns records newest first (descending id) together with the
// total number of stored records.
func Page(ctx context.Context, db *sql.DB, limit, offset int) ([]laundry.Laundry, int, error) {
	total, err := Count(ctx, db)
	if err != nil {
		return nil, 0, err
	}

	rows, err := db.QueryContext(ctx, "SELECT id, value FROM laundry ORDER BY id DESC LIMIT ? OFFSET ?", limit, offset)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	defer rows.Close()

	result := []laundry.Laundry{}
	for rows.Next() {
		var (
			id  int64
			raw string
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, 0, errors.NewInternal(err)
		}
		l, err := decode(id, raw)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	return result, total, nil
}

// Add stores a new record and returns its assigned id. l.ID is ignored.
func Add(ctx context.Context, db Execer, l *laundry.Laundry) (int64, error) {
	value, err := encode(l)
	if err != nil {
		return 0, err
	}

	res, err := db.ExecContext(ctx, "INSERT INTO laundry (value) VALUES (?)", value)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return id, nil
}

// Set upserts a record. With l.ID == 0 it behaves like Add; otherwise the
// stored value is overwritten wholesale. Merging is the caller's job.
func Set(ctx context.Context, db Execer, l *laundry.Laundry) (int64, error) {
	if l.ID == 0 {
		return Add(ctx, db, l)
	}

	value, err := encode(l)
	if err != nil {
		return 0, err
	}

	query := `
		INSERT INTO laundry (id, value) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET value = excluded.value
	`
	if _, err := db.ExecContext(ctx, query, l.ID, value); err != nil {
		return 0, errors.NewInternal(err)
	}
	return l.ID, nil
}

// Put merges patch into the stored record inside one transaction.
// Returns found=false without error when the record does not exist.
func Put(ctx context.Context, db *sql.DB, id int64, patch laundry.Patch) (bool, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, errors.NewInternal(err)
	}
	defer tx.Rollback()

	current, err := get(ctx, tx, id)
	if errors.Is(err, errors.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	current.Apply(patch)
	current.Normalize()

	value, err := encode(current)
	if err != nil {
		return false, err
	}
	if _, err := tx.ExecContext(ctx, "UPDATE laundry SET value = ? WHERE id = ?", value, id); err != nil {
		return false, errors.NewInternal(err)
	}
	if err := tx.Commit(); err != nil {
		return false, errors.NewInternal(err)
	}
	return true, nil
}

// Del physically deletes a record. Deleting a missing id is not an error.
func Del(ctx context.Context, db *sql.DB, id int64) error {
	if _, err := db.ExecContext(ctx, "DELETE FROM laundry WHERE id = ?", id); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// DelMany deletes every listed record and returns how many existed.
func DelMany(ctx context.Context, db *sql.DB, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	res, err := db.ExecContext(ctx, "DELETE FROM laundry WHERE id IN ("+strings.Join(placeholders, ",")+")", args...)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

// Clear deletes every record and returns how many were removed.
// The AUTOINCREMENT sequence is not reset, so ids are never reused.
func Clear(ctx context.Context, db *sql.DB) (int64, error) {
	res, err := db.ExecContext(ctx, "DELETE FROM laundry")
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

// Count returns the number of stored records.
func Count(ctx context.Context, db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM laundry").Scan(&n); err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}
