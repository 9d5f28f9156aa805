package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when appending to migrations.
const CurrentSchemaVersion = 2

// laundryTableDDL creates the record table under the given name.
// Values are JSON documents; the key lives only in the id column.
const laundryTableDDL = `
	CREATE TABLE IF NOT EXISTS %s (
	  id    INTEGER PRIMARY KEY AUTOINCREMENT,
	  value TEXT NOT NULL
	)`

// RowTransform reshapes one stored value. Returning keep=false drops the row.
// Transforms must be pure: no I/O, no dependence on other rows.
type RowTransform func(value map[string]any) (out map[string]any, keep bool)

// Migration moves the schema from one version to the next.
// Schema runs first, then Transform rewrites every laundry row.
// Both, plus the user_version bump, share one transaction.
type Migration struct {
	From      int
	To        int
	Schema    string
	Transform RowTransform
}

// migrations is the ordered migration chain. Each entry's From must equal
// the previous entry's To.
var migrations = []Migration{
	{
		From:   0,
		To:     1,
		Schema: fmt.Sprintf(laundryTableDDL, "laundry"),
	},
	{
		From:      1,
		To:        2,
		Transform: reshapeImagesV2,
	},
}

// Migrate applies pending migrations up to target. Each step commits on its
// own, so a failure leaves the database at the last completed version with
// no partially rewritten table visible.
func Migrate(ctx context.Context, db *sql.DB, target int) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}
	if version > CurrentSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, CurrentSchemaVersion)
	}

	for _, m := range migrations {
		if m.From < version || m.To > target {
			continue
		}
		if m.From != version {
			return fmt.Errorf("migration chain broken: at version %d, next step starts at %d", version, m.From)
		}
		if err := runMigration(ctx, db, m); err != nil {
			return fmt.Errorf("migration %d->%d failed: %w", m.From, m.To, err)
		}
		version = m.To
	}

	return nil
}

func runMigration(ctx context.Context, db *sql.DB, m Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if m.Schema != "" {
		if _, err := tx.ExecContext(ctx, m.Schema); err != nil {
			return err
		}
	}

	if m.Transform != nil {
		if err := rewriteLaundry(ctx, tx, m.Transform); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version=%d", m.To)); err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}

	return tx.Commit()
}

// rewriteLaundry builds a replacement table from transformed rows and swaps
// it in for the old one. Ids are carried over unchanged, and the
// AUTOINCREMENT high-water mark never moves backwards.
func rewriteLaundry(ctx context.Context, tx *sql.Tx, transform RowTransform) error {
	type row struct {
		id    int64
		value []byte
	}

	rows, err := tx.QueryContext(ctx, "SELECT id, value FROM laundry ORDER BY id")
	if err != nil {
		return err
	}
	var kept []row
	for rows.Next() {
		var (
			id  int64
			raw string
		)
		if err := rows.Scan(&id, &raw); err != nil {
			rows.Close()
			return err
		}

		var value map[string]any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			// Unreadable rows cannot be reshaped; drop them like incomplete ones.
			continue
		}
		out, keep := transform(value)
		if !keep {
			continue
		}
		data, err := json.Marshal(out)
		if err != nil {
			rows.Close()
			return err
		}
		kept = append(kept, row{id: id, value: data})
	}
	if err := rows.Close(); err != nil {
		return err
	}
	if err := rows.Err(); err != nil {
		return err
	}

	seq, err := laundrySequence(ctx, tx)
	if err != nil {
		return err
	}
	for _, r := range kept {
		seq = max(seq, r.id)
	}

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS laundry_next"); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(laundryTableDDL, "laundry_next")); err != nil {
		return err
	}
	for _, r := range kept {
		if _, err := tx.ExecContext(ctx, "INSERT INTO laundry_next (id, value) VALUES (?, ?)", r.id, string(r.value)); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, "DROP TABLE laundry"); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "ALTER TABLE laundry_next RENAME TO laundry"); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM sqlite_sequence WHERE name IN ('laundry', 'laundry_next')"); err != nil {
		return err
	}
	if seq > 0 {
		if _, err := tx.ExecContext(ctx, "INSERT INTO sqlite_sequence (name, seq) VALUES ('laundry', ?)", seq); err != nil {
			return err
		}
	}
	return nil
}

// laundrySequence returns the last id handed out for laundry, or 0 when the
// table never received a row.
func laundrySequence(ctx context.Context, tx *sql.Tx) (int64, error) {
	var seq int64
	err := tx.QueryRowContext(ctx, "SELECT seq FROM sqlite_sequence WHERE name = 'laundry'").Scan(&seq)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return seq, err
}

// reshapeImagesV2 converts the v1 layout to v2:
//
//	v1: {id, ..., solutions, images: {label, real?}}
//	v2: {..., solutions, image: {label, clothes}}
//
// v1 clients wrote the key in-line; rows without it, or without any
// solutions, were abandoned half-way through the capture flow and are dropped.
// The in-line id is removed since v2 keeps the key in the id column only.
func reshapeImagesV2(value map[string]any) (map[string]any, bool) {
	if _, ok := value["id"].(float64); !ok {
		return nil, false
	}
	solutions, ok := value["solutions"].([]any)
	if !ok || len(solutions) == 0 {
		return nil, false
	}

	out := make(map[string]any, len(value))
	for k, v := range value {
		switch k {
		case "id", "images":
		default:
			out[k] = v
		}
	}

	image := map[string]any{"label": nil, "clothes": nil}
	if images, ok := value["images"].(map[string]any); ok {
		image["label"] = images["label"]
		if real, ok := images["real"]; ok {
			image["clothes"] = real
		}
	}
	out["image"] = image

	return out, true
}
