package ops

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"

	"github.com/hpungsan/hamper/internal/config"
	"github.com/hpungsan/hamper/internal/db"
	"github.com/hpungsan/hamper/internal/errors"
	"github.com/hpungsan/hamper/internal/laundry"
)

// ImportMode controls how imported ids are treated.
type ImportMode string

const (
	ImportModeError   ImportMode = "error"   // keep ids; fail on any bad line or collision (atomic)
	ImportModeReplace ImportMode = "replace" // keep ids; overwrite on collision
	ImportModeAppend  ImportMode = "append"  // assign new ids to every record
)

// maxImportLine bounds one JSONL line; records carry base64 images.
const maxImportLine = 64 << 20

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path string     // required
	Mode ImportMode // default: error
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Imported int           `json:"imported"`
	Skipped  int           `json:"skipped"`
	Errors   []ImportError `json:"errors"`
}

// ImportError describes one line that was not imported.
type ImportError struct {
	Line    int    `json:"line"`
	ID      int64  `json:"id,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type importRecord struct {
	line    int
	laundry laundry.Laundry
}

// Import reads a basket backup written by Export. Every write happens in one
// transaction: in error mode nothing is written unless every line imports.
func Import(ctx context.Context, database *sql.DB, cfg *config.Config, input ImportInput) (*ImportOutput, error) {
	if input.Mode == "" {
		input.Mode = ImportModeError
	}
	switch input.Mode {
	case ImportModeError, ImportModeReplace, ImportModeAppend:
	default:
		return nil, errors.NewInvalidRequest("mode must be one of: error, replace, append")
	}
	if err := ValidatePath(input.Path, PathCheckRead, cfg); err != nil {
		return nil, err
	}

	file, err := openBackup(input.Path)
	if err != nil {
		if errors.As(err).Code != errors.ErrInternal {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	defer file.Close()

	records, parseErrors := parseBackup(ctx, file)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if input.Mode == ImportModeError && len(parseErrors) > 0 {
		return &ImportOutput{Errors: parseErrors}, nil
	}

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer tx.Rollback() //nolint:errcheck

	out := &ImportOutput{Errors: parseErrors, Skipped: len(parseErrors)}
	for _, r := range records {
		l := r.laundry
		switch input.Mode {
		case ImportModeAppend:
			l.ID = 0
		case ImportModeError:
			exists, err := db.Exists(ctx, tx, l.ID)
			if err != nil {
				return nil, err
			}
			if exists {
				return &ImportOutput{Errors: []ImportError{{
					Line:    r.line,
					ID:      l.ID,
					Code:    "ID_COLLISION",
					Message: fmt.Sprintf("laundry with id %d already exists", l.ID),
				}}}, nil
			}
		}
		if _, err := db.Set(ctx, tx, &l); err != nil {
			return nil, err
		}
		out.Imported++
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewInternal(err)
	}
	if out.Errors == nil {
		out.Errors = []ImportError{}
	}
	return out, nil
}

// parseBackup decodes and validates every record line. The header line and
// blank lines are skipped.
func parseBackup(ctx context.Context, r io.Reader) ([]importRecord, []ImportError) {
	var (
		records []importRecord
		errs    []ImportError
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxImportLine)
	lineNum := 0
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil, nil
		}
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var header ExportHeader
		if err := json.Unmarshal(line, &header); err == nil && header.HamperExport {
			if header.SchemaVersion > db.CurrentSchemaVersion {
				errs = append(errs, ImportError{
					Line:    lineNum,
					Code:    "UNSUPPORTED_VERSION",
					Message: fmt.Sprintf("backup schema version %d is newer than %d", header.SchemaVersion, db.CurrentSchemaVersion),
				})
				return nil, errs
			}
			continue
		}

		var l laundry.Laundry
		if err := json.Unmarshal(line, &l); err != nil {
			errs = append(errs, ImportError{
				Line:    lineNum,
				Code:    "PARSE_ERROR",
				Message: fmt.Sprintf("invalid JSON: %v", err),
			})
			continue
		}
		if l.ID <= 0 {
			errs = append(errs, ImportError{Line: lineNum, Code: "INVALID_RECORD", Message: "missing id field"})
			continue
		}
		l.Normalize()
		if l.Solutions == nil {
			l.Solutions = []laundry.Solution{}
		}
		if err := laundry.Validate(&l); err != nil {
			code, msg := errorParts(err)
			errs = append(errs, ImportError{Line: lineNum, ID: l.ID, Code: code, Message: msg})
			continue
		}

		records = append(records, importRecord{line: lineNum, laundry: l})
	}

	if err := scanner.Err(); err != nil {
		errs = append(errs, ImportError{
			Line:    lineNum,
			Code:    "READ_ERROR",
			Message: fmt.Sprintf("failed to read file: %v", err),
		})
	}
	return records, errs
}
