package ops

import (
	"bufio"
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/hpungsan/hamper/internal/config"
	"github.com/hpungsan/hamper/internal/db"
	"github.com/hpungsan/hamper/internal/errors"
)

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	Path string // optional, default: ~/.hamper/exports/basket[-<type>]-<timestamp>.jsonl
	Filter
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Path       string `json:"path"`
	Count      int    `json:"count"`
	ExportedAt int64  `json:"exported_at"`
}

// ExportHeader is the first line of a basket backup file.
type ExportHeader struct {
	HamperExport  bool  `json:"_hamper_export"`
	SchemaVersion int   `json:"schema_version"`
	ExportedAt    int64 `json:"exported_at"`
}

// Export writes the basket to a JSONL file: one header line, then one
// record per line in ascending id order, ids included. The file is written
// to a temporary name and renamed into place, so an existing backup is
// only replaced by a complete one.
func Export(ctx context.Context, database *sql.DB, cfg *config.Config, input ExportInput) (*ExportOutput, error) {
	now := time.Now()

	exportPath := input.Path
	if exportPath == "" {
		var err error
		exportPath, err = defaultExportPath(input.Filter, now)
		if err != nil {
			return nil, err
		}
	}
	if err := ValidatePath(exportPath, PathCheckWrite, cfg); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(exportPath), 0700); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	records, err := db.GetAll(ctx, database)
	if err != nil {
		return nil, err
	}

	suffix := make([]byte, 8)
	if _, err := rand.Read(suffix); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := exportPath + "." + hex.EncodeToString(suffix) + ".tmp"
	file, err := createBackupTemp(tempPath)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	w := bufio.NewWriter(file)
	enc := json.NewEncoder(w)
	if err := enc.Encode(ExportHeader{
		HamperExport:  true,
		SchemaVersion: db.CurrentSchemaVersion,
		ExportedAt:    now.Unix(),
	}); err != nil {
		return nil, errors.NewInternal(err)
	}

	count := 0
	for i := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !input.Filter.Match(&records[i]) {
			continue
		}
		if err := enc.Encode(&records[i]); err != nil {
			return nil, errors.NewInternal(err)
		}
		count++
	}

	if err := w.Flush(); err != nil {
		return nil, errors.NewInternal(err)
	}
	if err := file.Sync(); err != nil {
		return nil, errors.NewInternal(err)
	}
	if err := file.Close(); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to close export file: %w", err))
	}
	file = nil

	// os.Rename would follow a symlink planted after validation.
	if isSymlink(exportPath) {
		return nil, errors.NewInvalidRequest("path must not be a symlink")
	}
	if err := os.Rename(tempPath, exportPath); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(exportPath); statErr == nil {
				return nil, errors.NewInvalidRequest("export destination already exists; choose a new path or delete the existing file")
			}
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}

	success = true
	return &ExportOutput{
		Path:       exportPath,
		Count:      count,
		ExportedAt: now.Unix(),
	}, nil
}

// defaultExportPath names the backup after the type filter, if any.
func defaultExportPath(f Filter, now time.Time) (string, error) {
	dir, err := ExportsDir()
	if err != nil {
		return "", err
	}
	name := "basket"
	if t := strings.TrimSpace(f.Type); t != "" {
		name += "-" + SanitizeForFilename(strings.ToLower(t))
	}
	filename := fmt.Sprintf("%s-%s%s", name, now.Format("2006-01-02T150405"), BackupExt)
	return filepath.Join(dir, filename), nil
}
