// Package lascatalog maintains a SQLite catalog of LAS files: one row per
// scanned file with its format, counts, bounds and extra-dimension schema.
// Tools use it to answer "what do I have" queries across a directory of
// point clouds without reopening every container.
package lascatalog

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/lasfile/internal/las"
)

//go:embed schema.sql
var schemaSQL string

// FileRecord is one catalog row describing a scanned LAS file.
type FileRecord struct {
	FileID          string
	Path            string
	VersionMajor    uint8
	VersionMinor    uint8
	PointFormat     uint8
	RecordLength    int
	PointCount      uint64
	VLRCount        int
	ExtraDimensions []string
	Min             [3]float64
	Max             [3]float64
	ScannedAtNs     int64
}

// Catalog is a SQLite-backed store of FileRecords.
type Catalog struct {
	db *sql.DB
}

// Open opens (creating if needed) a catalog database at path and applies
// the schema.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying catalog schema: %w", err)
	}
	return &Catalog{db: db}, nil
}

// Close releases the database handle.
func (c *Catalog) Close() error { return c.db.Close() }

// Upsert inserts or replaces the record for rec.Path. An empty FileID gets
// a fresh UUID; a zero ScannedAtNs gets the current time.
func (c *Catalog) Upsert(rec *FileRecord) error {
	if rec.FileID == "" {
		rec.FileID = uuid.New().String()
	}
	if rec.ScannedAtNs == 0 {
		rec.ScannedAtNs = time.Now().UnixNano()
	}
	query := `
		INSERT INTO las_files (
			file_id, path, version_major, version_minor, point_format,
			record_length, point_count, vlr_count, extra_dimensions,
			min_x, min_y, min_z, max_x, max_y, max_z, scanned_at_ns
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			file_id = excluded.file_id,
			version_major = excluded.version_major,
			version_minor = excluded.version_minor,
			point_format = excluded.point_format,
			record_length = excluded.record_length,
			point_count = excluded.point_count,
			vlr_count = excluded.vlr_count,
			extra_dimensions = excluded.extra_dimensions,
			min_x = excluded.min_x, min_y = excluded.min_y, min_z = excluded.min_z,
			max_x = excluded.max_x, max_y = excluded.max_y, max_z = excluded.max_z,
			scanned_at_ns = excluded.scanned_at_ns
	`
	_, err := c.db.Exec(query,
		rec.FileID, rec.Path, rec.VersionMajor, rec.VersionMinor, rec.PointFormat,
		rec.RecordLength, rec.PointCount, rec.VLRCount,
		strings.Join(rec.ExtraDimensions, ","),
		rec.Min[0], rec.Min[1], rec.Min[2],
		rec.Max[0], rec.Max[1], rec.Max[2],
		rec.ScannedAtNs,
	)
	if err != nil {
		return fmt.Errorf("upserting %s: %w", rec.Path, err)
	}
	return nil
}

// GetByPath returns the record for a file path, or (nil, nil) if the path
// has not been cataloged.
func (c *Catalog) GetByPath(path string) (*FileRecord, error) {
	row := c.db.QueryRow(`
		SELECT file_id, path, version_major, version_minor, point_format,
			record_length, point_count, vlr_count, extra_dimensions,
			min_x, min_y, min_z, max_x, max_y, max_z, scanned_at_ns
		FROM las_files WHERE path = ?
	`, path)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

// List returns every cataloged file ordered by path.
func (c *Catalog) List() ([]*FileRecord, error) {
	rows, err := c.db.Query(`
		SELECT file_id, path, version_major, version_minor, point_format,
			record_length, point_count, vlr_count, extra_dimensions,
			min_x, min_y, min_z, max_x, max_y, max_z, scanned_at_ns
		FROM las_files ORDER BY path
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*FileRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Delete removes the record for a file path. Unknown paths are a no-op.
func (c *Catalog) Delete(path string) error {
	_, err := c.db.Exec(`DELETE FROM las_files WHERE path = ?`, path)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*FileRecord, error) {
	var rec FileRecord
	var extras string
	err := row.Scan(
		&rec.FileID, &rec.Path, &rec.VersionMajor, &rec.VersionMinor, &rec.PointFormat,
		&rec.RecordLength, &rec.PointCount, &rec.VLRCount, &extras,
		&rec.Min[0], &rec.Min[1], &rec.Min[2],
		&rec.Max[0], &rec.Max[1], &rec.Max[2],
		&rec.ScannedAtNs,
	)
	if err != nil {
		return nil, err
	}
	if extras != "" {
		rec.ExtraDimensions = strings.Split(extras, ",")
	}
	return &rec, nil
}

// Scan opens a LAS file, summarizes it into a FileRecord and upserts it.
func (c *Catalog) Scan(path string) (*FileRecord, error) {
	f, err := las.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h := f.Header()
	rec := &FileRecord{
		Path:         path,
		VersionMajor: h.VersionMajor,
		VersionMinor: h.VersionMinor,
		PointFormat:  h.PointFormatID,
		RecordLength: f.RecordLength(),
		PointCount:   f.PointCount(),
		VLRCount:     len(f.VLRs()),
		Min:          h.Min,
		Max:          h.Max,
	}
	for _, e := range f.ExtraDimensions() {
		rec.ExtraDimensions = append(rec.ExtraDimensions, las.NormalizeDimensionName(e.Name))
	}
	if err := c.Upsert(rec); err != nil {
		return nil, err
	}
	return rec, nil
}
