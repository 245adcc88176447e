package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"segviz-srv/internal/models"
	"segviz-srv/internal/segments"
)

//go:embed schema.sql
var schema string

// Open opens (creating if needed) a SQLite export file and applies the schema.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	if err := InitDatabase(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// InitDatabase runs the embedded schema and sets performance PRAGMAs
func InitDatabase(db *sql.DB) error {
	_, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;")
	if err != nil {
		return err
	}
	_, err = db.Exec(schema)
	return err
}

// ExportDataset writes one load and its records in a single transaction
// and returns the load id. Segment rows carry their match index.
func ExportDataset(ctx context.Context, db *sql.DB, sourceName string, ds *segments.Dataset) (int64, error) {
	if db == nil || ds == nil {
		return 0, fmt.Errorf("invalid export")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO loads (source_name, row_count, segment_count, cm_count) VALUES (?, ?, ?, ?)`,
		sourceName, ds.Report.Rows, len(ds.Segments), len(ds.CMRecords))
	if err != nil {
		return 0, fmt.Errorf("insert load: %w", err)
	}
	loadID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO segments (load_id, kind, match_name, match_index, chromosome, start_location, end_location, shared_cm, segment_count)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	index := segments.BuildMatchIndex(ds.Segments)
	for _, s := range ds.Segments {
		i, _ := index.Lookup(s.MatchName)
		if _, err := stmt.ExecContext(ctx, loadID, "segment", s.MatchName, i, s.Chromosome,
			s.StartLocation, s.EndLocation, s.SharedCM, nullableCount(s)); err != nil {
			return 0, fmt.Errorf("insert segment: %w", err)
		}
	}
	for _, s := range ds.CMRecords {
		if _, err := stmt.ExecContext(ctx, loadID, "cm", s.MatchName, nil, nullableInt(s.Chromosome),
			nullableLocation(s.StartLocation), nullableLocation(s.EndLocation), s.SharedCM, nullableCount(s)); err != nil {
			return 0, fmt.Errorf("insert cM record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return loadID, nil
}

func nullableCount(s models.MatchSegment) sql.NullInt64 {
	if s.SegmentCount == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*s.SegmentCount), Valid: true}
}

func nullableInt(n int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(n), Valid: n != 0}
}

func nullableLocation(n int64) sql.NullInt64 {
	return sql.NullInt64{Int64: n, Valid: n != 0}
}

// CountRecords returns the number of rows of the given kind for a load.
func CountRecords(ctx context.Context, db *sql.DB, loadID int64, kind string) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM segments WHERE load_id = ? AND kind = ?`, loadID, kind).Scan(&n)
	return n, err
}
