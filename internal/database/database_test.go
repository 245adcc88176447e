package database

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"segviz-srv/internal/segments"
)

const segmentCSV = `Match Name,Chromosome,Start Location,End Location,Shared cM
Alice,1,1000,5000,12.5
Bob,X,200,900,8
Alice,17B,10,20,30.1
`

func TestExportDataset(t *testing.T) {
	ctx := context.Background()
	db, err := Open(filepath.Join(t.TempDir(), "export.sqlite"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	ds, err := segments.NewLoader(nil).Load(strings.NewReader(segmentCSV))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	id, err := ExportDataset(ctx, db, "segments.csv", ds)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	if n, err := CountRecords(ctx, db, id, "segment"); err != nil || n != 2 {
		t.Fatalf("segment rows: %d %v", n, err)
	}
	if n, err := CountRecords(ctx, db, id, "cm"); err != nil || n != 3 {
		t.Fatalf("cm rows: %d %v", n, err)
	}

	var idx int
	if err := db.QueryRowContext(ctx,
		`SELECT match_index FROM segments WHERE load_id = ? AND kind = 'segment' AND match_name = 'Bob'`, id).Scan(&idx); err != nil {
		t.Fatalf("query: %v", err)
	}
	if idx != 1 {
		t.Fatalf("Bob match index: %d", idx)
	}

	// a second export is a separate load
	id2, err := ExportDataset(ctx, db, "segments.csv", ds)
	if err != nil || id2 == id {
		t.Fatalf("second export: id=%d err=%v", id2, err)
	}
}

func TestExportRejectsNil(t *testing.T) {
	if _, err := ExportDataset(context.Background(), nil, "x", nil); err == nil {
		t.Fatalf("expected error")
	}
}
