package segments

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"segviz-srv/internal/models"
	"segviz-srv/internal/parser"
)

const segmentCSV = ` Match Name , Chromosome ,Start Location,End Location,Shared cM
Alice,1,1000,5000,12.5
Bob,X,200,900,8
Alice,17B,10,20,30.1
Carol,3,50,40,9
Bob,y,100,150,"0.5% (20 cM)"
Dave,22,oops,10,15
Carol,2,10,20,n/a
Erin,4,-5000,-100,11
Frank,5,1e300,1e300,10
`

const summaryCSV = `Name,Shared DNA,Shared Segments
Alice,"1.2% (88.0 cM)",4
Bob,"0.3% (22.1 cM)",2
Carol,7.9 cM,1
Dave,unknown,
`

func load(t *testing.T, csv string) *Dataset {
	t.Helper()
	d, err := NewLoader(nil).Load(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return d
}

func TestLoadSegmentFile(t *testing.T) {
	d := load(t, segmentCSV)

	if d.Report.Rows != 9 {
		t.Fatalf("rows: got %d", d.Report.Rows)
	}
	if d.Report.DroppedChromosome != 1 || d.Report.InvertedSpans != 1 || d.Report.DroppedLocation != 3 {
		t.Fatalf("unexpected report: %+v", d.Report)
	}

	var names []string
	for _, s := range d.Segments {
		names = append(names, s.MatchName)
	}
	want := []string{"Alice", "Bob", "Bob", "Carol"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("segments: want %v got %v", want, names)
	}
	if d.Segments[1].Chromosome != 23 || d.Segments[2].Chromosome != 24 {
		t.Fatalf("sex chromosomes not mapped: %+v", d.Segments)
	}
	if d.Segments[2].SharedCM != 20 {
		t.Fatalf("embedded cM not extracted: %v", d.Segments[2].SharedCM)
	}
}

func TestMalformedChromosomeOnlyAffectsSegments(t *testing.T) {
	d := load(t, segmentCSV)
	if len(d.CMRecords) != d.Report.Rows {
		t.Fatalf("cM set should keep every row: %d of %d", len(d.CMRecords), d.Report.Rows)
	}
	found := false
	for _, r := range d.CMRecords {
		if r.MatchName == "Alice" && r.SharedCM == 30.1 {
			found = true
		}
	}
	if !found {
		t.Fatalf("row with chromosome 17B missing from cM records")
	}
	for _, s := range d.Segments {
		if s.SharedCM == 30.1 {
			t.Fatalf("row with chromosome 17B leaked into segments")
		}
	}
	if d.Report.UnparsedCM != 1 {
		t.Fatalf("unparsed cM: got %d", d.Report.UnparsedCM)
	}
}

func TestLoadSummaryFile(t *testing.T) {
	d := load(t, summaryCSV)
	if len(d.Segments) != 0 {
		t.Fatalf("summary file has no segments, got %d", len(d.Segments))
	}
	cms := []float64{88.0, 22.1, 7.9, 0}
	for i, r := range d.CMRecords {
		if r.SharedCM != cms[i] {
			t.Errorf("row %d: cM want %v got %v", i, cms[i], r.SharedCM)
		}
	}
	if d.CMRecords[0].SegmentCount == nil || *d.CMRecords[0].SegmentCount != 4 {
		t.Fatalf("segment count not parsed: %+v", d.CMRecords[0])
	}
	if d.CMRecords[3].SegmentCount != nil {
		t.Fatalf("empty segment count should stay nil")
	}
	if err := d.Require(models.ChartScatter); err != nil {
		t.Fatalf("scatter should be available: %v", err)
	}
	if got := d.Available(); !reflect.DeepEqual(got, []models.ChartKind{models.ChartHistogram, models.ChartScatter}) {
		t.Fatalf("available: %v", got)
	}
}

func TestMissingCMColumn(t *testing.T) {
	d := load(t, "Match Name,Chromosome,Start Location,End Location,Shared DN\nA,1,1,2,5\n")

	err := d.Require(models.ChartHistogram)
	var mc *parser.MissingColumnError
	if !errors.As(err, &mc) {
		t.Fatalf("want MissingColumnError, got %v", err)
	}
	if mc.Field != models.FieldSharedCM {
		t.Fatalf("field: %s", mc.Field)
	}
	want := []string{"Match Name", "Chromosome", "Start Location", "End Location", "Shared DN"}
	if !reflect.DeepEqual(mc.Found, want) {
		t.Fatalf("found columns: %v", mc.Found)
	}
	if mc.Suggestion != "Shared DN" {
		t.Fatalf("suggestion: %q", mc.Suggestion)
	}
	// charts that don't need cM keep working
	if err := d.Require(models.ChartBar3D); err != nil {
		t.Fatalf("bar3d should still be available: %v", err)
	}
	if len(d.Segments) != 1 {
		t.Fatalf("segments: %d", len(d.Segments))
	}
}

func TestMalformedCSVIsLoadError(t *testing.T) {
	_, err := NewLoader(nil).Load(strings.NewReader("Match Name,Chromosome\n\"A,1\n"))
	var le *parser.LoadError
	if !errors.As(err, &le) {
		t.Fatalf("want LoadError, got %v", err)
	}
}

func TestBuildMatchIndexDeterministic(t *testing.T) {
	d := load(t, segmentCSV)
	a := BuildMatchIndex(d.Segments)
	b := BuildMatchIndex(d.Segments)
	if !reflect.DeepEqual(a.Map(), b.Map()) {
		t.Fatalf("index not deterministic: %v vs %v", a.Map(), b.Map())
	}
	if !reflect.DeepEqual(a.Names(), []string{"Alice", "Bob", "Carol"}) {
		t.Fatalf("first-appearance order: %v", a.Names())
	}
	if i, ok := a.Lookup("Carol"); !ok || i != 2 {
		t.Fatalf("Carol: %d %v", i, ok)
	}
	if _, ok := a.Lookup("Zed"); ok {
		t.Fatalf("unknown name resolved")
	}
}

func TestDerivedIndicesIdempotent(t *testing.T) {
	d := load(t, segmentCSV)
	axis1 := ChromosomeAxis(d.Segments)
	axis2 := ChromosomeAxis(d.Segments)
	if !reflect.DeepEqual(axis1, axis2) || !reflect.DeepEqual(axis1, []int{1, 2, 23, 24}) {
		t.Fatalf("axis: %v / %v", axis1, axis2)
	}
	if BuildMatchIndex(d.Segments).Len() != 3 {
		t.Fatalf("match count")
	}
}

func TestFilterByRangeInclusiveAndOrdered(t *testing.T) {
	recs := []models.MatchSegment{
		{MatchName: "a", SharedCM: 20},
		{MatchName: "b", SharedCM: 7.99},
		{MatchName: "c", SharedCM: 8},
		{MatchName: "d", SharedCM: 20.01},
		{MatchName: "e", SharedCM: 12},
	}
	got := FilterByRange(recs, 8, 20)
	var names []string
	for _, r := range got {
		names = append(names, r.MatchName)
	}
	if !reflect.DeepEqual(names, []string{"a", "c", "e"}) {
		t.Fatalf("filtered: %v", names)
	}
	if len(FilterByRange(recs, 30, 10)) != 0 {
		t.Fatalf("inverted range should be empty")
	}
}

func TestDefaultRangeAndOverride(t *testing.T) {
	recs := []models.MatchSegment{{SharedCM: 3}, {SharedCM: 42}, {SharedCM: 9}}
	r := DefaultRange(recs)
	if r.Min != DefaultMinCM || r.Max != 42 {
		t.Fatalf("default range: %+v", r)
	}
	lo := 5.0
	r = r.Override(&lo, nil)
	if r.Min != 5 || r.Max != 42 {
		t.Fatalf("override: %+v", r)
	}
	if MaxCM(nil) != 0 {
		t.Fatalf("max of empty")
	}
}
