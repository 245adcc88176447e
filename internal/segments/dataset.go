// Package segments turns a raw CSV export into typed match records and the
// indices the charts are plotted against.
package segments

import (
	"io"

	"segviz-srv/internal/logx"
	"segviz-srv/internal/matcher"
	"segviz-srv/internal/models"
	"segviz-srv/internal/parser"
)

// Loader normalizes uploads against an alias table.
type Loader struct {
	Aliases parser.AliasTable
}

// NewLoader returns a Loader. A nil table means the embedded defaults.
func NewLoader(aliases parser.AliasTable) *Loader {
	if aliases == nil {
		aliases = parser.DefaultAliases()
	}
	return &Loader{Aliases: aliases}
}

// Dataset is one normalized upload.
type Dataset struct {
	Table   *models.Table
	Columns parser.Columns

	// Segments holds rows with a valid chromosome and span, for the 3D charts.
	Segments []models.MatchSegment
	// CMRecords holds every row with the cM column, whatever its chromosome.
	CMRecords []models.MatchSegment

	Report models.LoadReport

	aliases parser.AliasTable
}

// Load reads and normalizes a CSV stream. Only an unreadable table is an
// error; missing columns are reported per chart by Require.
func (l *Loader) Load(r io.Reader) (*Dataset, error) {
	table, err := parser.ReadTable(r)
	if err != nil {
		return nil, err
	}
	return l.FromTable(table), nil
}

// FromTable normalizes an already parsed table.
func (l *Loader) FromTable(t *models.Table) *Dataset {
	parser.TrimHeaders(t)
	cols := parser.Resolve(t, l.Aliases)

	d := &Dataset{
		Table:   t,
		Columns: cols,
		aliases: l.Aliases,
	}
	d.Report.Rows = len(t.Rows)
	d.Report.Columns = cols.Names()

	if d.hasAll(models.ChartBar3D.Requires()) {
		d.buildSegments()
	}
	if cols.Has(models.FieldSharedCM) {
		d.buildCMRecords()
	}
	d.Report.Segments = len(d.Segments)
	d.Report.CMRecords = len(d.CMRecords)

	logx.Debugf("normalized %d rows: %d segments, %d cM records, %d bad chromosomes, %d bad locations, %d inverted spans, %d unparsed cM",
		d.Report.Rows, d.Report.Segments, d.Report.CMRecords, d.Report.DroppedChromosome,
		d.Report.DroppedLocation, d.Report.InvertedSpans, d.Report.UnparsedCM)
	return d
}

func (d *Dataset) hasAll(fields []models.Field) bool {
	for _, f := range fields {
		if !d.Columns.Has(f) {
			return false
		}
	}
	return true
}

func (d *Dataset) buildSegments() {
	var (
		nameCol  = d.Columns.Index(models.FieldMatchName)
		chromCol = d.Columns.Index(models.FieldChromosome)
		startCol = d.Columns.Index(models.FieldStart)
		endCol   = d.Columns.Index(models.FieldEnd)
		cmCol    = d.Columns.Index(models.FieldSharedCM)
	)

	for _, row := range d.Table.Rows {
		chrom, ok := parser.NormalizeChromosome(parser.Cell(row, chromCol))
		if !ok {
			d.Report.DroppedChromosome++
			continue
		}
		start, okStart := parser.ParseLocation(parser.Cell(row, startCol))
		end, okEnd := parser.ParseLocation(parser.Cell(row, endCol))
		if !okStart || !okEnd {
			d.Report.DroppedLocation++
			continue
		}
		if end < start {
			d.Report.InvertedSpans++
			continue
		}

		seg := models.MatchSegment{
			MatchName:     parser.Cell(row, nameCol),
			Chromosome:    chrom,
			StartLocation: start,
			EndLocation:   end,
		}
		if cmCol >= 0 {
			seg.SharedCM = parser.ExtractCM(parser.Cell(row, cmCol))
		}
		d.Segments = append(d.Segments, seg)
	}
}

func (d *Dataset) buildCMRecords() {
	var (
		nameCol  = d.Columns.Index(models.FieldMatchName)
		chromCol = d.Columns.Index(models.FieldChromosome)
		startCol = d.Columns.Index(models.FieldStart)
		endCol   = d.Columns.Index(models.FieldEnd)
		cmCol    = d.Columns.Index(models.FieldSharedCM)
		countCol = d.Columns.Index(models.FieldSegmentCount)
	)

	d.CMRecords = make([]models.MatchSegment, 0, len(d.Table.Rows))
	for _, row := range d.Table.Rows {
		raw := parser.Cell(row, cmCol)
		cm, ok := parser.ParseCM(raw)
		if !ok && raw != "" {
			d.Report.UnparsedCM++
		}

		rec := models.MatchSegment{
			MatchName: parser.Cell(row, nameCol),
			SharedCM:  cm,
		}
		// Positional fields are informational here; a bad value leaves them zero.
		if chrom, ok := parser.NormalizeChromosome(parser.Cell(row, chromCol)); ok {
			rec.Chromosome = chrom
		}
		rec.StartLocation, _ = parser.ParseLocation(parser.Cell(row, startCol))
		rec.EndLocation, _ = parser.ParseLocation(parser.Cell(row, endCol))
		if countCol >= 0 {
			if n, ok := parser.ParseCount(parser.Cell(row, countCol)); ok {
				rec.SegmentCount = &n
			}
		}
		d.CMRecords = append(d.CMRecords, rec)
	}
}

// Require reports the first column a chart needs that the upload lacks,
// as a *parser.MissingColumnError. It returns nil when the chart can be drawn.
func (d *Dataset) Require(kind models.ChartKind) error {
	for _, f := range kind.Requires() {
		if !d.Columns.Has(f) {
			return d.missing(f)
		}
	}
	return nil
}

func (d *Dataset) missing(f models.Field) *parser.MissingColumnError {
	found := append([]string(nil), d.Table.Headers...)
	err := &parser.MissingColumnError{
		Field:      f,
		Candidates: append([]string(nil), d.aliases[f]...),
		Found:      found,
	}

	// Only headers not already claimed by another field are worth suggesting.
	claimed := make(map[string]bool)
	for _, name := range d.Columns.Names() {
		claimed[name] = true
	}
	var free []string
	for _, h := range found {
		if !claimed[h] {
			free = append(free, h)
		}
	}
	if s, ok := matcher.SuggestColumn(free, d.aliases[f], matcher.DefaultThreshold); ok {
		err.Suggestion = s
	}
	return err
}

// Available lists the charts this upload can produce.
func (d *Dataset) Available() []models.ChartKind {
	var out []models.ChartKind
	for _, k := range models.ChartKinds {
		if d.Require(k) == nil {
			out = append(out, k)
		}
	}
	return out
}
