package models

// MatchSegment is one shared DNA segment between the subject and a match.
// Summary exports produce one record per match with only the cM fields set.
type MatchSegment struct {
	MatchName     string  `json:"match_name"`
	Chromosome    int     `json:"chromosome,omitempty"`
	StartLocation int64   `json:"start_location,omitempty"`
	EndLocation   int64   `json:"end_location,omitempty"`
	SharedCM      float64 `json:"shared_cm"`
	SegmentCount  *int    `json:"segment_count,omitempty"`
}

// Length is the segment span in base pairs.
func (s MatchSegment) Length() int64 {
	return s.EndLocation - s.StartLocation
}

// Table is a raw CSV export: a header row and string cells.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Field is a logical column, independent of the physical header name.
type Field string

const (
	FieldMatchName    Field = "match_name"
	FieldChromosome   Field = "chromosome"
	FieldStart        Field = "start_location"
	FieldEnd          Field = "end_location"
	FieldSharedCM     Field = "shared_cm"
	FieldSegmentCount Field = "segment_count"
)

// Fields lists every logical column in resolution order.
var Fields = []Field{
	FieldMatchName,
	FieldChromosome,
	FieldStart,
	FieldEnd,
	FieldSharedCM,
	FieldSegmentCount,
}

// ChartKind names one of the renderable charts.
type ChartKind string

const (
	ChartBar3D     ChartKind = "bar3d"
	ChartLine3D    ChartKind = "line3d"
	ChartHistogram ChartKind = "histogram"
	ChartScatter   ChartKind = "scatter"
)

// ChartKinds lists every chart in the order they are produced by an analysis.
var ChartKinds = []ChartKind{ChartBar3D, ChartLine3D, ChartHistogram, ChartScatter}

// Requires returns the logical columns a chart cannot be drawn without.
func (k ChartKind) Requires() []Field {
	switch k {
	case ChartBar3D, ChartLine3D:
		return []Field{FieldMatchName, FieldChromosome, FieldStart, FieldEnd}
	case ChartHistogram:
		return []Field{FieldSharedCM}
	case ChartScatter:
		return []Field{FieldSharedCM, FieldSegmentCount}
	}
	return nil
}

// Valid reports whether k is a known chart.
func (k ChartKind) Valid() bool {
	for _, c := range ChartKinds {
		if c == k {
			return true
		}
	}
	return false
}

// LoadReport summarizes how a table was normalized.
type LoadReport struct {
	Rows              int              `json:"rows"`
	Segments          int              `json:"segments"`
	CMRecords         int              `json:"cm_records"`
	DroppedChromosome int              `json:"dropped_chromosome"`
	DroppedLocation   int              `json:"dropped_location"`
	InvertedSpans     int              `json:"inverted_spans"`
	UnparsedCM        int              `json:"unparsed_cm"`
	Columns           map[Field]string `json:"columns"`
}

// SessionInfo closes an analyze stream and describes the upload it covered.
type SessionInfo struct {
	SessionID  string     `json:"session_id"`
	SourceName string     `json:"source_name"`
	Timestamp  string     `json:"timestamp"`
	MinCM      float64    `json:"min_cm"`
	MaxCM      float64    `json:"max_cm"`
	Report     LoadReport `json:"report"`
}

// ChartResult is one analysis event payload. Image is base64 when the chart was drawn.
type ChartResult struct {
	Chart      ChartKind `json:"chart"`
	Format     string    `json:"format,omitempty"`
	Image      string    `json:"image,omitempty"`
	Message    string    `json:"message,omitempty"`
	Columns    []string  `json:"columns,omitempty"`
	Suggestion string    `json:"suggestion,omitempty"`
}
