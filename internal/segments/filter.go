package segments

import "segviz-srv/internal/models"

// DefaultMinCM is the usual lower bound below which shared segments are
// mostly noise.
const DefaultMinCM = 8.0

// Range is an inclusive cM interval.
type Range struct {
	Min float64
	Max float64
}

// Contains reports whether cm lies within r, bounds included.
func (r Range) Contains(cm float64) bool {
	return cm >= r.Min && cm <= r.Max
}

// DefaultRange is [DefaultMinCM, max cM of records].
func DefaultRange(records []models.MatchSegment) Range {
	return Range{Min: DefaultMinCM, Max: MaxCM(records)}
}

// Override replaces whichever bounds are non-nil.
func (r Range) Override(lo, hi *float64) Range {
	if lo != nil {
		r.Min = *lo
	}
	if hi != nil {
		r.Max = *hi
	}
	return r
}

// MaxCM returns the largest cM in records, or 0 for none.
func MaxCM(records []models.MatchSegment) float64 {
	var best float64
	for i, r := range records {
		if i == 0 || r.SharedCM > best {
			best = r.SharedCM
		}
	}
	return best
}

// FilterByRange keeps records with lo <= cM <= hi, in their original order.
func FilterByRange(records []models.MatchSegment, lo, hi float64) []models.MatchSegment {
	r := Range{Min: lo, Max: hi}
	out := make([]models.MatchSegment, 0, len(records))
	for _, rec := range records {
		if r.Contains(rec.SharedCM) {
			out = append(out, rec)
		}
	}
	return out
}
