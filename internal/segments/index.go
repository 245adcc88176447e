package segments

import (
	"sort"

	"segviz-srv/internal/models"
)

// MatchIndex maps match names to dense plotting coordinates 0..k-1 in order
// of first appearance. It is an axis position, not an identifier.
type MatchIndex struct {
	names []string
	index map[string]int
}

// BuildMatchIndex assigns indices by first appearance in records.
func BuildMatchIndex(records []models.MatchSegment) MatchIndex {
	m := MatchIndex{index: make(map[string]int)}
	for _, r := range records {
		if _, ok := m.index[r.MatchName]; ok {
			continue
		}
		m.index[r.MatchName] = len(m.names)
		m.names = append(m.names, r.MatchName)
	}
	return m
}

// Lookup returns the coordinate for name.
func (m MatchIndex) Lookup(name string) (int, bool) {
	i, ok := m.index[name]
	return i, ok
}

// Names returns the names in index order.
func (m MatchIndex) Names() []string {
	return append([]string(nil), m.names...)
}

func (m MatchIndex) Len() int { return len(m.names) }

// Map returns a copy of the name to index mapping.
func (m MatchIndex) Map() map[string]int {
	out := make(map[string]int, len(m.index))
	for k, v := range m.index {
		out[k] = v
	}
	return out
}

// ChromosomeAxis returns the distinct chromosomes present, ascending.
func ChromosomeAxis(records []models.MatchSegment) []int {
	seen := make(map[int]bool)
	var axis []int
	for _, r := range records {
		if r.Chromosome == 0 || seen[r.Chromosome] {
			continue
		}
		seen[r.Chromosome] = true
		axis = append(axis, r.Chromosome)
	}
	sort.Ints(axis)
	return axis
}
