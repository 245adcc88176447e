package parser

import (
	_ "embed"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"segviz-srv/internal/models"
)

//go:embed aliases.csv
var defaultAliasData string

// AliasTable lists the accepted header substrings for each logical column.
type AliasTable map[models.Field][]string

// DefaultAliases returns a fresh copy of the embedded alias table.
func DefaultAliases() AliasTable {
	a, err := ParseAliases(strings.NewReader(defaultAliasData))
	if err != nil {
		panic("parser: embedded aliases.csv is invalid: " + err.Error())
	}
	return a
}

// ParseAliases reads "field,alias" lines. A header line is optional.
func ParseAliases(r io.Reader) (AliasTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2
	reader.Comment = '#'

	known := make(map[models.Field]bool, len(models.Fields))
	for _, f := range models.Fields {
		known[f] = true
	}

	table := make(AliasTable)
	first := true
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		field := models.Field(normalize(rec[0]))
		alias := strings.TrimSpace(rec[1])
		if first && field == "field" {
			first = false
			continue
		}
		first = false
		if !known[field] {
			return nil, fmt.Errorf("unknown field %q for alias %q", rec[0], alias)
		}
		if alias == "" {
			continue
		}
		table[field] = append(table[field], alias)
	}
	return table, nil
}

// LoadAliasFile parses an alias file from disk.
func LoadAliasFile(path string) (AliasTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	a, err := ParseAliases(f)
	if err != nil {
		return nil, fmt.Errorf("alias file %s: %w", path, err)
	}
	return a, nil
}

// Merge appends other's aliases after the existing ones, skipping duplicates.
func (a AliasTable) Merge(other AliasTable) AliasTable {
	for field, aliases := range other {
		for _, alias := range aliases {
			if !a.has(field, alias) {
				a[field] = append(a[field], alias)
			}
		}
	}
	return a
}

func (a AliasTable) has(field models.Field, alias string) bool {
	for _, existing := range a[field] {
		if normalize(existing) == normalize(alias) {
			return true
		}
	}
	return false
}

// Columns is a table's logical-to-physical column mapping, resolved once per load.
type Columns struct {
	index map[models.Field]int
	names map[models.Field]string
}

// Resolve maps every logical field that the header supports. Fields are
// resolved in models.Fields order and a column claimed by one field is not
// offered to the next.
func Resolve(t *models.Table, aliases AliasTable) Columns {
	c := Columns{
		index: make(map[models.Field]int),
		names: make(map[models.Field]string),
	}
	claimed := make(map[int]bool)
	for _, f := range models.Fields {
		if i := columnIndex(t.Headers, aliases[f], claimed); i >= 0 {
			c.index[f] = i
			c.names[f] = t.Headers[i]
			claimed[i] = true
		}
	}
	return c
}

// Index returns the column position of f, or -1.
func (c Columns) Index(f models.Field) int {
	if i, ok := c.index[f]; ok {
		return i
	}
	return -1
}

// Has reports whether f resolved to a column.
func (c Columns) Has(f models.Field) bool {
	_, ok := c.index[f]
	return ok
}

// Names returns a copy of the resolved header names.
func (c Columns) Names() map[models.Field]string {
	out := make(map[models.Field]string, len(c.names))
	for k, v := range c.names {
		out[k] = v
	}
	return out
}
