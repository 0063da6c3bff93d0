package types

import (
	"time"
)

// ChannelFile is the raw content of one remote file along with the name it
// was fetched under.
type ChannelFile struct {
	Name    string
	Content []byte
}

// Point is a single power reading.
type Point struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// Series is the readings of one appliance channel, named after the
// appliance's label.
type Series struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// Table is the outer join of several Series on their timestamps. Index is
// sorted ascending and Rows[i] holds the values at Index[i], one per column.
// A nil cell means that column had no reading at that time.
type Table struct {
	Columns []string     `json:"columns"`
	Index   []time.Time  `json:"index"`
	Rows    [][]*float64 `json:"rows"`
}

// Empty returns true if the table has no columns or no rows.
func (t Table) Empty() bool {
	return len(t.Columns) == 0 || len(t.Index) == 0
}

// Head returns a copy of the table limited to the first n rows.
func (t Table) Head(n int) Table {
	if n > len(t.Index) {
		n = len(t.Index)
	}
	if n < 0 {
		n = 0
	}
	return Table{
		Columns: t.Columns,
		Index:   t.Index[:n],
		Rows:    t.Rows[:n],
	}
}

// Column returns the values of the named column, aligned with Index.
func (t Table) Column(name string) ([]*float64, bool) {
	for ci, c := range t.Columns {
		if c != name {
			continue
		}
		out := make([]*float64, len(t.Rows))
		for ri, row := range t.Rows {
			out[ri] = row[ci]
		}
		return out, true
	}
	return nil, false
}

// WeatherTable is a delimited file with a header row. Cells are kept as the
// raw text found in the file.
type WeatherTable struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Head returns a copy of the table limited to the first n rows.
func (w WeatherTable) Head(n int) WeatherTable {
	if n > len(w.Rows) {
		n = len(w.Rows)
	}
	if n < 0 {
		n = 0
	}
	return WeatherTable{
		Columns: w.Columns,
		Rows:    w.Rows[:n],
	}
}
