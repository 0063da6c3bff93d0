package ingest

import (
	"sort"
	"time"

	"github.com/empower/empower/pkg/types"
)

// Join aligns series on their timestamps. Columns keep the order of series,
// rows are the sorted union of every timestamp seen and a cell is nil when
// that series had no reading at that time. If a series repeats a timestamp
// the later reading wins.
func Join(series []types.Series) types.Table {
	if len(series) == 0 {
		return types.Table{}
	}

	columns := make([]string, len(series))
	cells := make(map[int64][]*float64)
	for ci, s := range series {
		columns[ci] = s.Name
		for _, p := range s.Points {
			key := p.Time.UnixNano()
			row, ok := cells[key]
			if !ok {
				row = make([]*float64, len(series))
				cells[key] = row
			}
			v := p.Value
			row[ci] = &v
		}
	}

	keys := make([]int64, 0, len(cells))
	for k := range cells {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i] < keys[j]
	})

	table := types.Table{
		Columns: columns,
		Index:   make([]time.Time, len(keys)),
		Rows:    make([][]*float64, len(keys)),
	}
	for i, k := range keys {
		table.Index[i] = time.Unix(0, k).UTC()
		table.Rows[i] = cells[k]
	}
	return table
}
