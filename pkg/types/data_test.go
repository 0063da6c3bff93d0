package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 {
	return &v
}

func testTable() Table {
	return Table{
		Columns: []string{"kettle", "toaster"},
		Index: []time.Time{
			time.Unix(0, 0).UTC(),
			time.Unix(60, 0).UTC(),
			time.Unix(120, 0).UTC(),
		},
		Rows: [][]*float64{
			{f(1), nil},
			{f(2), f(20)},
			{nil, f(30)},
		},
	}
}

func TestTable(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		assert.True(t, Table{}.Empty())
		assert.True(t, Table{Columns: []string{"kettle"}}.Empty())
		assert.False(t, testTable().Empty())
	})

	t.Run("Head", func(t *testing.T) {
		tbl := testTable()
		assert.Len(t, tbl.Head(2).Index, 2)
		assert.Len(t, tbl.Head(2).Rows, 2)
		assert.Len(t, tbl.Head(10).Index, 3)
		assert.Empty(t, tbl.Head(-1).Index)
		assert.Equal(t, tbl.Columns, tbl.Head(1).Columns)
	})

	t.Run("Column", func(t *testing.T) {
		values, ok := testTable().Column("toaster")
		require.True(t, ok)
		require.Len(t, values, 3)
		assert.Nil(t, values[0])
		assert.Equal(t, 30.0, *values[2])

		_, ok = testTable().Column("oven")
		assert.False(t, ok)
	})

	t.Run("JSON Absent Cells", func(t *testing.T) {
		b, err := json.Marshal(testTable().Head(1))
		require.NoError(t, err)
		assert.JSONEq(t, `{"columns":["kettle","toaster"],"index":["1970-01-01T00:00:00Z"],"rows":[[1,null]]}`, string(b))
	})
}

func TestWeatherTableHead(t *testing.T) {
	w := WeatherTable{Columns: []string{"a"}, Rows: [][]string{{"1"}, {"2"}}}
	assert.Len(t, w.Head(1).Rows, 1)
	assert.Len(t, w.Head(5).Rows, 2)
}

func TestParsePage(t *testing.T) {
	for _, p := range Pages {
		got, err := ParsePage(string(p))
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	_, err := ParsePage("power forecasting")
	assert.Error(t, err)
	_, err = ParsePage("")
	assert.Error(t, err)
}

func TestLabelTableResolve(t *testing.T) {
	l := LabelTable{7: "treadmill"}
	a, okA := l.Resolve(7)
	b, okB := l.Resolve(7)
	assert.True(t, okA)
	assert.True(t, okB)
	assert.Equal(t, "treadmill", a)
	assert.Equal(t, a, b)

	_, ok := l.Resolve(8)
	assert.False(t, ok)
}
