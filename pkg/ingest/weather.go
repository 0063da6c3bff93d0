package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/empower/empower/pkg/types"
)

// ParseWeather reads a comma delimited file whose first row is the header.
func ParseWeather(r io.Reader) (types.WeatherTable, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return types.WeatherTable{}, fmt.Errorf("weather file is empty")
	}
	if err != nil {
		return types.WeatherTable{}, fmt.Errorf("failed to read weather header: %w", err)
	}

	// the reader enforces every row has as many fields as the header
	rows, err := cr.ReadAll()
	if err != nil {
		return types.WeatherTable{}, fmt.Errorf("failed to read weather rows: %w", err)
	}
	if rows == nil {
		rows = [][]string{}
	}
	return types.WeatherTable{
		Columns: header,
		Rows:    rows,
	}, nil
}
