package labels

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/empower/empower/pkg/fetch"
	"github.com/empower/empower/pkg/log"
	"github.com/empower/empower/pkg/types"
)

// Source resolves the table of channel numbers to appliance names.
type Source interface {
	// Labels returns the label table. An error means no channel can be
	// labeled and the ingestion must stop.
	Labels(ctx context.Context) (types.LabelTable, error)
}

// Static is the label table of house 5 compiled into the binary.
type Static struct{}

var house5 = types.LabelTable{
	1:  "aggregate",
	2:  "stereo_speakers_bedroom",
	3:  "i7_desktop",
	4:  "hairdryer",
	5:  "primary_tv",
	6:  "24_inch_lcd_bedroom",
	7:  "treadmill",
	8:  "network_attached_storage",
	9:  "core2_server",
	10: "24_inch_lcd",
	11: "PS4",
	12: "steam_iron",
	13: "nespresso_pixie",
	14: "atom_pc",
	15: "toaster",
	16: "home_theatre_amp",
	17: "sky_hd_box",
	18: "kettle",
	19: "fridge_freezer",
	20: "oven",
	21: "electric_hob",
	22: "dishwasher",
	23: "microwave",
	24: "washer_dryer",
	25: "vacuum_cleaner",
}

// Labels implements Source. It returns a copy so callers can't modify the
// compiled table.
func (Static) Labels(ctx context.Context) (types.LabelTable, error) {
	out := make(types.LabelTable, len(house5))
	for k, v := range house5 {
		out[k] = v
	}
	return out, nil
}

// Remote fetches a label file and parses it. It backs both the file and the
// api label sources, which only differ in the Fetcher used.
type Remote struct {
	fetcher fetch.Fetcher
	path    string
}

// NewRemote returns a Remote source reading path through f.
func NewRemote(f fetch.Fetcher, path string) *Remote {
	return &Remote{
		fetcher: f,
		path:    path,
	}
}

// Labels implements Source.
func (r *Remote) Labels(ctx context.Context) (types.LabelTable, error) {
	f, err := r.fetcher.Fetch(ctx, r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch label file %s: %w", r.path, err)
	}
	table, err := Parse(bytes.NewReader(f.Content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse label file %s: %w", f.Name, err)
	}
	log.Ctx(ctx).DebugContext(ctx, "loaded labels", slog.String("path", r.path), slog.Int("count", len(table)))
	return table, nil
}

// Parse reads whitespace delimited "number title" rows without a header.
// Blank lines are ignored.
func Parse(r io.Reader) (types.LabelTable, error) {
	table := types.LabelTable{}
	titles := map[string]int{}
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: expected 2 fields, got %d", line, len(fields))
		}
		n, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid channel number %q: %w", line, fields[0], err)
		}
		if n <= 0 {
			return nil, fmt.Errorf("line %d: channel number must be positive: %d", line, n)
		}
		if prev, ok := table[n]; ok {
			return nil, fmt.Errorf("line %d: channel %d already labeled %q", line, n, prev)
		}
		if prev, ok := titles[fields[1]]; ok {
			return nil, fmt.Errorf("line %d: title %q already used by channel %d", line, fields[1], prev)
		}
		titles[fields[1]] = n
		table[n] = fields[1]
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read labels: %w", err)
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("no labels found")
	}
	return table, nil
}
