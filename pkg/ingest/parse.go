package ingest

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/empower/empower/pkg/types"
)

var (
	// ErrUnknownChannel is returned when a file's channel number has no
	// label. The file is skipped.
	ErrUnknownChannel = errors.New("unknown channel")

	// ErrMalformed is returned when a file's name or content can't be parsed.
	ErrMalformed = errors.New("malformed file")

	// ErrDuplicateColumn is returned when a channel resolves to a label another
	// channel already used. The file is skipped.
	ErrDuplicateColumn = errors.New("duplicate column")
)

// Timestamps are keyed by nanoseconds in the join so only seconds that fit in
// an int64 of nanoseconds are accepted (1677-09-21 through 2262-04-11).
const (
	minUnixSeconds = math.MinInt64/int64(time.Second) + 1
	maxUnixSeconds = math.MaxInt64/int64(time.Second) - 1
)

// ChannelNumber extracts n from a file named like channel_<n>.dat. The second
// "_" separated token is used with any extension removed.
func ChannelNumber(filename string) (int, error) {
	parts := strings.Split(filename, "_")
	if len(parts) < 2 {
		return 0, fmt.Errorf("%w: no channel number in filename %q", ErrMalformed, filename)
	}
	token, _, _ := strings.Cut(parts[1], ".")
	n, err := strconv.Atoi(token)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid channel number in filename %q: %w", ErrMalformed, filename, err)
	}
	return n, nil
}

// ParseChannel turns a fetched channel file into a Series named after the
// channel's label.
func ParseChannel(f types.ChannelFile, labels types.LabelTable) (types.Series, error) {
	n, err := ChannelNumber(f.Name)
	if err != nil {
		return types.Series{}, err
	}
	name, ok := labels.Resolve(n)
	if !ok {
		return types.Series{}, fmt.Errorf("%w: channel number %d not found in label dictionary", ErrUnknownChannel, n)
	}
	points, err := ParsePoints(bytes.NewReader(f.Content))
	if err != nil {
		return types.Series{}, fmt.Errorf("%s: %w", f.Name, err)
	}
	return types.Series{
		Name:   name,
		Points: points,
	}, nil
}

// ParsePoints reads whitespace delimited "timestamp value" rows without a
// header. The timestamp is seconds since the unix epoch and may carry a
// fraction. Blank lines are ignored and any other malformed row fails the
// whole read.
func ParsePoints(r io.Reader) ([]types.Point, error) {
	var points []types.Point
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return nil, fmt.Errorf("%w: line %d: expected 2 fields, got %d", ErrMalformed, line, len(fields))
		}
		ts, err := parseFinite(fields[0])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: invalid timestamp: %w", ErrMalformed, line, err)
		}
		if ts < float64(minUnixSeconds) || ts > float64(maxUnixSeconds) {
			return nil, fmt.Errorf("%w: line %d: timestamp out of range: %s", ErrMalformed, line, fields[0])
		}
		v, err := parseFinite(fields[1])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: invalid value: %w", ErrMalformed, line, err)
		}
		points = append(points, types.Point{
			Time:  unixSeconds(ts),
			Value: v,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return points, nil
}

func parseFinite(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a finite number: %q", s)
	}
	return f, nil
}

// unixSeconds converts fractional seconds since the epoch into a UTC time.
// Fractions are rounded to the nearest microsecond since that's all a
// float64 timestamp in this range can represent.
func unixSeconds(f float64) time.Time {
	sec, frac := math.Modf(f)
	usec := math.Round(frac * 1e6)
	return time.Unix(int64(sec), int64(usec)*int64(time.Microsecond)).UTC()
}
