package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/empower/empower/pkg/fetch"
	"github.com/empower/empower/pkg/labels"
	"github.com/empower/empower/pkg/log"
	"github.com/empower/empower/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ErrNoLabels is returned when the label table couldn't be resolved.
	ErrNoLabels = errors.New("no labels")

	// ErrNoFiles is returned when none of the channel files could be fetched.
	ErrNoFiles = errors.New("no files uploaded")

	// ErrNoData is returned when no channel file could be parsed.
	ErrNoData = errors.New("no valid data found")

	// ErrNoWeather is returned when the weather file couldn't be fetched.
	ErrNoWeather = errors.New("no weather file")
)

var (
	ingestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "empower",
		Name:      "ingest_total",
		Help:      "Ingestion runs by result.",
	}, []string{"result"})

	channelsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "empower",
		Name:      "channels_total",
		Help:      "Channel files seen during ingestion by result.",
	}, []string{"result"})

	ingestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "empower",
		Name:      "ingest_duration_seconds",
		Help:      "Time taken by a full ingestion run.",
		Buckets:   prometheus.ExponentialBuckets(0.25, 2, 8),
	})
)

// Result is the outcome of an ingestion. Notices are filled in even when Run
// fails.
type Result struct {
	Table       types.Table
	ColumnNames []string
	Weather     types.WeatherTable
	Notices     []types.Notice
}

func (r *Result) notice(level types.NoticeLevel, format string, args ...any) {
	r.Notices = append(r.Notices, types.Notice{
		Level:   level,
		Message: fmt.Sprintf(format, args...),
	})
}

// Pipeline fetches, labels, parses and joins one house's channel files and
// its weather file.
type Pipeline struct {
	fetcher     fetch.Fetcher
	labels      labels.Source
	house       string
	channels    []int
	weatherPath string
}

// NewPipeline returns a Pipeline reading channels from house and the weather
// from weatherPath through f.
func NewPipeline(f fetch.Fetcher, src labels.Source, house string, channels []int, weatherPath string) *Pipeline {
	return &Pipeline{
		fetcher:     f,
		labels:      src,
		house:       house,
		channels:    channels,
		weatherPath: weatherPath,
	}
}

// ChannelPath returns the path of channel n's file.
func (p *Pipeline) ChannelPath(n int) string {
	return fmt.Sprintf("%s/channel_%d.dat", p.house, n)
}

// Run performs one ingestion. Every step runs sequentially and blocks until
// the remote host answers. The returned Result is never nil so its Notices
// can be shown when an error is returned.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{}
	err := p.run(ctx, res)
	ingestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		ingestTotal.WithLabelValues("error").Inc()
		log.Ctx(ctx).WarnContext(ctx, "ingestion failed", slog.Any("error", err))
		return res, err
	}
	ingestTotal.WithLabelValues("ok").Inc()
	log.Ctx(ctx).InfoContext(
		ctx,
		"ingestion complete",
		slog.Int("columns", len(res.ColumnNames)),
		slog.Int("rows", len(res.Table.Index)),
		slog.Int("weatherRows", len(res.Weather.Rows)),
		slog.Duration("took", time.Since(start)),
	)
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, res *Result) error {
	table, err := p.labels.Labels(ctx)
	if err != nil {
		res.notice(types.NoticeError, "Failed to load appliance labels: %v", err)
		return fmt.Errorf("%w: %w", ErrNoLabels, err)
	}

	var files []types.ChannelFile
	for _, n := range p.channels {
		path := p.ChannelPath(n)
		f, err := p.fetcher.Fetch(ctx, path)
		if err != nil {
			channelsTotal.WithLabelValues("fetch_error").Inc()
			res.notice(types.NoticeError, "Failed to fetch file %s: %v", path, err)
			continue
		}
		files = append(files, f)
	}
	if len(files) == 0 {
		res.notice(types.NoticeError, "No files uploaded.")
		return ErrNoFiles
	}

	series := make([]types.Series, 0, len(files))
	columns := make(map[string]string, len(files))
	for _, f := range files {
		s, err := ParseChannel(f, table)
		if err == nil {
			if prev, ok := columns[s.Name]; ok {
				err = fmt.Errorf("%w: %s is already loaded from %s", ErrDuplicateColumn, s.Name, prev)
			}
		}
		if err != nil {
			result := "malformed"
			switch {
			case errors.Is(err, ErrUnknownChannel):
				result = "unknown_channel"
			case errors.Is(err, ErrDuplicateColumn):
				result = "duplicate_column"
			}
			channelsTotal.WithLabelValues(result).Inc()
			log.Ctx(ctx).WarnContext(ctx, "skipping channel file", slog.String("file", f.Name), slog.Any("error", err))
			res.notice(types.NoticeError, "Skipping %s: %v", f.Name, err)
			continue
		}
		channelsTotal.WithLabelValues("ok").Inc()
		columns[s.Name] = f.Name
		series = append(series, s)
	}

	joined := Join(series)
	if joined.Empty() {
		res.notice(types.NoticeError, "No valid data found.")
		return ErrNoData
	}
	res.notice(
		types.NoticeInfo,
		"Data Loaded Successfully: %s appliances, %s readings",
		humanize.Comma(int64(len(joined.Columns))),
		humanize.Comma(int64(len(joined.Index))),
	)

	wf, err := p.fetcher.Fetch(ctx, p.weatherPath)
	if err != nil {
		res.notice(types.NoticeError, "Failed to fetch file %s: %v", p.weatherPath, err)
		res.notice(types.NoticeWarning, "Please upload the weather file.")
		return fmt.Errorf("%w: %w", ErrNoWeather, err)
	}
	weather, err := ParseWeather(bytes.NewReader(wf.Content))
	if err != nil {
		res.notice(types.NoticeError, "Error reading weather file: %v", err)
		return fmt.Errorf("error reading weather file: %w", err)
	}
	res.notice(types.NoticeInfo, "Weather Data Loaded Successfully")

	res.Table = joined
	res.ColumnNames = joined.Columns
	res.Weather = weather
	return nil
}
