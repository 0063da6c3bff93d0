package ingest

import (
	"fmt"

	"github.com/empower/empower/pkg/fetch"
	"github.com/empower/empower/pkg/labels"
	"github.com/levenlabs/go-lflag"
)

// Configured sets up the Pipeline based on flags.
func Configured(fetchers *fetch.Map, src labels.Source) *Pipeline {
	p := &Pipeline{labels: src}

	channels := make([]int, 25)
	for i := range channels {
		channels[i] = i + 1
	}

	house := lflag.String("house", "house_5", "Directory holding the house's channel files")
	weatherPath := lflag.String("weather-path", "weather.csv", "Path of the weather file")
	lflag.JSON(&channels, "channels", channels, "JSON list of channel numbers to fetch")

	lflag.Do(func() {
		f, err := fetchers.Default()
		if err != nil {
			panic(fmt.Sprintf("ingest fetcher: %v", err))
		}
		if err := ValidateChannels(channels); err != nil {
			panic(err.Error())
		}
		p.fetcher = f
		p.house = *house
		p.weatherPath = *weatherPath
		p.channels = channels
	})

	return p
}

// ValidateChannels ensures the channel list is non-empty, positive and has no
// repeats. A repeated channel would produce two columns with the same name.
func ValidateChannels(channels []int) error {
	if len(channels) == 0 {
		return fmt.Errorf("channels cannot be empty")
	}
	seen := make(map[int]struct{}, len(channels))
	for _, n := range channels {
		if n <= 0 {
			return fmt.Errorf("channel number must be positive: %d", n)
		}
		if _, ok := seen[n]; ok {
			return fmt.Errorf("channel %d listed more than once", n)
		}
		seen[n] = struct{}{}
	}
	return nil
}
