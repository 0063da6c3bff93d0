package labels

import (
	"fmt"

	"github.com/empower/empower/pkg/fetch"
	"github.com/levenlabs/go-lflag"
)

// Configured sets up the label Source based on flags. The file source reads
// through the data file fetcher and the api source always goes through the
// contents API.
func Configured(fetchers *fetch.Map) Source {
	source := lflag.String("label-source", "static", "Where appliance labels come from (available: static, file, api)")
	path := lflag.String("label-path", "house_5/labels.dat", "Path of the label file for the file and api label sources")

	var s struct{ Source }

	lflag.Do(func() {
		switch *source {
		case "static":
			s.Source = Static{}
		case "file":
			f, err := fetchers.Default()
			if err != nil {
				panic(fmt.Sprintf("file label source: %v", err))
			}
			s.Source = NewRemote(f, *path)
		case "api":
			f, err := fetchers.Provider(fetch.ProviderAPI)
			if err != nil {
				panic(fmt.Sprintf("api label source: %v", err))
			}
			s.Source = NewRemote(f, *path)
		default:
			panic(fmt.Sprintf("unknown label source: %s", *source))
		}
	})

	return &s
}
