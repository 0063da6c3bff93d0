package fetch

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/empower/empower/pkg/common"
	"github.com/levenlabs/go-lflag"
)

const (
	ProviderRaw = "raw"
	ProviderAPI = "api"
)

// Configured sets up both fetch providers based on flags and returns a Map
// holding them. The provider used for data files is chosen with
// -fetch-provider.
func Configured() *Map {
	m := NewMap()

	provider := lflag.String("fetch-provider", ProviderRaw, "Provider used to fetch data files (available: raw, api)")
	timeout := lflag.Duration("http-timeout", 30*time.Second, "Timeout for each remote request")
	baseURL := lflag.String("raw-base-url", "https://raw.githubusercontent.com/opeyemiorugun/Empower/master/data", "Base URL data files are fetched from with the raw provider")
	apiURL := lflag.String("github-api-url", "https://api.github.com", "URL of the GitHub REST API")
	owner := lflag.String("github-owner", "opeyemiorugun", "Owner of the repository holding the dataset")
	repo := lflag.String("github-repo", "Empower", "Repository holding the dataset")
	prefix := lflag.String("github-path-prefix", "data/", "Path inside the repository the dataset lives under")
	// the token is optional so pick it up from the environment when the flag isn't set
	token := lflag.String("github-token", os.Getenv("GITHUB_TOKEN"), "Access token sent to the GitHub API (optional)")

	lflag.Do(func() {
		client := common.HTTPClient(*timeout)

		raw := NewRaw(*baseURL, client)
		if err := raw.Validate(); err != nil {
			panic(fmt.Sprintf("raw fetcher validation failed: %v", err))
		}
		api := NewContents(*apiURL, *owner, *repo, *prefix, *token, client)
		if err := api.Validate(); err != nil {
			panic(fmt.Sprintf("api fetcher validation failed: %v", err))
		}

		m.SetProvider(ProviderRaw, raw)
		m.SetProvider(ProviderAPI, api)
		if _, err := m.Provider(*provider); err != nil {
			panic(err.Error())
		}
		m.SetDefault(*provider)
	})

	return m
}

// Map manages the fetch providers.
type Map struct {
	mu        sync.Mutex
	providers map[string]Fetcher
	def       string
}

// NewMap creates a new fetcher Map.
func NewMap() *Map {
	return &Map{
		providers: make(map[string]Fetcher),
		def:       ProviderRaw,
	}
}

// Provider returns the fetcher for the given name.
func (m *Map) Provider(name string) (Fetcher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if f, ok := m.providers[name]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("unknown fetch provider: %s", name)
}

// Default returns the fetcher selected for data files.
func (m *Map) Default() (Fetcher, error) {
	m.mu.Lock()
	name := m.def
	m.mu.Unlock()
	return m.Provider(name)
}

// SetDefault selects which provider Default returns.
func (m *Map) SetDefault(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.def = name
}

// SetProvider sets the provider for the given name. This is primarily used for testing.
func (m *Map) SetProvider(name string, f Fetcher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providers[name] = f
}
