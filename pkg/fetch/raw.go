package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/empower/empower/pkg/types"
)

// Raw fetches files with a plain GET against a static base URL, such as the
// raw content host of a repository.
type Raw struct {
	baseURL string
	client  *http.Client
}

// NewRaw returns a Raw fetcher rooted at baseURL.
func NewRaw(baseURL string, client *http.Client) *Raw {
	return &Raw{
		baseURL: baseURL,
		client:  client,
	}
}

// Validate ensures the configuration is valid.
func (r *Raw) Validate() error {
	if r.baseURL == "" {
		return fmt.Errorf("raw-base-url is required")
	}
	if _, err := url.Parse(r.baseURL); err != nil {
		return fmt.Errorf("failed to parse raw base url (%s): %w", r.baseURL, err)
	}
	return nil
}

// URL returns the URL a path is fetched from.
func (r *Raw) URL(path string) string {
	return strings.TrimSuffix(r.baseURL, "/") + "/" + strings.TrimPrefix(path, "/")
}

// Fetch implements Fetcher.
func (r *Raw) Fetch(ctx context.Context, path string) (types.ChannelFile, error) {
	content, err := getBody(ctx, r.client, r.URL(path), nil)
	if err := checkContent(ctx, "raw", path, content, err); err != nil {
		return types.ChannelFile{}, err
	}
	return types.ChannelFile{
		Name:    fileName(path),
		Content: content,
	}, nil
}
