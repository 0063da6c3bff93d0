package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/empower/empower/pkg/types"
)

// Contents fetches files through the repository contents API. It first looks
// up the file's metadata and then downloads the bytes from the URL that
// lookup returned.
type Contents struct {
	apiURL     string
	owner      string
	repo       string
	pathPrefix string
	token      string
	client     *http.Client
}

// NewContents returns a Contents fetcher for owner/repo. Paths passed to
// Fetch are joined onto pathPrefix. token is optional.
func NewContents(apiURL, owner, repo, pathPrefix, token string, client *http.Client) *Contents {
	return &Contents{
		apiURL:     apiURL,
		owner:      owner,
		repo:       repo,
		pathPrefix: pathPrefix,
		token:      token,
		client:     client,
	}
}

// Validate ensures the configuration is valid.
func (c *Contents) Validate() error {
	if c.apiURL == "" {
		return fmt.Errorf("github-api-url is required")
	}
	if _, err := url.Parse(c.apiURL); err != nil {
		return fmt.Errorf("failed to parse github api url (%s): %w", c.apiURL, err)
	}
	if c.owner == "" || c.repo == "" {
		return fmt.Errorf("github-owner and github-repo are required")
	}
	return nil
}

// contentsEntry is the subset of the contents API response we rely on.
type contentsEntry struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Path        string `json:"path"`
	DownloadURL string `json:"download_url"`
}

func (c *Contents) header() http.Header {
	h := http.Header{}
	h.Set("Accept", "application/vnd.github.v3+json")
	if c.token != "" {
		h.Set("Authorization", "Bearer "+c.token)
	}
	return h
}

// metadataURL returns the contents API URL for path.
func (c *Contents) metadataURL(path string) string {
	full := strings.TrimPrefix(c.pathPrefix+strings.TrimPrefix(path, "/"), "/")
	return fmt.Sprintf(
		"%s/repos/%s/%s/contents/%s",
		strings.TrimSuffix(c.apiURL, "/"),
		url.PathEscape(c.owner),
		url.PathEscape(c.repo),
		full,
	)
}

func (c *Contents) lookup(ctx context.Context, path string) (contentsEntry, error) {
	body, err := getBody(ctx, c.client, c.metadataURL(path), c.header())
	if err != nil {
		return contentsEntry{}, err
	}
	var entry contentsEntry
	if err := json.Unmarshal(body, &entry); err != nil {
		// a directory comes back as a JSON array
		return contentsEntry{}, fmt.Errorf("%w: %s: failed to decode contents response: %w", ErrNotFile, path, err)
	}
	if entry.Type != "file" {
		return contentsEntry{}, fmt.Errorf("%w: %s is a %q", ErrNotFile, path, entry.Type)
	}
	if entry.DownloadURL == "" {
		return contentsEntry{}, fmt.Errorf("%w: %s has no download url", ErrNotFile, path)
	}
	return entry, nil
}

// Fetch implements Fetcher.
func (c *Contents) Fetch(ctx context.Context, path string) (types.ChannelFile, error) {
	entry, err := c.lookup(ctx, path)
	var content []byte
	if err == nil {
		content, err = getBody(ctx, c.client, entry.DownloadURL, c.header())
	}
	if err := checkContent(ctx, "api", path, content, err); err != nil {
		return types.ChannelFile{}, err
	}
	name := entry.Name
	if name == "" {
		name = fileName(path)
	}
	return types.ChannelFile{
		Name:    name,
		Content: content,
	}, nil
}
