package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"

	"github.com/dustin/go-humanize"
	"github.com/empower/empower/pkg/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ErrTransport is returned when the host could not be reached or
	// answered with a non-200 status.
	ErrTransport = errors.New("transport failure")

	// ErrNotFile is returned when the remote resource exists but is not the
	// real file, such as a Git LFS pointer or a directory listing.
	ErrNotFile = errors.New("not a file")
)

// lfsPointerPrefix starts every Git LFS pointer file. The host serves these
// instead of the object when LFS content was never pushed.
const lfsPointerPrefix = "version https://git-lfs.github.com/spec/v1"

var fetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "empower",
	Name:      "fetch_total",
	Help:      "Remote file fetches by provider and result.",
}, []string{"provider", "result"})

// IsLFSPointer returns true if content is a Git LFS pointer stub.
func IsLFSPointer(content []byte) bool {
	return bytes.HasPrefix(content, []byte(lfsPointerPrefix))
}

// getBody performs a GET against u and returns the full body. Anything but a
// 200 is an ErrTransport.
func getBody(ctx context.Context, client *http.Client, u string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	log.Ctx(ctx).DebugContext(ctx, "fetching remote file", slog.String("url", u))

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch %s: %w", ErrTransport, u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned status: %d", ErrTransport, u, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %w", ErrTransport, u, err)
	}
	return body, nil
}

// checkContent rejects LFS pointers and records the outcome of the fetch.
func checkContent(ctx context.Context, provider, p string, content []byte, err error) error {
	if err == nil && IsLFSPointer(content) {
		err = fmt.Errorf("%w: %s appears to be a Git LFS pointer", ErrNotFile, p)
	}
	if err != nil {
		result := "transport_error"
		if errors.Is(err, ErrNotFile) {
			result = "not_file"
		}
		fetchTotal.WithLabelValues(provider, result).Inc()
		log.Ctx(ctx).WarnContext(
			ctx,
			"failed to fetch remote file",
			slog.String("provider", provider),
			slog.String("path", p),
			slog.Any("error", err),
		)
		return err
	}

	fetchTotal.WithLabelValues(provider, "ok").Inc()
	log.Ctx(ctx).DebugContext(
		ctx,
		"fetched remote file",
		slog.String("provider", provider),
		slog.String("path", p),
		slog.String("size", humanize.Bytes(uint64(len(content)))),
	)
	return nil
}

// fileName returns the last element of a slash separated path.
func fileName(p string) string {
	return path.Base(p)
}
