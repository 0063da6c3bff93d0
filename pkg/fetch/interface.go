package fetch

import (
	"context"

	"github.com/empower/empower/pkg/types"
)

// Fetcher retrieves a named file from the remote dataset.
type Fetcher interface {
	// Fetch returns the file stored at path, relative to the dataset root.
	// Errors wrap ErrTransport or ErrNotFile.
	Fetch(ctx context.Context, path string) (types.ChannelFile, error)
}
