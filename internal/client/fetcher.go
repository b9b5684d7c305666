package client

import (
	"context"
	"errors"
	"fmt"
	"os"
)

var (
	ErrCircuitOpen = errors.New("circuit breaker is open")
	ErrDisallowed  = errors.New("fetch disallowed")
	ErrNotModified = errors.New("not modified and no cached copy")
)

// Fetcher returns the markup of a directory page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// FixtureFetcher serves a local file regardless of the requested URL.
type FixtureFetcher struct {
	Path string
}

func (f FixtureFetcher) Fetch(ctx context.Context, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return "", fmt.Errorf("failed to read fixture %s: %w", f.Path, err)
	}
	return string(data), nil
}
