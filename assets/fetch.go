package assets

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Fetcher retrieves raw asset bytes by url. The loader runs fetches on
// worker goroutines, so implementations must be safe for concurrent use.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// FSFetcher reads assets from an fs.FS (usually an embed.FS), falling back
// to the working directory so hot-reloaded files win over embedded ones.
type FSFetcher struct {
	FS   fs.FS
	Root string
}

func (f *FSFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if url == "" {
		return nil, fmt.Errorf("assets: empty url")
	}

	if f.FS != nil {
		if b, err := fs.ReadFile(f.FS, filepath.ToSlash(url)); err == nil {
			return b, nil
		}
	}

	tried := []string{url}
	if f.Root != "" {
		tried = append(tried, filepath.Join(f.Root, url))
	}
	tried = append(tried, filepath.Base(url))
	for _, p := range tried {
		if b, err := os.ReadFile(p); err == nil {
			return b, nil
		}
	}
	return nil, fmt.Errorf("assets: %s not found", url)
}
