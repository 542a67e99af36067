package download

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/crypto/blake2b"

	apperrors "stflow/internal/errors"
	"stflow/internal/files"
)

// DefaultTimeout bounds a single transfer when no client is supplied
const DefaultTimeout = 5 * time.Minute

// Fetcher downloads remote files into a local directory
type Fetcher struct {
	client *http.Client
	files  *files.Manager
	logger *slog.Logger
	mu     sync.Mutex
}

// NewFetcher creates a fetcher. A nil client gets DefaultTimeout.
func NewFetcher(client *http.Client, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "downloader"))
	return &Fetcher{
		client: client,
		files:  files.NewManager(logger),
		logger: logger,
	}
}

// Fetch downloads url into dir, naming the file after the last URL path
// element, and returns the local path. A file already present whose digest
// matches the manifest entry is not downloaded again.
func (f *Fetcher) Fetch(ctx context.Context, url, dir string) (string, error) {
	name := path.Base(url)
	if name == "" || name == "/" || name == "." {
		return "", apperrors.NewNetworkError(fmt.Sprintf("cannot derive a file name from %q", url), nil)
	}
	dest := filepath.Join(dir, name)

	if err := files.EnsureDir(dir); err != nil {
		return "", apperrors.NewStorageError("prepare download directory", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	manifest, err := LoadManifest(dir)
	if err != nil {
		return "", apperrors.NewStorageError("load download manifest", err)
	}
	if manifest.Verify(dest) {
		f.logger.InfoContext(ctx, "file already downloaded",
			slog.String("url", url),
			slog.String("path", dest))
		return dest, nil
	}

	start := time.Now()
	f.logger.InfoContext(ctx, "downloading file", slog.String("url", url), slog.String("path", dest))

	entry, err := f.transfer(ctx, url, dest)
	if err != nil {
		f.logger.ErrorContext(ctx, "download failed", slog.String("url", url), slog.String("error", err.Error()))
		return "", err
	}

	manifest.Files[name] = entry
	if err := manifest.Save(dir); err != nil {
		return "", apperrors.NewStorageError("save download manifest", err)
	}

	f.logger.InfoContext(ctx, "download complete",
		slog.String("path", dest),
		slog.Int64("bytes", entry.Size),
		slog.Duration("duration", time.Since(start)))
	return dest, nil
}

func (f *Fetcher) transfer(ctx context.Context, url, dest string) (Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Entry{}, apperrors.NewNetworkError("build request", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return Entry{}, apperrors.NewNetworkError(fmt.Sprintf("GET %s", url), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Entry{}, apperrors.NewNetworkError(fmt.Sprintf("GET %s: unexpected status %d", url, resp.StatusCode), nil).
			WithContext("status", resp.StatusCode)
	}

	h, err := blake2b.New256(nil)
	if err != nil {
		return Entry{}, err
	}

	var size int64
	err = f.files.WriteAtomic(dest, func(w io.Writer) error {
		n, err := io.Copy(io.MultiWriter(w, h), resp.Body)
		size = n
		if err != nil {
			return apperrors.NewNetworkError(fmt.Sprintf("read body of %s", url), err)
		}
		return nil
	})
	if err != nil {
		return Entry{}, err
	}

	return Entry{
		URL:        url,
		Size:       size,
		BLAKE2b:    hex.EncodeToString(h.Sum(nil)),
		Downloaded: time.Now().UTC(),
	}, nil
}
