package files

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	apperrors "stflow/internal/errors"
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
	IsDir   bool
}

// Discovery provides file discovery operations
type Discovery struct {
	basePath string
	logger   *slog.Logger
}

// NewDiscovery creates a new file discovery instance. Relative paths passed
// to its methods are resolved against basePath.
func NewDiscovery(basePath string, logger *slog.Logger) *Discovery {
	if logger == nil {
		logger = slog.Default()
	}
	return &Discovery{
		basePath: basePath,
		logger:   logger.With(slog.String("component", "file_discovery")),
	}
}

// FindDirContaining walks the tree under root depth-first (pre-order) and
// returns the first directory that directly contains every one of names.
// A directory is checked before its children and siblings are visited in
// lexical order. A DataNotFound error is returned when no directory qualifies.
func (d *Discovery) FindDirContaining(root string, names ...string) (string, error) {
	start := d.resolve(root)
	info, err := os.Stat(start)
	if err != nil || !info.IsDir() {
		return "", apperrors.NewDataNotFoundError(start, names...)
	}

	stack := []string{start}
	visited := 0
	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visited++

		entries, err := os.ReadDir(dir)
		if err != nil {
			d.logger.Warn("skipping unreadable directory",
				slog.String("dir", dir),
				slog.String("error", err.Error()))
			continue
		}

		present := make(map[string]bool, len(entries))
		var children []string
		for _, entry := range entries {
			if entry.IsDir() {
				children = append(children, filepath.Join(dir, entry.Name()))
				continue
			}
			present[entry.Name()] = true
		}
		// push in reverse so the lexically first child is popped next
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}

		if containsAll(present, names) {
			d.logger.Debug("data directory resolved",
				slog.String("root", start),
				slog.String("dir", dir),
				slog.Int("visited", visited))
			return dir, nil
		}
	}

	return "", apperrors.NewDataNotFoundError(start, names...)
}

// FindFilesByPattern finds files matching a glob pattern
func (d *Discovery) FindFilesByPattern(dir string, pattern string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)
	matches, err := filepath.Glob(filepath.Join(fullPath, pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
	}

	var files []FileInfo
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}
		files = append(files, FileInfo{
			Path:    match,
			Name:    filepath.Base(match),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})
	return files, nil
}

// ListDirectories lists all subdirectories in the specified directory
func (d *Discovery) ListDirectories(dir string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)
	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var dirs []FileInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		dirs = append(dirs, FileInfo{
			Path:    filepath.Join(fullPath, entry.Name()),
			Name:    entry.Name(),
			ModTime: info.ModTime(),
			IsDir:   true,
		})
	}

	return dirs, nil
}

func (d *Discovery) resolve(dir string) string {
	if filepath.IsAbs(dir) || d.basePath == "" {
		return dir
	}
	return filepath.Join(d.basePath, dir)
}

func containsAll(present map[string]bool, names []string) bool {
	for _, name := range names {
		if !present[name] {
			return false
		}
	}
	return true
}
