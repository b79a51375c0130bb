package browser

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/therealutkarshpriyadarshi/downloader/internal/apperror"
	"github.com/therealutkarshpriyadarshi/downloader/internal/logging"
	"github.com/therealutkarshpriyadarshi/downloader/pkg/models"
)

// PathLister supplies the saved shortcuts shown as browse roots
type PathLister interface {
	ListPaths(ctx context.Context) ([]*models.DownloadPath, error)
}

// Browser lists and creates directories under a fixed root
type Browser struct {
	root   string
	paths  PathLister
	logger *logging.Logger
}

// New creates a browser confined to root
func New(root string, paths PathLister, logger *logging.Logger) *Browser {
	return &Browser{root: root, paths: paths, logger: logger}
}

// Browse lists the visible subdirectories of path. An empty path lists the
// saved shortcuts instead.
func (b *Browser) Browse(ctx context.Context, path string) (*models.BrowseResult, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return b.roots(ctx)
	}

	dir, err := b.resolve(path)
	if err != nil {
		return nil, err
	}

	st, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperror.NotFound("Directory not found")
		}
		return nil, apperror.Internal(err)
	}
	if !st.IsDir() {
		return nil, apperror.Validation("Not a directory")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, apperror.Validation("Directory is not readable")
		}
		return nil, apperror.Internal(err)
	}

	// ReadDir returns entries sorted by name
	folders := make([]models.Folder, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		folders = append(folders, models.Folder{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
		})
	}

	return &models.BrowseResult{CurrentPath: dir, Folders: folders}, nil
}

func (b *Browser) roots(ctx context.Context) (*models.BrowseResult, error) {
	paths, err := b.paths.ListPaths(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	folders := make([]models.Folder, 0, len(paths))
	for _, p := range paths {
		// Rows saved before paths were confined may point elsewhere
		if _, err := resolveWithinRoot(b.root, p.Path); err != nil {
			b.logger.WithField("path", p.Path).Debug("Skipping saved path outside root")
			continue
		}
		folders = append(folders, models.Folder{Name: p.Name, Path: p.Path})
	}
	return &models.BrowseResult{CurrentPath: "", Folders: folders}, nil
}

// CreateFolder creates one new directory named name inside parent and
// returns its path
func (b *Browser) CreateFolder(ctx context.Context, parent, name string) (string, error) {
	parent = strings.TrimSpace(parent)
	name = strings.TrimSpace(name)
	if parent == "" || name == "" {
		return "", apperror.Validation("Parent path and folder name are required")
	}
	if !validFolderName(name) {
		return "", apperror.Validation("Invalid folder name")
	}

	dir, err := b.resolve(parent)
	if err != nil {
		return "", err
	}

	st, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", apperror.NotFound("Parent directory not found")
		}
		return "", apperror.Internal(err)
	}
	if !st.IsDir() {
		return "", apperror.Validation("Parent path is not a directory")
	}

	target := filepath.Join(dir, name)
	if err := os.Mkdir(target, 0755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", apperror.Conflict("Folder already exists")
		}
		return "", apperror.Internal(err)
	}

	b.logger.WithField("path", target).Info("Folder created")
	return target, nil
}

func (b *Browser) resolve(path string) (string, error) {
	return Confine(b.root, path)
}
