package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dreschagin/recycling-dashboard/internal/application/port"
	"github.com/dreschagin/recycling-dashboard/internal/domain/errs"
)

// ExportSink сохраняет выгрузки в локальный каталог.
// Реализует port.ExportSink и port.ExportObjectLister
type ExportSink struct {
	dir string
}

// NewExportSink создает sink; каталог создается при необходимости
func NewExportSink(dir string) (*ExportSink, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("export directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}
	return &ExportSink{dir: dir}, nil
}

// Export записывает payload атомарно: во временный файл, затем rename
func (s *ExportSink) Export(ctx context.Context, payload port.Payload) (port.ExportLocation, error) {
	if err := ctx.Err(); err != nil {
		return port.ExportLocation{}, fmt.Errorf("%w: %v", errs.ErrExport, err)
	}

	key := payload.Key
	if strings.TrimSpace(key) == "" {
		key = payload.Filename
	}
	target, err := s.resolve(key)
	if err != nil {
		return port.ExportLocation{}, fmt.Errorf("%w: %v", errs.ErrExport, err)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return port.ExportLocation{}, fmt.Errorf("%w: failed to create directory: %v", errs.ErrExport, err)
	}

	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, payload.Body, 0o644); err != nil {
		return port.ExportLocation{}, fmt.Errorf("%w: failed to write file: %v", errs.ErrExport, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return port.ExportLocation{}, fmt.Errorf("%w: failed to finalize file: %v", errs.ErrExport, err)
	}

	return port.ExportLocation{
		Key:        filepath.ToSlash(key),
		URL:        "file://" + filepath.ToSlash(target),
		SizeBytes:  int64(len(payload.Body)),
		ExportedAt: time.Now().UTC(),
	}, nil
}

// ListObjects перечисляет файлы под префиксом, новые первыми
func (s *ExportSink) ListObjects(ctx context.Context, prefix string, limit int) ([]port.ExportObject, error) {
	root, err := s.resolve(prefix)
	if err != nil {
		return nil, err
	}

	objects := make([]port.ExportObject, 0)
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			if os.IsNotExist(walkErr) {
				return filepath.SkipDir
			}
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(path, ".tmp") {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(s.dir, path)
		if err != nil {
			return err
		}

		objects = append(objects, port.ExportObject{
			Key:          filepath.ToSlash(rel),
			URL:          "file://" + filepath.ToSlash(path),
			SizeBytes:    info.Size(),
			LastModified: info.ModTime().UTC(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list exports: %w", err)
	}

	sort.Slice(objects, func(i, j int) bool {
		return objects[i].LastModified.After(objects[j].LastModified)
	})
	if limit > 0 && len(objects) > limit {
		objects = objects[:limit]
	}

	return objects, nil
}

// GetObjectURL возвращает file:// ссылку на выгрузку
func (s *ExportSink) GetObjectURL(_ context.Context, key string) (string, error) {
	target, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	return "file://" + filepath.ToSlash(target), nil
}

// resolve не дает ключу выйти за пределы каталога
func (s *ExportSink) resolve(key string) (string, error) {
	cleaned := filepath.Clean("/" + filepath.FromSlash(strings.TrimSpace(key)))
	target := filepath.Join(s.dir, cleaned)

	rel, err := filepath.Rel(s.dir, target)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("invalid export key: %q", key)
	}
	return target, nil
}
