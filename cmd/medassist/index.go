package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/medassist/internal/extract"
	"github.com/xxxsen/medassist/internal/service"
)

// indexDirectory adds every supported file under dir to the shared knowledge
// base. Files that fail are logged and skipped.
func indexDirectory(ctx context.Context, documents *service.DocumentService, dir string) error {
	logger := logutil.GetLogger(ctx)
	files, chunks, failed := 0, 0, 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !extract.Supported(d.Name()) {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		n, err := documents.IndexShared(ctx, d.Name(), data)
		if err != nil {
			failed++
			logger.Error("index file failed", zap.String("path", path), zap.Error(err))
			return nil
		}
		files++
		chunks += n
		logger.Info("file indexed", zap.String("path", path), zap.Int("chunks", n))
		return nil
	})
	if err != nil {
		return err
	}
	logger.Info("directory indexed", zap.String("dir", dir), zap.Int("files", files), zap.Int("chunks", chunks), zap.Int("failed", failed))
	if files == 0 && failed > 0 {
		return fmt.Errorf("no file in %s could be indexed", dir)
	}
	return nil
}
