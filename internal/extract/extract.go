package extract

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	appErr "github.com/xxxsen/medassist/internal/pkg/errors"
)

// Extractor returns the text of a file, one entry per page.
type Extractor func(data []byte) ([]string, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Extractor{}
)

func Register(ext string, fn Extractor) {
	key := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	if key == "" || fn == nil {
		return
	}
	registryMu.Lock()
	registry[key] = fn
	registryMu.Unlock()
}

func Supported(filename string) bool {
	_, ok := lookup(filename)
	return ok
}

func lookup(filename string) (Extractor, bool) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	registryMu.RLock()
	defer registryMu.RUnlock()
	fn, ok := registry[ext]
	return fn, ok
}

// Pages extracts page texts from data according to the filename extension.
func Pages(filename string, data []byte) ([]string, error) {
	fn, ok := lookup(filename)
	if !ok {
		return nil, fmt.Errorf("%w: %s", appErr.ErrUnsupportedFile, filepath.Ext(filename))
	}
	pages, err := fn(data)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", filename, err)
	}
	return pages, nil
}
