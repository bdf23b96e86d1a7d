package speech

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xxxsen/medassist/internal/config"
)

var ErrNoTranscript = errors.New("no transcript recognized")

// Transcriber turns encoded audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

type Factory func(args interface{}) (Transcriber, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func Register(name string, factory Factory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registryMu.Lock()
	registry[key] = factory
	registryMu.Unlock()
}

func New(cfg config.ProviderConfig) (Transcriber, error) {
	key := strings.ToLower(strings.TrimSpace(cfg.Type))
	registryMu.RLock()
	factory := registry[key]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unsupported speech type: %s", cfg.Type)
	}
	return factory(cfg.Data)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("speech config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode speech config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode speech config: %w", err)
	}
	return nil
}
