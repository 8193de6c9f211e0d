package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/kirillkom/kyc-compliance/internal/core/domain"
)

// Storage keeps archived uploads in process memory.
type Storage struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func New() *Storage {
	return &Storage{objects: make(map[string][]byte)}
}

func (s *Storage) Save(ctx context.Context, key string, data io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		return domain.WrapError(domain.ErrInvalidInput, "save object", fmt.Errorf("empty key"))
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return fmt.Errorf("read object: %w", err)
	}
	s.mu.Lock()
	s.objects[key] = raw
	s.mu.Unlock()
	return nil
}

func (s *Storage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.RLock()
	raw, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "open object", fmt.Errorf("key %q", key))
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}
