package appctx

import (
	"context"
	"sync"
)

// Shared builds its value on the first Acquire and closes it when the last
// holder releases. A later Acquire builds a fresh value.
type Shared[T any] struct {
	mu    sync.Mutex
	build func(ctx context.Context) (T, error)
	close func(T) error
	val   T
	refs  int
}

func NewShared[T any](build func(ctx context.Context) (T, error), closeFn func(T) error) *Shared[T] {
	return &Shared[T]{build: build, close: closeFn}
}

// Acquire returns the value and a release func. Release is idempotent.
func (s *Shared[T]) Acquire(ctx context.Context) (T, func() error, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refs == 0 {
		val, err := s.build(ctx)
		if err != nil {
			var zero T
			return zero, nil, err
		}
		s.val = val
	}
	s.refs++
	val := s.val
	var once sync.Once
	release := func() error {
		var err error
		once.Do(func() { err = s.release() })
		return err
	}
	return val, release, nil
}

func (s *Shared[T]) release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refs == 0 {
		return nil
	}
	s.refs--
	if s.refs > 0 {
		return nil
	}
	val := s.val
	var zero T
	s.val = zero
	if s.close == nil {
		return nil
	}
	return s.close(val)
}

func (s *Shared[T]) Refs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refs
}
