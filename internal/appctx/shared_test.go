package appctx

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type resource struct {
	id     int
	closed bool
}

func TestSharedBuildsOnceAndClosesOnLastRelease(t *testing.T) {
	builds := 0
	var closed []*resource
	s := NewShared(func(context.Context) (*resource, error) {
		builds++
		return &resource{id: builds}, nil
	}, func(r *resource) error {
		r.closed = true
		closed = append(closed, r)
		return nil
	})

	a, releaseA, err := s.Acquire(context.Background())
	require.NoError(t, err)
	b, releaseB, err := s.Acquire(context.Background())
	require.NoError(t, err)
	require.Same(t, a, b)
	require.Equal(t, 1, builds)
	require.Equal(t, 2, s.Refs())

	require.NoError(t, releaseA())
	require.NoError(t, releaseA())
	require.Equal(t, 1, s.Refs())
	require.False(t, a.closed)

	require.NoError(t, releaseB())
	require.Equal(t, 0, s.Refs())
	require.True(t, a.closed)
	require.Len(t, closed, 1)

	c, releaseC, err := s.Acquire(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, c.id)
	require.NoError(t, releaseC())
}

func TestSharedBuildError(t *testing.T) {
	s := NewShared(func(context.Context) (int, error) {
		return 0, errors.New("no credentials")
	}, nil)
	_, release, err := s.Acquire(context.Background())
	require.Error(t, err)
	require.Nil(t, release)
	require.Equal(t, 0, s.Refs())
}

func TestSharedConcurrentAcquire(t *testing.T) {
	var mu sync.Mutex
	builds := 0
	s := NewShared(func(context.Context) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		builds++
		return "client", nil
	}, nil)

	var wg sync.WaitGroup
	releases := make(chan func() error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, release, err := s.Acquire(context.Background())
			if err == nil {
				releases <- release
			}
		}()
	}
	wg.Wait()
	close(releases)
	require.Equal(t, 16, s.Refs())
	require.Equal(t, 1, builds)
	for release := range releases {
		require.NoError(t, release())
	}
	require.Equal(t, 0, s.Refs())
}
