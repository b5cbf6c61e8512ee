package cache

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, key string, out any) (bool, error) {
	args := m.Called(ctx, key, out)
	return args.Bool(0), args.Error(1)
}

func (m *mockCache) Set(ctx context.Context, key string, val any) error {
	args := m.Called(ctx, key, val)
	return args.Error(0)
}

func (m *mockCache) Invalidate(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *mockCache) InvalidatePrefix(ctx context.Context, prefix string) error {
	args := m.Called(ctx, prefix)
	return args.Error(0)
}

func TestFailoverCache(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.New(io.Discard)

	t.Run("PrimarySuccess", func(t *testing.T) {
		primary := new(mockCache)
		fallback := new(mockCache)
		f := NewFailover(primary, fallback, &logger)

		primary.On("Get", ctx, "k", mock.Anything).Return(true, nil).Once()

		ok, err := f.Get(ctx, "k", new(string))
		require.NoError(t, err)
		assert.True(t, ok)
		primary.AssertExpectations(t)
		fallback.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("FallbackAfterPrimaryError", func(t *testing.T) {
		primary := new(mockCache)
		fallback := new(mockCache)
		f := NewFailover(primary, fallback, &logger)

		boom := errors.New("connection refused")
		primary.On("Get", ctx, "k", mock.Anything).Return(false, boom).Once()
		fallback.On("Get", ctx, "k", mock.Anything).Return(true, nil).Once()

		ok, err := f.Get(ctx, "k", new(string))
		require.NoError(t, err)
		assert.True(t, ok)

		// Primary is now marked down; the next read goes straight to fallback.
		fallback.On("Get", ctx, "k2", mock.Anything).Return(false, nil).Once()
		_, err = f.Get(ctx, "k2", new(string))
		require.NoError(t, err)

		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("SetFallsBack", func(t *testing.T) {
		primary := new(mockCache)
		fallback := new(mockCache)
		f := NewFailover(primary, fallback, &logger)

		primary.On("Set", ctx, "k", "v").Return(errors.New("down")).Once()
		fallback.On("Set", ctx, "k", "v").Return(nil).Once()

		require.NoError(t, f.Set(ctx, "k", "v"))
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("InvalidateReachesBothBackends", func(t *testing.T) {
		primary := new(mockCache)
		fallback := new(mockCache)
		f := NewFailover(primary, fallback, &logger)

		primary.On("Invalidate", ctx, "k").Return(nil).Once()
		fallback.On("Invalidate", ctx, "k").Return(nil).Once()

		require.NoError(t, f.Invalidate(ctx, "k"))
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("InvalidatePrefixWhenPrimaryDown", func(t *testing.T) {
		primary := new(mockCache)
		fallback := new(mockCache)
		f := NewFailover(primary, fallback, &logger)
		f.isDown.Store(true)

		fallback.On("InvalidatePrefix", ctx, "books:").Return(nil).Once()

		require.NoError(t, f.InvalidatePrefix(ctx, "books:"))
		primary.AssertNotCalled(t, "InvalidatePrefix", mock.Anything, mock.Anything)
		fallback.AssertExpectations(t)
	})
}
