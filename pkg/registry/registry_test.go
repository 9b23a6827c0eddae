package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/tick/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Invoke(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)

	err = reg.Register("shop:total", func(_ context.Context, in map[string]any) (map[string]any, error) {
		return map[string]any{"TOTAL": in["PRICE"]}, nil
	})
	require.NoError(t, err)

	out, err := reg.Invoke(context.Background(), "shop:total", map[string]any{"PRICE": 3})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"TOTAL": 3}, out)
	assert.True(t, reg.Has("shop:total"))
}

func TestRegistry_Register(t *testing.T) {
	reg, _ := NewRegistry()
	noop := func(context.Context, map[string]any) (map[string]any, error) { return nil, nil }

	require.NoError(t, reg.Register("a:b", noop))
	assert.Error(t, reg.Register("a:b", noop), "duplicate")
	assert.Error(t, reg.Register("nonamespace", noop))
	assert.Error(t, reg.Register(":b", noop))
	assert.Error(t, reg.Register("a:c", nil))
}

func TestRegistry_NotFound(t *testing.T) {
	reg, _ := NewRegistry()
	_, err := reg.Invoke(context.Background(), "missing:handler", nil)

	var herr *domain.HandlerError
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, "missing:handler", herr.Handler)
	assert.ErrorIs(t, err, domain.ErrHandlerNotFound)
}

func TestRegistry_HandlerFailure(t *testing.T) {
	boom := errors.New("boom")
	reg, _ := NewRegistry()
	require.NoError(t, reg.Register("x:fail", func(context.Context, map[string]any) (map[string]any, error) {
		return nil, boom
	}))

	_, err := reg.Invoke(context.Background(), "x:fail", nil)
	assert.ErrorIs(t, err, boom)
}

func TestDevTools(t *testing.T) {
	reg, err := NewRegistry(DevTools())
	require.NoError(t, err)

	assert.Len(t, reg.Names(), DevContextCount+1)

	out, err := reg.Invoke(context.Background(), "dev-tools:do_nothing", map[string]any{"X": 1})
	require.NoError(t, err)
	assert.Empty(t, out)

	for _, tc := range []struct{ handler, context string }{
		{"dev-tools:set_context_1", "DEV_CONTEXT_1"},
		{"dev-tools:set_context_4", "DEV_CONTEXT_4"},
		{"dev-tools:set_context_7", "DEV_CONTEXT_7"},
	} {
		out, err := reg.Invoke(context.Background(), tc.handler, nil)
		require.NoError(t, err)
		v, ok := out[tc.context]
		assert.True(t, ok, tc.handler)
		assert.Nil(t, v)
	}

	_, err = NewRegistry(DevTools(), DevTools())
	assert.Error(t, err, "namespace registered twice")
}
