package registry

import (
	"context"
	"testing"

	"github.com/aretw0/tick/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// catchAll answers every handler and declares none.
type catchAll struct{ calls []string }

func (c *catchAll) Invoke(_ context.Context, handler string, _ map[string]any) (map[string]any, error) {
	c.calls = append(c.calls, handler)
	return map[string]any{"FROM": "remote"}, nil
}

func TestComposite(t *testing.T) {
	ctx := context.Background()
	local, err := NewRegistry(DevTools())
	require.NoError(t, err)
	remote := &catchAll{}

	c := NewComposite(local, remote)
	assert.True(t, c.Has("dev-tools:do_nothing"))
	assert.True(t, c.Has("shop:price"))

	_, err = c.Invoke(ctx, "dev-tools:do_nothing", nil)
	require.NoError(t, err)
	assert.Empty(t, remote.calls)

	out, err := c.Invoke(ctx, "shop:price", nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"FROM": "remote"}, out)
	assert.Equal(t, []string{"shop:price"}, remote.calls)
}

func TestComposite_NotFound(t *testing.T) {
	local, _ := NewRegistry()
	c := NewComposite(local)

	assert.False(t, c.Has("shop:price"))
	_, err := c.Invoke(context.Background(), "shop:price", nil)
	assert.ErrorIs(t, err, domain.ErrHandlerNotFound)
}
