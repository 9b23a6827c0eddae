package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"io"
	"testing"

	"github.com/aretw0/tick/pkg/adapters/memory"
	"github.com/aretw0/tick/pkg/domain"
	"github.com/aretw0/tick/pkg/persistence/middleware"
	"github.com/aretw0/tick/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func encrypted(t *testing.T, next ports.SessionStore, cfg middleware.EncryptionConfig) ports.SessionStore {
	t.Helper()
	mw, err := middleware.NewEncryptionMiddleware(cfg)
	require.NoError(t, err)
	return mw(next)
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	ports.RunSessionStoreContract(t, encrypted(t, memory.NewStore(), middleware.EncryptionConfig{ActiveKey: generateKey(t)}))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	secure := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})

	session := domain.NewSession("GREET").WithContexts(map[string]any{"SECRET": "my-secret-sauce"})
	require.NoError(t, secure.Save(ctx, "c1", session))

	stored, err := underlying.Load(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, stored.HasContext("SECRET"))
	assert.Empty(t, stored.CurrentState)
	assert.Contains(t, stored.Contexts, middleware.EnvelopeKey)

	loaded, err := secure.Load(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "my-secret-sauce", loaded.Contexts["SECRET"])
	assert.Equal(t, "GREET", loaded.CurrentState)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	oldKey, newKey := generateKey(t), generateKey(t)

	oldStore := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: oldKey})
	require.NoError(t, oldStore.Save(ctx, "c1", domain.NewSession("A").WithContexts(map[string]any{"DATA": "old"})))

	newStore := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: newKey, FallbackKeys: [][]byte{oldKey}})
	loaded, err := newStore.Load(ctx, "c1")
	require.NoError(t, err, "fallback key decrypts")
	assert.Equal(t, "old", loaded.Contexts["DATA"])

	require.NoError(t, newStore.Save(ctx, "c1", loaded.WithContexts(map[string]any{"DATA": "new"})))
	_, err = oldStore.Load(ctx, "c1")
	assert.Error(t, err, "the old key alone no longer decrypts")
}

func TestEncryptionMiddleware_RejectsPlainSessions(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	require.NoError(t, underlying.Save(ctx, "c1", domain.NewSession("A")))

	_, err := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)}).Load(ctx, "c1")
	assert.ErrorIs(t, err, middleware.ErrNotEncrypted)
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	assert.Error(t, err)
}

func TestDecodeKey(t *testing.T) {
	key := generateKey(t)
	got, err := middleware.DecodeKey(base64.StdEncoding.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, got)

	_, err = middleware.DecodeKey("not base64!")
	assert.Error(t, err)
}
