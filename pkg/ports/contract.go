package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/tick/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore
// implementation adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	conversationID := "contract-test-conversation-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		session := domain.NewSession("Global").
			WithContexts(map[string]any{"NAME": "bar", "ANSWERED": nil}).
			WithRan("GREET").
			WithState("GREET").
			PushObjective("BYE").
			WithUnknown(&domain.UnknownHandlingStep{Repeated: 1, Answer: domain.UnknownAnswerConfig{Action: "GREET", Text: "Sorry?", RetryNb: 2}}).
			WithHandling(&domain.HandlingStep{Action: "GREET", Repeated: 1})

		err := store.Save(ctx, conversationID, session)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, conversationID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, session, loaded)
		assert.True(t, loaded.HasContext("ANSWERED"), "explicit absence must survive persistence")
	})

	t.Run("Saved Snapshot Is Isolated", func(t *testing.T) {
		session := domain.NewSession("Global").WithRan("GREET")
		require.NoError(t, store.Save(ctx, conversationID, session))

		session.RanHandlers[0] = "MUTATED"

		loaded, err := store.Load(ctx, conversationID)
		require.NoError(t, err)
		assert.Equal(t, []string{"GREET"}, loaded.RanHandlers)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+conversationID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, conversationID, domain.NewSession("Global"))
		require.NoError(t, err)

		err = store.Delete(ctx, conversationID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, conversationID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := conversationID + "-1"
		id2 := conversationID + "-2"
		_ = store.Save(ctx, id1, domain.NewSession("Global"))
		_ = store.Save(ctx, id2, domain.NewSession("Global"))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}

// RunConfigurationLoaderContract verifies that a ConfigurationLoader serves want
// under its id and reports unknown ids as errors.
func RunConfigurationLoaderContract(t *testing.T, loader ConfigurationLoader, want domain.Configuration) {
	ctx := context.Background()

	t.Run("Load", func(t *testing.T) {
		got, err := loader.Load(ctx, want.ID)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("Load Unknown", func(t *testing.T) {
		_, err := loader.Load(ctx, "non-existent-"+want.ID)
		assert.ErrorIs(t, err, domain.ErrStoryNotFound)
	})

	t.Run("List", func(t *testing.T) {
		ids, err := loader.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, want.ID)
	})
}
