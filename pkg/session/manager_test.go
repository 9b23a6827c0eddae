package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/tick/pkg/adapters/memory"
	"github.com/aretw0/tick/pkg/domain"
	"github.com/aretw0/tick/pkg/ports"
	"github.com/aretw0/tick/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slowStore simulates latency to provoke lost updates if locking is missing.
type slowStore struct {
	*memory.Store
}

func (s slowStore) Load(ctx context.Context, id string) (domain.Session, error) {
	time.Sleep(2 * time.Millisecond)
	return s.Store.Load(ctx, id)
}

func (s slowStore) Save(ctx context.Context, id string, sess domain.Session) error {
	time.Sleep(2 * time.Millisecond)
	return s.Store.Save(ctx, id, sess)
}

func TestManager_TurnsAreSerialized(t *testing.T) {
	manager := session.NewManager(slowStore{memory.NewStore()})
	ctx := context.Background()
	id := "race-test"

	var wg sync.WaitGroup
	const turns = 20
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := manager.Turn(ctx, id, domain.NewSession("Global"), func(_ context.Context, cur domain.Session) (domain.Session, bool, error) {
				return cur.WithRan("STEP"), true, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	sess, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Len(t, sess.RanHandlers, turns, "no turn may be lost")
}

func TestManager_TurnFailureWritesNothing(t *testing.T) {
	store := memory.NewStore()
	manager := session.NewManager(store)
	ctx := context.Background()
	boom := errors.New("boom")

	require.NoError(t, manager.Save(ctx, "conv", domain.NewSession("Global")))
	err := manager.Turn(ctx, "conv", domain.NewSession("Global"), func(_ context.Context, cur domain.Session) (domain.Session, bool, error) {
		return cur.WithRan("NEVER"), true, boom
	})
	assert.ErrorIs(t, err, boom)

	sess, err := store.Load(ctx, "conv")
	require.NoError(t, err)
	assert.Empty(t, sess.RanHandlers)
}

func TestManager_TurnCanDelete(t *testing.T) {
	store := memory.NewStore()
	manager := session.NewManager(store)
	ctx := context.Background()

	require.NoError(t, manager.Save(ctx, "conv", domain.NewSession("Global")))
	err := manager.Turn(ctx, "conv", domain.NewSession("Global"), func(_ context.Context, cur domain.Session) (domain.Session, bool, error) {
		return domain.Session{}, false, nil
	})
	require.NoError(t, err)

	_, err = store.Load(ctx, "conv")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_LoadOrStart(t *testing.T) {
	manager := session.NewManager(slowStore{memory.NewStore()})
	ctx := context.Background()
	id := "atomic-init"

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess, err := manager.LoadOrStart(ctx, id, domain.NewSession("Global"))
			assert.NoError(t, err)
			assert.Equal(t, "Global", sess.CurrentState)
		}()
	}
	wg.Wait()

	sess, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Global", sess.CurrentState)
}

type recordingLocker struct {
	mu    sync.Mutex
	keys  []string
	ttls  []time.Duration
	freed int
}

func (l *recordingLocker) Lock(_ context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keys = append(l.keys, key)
	l.ttls = append(l.ttls, ttl)
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.freed++
		return nil
	}, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	locker := &recordingLocker{}
	manager := session.NewManager(memory.NewStore(), session.WithLocker(locker), session.WithLockTTL(time.Second))
	ctx := context.Background()

	require.NoError(t, manager.Save(ctx, "conv", domain.NewSession("Global")))
	_, err := manager.Load(ctx, "conv")
	require.NoError(t, err)

	assert.Equal(t, []string{"conv", "conv"}, locker.keys)
	assert.Equal(t, []time.Duration{time.Second, time.Second}, locker.ttls)
	assert.Equal(t, 2, locker.freed)
}
