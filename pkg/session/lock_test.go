package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/tick/pkg/adapters/memory"
	"github.com/aretw0/tick/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(memory.NewStore())
	ctx := context.Background()
	count := 10000

	for i := 0; i < count; i++ {
		id := fmt.Sprintf("conversation-%d", i)
		_ = mgr.Save(ctx, id, domain.NewSession("Global"))
		_ = mgr.Delete(ctx, id)
	}

	assert.Empty(t, mgr.locks, "locks must be released once unused")
}
