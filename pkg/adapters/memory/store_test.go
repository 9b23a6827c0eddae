package memory_test

import (
	"testing"

	"github.com/aretw0/tick/internal/testutils"
	"github.com/aretw0/tick/pkg/adapters/memory"
	"github.com/aretw0/tick/pkg/domain"
	"github.com/aretw0/tick/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunSessionStoreContract(t, store)
}

func TestMemoryLoader_Contract(t *testing.T) {
	loader, err := memory.NewLoader(testutils.GameConfiguration(), testutils.FlatConfiguration())
	require.NoError(t, err)
	ports.RunConfigurationLoaderContract(t, loader, testutils.GameConfiguration())
}

func TestMemoryLoader_RejectsMissingID(t *testing.T) {
	_, err := memory.NewLoader(domain.Configuration{Name: "anonymous"})
	assert.Error(t, err)
}
