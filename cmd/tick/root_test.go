package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/tick"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gameFile = "../../internal/compiler/testdata/game.yaml"

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "tick version "+tick.Version+"\n", out)
}

func TestValidate(t *testing.T) {
	out, err := run(t, "", "validate", gameFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Story 'game' is valid!")

	data, err := os.ReadFile(gameFile)
	require.NoError(t, err)
	broken := strings.Replace(string(data), "handler: dev-tools:set_context_1", "handler: shop:nope", 1)
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte(broken), 0o644))

	out, err = run(t, "", "validate", path)
	require.Error(t, err)
	assert.Contains(t, out, "handler is not registered")
}

func TestChat(t *testing.T) {
	out, err := run(t, "bonjourRobot\n/quit\n", "chat", "--stories", gameFile, "-c", "t1", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "Conversation 't1' on story 'game'")
	assert.Contains(t, out, "[Bonjour]")
}

func TestGraph(t *testing.T) {
	out, err := run(t, "", "graph", "--stories", gameFile, "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "graph TD")
}

func TestSession(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "", "session", "ls", "--store", "file", "--dsn", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "No stored conversations found.")

	_, err = run(t, "", "session", "inspect", "missing", "--store", "file", "--dsn", dir)
	assert.Error(t, err)
}

func TestLoadConfig_InvalidStore(t *testing.T) {
	_, err := run(t, "", "session", "ls", "--store", "mongo")
	assert.ErrorContains(t, err, "unknown store backend")
}
