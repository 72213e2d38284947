package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandWiring(t *testing.T) {
	root := newRootCommand()

	names := map[string]bool{}
	for _, cmd := range root.Commands() {
		names[cmd.Name()] = true
	}
	for _, want := range []string{"serve", "status", "log", "sessions", "config"} {
		assert.True(t, names[want], "missing command %q", want)
	}
	flag := root.PersistentFlags().Lookup("config")
	require.NotNil(t, flag)
}

func TestShouldSkipConfig(t *testing.T) {
	root := newRootCommand()

	configCmd, _, err := root.Find([]string{"config", "init"})
	require.NoError(t, err)
	assert.True(t, shouldSkipConfig(configCmd))

	showCmd, _, err := root.Find([]string{"config", "show"})
	require.NoError(t, err)
	assert.False(t, shouldSkipConfig(showCmd))

	logCmd, _, err := root.Find([]string{"log"})
	require.NoError(t, err)
	assert.False(t, shouldSkipConfig(logCmd))
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]string{"A", "B"}, [][]string{{"only"}}, 1)
	assert.Contains(t, out, "only")
	assert.Contains(t, out, "A")
}
