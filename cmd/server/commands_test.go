package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := newRootCommand()

	names := make([]string, 0)
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "sync"}, names)

	flag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, flag, "应支持 --config 参数")
	assert.Equal(t, "c", flag.Shorthand)
}

func TestSyncCommand_MissingConfigFile(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetArgs([]string{"sync", "--config", filepath.Join(t.TempDir(), "missing.yaml")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestSyncCommand_RejectsArgs(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetArgs([]string{"sync", "extra"})

	assert.Error(t, cmd.Execute())
}
