package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersion(t *testing.T) {
	t.Parallel()

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())
	assert.Equal(t, "latios dev (none)\n", out.String())
}

func TestMigrateArgs(t *testing.T) {
	t.Parallel()

	for _, args := range [][]string{{"migrate"}, {"migrate", "sideways"}, {"migrate", "up", "down"}} {
		root := newRootCmd()
		root.SetOut(&bytes.Buffer{})
		root.SetErr(&bytes.Buffer{})
		root.SetArgs(args)
		assert.Error(t, root.Execute(), "%v", args)
	}
}

func TestMigrationPlan(t *testing.T) {
	t.Parallel()

	tests := []struct {
		command string
		want    []migrationStep
	}{
		{"up", []migrationStep{{river: true, command: "up"}, {command: "up"}}},
		{"down", []migrationStep{{command: "down"}}},
		{"status", []migrationStep{{command: "status"}, {river: true, command: "status"}}},
		{"reset", []migrationStep{{command: "reset"}, {river: true, command: "down"}}},
		{"sideways", nil},
	}
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, migrationPlan(tt.command))
		})
	}

	for _, c := range migrateCommands {
		assert.NotEmpty(t, migrationPlan(c), c)
	}
}

func TestServeRejectsArgs(t *testing.T) {
	t.Parallel()

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"serve", "extra"})
	assert.Error(t, root.Execute())
}
