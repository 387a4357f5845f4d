package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canvas-infra/patterns/internal/layout"
	"github.com/canvas-infra/patterns/internal/workspace"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "patterns.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "aws", cfg.Export.Provider)
	assert.True(t, cfg.Library.Builtins)
	assert.Equal(t, "sequential", cfg.Batch.Mode)

	// defaults line up with the workspace package
	want := workspace.DefaultDeployOptions()
	want.Spacing = &layout.DefaultSpacing
	got := cfg.DeployOptions()
	assert.Equal(t, want.Validate, got.Validate)
	assert.Equal(t, want.CheckConflicts, got.CheckConflicts)
	assert.Equal(t, want.ValidateConnections, got.ValidateConnections)
	assert.Equal(t, want.PreserveExisting, got.PreserveExisting)
	assert.Equal(t, want.Naming, got.Naming)
	assert.Equal(t, *want.Spacing, *got.Spacing)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
log:
  level: DEBUG
  format: text
deploy:
  layout: hierarchical
  naming: prefix
  prefix: blue
  preserve_existing: false
  spacing_x: 300
  spacing_y: 100
batch:
  mode: parallel
  max_parallel: 4
  snapshot: false
library:
  builtins: false
  paths: [./patterns, ./templates]
export:
  provider: gcp
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, []string{"./patterns", "./templates"}, cfg.Library.Paths)
	assert.False(t, cfg.Library.Builtins)
	assert.Equal(t, "gcp", cfg.Export.Provider)

	d := cfg.DeployOptions()
	assert.Equal(t, workspace.NamingPrefix, d.Naming)
	assert.Equal(t, "blue", d.Prefix)
	assert.Equal(t, "hierarchical", d.Layout)
	assert.False(t, d.PreserveExisting)
	assert.Equal(t, &layout.Spacing{X: 300, Y: 100}, d.Spacing)

	b := cfg.BatchOptions()
	assert.Equal(t, workspace.BatchParallel, b.Mode)
	assert.Equal(t, 4, b.MaxParallel)
	assert.False(t, b.Snapshot)
	assert.Equal(t, d, b.Deploy)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PATTERNS_DEPLOY_LAYOUT", "circular")
	t.Setenv("PATTERNS_DEPLOY_CHECK_CONFLICTS", "false")
	t.Setenv("PATTERNS_EXPORT_PROVIDER", "azure")

	cfg, err := Load(writeConfig(t, "deploy:\n  layout: grid\n"))
	require.NoError(t, err)
	assert.Equal(t, "circular", cfg.Deploy.Layout)
	assert.False(t, cfg.Deploy.CheckConflicts)
	assert.Equal(t, "azure", cfg.Export.Provider)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
		want string
	}{
		{"missing explicit file", func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.yaml") }, "read config"},
		{"bad naming", func(t *testing.T) string { return writeConfig(t, "deploy:\n  naming: random\n") }, "invalid config"},
		{"bad provider", func(t *testing.T) string { return writeConfig(t, "export:\n  provider: ibm\n") }, "invalid config"},
		{"negative spacing", func(t *testing.T) string { return writeConfig(t, "deploy:\n  spacing_x: -5\n") }, "invalid config"},
		{"bad yaml", func(t *testing.T) string { return writeConfig(t, "deploy: [\n") }, "read config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path(t))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
