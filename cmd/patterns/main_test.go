package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canvas-infra/patterns/internal/library"
	"github.com/canvas-infra/patterns/internal/workspace"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"true", true},
		{"3", 3.0},
		{"2.5", 2.5},
		{"shop", "shop"},
		{`["a","b"]`, []any{"a", "b"}},
		{`{"k":1}`, map[string]any{"k": 1.0}},
		{"[broken", "[broken"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseValue(tt.in))
		})
	}
}

func TestParseParams(t *testing.T) {
	params, err := parseParams([]string{"project_name=shop", "instance_count=3", "note=a=b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"project_name": "shop", "instance_count": 3.0, "note": "a=b"}, params)

	_, err = parseParams([]string{"novalue"})
	assert.Error(t, err)
	_, err = parseParams([]string{"=x"})
	assert.Error(t, err)
}

func TestTemplatesCommand(t *testing.T) {
	out, err := run(t, "templates")
	require.NoError(t, err)
	assert.Contains(t, out, "web-application")
	assert.Contains(t, out, "data-pipeline")
}

func TestGenerateCommand(t *testing.T) {
	out, err := run(t, "generate", "web-application", "--param", "project_name=shop", "--provider", "aws")
	require.NoError(t, err)
	assert.Contains(t, out, `"shop-app"`)

	path := filepath.Join(t.TempDir(), "shop.yaml")
	_, err = run(t, "generate", "web-application", "--param", "project_name=shop", "-o", path)
	require.NoError(t, err)
	p, err := library.DecodePattern(path)
	require.NoError(t, err)
	assert.Len(t, p.Components, 3)

	_, err = run(t, "generate", "web-application")
	assert.ErrorIs(t, err, errGenerate)
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.json")
	data, err := json.Marshal(library.StaticWebsite())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(good, data, 0o600))

	out, err := run(t, "validate", good)
	require.NoError(t, err)
	assert.Contains(t, out, `"valid": true`)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"id":"x","components":[],"relationships":[]}`), 0o600))
	_, err = run(t, "validate", bad)
	assert.ErrorIs(t, err, errInvalidPattern)
}

func TestDeployCommand(t *testing.T) {
	ws := filepath.Join(t.TempDir(), "canvas.json")

	_, err := run(t, "deploy", "--template", "web-application", "--param", "project_name=shop", "--workspace", ws)
	require.NoError(t, err)
	state, err := library.DecodeWorkspace(ws)
	require.NoError(t, err)
	assert.Len(t, state.Components, 3)

	// preserve naming rejects the second copy and leaves the file alone
	_, err = run(t, "deploy", "--template", "web-application", "--param", "project_name=shop", "--workspace", ws)
	assert.ErrorIs(t, err, errDeploy)

	_, err = run(t, "deploy", "--template", "web-application", "--param", "project_name=shop", "--workspace", ws,
		"--naming", string(workspace.NamingIncrement), "--layout", "circular")
	require.NoError(t, err)
	state, err = library.DecodeWorkspace(ws)
	require.NoError(t, err)
	assert.Len(t, state.Components, 6)
	assert.NotNil(t, state.Component("shop-app-1"))

	_, err = run(t, "deploy", "--pattern-id", "static-website", "--workspace", ws)
	require.NoError(t, err)

	_, err = run(t, "deploy", "--workspace", ws)
	assert.Error(t, err, "one of --pattern, --pattern-id or --template is required")
}

func TestBatchCommand(t *testing.T) {
	dir := t.TempDir()
	ws := filepath.Join(dir, "canvas.json")

	out, err := run(t, "batch", "--pattern-id", "static-website", "--pattern-id", "serverless-api", "--workspace", ws)
	require.NoError(t, err)
	assert.Contains(t, out, `"mode": "sequential"`)
	state, err := library.DecodeWorkspace(ws)
	require.NoError(t, err)
	assert.Len(t, state.Components, 7)

	// the configured snapshot rolls the whole batch back on the first collision
	out, err = run(t, "batch", "--pattern-id", "static-website", "--pattern-id", "serverless-api", "--workspace", ws)
	assert.ErrorIs(t, err, errDeploy)
	assert.Contains(t, out, `"rolledBack": true`)
	state, err = library.DecodeWorkspace(ws)
	require.NoError(t, err)
	assert.Len(t, state.Components, 7)

	out, err = run(t, "batch", "--pattern-id", "static-website", "--pattern-id", "serverless-api", "--workspace", ws,
		"--mode", "parallel", "--max-parallel", "2", "--naming", string(workspace.NamingIncrement))
	require.NoError(t, err)
	assert.Contains(t, out, workspace.ParallelLimitation)
	state, err = library.DecodeWorkspace(ws)
	require.NoError(t, err)
	assert.Len(t, state.Components, 14)
	assert.NotNil(t, state.Component("site-dns-1"))

	src := filepath.Join(dir, "site.json")
	data, err := json.Marshal(library.StaticWebsite())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(src, data, 0o600))
	fresh := filepath.Join(dir, "fresh.json")
	_, err = run(t, "batch", "--pattern", src, "--workspace", fresh)
	require.NoError(t, err)
	state, err = library.DecodeWorkspace(fresh)
	require.NoError(t, err)
	assert.Len(t, state.Components, 3)

	_, err = run(t, "batch", "--pattern-id", "missing", "--workspace", fresh)
	assert.Error(t, err)
	_, err = run(t, "batch", "--workspace", fresh)
	assert.Error(t, err)
}

func TestExportCommand(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "app.json")
	data, err := json.Marshal(library.ThreeTierWebApp())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(src, data, 0o600))

	out := filepath.Join(dir, "tf")
	stdout, err := run(t, "export", src, "--provider", "gcp", "-o", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, filepath.Join(out, "main.tf"))

	main, err := os.ReadFile(filepath.Join(out, "main.tf"))
	require.NoError(t, err)
	assert.Contains(t, string(main), "google_compute_instance")
}
