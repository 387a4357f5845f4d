package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canvas-infra/patterns/internal/library"
	"github.com/canvas-infra/patterns/internal/pattern"
	"github.com/canvas-infra/patterns/internal/registry"
	"github.com/canvas-infra/patterns/internal/workspace"
)

func newPipeline(t *testing.T) *Pipeline {
	t.Helper()
	opts := DefaultOptions()
	opts.Now = func() time.Time { return time.UnixMilli(1700000000000) }
	p := New(opts)
	require.NoError(t, p.LoadLibrary())
	return p
}

func downloads(t *testing.T, p *Pipeline, id string) int {
	t.Helper()
	pat, err := p.Patterns().Get(id)
	require.NoError(t, err)
	return pat.DownloadCount
}

func TestLoadLibrary(t *testing.T) {
	p := newPipeline(t)
	assert.Equal(t, 3, p.Patterns().Count())
	assert.Len(t, p.Templates().ListTemplates(), 2)

	hits := p.SearchPatterns(registry.Filters{Text: "serverless"})
	require.NotEmpty(t, hits)
	assert.Equal(t, "serverless-api", hits[0].Pattern.ID)
}

func TestValidatePattern(t *testing.T) {
	p := newPipeline(t)
	assert.True(t, p.ValidatePattern(library.StaticWebsite()).Valid)

	broken := library.StaticWebsite()
	broken.Components[0].Dependencies = []string{"nowhere"}
	assert.False(t, p.ValidatePattern(broken).Valid)
}

func TestDeployRegistered_CountsDownloads(t *testing.T) {
	p := newPipeline(t)
	state := &workspace.State{}

	res, err := p.DeployRegistered("static-website", state, workspace.DefaultDeployOptions())
	require.NoError(t, err)
	require.True(t, res.Success, res.Errors)
	assert.Len(t, state.Components, 3)
	assert.Equal(t, 1, downloads(t, p, "static-website"))

	// same ids again: preserve naming fails and nothing is counted
	res = p.DeployPattern(library.StaticWebsite(), state, workspace.DefaultDeployOptions())
	assert.False(t, res.Success)
	assert.Equal(t, 1, downloads(t, p, "static-website"))

	_, err = p.DeployRegistered("nope", state, workspace.DefaultDeployOptions())
	assert.ErrorIs(t, err, registry.ErrPatternNotFound)
}

func TestGenerateAndDeploy(t *testing.T) {
	p := newPipeline(t)
	state := &workspace.State{}
	ctx := &pattern.Context{Provider: "aws", Parameters: map[string]any{"project_name": "shop", "enable_monitoring": true}}

	res := p.GenerateAndDeploy("web-application", ctx, state, workspace.DefaultDeployOptions())
	require.True(t, res.Success, res.Generation.Errors)
	require.NotNil(t, res.Validation)
	require.NotNil(t, res.Deployment)
	assert.Len(t, state.Components, 4)
	assert.NotNil(t, state.Component("shop-monitoring"))

	again := p.GenerateAndDeploy("web-application", ctx, state, workspace.DefaultDeployOptions())
	assert.False(t, again.Success)
	require.NotNil(t, again.Deployment)
	assert.Equal(t, workspace.StageFailed, again.Deployment.Stage)
	assert.Len(t, state.Components, 4)

	missing := p.GenerateAndDeploy("web-application", &pattern.Context{}, state, workspace.DefaultDeployOptions())
	assert.False(t, missing.Success)
	assert.Nil(t, missing.Validation)
	assert.Nil(t, missing.Deployment)
	assert.NotEmpty(t, missing.Generation.Errors)
}

func TestDeployBatch(t *testing.T) {
	p := newPipeline(t)
	state := &workspace.State{}

	res := p.DeployBatch(context.Background(), library.Patterns(), state, workspace.BatchOptions{
		Mode: workspace.BatchSequential, Snapshot: true, Deploy: workspace.DefaultDeployOptions(),
	})
	require.True(t, res.Success)
	assert.Len(t, res.Results, 3)
	assert.Len(t, state.Components, 11)
	for _, pat := range library.Patterns() {
		assert.Equal(t, 1, downloads(t, p, pat.ID), pat.ID)
	}
}

func TestExport(t *testing.T) {
	p := newPipeline(t)
	files, err := p.Export(library.ThreeTierWebApp(), "")
	require.NoError(t, err)
	assert.Contains(t, string(files["versions.tf"]), "hashicorp/aws")
	assert.Contains(t, string(files["main.tf"]), "aws_db_instance")

	opts := DefaultOptions()
	opts.ExportProvider = "gcp"
	gcp := New(opts)
	bare := library.ThreeTierWebApp()
	bare.Providers = nil
	files, err = gcp.Export(bare, "")
	require.NoError(t, err)
	assert.Contains(t, string(files["versions.tf"]), "hashicorp/google")
}

func TestLoadPaths(t *testing.T) {
	dir := t.TempDir()
	good := `{"id":"mine","name":"Mine","description":"one cache","components":[{"componentId":"cache","instanceId":"c"}],"relationships":[]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mine.json"), []byte(good), 0o600))

	p := New(DefaultOptions())
	require.NoError(t, p.LoadPaths(dir))
	_, err := p.Patterns().Get("mine")
	require.NoError(t, err)

	bad := `{"id":"broken","name":"Broken","description":"x","components":[{"componentId":"nope","instanceId":"c"}],"relationships":[]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "zz-broken.json"), []byte(bad), 0o600))
	err = p.LoadPaths(dir)
	assert.ErrorIs(t, err, registry.ErrInvalidPattern)

	assert.Error(t, p.LoadPaths(filepath.Join(dir, "missing")))
}
