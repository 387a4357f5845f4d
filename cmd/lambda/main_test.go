package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canvas-infra/patterns/internal/library"
	"github.com/canvas-infra/patterns/internal/logger"
	"github.com/canvas-infra/patterns/internal/pipeline"
	"github.com/canvas-infra/patterns/internal/workspace"
)

func testServer(t *testing.T) *server {
	t.Helper()
	opts := pipeline.DefaultOptions()
	opts.Logger = logger.Discard()
	p := pipeline.New(opts)
	require.NoError(t, p.LoadLibrary())
	return &server{
		pipeline:   p,
		deployOpts: workspace.DefaultDeployOptions(),
		batchOpts: workspace.BatchOptions{
			Mode: workspace.BatchSequential, Snapshot: true, Deploy: workspace.DefaultDeployOptions(),
		},
	}
}

func invoke(t *testing.T, s *server, event LambdaEvent) (int, map[string]any) {
	t.Helper()
	resp, err := s.handler(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])
	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	return resp.StatusCode, body
}

func request(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestHandler_BadRequests(t *testing.T) {
	s := testServer(t)
	tests := []struct {
		name  string
		event LambdaEvent
	}{
		{"invalid json", LambdaEvent{Body: "{"}},
		{"invalid base64", LambdaEvent{Body: "%%%", IsBase64: true}},
		{"unknown action", LambdaEvent{Body: `{"action":"explode"}`}},
		{"generate without template", LambdaEvent{Body: `{"action":"generate"}`}},
		{"validate without pattern", LambdaEvent{Body: `{"action":"validate"}`}},
		{"deploy without source", LambdaEvent{Body: `{"action":"deploy"}`}},
		{"export without pattern", LambdaEvent{Body: `{"action":"export"}`}},
		{"batch without patterns", LambdaEvent{Body: `{"action":"batch"}`}},
		{"batch with unknown id", LambdaEvent{Body: `{"action":"batch","patternIds":["missing"]}`}},
		{"malformed options", LambdaEvent{Body: `{"action":"deploy","templateId":"web-application","options":{"validate":"yes"}}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := invoke(t, s, tt.event)
			assert.Equal(t, 400, status)
			assert.Equal(t, false, body["success"])
			assert.NotEmpty(t, body["errors"])
		})
	}
}

func TestHandler_Generate(t *testing.T) {
	s := testServer(t)
	req := request(t, map[string]any{
		"action":     ActionGenerate,
		"templateId": "web-application",
		"context":    map[string]any{"parameters": map[string]any{"project_name": "shop", "db_engine": "postgres"}},
	})

	status, body := invoke(t, s, LambdaEvent{Body: base64.StdEncoding.EncodeToString([]byte(req)), IsBase64: true})
	assert.Equal(t, 200, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, ActionGenerate, body["action"])

	status, body = invoke(t, s, LambdaEvent{Body: `{"action":"generate","templateId":"web-application"}`})
	assert.Equal(t, 422, status)
	assert.Equal(t, false, body["success"])
}

func TestHandler_ValidateAndExport(t *testing.T) {
	s := testServer(t)
	p := library.ThreeTierWebApp()

	status, body := invoke(t, s, LambdaEvent{Body: request(t, map[string]any{"action": ActionValidate, "pattern": p})})
	assert.Equal(t, 200, status)
	assert.Equal(t, true, body["success"])

	status, body = invoke(t, s, LambdaEvent{Body: request(t, map[string]any{"action": ActionExport, "pattern": p, "provider": "aws"})})
	require.Equal(t, 200, status)
	files, ok := body["files"].(map[string]any)
	require.True(t, ok)
	mainTF, err := base64.StdEncoding.DecodeString(files["main.tf"].(string))
	require.NoError(t, err)
	assert.Contains(t, string(mainTF), `resource "aws_instance"`)

	status, _ = invoke(t, s, LambdaEvent{Body: request(t, map[string]any{"action": ActionExport, "pattern": p, "provider": "oracle"})})
	assert.Equal(t, 422, status)
}

func TestHandler_DeployAndSearch(t *testing.T) {
	s := testServer(t)

	status, body := invoke(t, s, LambdaEvent{Body: request(t, map[string]any{
		"action":  ActionDeploy,
		"pattern": library.StaticWebsite(),
	})})
	require.Equal(t, 200, status)
	ws, ok := body["workspace"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, ws["components"], 3)

	// The same pattern again collides with the workspace it just produced.
	status, body = invoke(t, s, LambdaEvent{Body: request(t, map[string]any{
		"action":    ActionDeploy,
		"pattern":   library.StaticWebsite(),
		"workspace": ws,
	})})
	assert.Equal(t, 422, status)
	assert.Nil(t, body["workspace"])

	status, body = invoke(t, s, LambdaEvent{Body: `{"action":"search","filters":{"text":"serverless"}}`})
	assert.Equal(t, 200, status)
	results, ok := body["result"].([]any)
	require.True(t, ok)
	assert.NotEmpty(t, results)
}

func TestHandler_PartialOptionsKeepDefaults(t *testing.T) {
	s := testServer(t)
	status, body := invoke(t, s, LambdaEvent{Body: request(t, map[string]any{
		"action":  ActionDeploy,
		"pattern": library.StaticWebsite(),
	})})
	require.Equal(t, 200, status)
	ws := body["workspace"]

	// Only autoLayout is set; conflict checks stay on and the collision fails.
	status, _ = invoke(t, s, LambdaEvent{Body: request(t, map[string]any{
		"action":    ActionDeploy,
		"pattern":   library.StaticWebsite(),
		"workspace": ws,
		"options":   map[string]any{"autoLayout": true},
	})})
	assert.Equal(t, 422, status)

	status, body = invoke(t, s, LambdaEvent{Body: request(t, map[string]any{
		"action":    ActionDeploy,
		"pattern":   library.StaticWebsite(),
		"workspace": ws,
		"options":   map[string]any{"naming": "increment"},
	})})
	require.Equal(t, 200, status)
	assert.Len(t, body["workspace"].(map[string]any)["components"], 6)
}

func TestHandler_Batch(t *testing.T) {
	s := testServer(t)
	status, body := invoke(t, s, LambdaEvent{Body: request(t, map[string]any{
		"action":     ActionBatch,
		"patternIds": []string{"static-website", "serverless-api"},
	})})
	require.Equal(t, 200, status)
	ws, ok := body["workspace"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, ws["components"], 7)

	// the configured snapshot restores the workspace after the first collision
	status, body = invoke(t, s, LambdaEvent{Body: request(t, map[string]any{
		"action":     ActionBatch,
		"patternIds": []string{"static-website"},
		"workspace":  ws,
	})})
	assert.Equal(t, 422, status)
	assert.Equal(t, true, body["result"].(map[string]any)["rolledBack"])
	assert.Len(t, body["workspace"].(map[string]any)["components"], 7)

	status, body = invoke(t, s, LambdaEvent{Body: request(t, map[string]any{
		"action":     ActionBatch,
		"patternIds": []string{"static-website"},
		"patterns":   []any{library.ServerlessAPI()},
		"workspace":  ws,
		"batch":      map[string]any{"mode": "parallel", "maxParallel": 2},
		"options":    map[string]any{"naming": "increment"},
	})})
	require.Equal(t, 200, status)
	assert.Equal(t, "parallel", body["result"].(map[string]any)["mode"])
	assert.Len(t, body["workspace"].(map[string]any)["components"], 14)
}
