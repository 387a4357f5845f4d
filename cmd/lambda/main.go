package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/canvas-infra/patterns/internal/config"
	"github.com/canvas-infra/patterns/internal/logger"
	"github.com/canvas-infra/patterns/internal/metrics"
	"github.com/canvas-infra/patterns/internal/pattern"
	"github.com/canvas-infra/patterns/internal/pipeline"
	"github.com/canvas-infra/patterns/internal/registry"
	"github.com/canvas-infra/patterns/internal/workspace"
)

// Actions understood by the handler.
const (
	ActionGenerate = "generate"
	ActionDeploy   = "deploy"
	ActionValidate = "validate"
	ActionSearch   = "search"
	ActionExport   = "export"
	ActionBatch    = "batch"
)

// LambdaEvent is the invocation payload (e.g. from API Gateway).
type LambdaEvent struct {
	Body     string `json:"body"` // Request JSON (raw or base64 if isBase64)
	IsBase64 bool   `json:"isBase64,omitempty"`
}

// Request is the decoded body.
type Request struct {
	Action     string           `json:"action"`
	TemplateID string           `json:"templateId,omitempty"`
	Context    *pattern.Context `json:"context,omitempty"`
	Pattern    *pattern.Pattern `json:"pattern,omitempty"`
	Workspace  *workspace.State `json:"workspace,omitempty"`
	// Patterns and PatternIDs make up a batch; ids are looked up in the registry.
	Patterns   []*pattern.Pattern `json:"patterns,omitempty"`
	PatternIDs []string           `json:"patternIds,omitempty"`
	// Options and Batch are decoded over the configured deploy and batch
	// options, so omitted fields keep their configured values.
	Options  json.RawMessage  `json:"options,omitempty"`
	Batch    json.RawMessage  `json:"batch,omitempty"`
	Filters  registry.Filters `json:"filters"`
	Provider string           `json:"provider,omitempty"`
}

// LambdaResponse is returned to the client (API Gateway).
type LambdaResponse struct {
	StatusCode int               `json:"statusCode"`
	Success    bool              `json:"success"`
	Action     string            `json:"action,omitempty"`
	Errors     []string          `json:"errors,omitempty"`
	Result     any               `json:"result,omitempty"`
	Workspace  *workspace.State  `json:"workspace,omitempty"`
	Files      map[string]string `json:"files,omitempty"` // filename -> content (base64)
}

// APIGatewayResponse is the shape expected by API Gateway proxy integration (body = JSON string).
type APIGatewayResponse struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       string            `json:"body"`
}

type server struct {
	pipeline   *pipeline.Pipeline
	deployOpts workspace.DeployOptions
	batchOpts  workspace.BatchOptions
}

func (s *server) handler(ctx context.Context, event LambdaEvent) (APIGatewayResponse, error) {
	body := event.Body
	if event.IsBase64 {
		dec, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return wrap(failure(400, "invalid base64 body: "+err.Error())), nil
		}
		body = string(dec)
	}

	var req Request
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		return wrap(failure(400, "invalid request JSON: "+err.Error())), nil
	}
	out := s.dispatch(ctx, req)
	out.Action = req.Action
	return wrap(out), nil
}

func (s *server) dispatch(ctx context.Context, req Request) LambdaResponse {
	switch req.Action {
	case ActionGenerate:
		if req.TemplateID == "" {
			return failure(400, "templateId is required")
		}
		res := s.pipeline.GeneratePattern(req.TemplateID, req.Context)
		return outcome(res.Success, res, res.Errors)

	case ActionValidate:
		if req.Pattern == nil {
			return failure(400, "pattern is required")
		}
		res := s.pipeline.ValidatePattern(req.Pattern)
		return outcome(res.Valid, res, nil)

	case ActionSearch:
		return LambdaResponse{StatusCode: 200, Success: true, Result: s.pipeline.SearchPatterns(req.Filters)}

	case ActionDeploy:
		state := req.Workspace
		if state == nil {
			state = &workspace.State{}
		}
		opts := s.deployOpts
		if err := overlay(req.Options, &opts); err != nil {
			return failure(400, "invalid options: "+err.Error())
		}
		var out LambdaResponse
		switch {
		case req.Pattern != nil:
			res := s.pipeline.DeployPattern(req.Pattern, state, opts)
			out = outcome(res.Success, res, res.Errors)
		case req.TemplateID != "":
			res := s.pipeline.GenerateAndDeploy(req.TemplateID, req.Context, state, opts)
			out = outcome(res.Success, res, nil)
		default:
			return failure(400, "pattern or templateId is required")
		}
		if out.Success {
			out.Workspace = state
		}
		return out

	case ActionExport:
		if req.Pattern == nil {
			return failure(400, "pattern is required")
		}
		files, err := s.pipeline.Export(req.Pattern, req.Provider)
		if err != nil {
			return failure(422, err.Error())
		}
		out := LambdaResponse{StatusCode: 200, Success: true, Files: make(map[string]string, len(files))}
		for name, content := range files {
			out.Files[name] = base64.StdEncoding.EncodeToString(content)
		}
		return out

	case ActionBatch:
		patterns := make([]*pattern.Pattern, 0, len(req.PatternIDs)+len(req.Patterns))
		for _, id := range req.PatternIDs {
			p, err := s.pipeline.Patterns().Get(id)
			if err != nil {
				return failure(400, err.Error())
			}
			patterns = append(patterns, p)
		}
		patterns = append(patterns, req.Patterns...)
		if len(patterns) == 0 {
			return failure(400, "patterns or patternIds are required")
		}
		opts := s.batchOpts
		if err := overlay(req.Batch, &opts); err != nil {
			return failure(400, "invalid batch options: "+err.Error())
		}
		if err := overlay(req.Options, &opts.Deploy); err != nil {
			return failure(400, "invalid options: "+err.Error())
		}
		state := req.Workspace
		if state == nil {
			state = &workspace.State{}
		}
		res := s.pipeline.DeployBatch(ctx, patterns, state, opts)
		out := outcome(res.Success, res, nil)
		// A failed batch may still have committed earlier patterns.
		out.Workspace = state
		return out

	default:
		return failure(400, "unknown action: "+req.Action)
	}
}

// overlay decodes raw over the defaults already held in v.
func overlay(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func outcome(success bool, result any, errs []string) LambdaResponse {
	out := LambdaResponse{StatusCode: 200, Success: success, Result: result, Errors: errs}
	if !success {
		out.StatusCode = 422
	}
	return out
}

func failure(status int, msg string) LambdaResponse {
	return LambdaResponse{StatusCode: status, Errors: []string{msg}}
}

func wrap(out LambdaResponse) APIGatewayResponse {
	bodyBytes, _ := json.Marshal(out)
	return APIGatewayResponse{
		StatusCode: out.StatusCode,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(bodyBytes),
	}
}

func newServer(cfg *config.Config, m *metrics.Metrics) (*server, error) {
	opts := pipeline.DefaultOptions()
	opts.Logger = logger.New(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Writer: os.Stdout})
	opts.Metrics = m
	opts.ExportProvider = cfg.Export.Provider
	p := pipeline.New(opts)
	if cfg.Library.Builtins {
		if err := p.LoadLibrary(); err != nil {
			return nil, err
		}
	}
	if err := p.LoadPaths(cfg.Library.Paths...); err != nil {
		return nil, err
	}
	return &server{pipeline: p, deployOpts: cfg.DeployOptions(), batchOpts: cfg.BatchOptions()}, nil
}

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	s, err := newServer(cfg, metrics.New(prometheus.DefaultRegisterer))
	if err != nil {
		log.Fatalf("library: %v", err)
	}
	lambda.Start(s.handler)
}
