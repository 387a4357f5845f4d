package library

import (
	"github.com/canvas-infra/patterns/internal/pattern"
	"github.com/canvas-infra/patterns/internal/resolve"
	"github.com/canvas-infra/patterns/internal/template"
)

// Templates returns fresh copies of the built-in templates.
func Templates() []template.Template {
	return []template.Template{
		WebApplication(),
		DataPipeline(),
	}
}

func bound(f float64) *float64 { return &f }

// WebApplication generates a load balanced application with a database and
// optional monitoring.
func WebApplication() template.Template {
	prod := resolve.Eq("environment", "prod")
	return template.Template{
		ID:          "web-application",
		Name:        "Web Application",
		Description: "Load balanced application servers with a relational database and optional monitoring",
		Version:     "1.0.0",
		Category:    pattern.CategoryWebApplication,
		Complexity:  pattern.ComplexityModerate,
		Tags:        []string{"web", "database"},
		Author:      author,
		Parameters: []pattern.PatternParameter{
			{
				ID: "project_name", Name: "Project name", Type: pattern.ParamString, Required: true,
				Description: "Lowercase name used to prefix every instance id",
				Validation:  &pattern.ParameterValidation{Min: bound(2), Max: bound(32), Pattern: `^[a-z][a-z0-9-]*$`},
				Affects:     []string{"{{project_name}}-lb", "{{project_name}}-app", "{{project_name}}-db"},
			},
			{
				ID: "instance_count", Name: "Application instances", Type: pattern.ParamNumber, DefaultValue: 2.0,
				Validation: &pattern.ParameterValidation{Min: bound(1), Max: bound(20)},
			},
			{ID: "enable_monitoring", Name: "Enable monitoring", Type: pattern.ParamBoolean, DefaultValue: false},
			{
				ID: "environment", Name: "Environment", Type: pattern.ParamSelect, DefaultValue: "dev",
				Options: []pattern.ParameterOption{
					{Value: "dev", Label: "Development"},
					{Value: "staging", Label: "Staging"},
					{Value: "prod", Label: "Production"},
				},
			},
			{
				ID: "db_engine", Name: "Database engine", Type: pattern.ParamSelect, DefaultValue: "postgres",
				Options: []pattern.ParameterOption{{Value: "postgres"}, {Value: "mysql"}},
			},
		},
		ComponentTemplates: []template.ComponentTemplate{
			{
				ComponentID: "load-balancer", InstanceID: "{{project_name}}-lb", DisplayName: "{{project_name}} load balancer",
				Position: template.PositionTemplate{X: 300.0, Y: 50.0}, Required: true,
				Dependencies: []any{"{{project_name}}-app"},
			},
			{
				ComponentID: "compute-instance", InstanceID: "{{project_name}}-app", DisplayName: "{{project_name}} application",
				Position: template.PositionTemplate{X: 300.0, Y: 200.0}, Required: true,
				Configuration: map[string]any{
					"count":         resolve.Ref("instance_count").With("round", nil),
					"instance_type": resolve.If(prod, "m5.large", "t3.micro"),
					"environment":   resolve.Ref("environment"),
				},
				Dependencies: []any{"{{project_name}}-db"},
			},
			{
				ComponentID: "relational-database", InstanceID: "{{project_name}}-db", DisplayName: "{{project_name}} database",
				Position: template.PositionTemplate{X: 300.0, Y: 350.0}, Required: true,
				Configuration: map[string]any{
					"engine":   resolve.Ref("db_engine"),
					"multi_az": resolve.If(prod, true, false),
					"name":     resolve.Ref("project_name").With("snake-case", nil),
				},
			},
			{
				ComponentID: "monitoring", InstanceID: "{{project_name}}-monitoring", DisplayName: "{{project_name}} monitoring",
				Position:      template.PositionTemplate{X: 550.0, Y: 200.0},
				Configuration: map[string]any{"retention_days": resolve.If(prod, 90.0, 14.0)},
				Conditional:   resolve.When(resolve.IsTrue("enable_monitoring")),
			},
		},
		RelationshipTemplates: []template.RelationshipTemplate{
			{FromInstanceID: "{{project_name}}-lb", ToInstanceID: "{{project_name}}-app", Type: pattern.RelationshipLoadBalance},
			{FromInstanceID: "{{project_name}}-app", ToInstanceID: "{{project_name}}-db", Type: pattern.RelationshipDataFlow,
				Configuration: pattern.RelationshipConfig{Security: &pattern.SecurityPolicy{Encryption: true}}},
			{FromInstanceID: "{{project_name}}-monitoring", ToInstanceID: "{{project_name}}-app", Type: pattern.RelationshipDependency,
				Conditional: resolve.When(resolve.IsTrue("enable_monitoring"))},
		},
		ConditionalLogic: []template.ConditionalRule{
			{
				ID:          "prod-cache",
				Description: "Production deployments get a cache in front of the database",
				Condition:   resolve.Condition{Expr: prod},
				Actions: []template.TemplateAction{
					{Type: template.ActionAddComponent, Component: &template.ComponentTemplate{
						ComponentID: "cache", InstanceID: "{{project_name}}-cache", DisplayName: "{{project_name}} cache",
						Position: template.PositionTemplate{X: 550.0, Y: 350.0},
					}},
					{Type: template.ActionAddRelationship, Relationship: &template.RelationshipTemplate{
						FromInstanceID: "{{project_name}}-app", ToInstanceID: "{{project_name}}-cache", Type: pattern.RelationshipDataFlow,
					}},
					{Type: template.ActionModifyConfiguration, Target: "{{project_name}}-db",
						Configuration: map[string]any{"backup_retention_days": 30.0}},
				},
			},
		},
		CreatedAt: published,
		UpdatedAt: published,
	}
}

// DataPipeline generates an ingestion pipeline landing data in object
// storage and, optionally, a warehouse.
func DataPipeline() template.Template {
	stream := resolve.Eq("source", "stream")
	return template.Template{
		ID:          "data-pipeline",
		Name:        "Data Pipeline",
		Description: "Queue or stream ingestion processed by functions into storage and an optional warehouse",
		Version:     "1.0.0",
		Category:    pattern.CategoryDataPipeline,
		Complexity:  pattern.ComplexityComplex,
		Tags:        []string{"data", "etl", "analytics"},
		Author:      author,
		Parameters: []pattern.PatternParameter{
			{ID: "project_name", Name: "Project name", Type: pattern.ParamString, Required: true,
				Validation: &pattern.ParameterValidation{Pattern: `^[a-z][a-z0-9-]*$`}},
			{
				ID: "source", Name: "Ingestion source", Type: pattern.ParamSelect, DefaultValue: "queue",
				Options: []pattern.ParameterOption{{Value: "queue", Label: "Message queue"}, {Value: "stream", Label: "Event stream"}},
			},
			{ID: "retention_days", Name: "Raw data retention", Type: pattern.ParamNumber, DefaultValue: 30.0,
				Validation: &pattern.ParameterValidation{Min: bound(1), Max: bound(3650)}},
			{ID: "enable_warehouse", Name: "Load into a warehouse", Type: pattern.ParamBoolean, DefaultValue: true},
		},
		ComponentTemplates: []template.ComponentTemplate{
			{
				ComponentID: resolve.If(stream, "event-stream", "message-queue"),
				InstanceID:  "{{project_name}}-ingest", DisplayName: "{{project_name}} ingestion",
				Position: template.PositionTemplate{X: 100.0, Y: 150.0}, Required: true,
			},
			{
				ComponentID: "serverless-function", InstanceID: "{{project_name}}-processor", DisplayName: "{{project_name}} processor",
				Position: template.PositionTemplate{X: 300.0, Y: 150.0}, Required: true,
				Configuration: map[string]any{"runtime": "python3.12", "handler": "pipeline.handle"},
				Dependencies:  []any{"{{project_name}}-ingest", "{{project_name}}-raw"},
			},
			{
				ComponentID: "object-storage", InstanceID: "{{project_name}}-raw", DisplayName: "{{project_name}} raw data",
				Position: template.PositionTemplate{X: 500.0, Y: 150.0}, Required: true,
				Configuration: map[string]any{"expiration_days": resolve.Ref("retention_days")},
			},
			{
				ComponentID: "data-warehouse", InstanceID: "{{project_name}}-warehouse", DisplayName: "{{project_name}} warehouse",
				Position:    template.PositionTemplate{X: 700.0, Y: 150.0},
				Conditional: resolve.When(resolve.IsTrue("enable_warehouse")),
			},
		},
		RelationshipTemplates: []template.RelationshipTemplate{
			{FromInstanceID: "{{project_name}}-ingest", ToInstanceID: "{{project_name}}-processor", Type: pattern.RelationshipDataFlow},
			{FromInstanceID: "{{project_name}}-processor", ToInstanceID: "{{project_name}}-raw", Type: pattern.RelationshipDataFlow},
			{FromInstanceID: "{{project_name}}-raw", ToInstanceID: "{{project_name}}-warehouse", Type: pattern.RelationshipDataFlow},
		},
		ConditionalLogic: []template.ConditionalRule{
			{
				ID:        "stream-shards",
				Condition: resolve.Condition{Expr: stream},
				Actions: []template.TemplateAction{
					{Type: template.ActionModifyConfiguration, Target: "{{project_name}}-ingest",
						Configuration: map[string]any{"shard_count": 2.0}},
				},
			},
		},
		CreatedAt: published,
		UpdatedAt: published,
	}
}
