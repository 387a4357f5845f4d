// Package library ships the built-in patterns and templates and decodes
// user-supplied pattern, template and workspace files.
package library

import (
	"time"

	"github.com/canvas-infra/patterns/internal/pattern"
)

const author = "canvas-infra"

// published is the creation date stamped on every built-in.
var published = time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)

var allProviders = []string{"aws", "azure", "gcp"}

// Patterns returns fresh copies of the built-in patterns.
func Patterns() []*pattern.Pattern {
	return []*pattern.Pattern{
		ThreeTierWebApp(),
		ServerlessAPI(),
		StaticWebsite(),
	}
}

// ThreeTierWebApp is a load balanced application tier in front of a
// relational database.
func ThreeTierWebApp() *pattern.Pattern {
	return &pattern.Pattern{
		ID:          "three-tier-web-app",
		Name:        "Three-Tier Web Application",
		Description: "Load balancer, application servers and a managed relational database",
		Version:     "1.0.0",
		Category:    pattern.CategoryWebApplication,
		Complexity:  pattern.ComplexityModerate,
		Status:      pattern.StatusPublished,
		Providers:   append([]string(nil), allProviders...),
		Tags:        []string{"web", "database", "load-balancer", "classic"},
		Author:      author,
		Components: []pattern.ComponentReference{
			{
				ComponentID: "load-balancer", InstanceID: "web-lb", DisplayName: "Web Load Balancer",
				Position: pattern.Position{X: 300, Y: 50}, Required: true,
				Configuration: pattern.Properties{"scheme": "internet-facing", "port": 443.0},
				Dependencies:  []string{"app-server"},
			},
			{
				ComponentID: "compute-instance", InstanceID: "app-server", DisplayName: "Application Server",
				Position: pattern.Position{X: 300, Y: 200}, Required: true,
				Configuration: pattern.Properties{"instance_type": "t3.medium", "count": 2.0},
				Dependencies:  []string{"app-db"},
			},
			{
				ComponentID: "relational-database", InstanceID: "app-db", DisplayName: "Application Database",
				Position: pattern.Position{X: 300, Y: 350}, Required: true,
				Configuration: pattern.Properties{"engine": "postgres", "instance_class": "db.t3.medium", "allocated_storage": 50.0},
			},
			{
				ComponentID: "security-group", InstanceID: "app-sg", DisplayName: "Application Firewall",
				Position: pattern.Position{X: 550, Y: 200},
				Configuration: pattern.Properties{"ingress_ports": []any{443.0, 5432.0}},
			},
		},
		Relationships: []pattern.ComponentRelationship{
			{
				ID: "lb-to-app", FromInstanceID: "web-lb", ToInstanceID: "app-server", Type: pattern.RelationshipLoadBalance,
				Configuration: pattern.RelationshipConfig{Protocols: []string{"HTTPS"}, Ports: []int{443}},
			},
			{
				ID: "app-to-db", FromInstanceID: "app-server", ToInstanceID: "app-db", Type: pattern.RelationshipDataFlow,
				Configuration: pattern.RelationshipConfig{
					Protocols: []string{"TCP"}, Ports: []int{5432},
					Security: &pattern.SecurityPolicy{Encryption: true, Authentication: "password"},
				},
			},
			{
				ID: "sg-guards-app", FromInstanceID: "app-sg", ToInstanceID: "app-server", Type: pattern.RelationshipNetwork,
			},
		},
		Documentation: pattern.Documentation{
			Overview:      "A classic three-tier layout separating presentation, application and data.",
			Architecture:  "Traffic enters through the load balancer, is served by the application tier and persisted in the database.",
			UseCases:      []string{"Line-of-business web applications", "Content management systems"},
			Prerequisites: []string{"A virtual network with public and private subnets"},
		},
		Cost:      &pattern.CostEstimate{MonthlyMin: 120, MonthlyMax: 450, Currency: "USD"},
		Rating:    4.6,
		CreatedAt: published,
		UpdatedAt: published,
	}
}

// ServerlessAPI is an API gateway fronting a function backed by a NoSQL table.
func ServerlessAPI() *pattern.Pattern {
	return &pattern.Pattern{
		ID:          "serverless-api",
		Name:        "Serverless REST API",
		Description: "API gateway routing requests to functions that persist into a NoSQL table",
		Version:     "1.0.0",
		Category:    pattern.CategoryServerless,
		Complexity:  pattern.ComplexitySimple,
		Status:      pattern.StatusPublished,
		Providers:   append([]string(nil), allProviders...),
		Tags:        []string{"serverless", "api", "nosql"},
		Author:      author,
		Components: []pattern.ComponentReference{
			{
				ComponentID: "api-gateway", InstanceID: "api", DisplayName: "Public API",
				Position: pattern.Position{X: 100, Y: 150}, Required: true,
				Configuration: pattern.Properties{"protocol": "HTTP", "stage": "v1"},
				Dependencies:  []string{"handler"},
			},
			{
				ComponentID: "serverless-function", InstanceID: "handler", DisplayName: "Request Handler",
				Position: pattern.Position{X: 300, Y: 150}, Required: true,
				Configuration: pattern.Properties{"runtime": "nodejs20.x", "handler": "index.handler", "memory_size": 256.0},
				Dependencies:  []string{"items"},
			},
			{
				ComponentID: "nosql-database", InstanceID: "items", DisplayName: "Items Table",
				Position: pattern.Position{X: 500, Y: 150}, Required: true,
				Configuration: pattern.Properties{"billing_mode": "PAY_PER_REQUEST", "hash_key": "id"},
			},
			{
				ComponentID: "monitoring", InstanceID: "api-monitoring", DisplayName: "API Monitoring",
				Position: pattern.Position{X: 300, Y: 300},
				Configuration: pattern.Properties{"retention_days": 14.0},
			},
		},
		Relationships: []pattern.ComponentRelationship{
			{ID: "api-to-handler", FromInstanceID: "api", ToInstanceID: "handler", Type: pattern.RelationshipNetwork,
				Configuration: pattern.RelationshipConfig{Protocols: []string{"HTTPS"}}},
			{ID: "handler-to-items", FromInstanceID: "handler", ToInstanceID: "items", Type: pattern.RelationshipDataFlow},
			{ID: "monitoring-watches-handler", FromInstanceID: "api-monitoring", ToInstanceID: "handler", Type: pattern.RelationshipDependency},
		},
		Documentation: pattern.Documentation{
			Overview: "Pay-per-request HTTP API without servers to manage.",
			UseCases: []string{"Mobile backends", "Webhooks", "Internal microservices"},
		},
		Cost:      &pattern.CostEstimate{MonthlyMin: 5, MonthlyMax: 80, Currency: "USD"},
		Rating:    4.8,
		CreatedAt: published,
		UpdatedAt: published,
	}
}

// StaticWebsite serves an object storage bucket through a CDN under a DNS zone.
func StaticWebsite() *pattern.Pattern {
	return &pattern.Pattern{
		ID:          "static-website",
		Name:        "Static Website",
		Description: "Static assets in object storage delivered through a CDN with a custom domain",
		Version:     "1.0.0",
		Category:    pattern.CategoryStorage,
		Complexity:  pattern.ComplexitySimple,
		Status:      pattern.StatusPublished,
		Providers:   append([]string(nil), allProviders...),
		Tags:        []string{"static", "cdn", "website"},
		Author:      author,
		Components: []pattern.ComponentReference{
			{
				ComponentID: "dns-zone", InstanceID: "site-dns", DisplayName: "Site Domain",
				Position: pattern.Position{X: 100, Y: 100}, Required: true,
				Configuration: pattern.Properties{"domain": "example.com"},
				Dependencies:  []string{"site-cdn"},
			},
			{
				ComponentID: "cdn", InstanceID: "site-cdn", DisplayName: "Edge Cache",
				Position: pattern.Position{X: 300, Y: 100}, Required: true,
				Configuration: pattern.Properties{"default_ttl": 3600.0},
				Dependencies:  []string{"site-bucket"},
			},
			{
				ComponentID: "object-storage", InstanceID: "site-bucket", DisplayName: "Site Assets",
				Position: pattern.Position{X: 500, Y: 100}, Required: true,
				Configuration: pattern.Properties{"website": true, "index_document": "index.html"},
			},
		},
		Relationships: []pattern.ComponentRelationship{
			{ID: "dns-to-cdn", FromInstanceID: "site-dns", ToInstanceID: "site-cdn", Type: pattern.RelationshipNetwork},
			{ID: "cdn-to-bucket", FromInstanceID: "site-cdn", ToInstanceID: "site-bucket", Type: pattern.RelationshipDataFlow,
				Configuration: pattern.RelationshipConfig{Protocols: []string{"HTTPS"}, Security: &pattern.SecurityPolicy{Encryption: true}}},
		},
		Documentation: pattern.Documentation{
			Overview: "Cheap, globally cached hosting for static sites and single page applications.",
			UseCases: []string{"Marketing sites", "Documentation", "Single page applications"},
		},
		Cost:      &pattern.CostEstimate{MonthlyMin: 1, MonthlyMax: 25, Currency: "USD"},
		Rating:    4.5,
		CreatedAt: published,
		UpdatedAt: published,
	}
}
