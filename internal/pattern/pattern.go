// Package pattern defines the concrete infrastructure pattern model: component
// references, relationships, parameters and the runtime context used to expand
// templates into patterns.
package pattern

import "time"

// Position holds x,y coordinates on the canvas.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Category classifies a pattern for browsing.
type Category string

const (
	CategoryWebApplication  Category = "web-application"
	CategoryMicroservices   Category = "microservices"
	CategoryDataPipeline    Category = "data-pipeline"
	CategoryServerless      Category = "serverless"
	CategoryNetworking      Category = "networking"
	CategorySecurity        Category = "security"
	CategoryMachineLearning Category = "machine-learning"
	CategoryIoT             Category = "iot"
	CategoryDevOps          Category = "devops"
	CategoryStorage         Category = "storage"
	CategoryGeneral         Category = "general"
)

// Complexity is a rough indication of how involved a pattern is.
type Complexity string

const (
	ComplexitySimple     Complexity = "simple"
	ComplexityModerate   Complexity = "moderate"
	ComplexityComplex    Complexity = "complex"
	ComplexityEnterprise Complexity = "enterprise"
)

// Status is the publication state of a pattern.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusPublished  Status = "published"
	StatusDeprecated Status = "deprecated"
)

// RelationshipType is the kind of edge between two component instances.
type RelationshipType string

const (
	RelationshipNetwork     RelationshipType = "network-connection"
	RelationshipDataFlow    RelationshipType = "data-flow"
	RelationshipDependency  RelationshipType = "dependency"
	RelationshipContainment RelationshipType = "containment"
	RelationshipLoadBalance RelationshipType = "load-balance"
	RelationshipReplication RelationshipType = "replication"
	RelationshipBackup      RelationshipType = "backup"
)

// Valid reports whether t is one of the known relationship types.
func (t RelationshipType) Valid() bool {
	switch t {
	case RelationshipNetwork, RelationshipDataFlow, RelationshipDependency, RelationshipContainment,
		RelationshipLoadBalance, RelationshipReplication, RelationshipBackup:
		return true
	}
	return false
}

// ComponentReference is one instantiated catalog component within a pattern.
type ComponentReference struct {
	ComponentID   string     `json:"componentId" yaml:"componentId"`
	InstanceID    string     `json:"instanceId" yaml:"instanceId"`
	DisplayName   string     `json:"displayName" yaml:"displayName"`
	Position      Position   `json:"position" yaml:"position"`
	Configuration Properties `json:"configuration,omitempty" yaml:"configuration,omitempty"`
	Required      bool       `json:"required" yaml:"required"`
	Dependencies  []string   `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Metadata      Properties `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// SecurityPolicy is the structured security part of a relationship configuration.
type SecurityPolicy struct {
	Encryption     bool     `json:"encryption" yaml:"encryption"`
	Authentication string   `json:"authentication,omitempty" yaml:"authentication,omitempty"`
	AllowedCIDRs   []string `json:"allowedCidrs,omitempty" yaml:"allowedCidrs,omitempty"`
}

// RelationshipConfig configures an edge.
type RelationshipConfig struct {
	Bidirectional bool            `json:"bidirectional" yaml:"bidirectional"`
	Protocols     []string        `json:"protocols,omitempty" yaml:"protocols,omitempty"`
	Ports         []int           `json:"ports,omitempty" yaml:"ports,omitempty"`
	Security      *SecurityPolicy `json:"security,omitempty" yaml:"security,omitempty"`
	Properties    Properties      `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// ComponentRelationship is a typed edge between two component instances.
type ComponentRelationship struct {
	ID             string             `json:"id" yaml:"id"`
	FromInstanceID string             `json:"fromInstanceId" yaml:"fromInstanceId"`
	ToInstanceID   string             `json:"toInstanceId" yaml:"toInstanceId"`
	Type           RelationshipType   `json:"relationshipType" yaml:"relationshipType"`
	Configuration  RelationshipConfig `json:"configuration" yaml:"configuration"`
	Metadata       Properties         `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// ParameterType is the declared type of a pattern parameter.
type ParameterType string

const (
	ParamString      ParameterType = "string"
	ParamNumber      ParameterType = "number"
	ParamBoolean     ParameterType = "boolean"
	ParamSelect      ParameterType = "select"
	ParamMultiselect ParameterType = "multiselect"
)

// ParameterOption is one allowed value of a select or multiselect parameter.
type ParameterOption struct {
	Value any    `json:"value" yaml:"value"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

// ParameterValidation bounds a parameter value. Min and Max apply to numbers
// and to string length.
type ParameterValidation struct {
	Min     *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max     *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Pattern string   `json:"pattern,omitempty" yaml:"pattern,omitempty"`
}

// PatternParameter is a named, typed input controlling generated values.
type PatternParameter struct {
	ID           string               `json:"id" yaml:"id"`
	Name         string               `json:"name" yaml:"name"`
	Description  string               `json:"description,omitempty" yaml:"description,omitempty"`
	Type         ParameterType        `json:"type" yaml:"type"`
	Required     bool                 `json:"required" yaml:"required"`
	DefaultValue any                  `json:"defaultValue,omitempty" yaml:"defaultValue,omitempty"`
	Options      []ParameterOption    `json:"options,omitempty" yaml:"options,omitempty"`
	Validation   *ParameterValidation `json:"validation,omitempty" yaml:"validation,omitempty"`
	// Affects lists instance ids influenced by the parameter. Informational only.
	Affects []string `json:"affects,omitempty" yaml:"affects,omitempty"`
}

// Documentation is descriptive material shown next to a pattern.
type Documentation struct {
	Overview      string   `json:"overview,omitempty" yaml:"overview,omitempty"`
	Architecture  string   `json:"architecture,omitempty" yaml:"architecture,omitempty"`
	UseCases      []string `json:"useCases,omitempty" yaml:"useCases,omitempty"`
	Prerequisites []string `json:"prerequisites,omitempty" yaml:"prerequisites,omitempty"`
}

// CostEstimate is a rough monthly cost range.
type CostEstimate struct {
	MonthlyMin float64 `json:"monthlyMin" yaml:"monthlyMin"`
	MonthlyMax float64 `json:"monthlyMax" yaml:"monthlyMax"`
	Currency   string  `json:"currency" yaml:"currency"`
}

// Pattern is a concrete, fully-resolved infrastructure blueprint.
type Pattern struct {
	ID            string                  `json:"id" yaml:"id"`
	Name          string                  `json:"name" yaml:"name"`
	Description   string                  `json:"description" yaml:"description"`
	Version       string                  `json:"version" yaml:"version"`
	Category      Category                `json:"category" yaml:"category"`
	Complexity    Complexity              `json:"complexity" yaml:"complexity"`
	Status        Status                  `json:"status" yaml:"status"`
	Providers     []string                `json:"providers,omitempty" yaml:"providers,omitempty"`
	Tags          []string                `json:"tags,omitempty" yaml:"tags,omitempty"`
	Author        string                  `json:"author,omitempty" yaml:"author,omitempty"`
	Components    []ComponentReference    `json:"components" yaml:"components"`
	Relationships []ComponentRelationship `json:"relationships" yaml:"relationships"`
	Parameters    []PatternParameter      `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Documentation Documentation           `json:"documentation" yaml:"documentation"`
	Cost          *CostEstimate           `json:"cost,omitempty" yaml:"cost,omitempty"`
	Rating        float64                 `json:"rating" yaml:"rating"`
	DownloadCount int                     `json:"downloadCount" yaml:"downloadCount"`
	Metadata      Properties              `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	CreatedAt     time.Time               `json:"createdAt" yaml:"createdAt"`
	UpdatedAt     time.Time               `json:"updatedAt" yaml:"updatedAt"`
}

// Context is the runtime input to template expansion.
type Context struct {
	Parameters  map[string]any    `json:"parameters" yaml:"parameters"`
	Provider    string            `json:"provider" yaml:"provider"`
	Region      string            `json:"region,omitempty" yaml:"region,omitempty"`
	Environment string            `json:"environment,omitempty" yaml:"environment,omitempty"`
	ProjectName string            `json:"projectName,omitempty" yaml:"projectName,omitempty"`
	Tags        map[string]string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Param returns the named context parameter. A nil context has no parameters.
func (c *Context) Param(name string) (any, bool) {
	if c == nil || c.Parameters == nil {
		return nil, false
	}
	v, ok := c.Parameters[name]
	return v, ok
}

// ComponentByInstance returns the component with the given instance id, or nil.
func (p *Pattern) ComponentByInstance(instanceID string) *ComponentReference {
	for i := range p.Components {
		if p.Components[i].InstanceID == instanceID {
			return &p.Components[i]
		}
	}
	return nil
}

// RelationshipsFor returns relationships touching the given instance on either end.
func (p *Pattern) RelationshipsFor(instanceID string) []ComponentRelationship {
	var out []ComponentRelationship
	for _, r := range p.Relationships {
		if r.FromInstanceID == instanceID || r.ToInstanceID == instanceID {
			out = append(out, r)
		}
	}
	return out
}

// HasProvider reports whether the pattern declares the given provider.
func (p *Pattern) HasProvider(provider string) bool {
	for _, pr := range p.Providers {
		if pr == provider {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the pattern.
func (p *Pattern) Clone() *Pattern {
	if p == nil {
		return nil
	}
	out := *p
	out.Providers = cloneStrings(p.Providers)
	out.Tags = cloneStrings(p.Tags)
	out.Metadata = p.Metadata.Clone()
	if p.Cost != nil {
		c := *p.Cost
		out.Cost = &c
	}
	out.Documentation.UseCases = cloneStrings(p.Documentation.UseCases)
	out.Documentation.Prerequisites = cloneStrings(p.Documentation.Prerequisites)

	if p.Components != nil {
		out.Components = make([]ComponentReference, len(p.Components))
		for i, c := range p.Components {
			out.Components[i] = c.Clone()
		}
	}
	if p.Relationships != nil {
		out.Relationships = make([]ComponentRelationship, len(p.Relationships))
		for i, r := range p.Relationships {
			out.Relationships[i] = r.Clone()
		}
	}
	if p.Parameters != nil {
		out.Parameters = make([]PatternParameter, len(p.Parameters))
		for i, prm := range p.Parameters {
			out.Parameters[i] = prm.Clone()
		}
	}
	return &out
}

// Clone returns a deep copy of the component reference.
func (c ComponentReference) Clone() ComponentReference {
	c.Configuration = c.Configuration.Clone()
	c.Metadata = c.Metadata.Clone()
	c.Dependencies = cloneStrings(c.Dependencies)
	return c
}

// Clone returns a deep copy of the relationship.
func (r ComponentRelationship) Clone() ComponentRelationship {
	r.Metadata = r.Metadata.Clone()
	r.Configuration.Protocols = cloneStrings(r.Configuration.Protocols)
	if r.Configuration.Ports != nil {
		r.Configuration.Ports = append([]int(nil), r.Configuration.Ports...)
	}
	if r.Configuration.Security != nil {
		s := *r.Configuration.Security
		s.AllowedCIDRs = cloneStrings(s.AllowedCIDRs)
		r.Configuration.Security = &s
	}
	r.Configuration.Properties = r.Configuration.Properties.Clone()
	return r
}

// Clone returns a deep copy of the parameter.
func (p PatternParameter) Clone() PatternParameter {
	p.DefaultValue = CloneValue(p.DefaultValue)
	if p.Options != nil {
		opts := make([]ParameterOption, len(p.Options))
		for i, o := range p.Options {
			opts[i] = ParameterOption{Value: CloneValue(o.Value), Label: o.Label}
		}
		p.Options = opts
	}
	if p.Validation != nil {
		v := *p.Validation
		p.Validation = &v
	}
	p.Affects = cloneStrings(p.Affects)
	return p
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}
