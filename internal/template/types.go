package template

import (
	"time"

	"github.com/canvas-infra/patterns/internal/pattern"
	"github.com/canvas-infra/patterns/internal/resolve"
)

// ActionType is the kind of structural change a conditional rule applies.
type ActionType string

const (
	ActionAddComponent        ActionType = "add_component"
	ActionRemoveComponent     ActionType = "remove_component"
	ActionAddRelationship     ActionType = "add_relationship"
	ActionModifyConfiguration ActionType = "modify_configuration"
)

// PositionTemplate is a position whose coordinates may be parameterized.
type PositionTemplate struct {
	X any `json:"x" yaml:"x"`
	Y any `json:"y" yaml:"y"`
}

// ComponentTemplate is an unresolved component. Every field typed any may
// hold a literal, a resolve.ParamRef, a resolve.Conditional or the decoded
// map form of either.
type ComponentTemplate struct {
	ComponentID   any                `json:"componentId" yaml:"componentId"`
	InstanceID    any                `json:"instanceId" yaml:"instanceId"`
	DisplayName   any                `json:"displayName" yaml:"displayName"`
	Position      PositionTemplate   `json:"position" yaml:"position"`
	Configuration map[string]any     `json:"configuration,omitempty" yaml:"configuration,omitempty"`
	Required      bool               `json:"required" yaml:"required"`
	Dependencies  []any              `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Metadata      pattern.Properties `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	// Conditional skips the component entirely when it evaluates false.
	Conditional *resolve.Condition `json:"conditional,omitempty" yaml:"conditional,omitempty"`
}

// RelationshipTemplate is an unresolved relationship.
type RelationshipTemplate struct {
	ID             any                        `json:"id" yaml:"id"`
	FromInstanceID any                        `json:"fromInstanceId" yaml:"fromInstanceId"`
	ToInstanceID   any                        `json:"toInstanceId" yaml:"toInstanceId"`
	Type           pattern.RelationshipType   `json:"relationshipType" yaml:"relationshipType"`
	Configuration  pattern.RelationshipConfig `json:"configuration" yaml:"configuration"`
	Metadata       pattern.Properties         `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Conditional    *resolve.Condition         `json:"conditional,omitempty" yaml:"conditional,omitempty"`
}

// TemplateAction is one structural change of a conditional rule. Target
// names the instance for remove_component and modify_configuration.
type TemplateAction struct {
	Type          ActionType            `json:"type" yaml:"type"`
	Target        string                `json:"target,omitempty" yaml:"target,omitempty"`
	Component     *ComponentTemplate    `json:"component,omitempty" yaml:"component,omitempty"`
	Relationship  *RelationshipTemplate `json:"relationship,omitempty" yaml:"relationship,omitempty"`
	Configuration map[string]any        `json:"configuration,omitempty" yaml:"configuration,omitempty"`
}

// ConditionalRule applies its actions when the condition holds.
type ConditionalRule struct {
	ID          string            `json:"id" yaml:"id"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Condition   resolve.Condition `json:"condition" yaml:"condition"`
	Actions     []TemplateAction  `json:"actions" yaml:"actions"`
}

// Template is the parameterized, unresolved form of a pattern.
type Template struct {
	ID                    string                     `json:"id" yaml:"id"`
	Name                  string                     `json:"name" yaml:"name"`
	Description           string                     `json:"description" yaml:"description"`
	Version               string                     `json:"version" yaml:"version"`
	Category              pattern.Category           `json:"category" yaml:"category"`
	Complexity            pattern.Complexity         `json:"complexity" yaml:"complexity"`
	Tags                  []string                   `json:"tags,omitempty" yaml:"tags,omitempty"`
	Author                string                     `json:"author,omitempty" yaml:"author,omitempty"`
	Parameters            []pattern.PatternParameter `json:"parameters" yaml:"parameters"`
	ComponentTemplates    []ComponentTemplate        `json:"componentTemplates" yaml:"componentTemplates"`
	RelationshipTemplates []RelationshipTemplate     `json:"relationshipTemplates" yaml:"relationshipTemplates"`
	ConditionalLogic      []ConditionalRule          `json:"conditionalLogic,omitempty" yaml:"conditionalLogic,omitempty"`
	CreatedAt             time.Time                  `json:"createdAt" yaml:"createdAt"`
	UpdatedAt             time.Time                  `json:"updatedAt" yaml:"updatedAt"`
}

// Parameter returns the declared parameter with the given id.
func (t *Template) Parameter(id string) (pattern.PatternParameter, bool) {
	for _, p := range t.Parameters {
		if p.ID == id {
			return p, true
		}
	}
	return pattern.PatternParameter{}, false
}

// Summary is the listing form of a template.
type Summary struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Category    pattern.Category `json:"category"`
	Parameters  int              `json:"parameters"`
	Components  int              `json:"components"`
}
