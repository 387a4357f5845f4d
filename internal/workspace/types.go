// Package workspace places concrete patterns into a canvas workspace:
// conflict detection, parameter overrides, layout and connection checks.
package workspace

import (
	"github.com/canvas-infra/patterns/internal/layout"
	"github.com/canvas-infra/patterns/internal/pattern"
)

// Component is a placed canvas component.
type Component struct {
	ID            string             `json:"id" yaml:"id"`
	Type          string             `json:"type" yaml:"type"`
	Name          string             `json:"name" yaml:"name"`
	Position      pattern.Position   `json:"position" yaml:"position"`
	Configuration pattern.Properties `json:"configuration,omitempty" yaml:"configuration,omitempty"`
	// Connections lists the ids of connected workspace components.
	Connections []string           `json:"connections,omitempty" yaml:"connections,omitempty"`
	Metadata    pattern.Properties `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Connection is a canvas connector between two workspace components.
type Connection struct {
	ID            string                   `json:"id" yaml:"id"`
	From          string                   `json:"from" yaml:"from"`
	To            string                   `json:"to" yaml:"to"`
	Type          pattern.RelationshipType `json:"type" yaml:"type"`
	Bidirectional bool                     `json:"bidirectional" yaml:"bidirectional"`
}

// State is the current workspace document. Deployments only append to it.
type State struct {
	Components  []Component        `json:"components" yaml:"components"`
	Connections []Connection       `json:"connections" yaml:"connections"`
	Metadata    pattern.Properties `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Component returns the component with the given id, or nil.
func (s *State) Component(id string) *Component {
	for i := range s.Components {
		if s.Components[i].ID == id {
			return &s.Components[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := &State{Metadata: s.Metadata.Clone()}
	if s.Components != nil {
		out.Components = make([]Component, len(s.Components))
		for i, c := range s.Components {
			out.Components[i] = c.clone()
		}
	}
	if s.Connections != nil {
		out.Connections = append([]Connection(nil), s.Connections...)
	}
	return out
}

// Restore replaces the state contents with a copy of snapshot.
func (s *State) Restore(snapshot *State) {
	*s = *snapshot.Clone()
}

// apply appends deployed components and connections and records each
// connection on its endpoints.
func (s *State) apply(components []Component, connections []Connection) {
	start := len(s.Components)
	for _, c := range components {
		s.Components = append(s.Components, c.clone())
	}
	added := s.Components[start:]
	find := func(id string) *Component {
		for i := range added {
			if added[i].ID == id {
				return &added[i]
			}
		}
		return s.Component(id)
	}
	for _, conn := range connections {
		s.Connections = append(s.Connections, conn)
		if from := find(conn.From); from != nil {
			from.Connections = appendUnique(from.Connections, conn.To)
		}
		if conn.Bidirectional {
			if to := find(conn.To); to != nil {
				to.Connections = appendUnique(to.Connections, conn.From)
			}
		}
	}
}

func (c Component) clone() Component {
	c.Configuration = c.Configuration.Clone()
	c.Metadata = c.Metadata.Clone()
	if c.Connections != nil {
		c.Connections = append([]string(nil), c.Connections...)
	}
	return c
}

func appendUnique(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}

// NamingStrategy decides workspace ids for deployed components.
type NamingStrategy string

const (
	// NamingPreserve uses the instance id as is.
	NamingPreserve NamingStrategy = "preserve"
	// NamingPrefix prepends DeployOptions.Prefix, or the pattern id.
	NamingPrefix NamingStrategy = "prefix"
	// NamingIncrement appends -1, -2, ... until the id is free.
	NamingIncrement NamingStrategy = "increment"
)

// Stage is a step of the deployment state machine.
type Stage string

const (
	StagePreparing            Stage = "preparing"
	StageValidating           Stage = "validating"
	StageConflictDetection    Stage = "conflict-detection"
	StageParameterOverrides   Stage = "parameter-overrides"
	StageComponentConversion  Stage = "component-conversion"
	StageLayout               Stage = "layout"
	StageConnectionValidation Stage = "connection-validation"
	StageComplete             Stage = "complete"
	StageFailed               Stage = "failed"
)

// Conflict types.
const (
	ConflictNaming     = "naming"
	ConflictPosition   = "position"
	ConflictConnection = "connection"
)

// Conflict is a collision between the pattern and the workspace.
type Conflict struct {
	Type     string `json:"type"`
	Severity string `json:"severity"`
	// InstanceID is the pattern component involved.
	InstanceID string `json:"instanceId,omitempty"`
	// ExistingID is the workspace component it collides with.
	ExistingID string `json:"existingId,omitempty"`
	Message    string `json:"message"`
	Resolution string `json:"resolution,omitempty"`
}

// DeployOptions controls one deployment.
type DeployOptions struct {
	Validate            bool `json:"validate"`
	CheckConflicts      bool `json:"checkConflicts"`
	ValidateConnections bool `json:"validateConnections"`
	// PreserveExisting makes naming conflicts fatal. When false they are
	// resolved by incrementing the colliding id.
	PreserveExisting bool           `json:"preserveExisting"`
	Naming           NamingStrategy `json:"naming"`
	Prefix           string         `json:"prefix,omitempty"`
	AutoLayout       bool           `json:"autoLayout"`
	// Layout names the strategy. Empty means grid, or hierarchical with AutoLayout.
	Layout    string            `json:"layout,omitempty"`
	Position  *pattern.Position `json:"position,omitempty"`
	Spacing   *layout.Spacing   `json:"spacing,omitempty"`
	Overrides map[string]any    `json:"overrides,omitempty"`
}

// DefaultDeployOptions enables every check and keeps instance ids.
func DefaultDeployOptions() DeployOptions {
	return DeployOptions{
		Validate:            true,
		CheckConflicts:      true,
		ValidateConnections: true,
		PreserveExisting:    true,
		Naming:              NamingPreserve,
	}
}

// DeploymentResult is the outcome of one deployment.
type DeploymentResult struct {
	ID                 string       `json:"id"`
	PatternID          string       `json:"patternId"`
	Success            bool         `json:"success"`
	Stage              Stage        `json:"stage"`
	DeployedComponents []Component  `json:"deployedComponents"`
	Connections        []Connection `json:"connections"`
	Errors             []string     `json:"errors"`
	Warnings           []string     `json:"warnings"`
	Conflicts          []Conflict   `json:"conflicts,omitempty"`
	Layout             *layout.Info `json:"layout,omitempty"`
	// Order groups deployed ids by dependency tier.
	Order [][]string `json:"order,omitempty"`
}
