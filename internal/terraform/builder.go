package terraform

import (
	"bytes"
)

// Builder collects rendered blocks for the exported Terraform files.
type Builder struct {
	resources [][]byte
	variables []byte
	outputs   []byte
	versions  []byte
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// AddResource appends a rendered resource block or comment to main.tf.
func (b *Builder) AddResource(block []byte) {
	if len(block) == 0 {
		return
	}
	b.resources = append(b.resources, block)
}

// SetVariables sets the variables.tf content.
func (b *Builder) SetVariables(content []byte) {
	b.variables = content
}

// SetOutputs sets the outputs.tf content.
func (b *Builder) SetOutputs(content []byte) {
	b.outputs = content
}

// SetVersions sets the versions.tf content (terraform block + provider).
func (b *Builder) SetVersions(content []byte) {
	b.versions = content
}

// Build returns a map of filename -> content. Empty files are omitted.
func (b *Builder) Build() map[string][]byte {
	out := make(map[string][]byte)
	if len(b.versions) > 0 {
		out["versions.tf"] = b.versions
	}
	if len(b.variables) > 0 {
		out["variables.tf"] = b.variables
	}
	var mainBuf bytes.Buffer
	for i, r := range b.resources {
		if i > 0 {
			mainBuf.WriteString("\n")
		}
		mainBuf.Write(r)
	}
	if mainBuf.Len() > 0 {
		out["main.tf"] = mainBuf.Bytes()
	}
	if len(bytes.TrimSpace(b.outputs)) > 0 {
		out["outputs.tf"] = b.outputs
	}
	return out
}
