// Package terraform renders a concrete pattern as a skeleton Terraform
// configuration: one resource block per component, typed from the catalog's
// provider mappings. The output is a structural starting point, not
// deployable infrastructure code.
package terraform

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2/hclwrite"

	"github.com/canvas-infra/patterns/internal/component"
	"github.com/canvas-infra/patterns/internal/dependency"
	"github.com/canvas-infra/patterns/internal/pattern"
)

// ErrUnsupportedProvider is returned for providers without a Terraform mapping.
var ErrUnsupportedProvider = errors.New("unsupported terraform provider")

// Providers lists the providers Export can render, sorted.
func Providers() []string {
	out := make([]string, 0, len(providers))
	for name := range providers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Export renders p for provider and returns filename -> content. An empty
// provider picks the first provider declared by the pattern, or aws.
// Components without a resource type for the provider are emitted as
// comments in main.tf.
func Export(p *pattern.Pattern, provider string, lookup component.Lookup) (map[string][]byte, error) {
	if p == nil {
		return nil, errors.New("pattern is nil")
	}
	if provider == "" {
		provider = component.ProviderAWS
		if len(p.Providers) > 0 {
			provider = p.Providers[0]
		}
	}
	spec, ok := providers[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, provider)
	}

	order, _, err := dependency.FromPattern(p).Resolve()
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", p.ID, err)
	}

	type resource struct {
		ref  *pattern.ComponentReference
		meta *component.Metadata
		addr string
		name string
	}
	byID := make(map[string]*pattern.ComponentReference, len(p.Components))
	for i := range p.Components {
		byID[p.Components[i].InstanceID] = &p.Components[i]
	}

	b := NewBuilder()
	addrs := make(map[string]string, len(order))
	used := make(map[string]bool, len(order))
	var resources []resource
	for _, id := range order {
		ref := byID[id]
		meta, ok := lookup.GetComponent(ref.ComponentID)
		if !ok {
			b.AddResource(Comment("%s: unknown component %s", id, ref.ComponentID))
			continue
		}
		mapping, ok := meta.ProviderMappings[provider]
		if !ok || mapping.ResourceType == "" {
			b.AddResource(Comment("%s: %s has no %s resource", id, meta.Name, provider))
			continue
		}
		name := SanitizeName(id)
		addr := mapping.ResourceType + "." + name
		for n := 2; used[addr]; n++ {
			name = fmt.Sprintf("%s_%d", SanitizeName(id), n)
			addr = mapping.ResourceType + "." + name
		}
		used[addr] = true
		addrs[id] = addr
		resources = append(resources, resource{ref: ref, meta: meta, addr: addr, name: name})
	}

	var names, outAddrs []string
	for _, r := range resources {
		block := ResourceBlock(strings.SplitN(r.addr, ".", 2)[0], r.name)
		body := block.Body()

		config := r.meta.DefaultConfig.Clone()
		if config == nil {
			config = pattern.Properties{}
		}
		for k, v := range r.ref.Configuration {
			config[k] = pattern.CloneValue(v)
		}
		SetAttributes(body, config)
		if _, has := config[spec.tagAttr]; !has {
			SetAttributeMap(body, spec.tagAttr, labels(spec, p, r.ref))
		}

		var deps []hclwrite.Tokens
		for _, dep := range r.ref.Dependencies {
			if addr, ok := addrs[dep]; ok {
				deps = append(deps, hclwrite.TokensForTraversal(refTraversal(addr, "")))
			}
		}
		if len(deps) > 0 {
			body.SetAttributeRaw("depends_on", hclwrite.TokensForTuple(deps))
		}

		b.AddResource(BlockToBytes(block))
		names = append(names, r.name)
		outAddrs = append(outAddrs, r.addr)
	}

	b.SetVersions(versionsTF(spec))
	b.SetVariables(variablesTF(spec, p))
	b.SetOutputs(outputsTF(names, outAddrs))
	return b.Build(), nil
}

// labels tags every resource with its origin. GCP labels only allow
// lowercase keys and values, so they are normalized there.
func labels(spec providerSpec, p *pattern.Pattern, ref *pattern.ComponentReference) map[string]string {
	m := map[string]string{"pattern": p.ID, "instance": ref.InstanceID}
	if spec.tagAttr == "tags" {
		m["Name"] = ref.DisplayName
		if m["Name"] == "" {
			m["Name"] = ref.InstanceID
		}
		return m
	}
	for k, v := range m {
		m[k] = strings.ToLower(SanitizeName(v))
	}
	return m
}
