package terraform

import (
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"

	"github.com/canvas-infra/patterns/internal/pattern"
)

// providerSpec describes how to configure one Terraform provider.
type providerSpec struct {
	local   string
	source  string
	version string
	// vars are provider settings read from variables, in block order.
	vars []providerVar
	// tagAttr is the resource attribute carrying labels.
	tagAttr string
}

type providerVar struct {
	attr, name, description, fallback string
	// metadataKey names the pattern metadata entry used as the default.
	metadataKey string
}

var providers = map[string]providerSpec{
	"aws": {
		local: "aws", source: "hashicorp/aws", version: "~> 5.0", tagAttr: "tags",
		vars: []providerVar{
			{attr: "region", name: "aws_region", description: "AWS region", fallback: "us-east-1", metadataKey: "region"},
		},
	},
	"azure": {
		local: "azurerm", source: "hashicorp/azurerm", version: "~> 3.0", tagAttr: "tags",
		vars: []providerVar{
			{attr: "subscription_id", name: "azure_subscription_id", description: "Azure subscription"},
		},
	},
	"gcp": {
		local: "google", source: "hashicorp/google", version: "~> 5.0", tagAttr: "labels",
		vars: []providerVar{
			{attr: "project", name: "gcp_project", description: "GCP project id"},
			{attr: "region", name: "gcp_region", description: "GCP region", fallback: "us-central1", metadataKey: "region"},
		},
	},
}

// versionsTF returns content for versions.tf (terraform block + provider).
func versionsTF(spec providerSpec) []byte {
	f := hclwrite.NewEmptyFile()
	body := f.Body()

	tfBlock := body.AppendNewBlock("terraform", nil)
	tfBody := tfBlock.Body()
	tfBody.SetAttributeValue("required_version", cty.StringVal(">= 1.0"))
	reqProv := tfBody.AppendNewBlock("required_providers", nil)
	reqProv.Body().SetAttributeValue(spec.local, cty.ObjectVal(map[string]cty.Value{
		"source":  cty.StringVal(spec.source),
		"version": cty.StringVal(spec.version),
	}))

	body.AppendNewline()
	provBody := body.AppendNewBlock("provider", []string{spec.local}).Body()
	for _, v := range spec.vars {
		provBody.SetAttributeTraversal(v.attr, varTraversal(v.name))
	}
	if spec.local == "azurerm" {
		provBody.AppendNewBlock("features", nil)
	}
	return f.Bytes()
}

// variablesTF returns content for variables.tf: the provider settings
// followed by one variable per pattern parameter.
func variablesTF(spec providerSpec, p *pattern.Pattern) []byte {
	f := hclwrite.NewEmptyFile()
	body := f.Body()

	for i, v := range spec.vars {
		if i > 0 {
			body.AppendNewline()
		}
		vb := body.AppendNewBlock("variable", []string{v.name}).Body()
		vb.SetAttributeValue("description", cty.StringVal(v.description))
		vb.SetAttributeTraversal("type", typeTraversal("string"))
		def := v.fallback
		if v.metadataKey != "" {
			if s := pattern.GetString(p.Metadata, v.metadataKey); s != "" {
				def = s
			}
		}
		if def != "" {
			vb.SetAttributeValue("default", cty.StringVal(def))
		}
	}

	for _, prm := range p.Parameters {
		body.AppendNewline()
		vb := body.AppendNewBlock("variable", []string{SanitizeName(prm.ID)}).Body()
		desc := prm.Description
		if desc == "" {
			desc = prm.Name
		}
		if desc != "" {
			vb.SetAttributeValue("description", cty.StringVal(desc))
		}
		switch prm.Type {
		case pattern.ParamNumber:
			vb.SetAttributeTraversal("type", typeTraversal("number"))
		case pattern.ParamBoolean:
			vb.SetAttributeTraversal("type", typeTraversal("bool"))
		case pattern.ParamMultiselect:
			vb.SetAttributeRaw("type", hclwrite.TokensForFunctionCall("list", hclwrite.TokensForIdentifier("string")))
		default:
			vb.SetAttributeTraversal("type", typeTraversal("string"))
		}
		if def, ok := ToCty(prm.DefaultValue); ok {
			vb.SetAttributeValue("default", def)
		}
	}
	return f.Bytes()
}

// outputsTF returns one id output per exported resource address.
func outputsTF(names, addrs []string) []byte {
	f := hclwrite.NewEmptyFile()
	body := f.Body()
	for i, addr := range addrs {
		if i > 0 {
			body.AppendNewline()
		}
		ob := body.AppendNewBlock("output", []string{names[i] + "_id"}).Body()
		ob.SetAttributeTraversal("value", refTraversal(addr, "id"))
	}
	return f.Bytes()
}
