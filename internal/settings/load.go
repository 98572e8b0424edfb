package settings

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/breastfem/internal/ctxlog"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// LoadFile reads an HCL settings file and overlays it on Default.
func LoadFile(ctx context.Context, path string) (*Settings, error) {
	logger := ctxlog.FromContext(ctx)
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file %s: %w", path, err)
	}
	s, err := Parse(src, path)
	if err != nil {
		return nil, err
	}
	logger.Debug("Settings loaded.", "path", path, "mesh_order", s.Model.Mesh.Order, "tumor", s.Material.Tumor.Enabled)
	return s, nil
}

// Parse decodes src on top of the defaults. Every attribute is optional, but
// attributes or blocks that the tree does not know are reported as errors, as
// are repeated blocks.
func Parse(src []byte, filename string) (*Settings, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}

	s := Default()
	if diags := overlay(file.Body, reflect.ValueOf(&s).Elem()); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}
	return &s, nil
}

// overlay decodes body into dst field by field, so that values absent from
// the body keep whatever dst already holds. gohcl.DecodeBody cannot do this
// for nested blocks: it zeroes every field it does not find.
func overlay(body hcl.Body, dst reflect.Value) hcl.Diagnostics {
	schema, index := schemaOf(dst.Type())
	content, diags := body.Content(schema)
	if diags.HasErrors() {
		return diags
	}

	for _, as := range schema.Attributes {
		attr, ok := content.Attributes[as.Name]
		if !ok {
			continue
		}
		diags = append(diags, decodeAttribute(attr, dst.Field(index[as.Name]))...)
	}

	seen := make(map[string]*hcl.Block, len(content.Blocks))
	for _, blk := range content.Blocks {
		if prev, dup := seen[blk.Type]; dup {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate block",
				Detail:   fmt.Sprintf("Only one %q block is allowed here; another was defined at %s.", blk.Type, prev.DefRange),
				Subject:  blk.DefRange.Ptr(),
			})
			continue
		}
		seen[blk.Type] = blk
		diags = append(diags, overlay(blk.Body, dst.Field(index[blk.Type]))...)
	}
	return diags
}

func decodeAttribute(attr *hcl.Attribute, field reflect.Value) hcl.Diagnostics {
	val, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		return diags
	}

	ty, err := gocty.ImpliedType(field.Interface())
	if err != nil {
		panic(fmt.Sprintf("settings: field for %q has no cty equivalent: %s", attr.Name, err))
	}

	conv, err := convert.Convert(val, ty)
	if err == nil {
		err = gocty.FromCtyValue(conv, field.Addr().Interface())
	}
	if err != nil {
		return hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Incorrect attribute value type",
			Detail:   fmt.Sprintf("Inappropriate value for attribute %q: %s.", attr.Name, err),
			Subject:  attr.Expr.Range().Ptr(),
		}}
	}
	return diags
}

// schemaOf builds the body schema for a settings struct from its hcl tags and
// returns the field index for every attribute and block name.
func schemaOf(t reflect.Type) (*hcl.BodySchema, map[string]int) {
	schema := &hcl.BodySchema{}
	index := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		tag, ok := t.Field(i).Tag.Lookup("hcl")
		if !ok {
			continue
		}
		name, kind, _ := strings.Cut(tag, ",")
		index[name] = i
		if kind == "block" {
			schema.Blocks = append(schema.Blocks, hcl.BlockHeaderSchema{Type: name})
		} else {
			schema.Attributes = append(schema.Attributes, hcl.AttributeSchema{Name: name})
		}
	}
	return schema, index
}
