package hcl

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/gridci/internal/config"
	"github.com/vk/gridci/internal/ctxlog"
	"github.com/vk/gridci/internal/guard"
	"github.com/zclconf/go-cty/cty"
)

// translate converts the merged HCL schema into the agnostic model,
// resolving constants and variant attributes and validating everything
// that can be validated without a concrete job.
func (l *Loader) translate(ctx context.Context, file *matrixFile) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	model := &config.Model{Constants: map[string]cty.Value{}}

	// Constants resolve first; variant attributes may reference them.
	constCtx := &hcl.EvalContext{Functions: guard.Functions()}
	for _, block := range file.Constants {
		attrs, diags := block.Body.JustAttributes()
		if diags.HasErrors() {
			return nil, fmt.Errorf("constants block: %s", diags.Error())
		}
		for name, attr := range attrs {
			if _, dup := model.Constants[name]; dup {
				return nil, fmt.Errorf("constant %q declared twice", name)
			}
			val, diags := attr.Expr.Value(constCtx)
			if diags.HasErrors() {
				return nil, fmt.Errorf("constant %q: %s", name, diags.Error())
			}
			model.Constants[name] = val
		}
	}

	attrCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{"const": cty.ObjectVal(model.Constants)},
		Functions: guard.Functions(),
	}

	axisNames := make(map[string]bool)
	attrOwner := make(map[string]string)
	for _, axisBlk := range file.Axes {
		if axisNames[axisBlk.Name] {
			return nil, fmt.Errorf("axis %q declared twice", axisBlk.Name)
		}
		axisNames[axisBlk.Name] = true

		axis := &config.Axis{Name: axisBlk.Name}
		variantIDs := make(map[string]bool)
		for _, variantBlk := range axisBlk.Variants {
			if variantIDs[variantBlk.ID] {
				return nil, fmt.Errorf("axis %q: variant %q declared twice", axisBlk.Name, variantBlk.ID)
			}
			variantIDs[variantBlk.ID] = true

			attrs, err := evaluateAttributes(variantBlk, attrCtx)
			if err != nil {
				return nil, fmt.Errorf("axis %q variant %q: %w", axisBlk.Name, variantBlk.ID, err)
			}
			for name := range attrs {
				if owner, seen := attrOwner[name]; seen && owner != axisBlk.Name {
					logger.Warn("Attribute declared on multiple axes; the later axis wins per job.",
						"attribute", name, "axes", []string{owner, axisBlk.Name})
				}
				attrOwner[name] = axisBlk.Name
			}
			axis.Variants = append(axis.Variants, &config.Variant{ID: variantBlk.ID, Attributes: attrs})
		}
		model.Axes = append(model.Axes, axis)
	}

	// Axis names double as implicit job attributes holding the selected
	// variant id, so an explicit attribute may not shadow one.
	for name, owner := range attrOwner {
		if axisNames[name] {
			return nil, fmt.Errorf("axis %q: attribute %q shadows an axis name", owner, name)
		}
	}

	for _, excl := range file.Excludes {
		model.Excludes = append(model.Excludes, &config.Exclusion{When: excl.When})
	}

	stepNames := make(map[string]bool)
	for _, stepBlk := range file.Steps {
		if stepNames[stepBlk.Name] {
			return nil, fmt.Errorf("step %q declared twice", stepBlk.Name)
		}
		stepNames[stepBlk.Name] = true

		step := &config.Step{
			Name:       stepBlk.Name,
			Capability: stepBlk.Capability,
			Guard:      stepBlk.Guard,
		}
		if stepBlk.Timeout != "" {
			timeout, err := time.ParseDuration(stepBlk.Timeout)
			if err != nil {
				return nil, fmt.Errorf("step %q: invalid timeout %q: %w", stepBlk.Name, stepBlk.Timeout, err)
			}
			step.Timeout = timeout
		}
		if stepBlk.Arguments != nil {
			attrs, diags := stepBlk.Arguments.Body.JustAttributes()
			if diags.HasErrors() {
				return nil, fmt.Errorf("step %q arguments: %s", stepBlk.Name, diags.Error())
			}
			step.Arguments = make(map[string]hcl.Expression, len(attrs))
			for name, attr := range attrs {
				step.Arguments[name] = attr.Expr
			}
		}
		model.Steps = append(model.Steps, step)
	}

	if len(model.Steps) == 0 {
		return nil, fmt.Errorf("matrix declares no steps")
	}
	return model, nil
}

// evaluateAttributes resolves a variant's attribute object at load time.
// Attributes are restricted to strings, bools, and numbers: they are the
// inputs to guards and templates, not nested structures.
func evaluateAttributes(variant *variantBlock, attrCtx *hcl.EvalContext) (map[string]cty.Value, error) {
	if variant.Attributes == nil {
		return map[string]cty.Value{}, nil
	}

	val, diags := variant.Attributes.Value(attrCtx)
	if diags.HasErrors() {
		return nil, fmt.Errorf("attributes: %s", diags.Error())
	}
	if !val.Type().IsObjectType() && !val.Type().IsMapType() {
		return nil, fmt.Errorf("attributes must be an object, got %s", val.Type().FriendlyName())
	}

	attrs := make(map[string]cty.Value)
	for name, attrVal := range val.AsValueMap() {
		switch attrVal.Type() {
		case cty.String, cty.Bool, cty.Number:
			attrs[name] = attrVal
		default:
			return nil, fmt.Errorf("attribute %q must be a string, bool, or number, got %s",
				name, attrVal.Type().FriendlyName())
		}
	}
	return attrs, nil
}
