package config

import (
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// Model is the unified, format-agnostic representation of the entire
// matrix declaration: axes, exclusions, the shared step pipeline, and
// process-wide constants.
type Model struct {
	Constants map[string]cty.Value
	Axes      []*Axis
	Excludes  []*Exclusion
	Steps     []*Step
}

// Axis is a named dimension of the matrix with an ordered list of
// variants. Declaration order is canonical: it fixes both the job
// identity layout and the reporting order of the expanded product.
type Axis struct {
	Name     string
	Variants []*Variant
}

// Variant is one labeled option within an axis. Attributes are resolved
// to concrete values at load time; they are the only per-job inputs that
// guards and argument templates can reference.
type Variant struct {
	ID         string
	Attributes map[string]cty.Value
}

// Exclusion removes combinations from the expanded product. When holds a
// boolean expression over job attributes; a candidate job matching any
// exclusion is dropped before dispatch.
type Exclusion struct {
	When hcl.Expression
}

// Step is one ordered unit of the pipeline template shared by every job.
//
// Guard and the argument values are kept as raw hcl.Expression rather
// than evaluated at load time. A step's behavior depends on the job it
// runs for, so evaluation is deferred until the step runner has a
// concrete job descriptor to build an evaluation context from.
type Step struct {
	Name       string
	Capability string

	// Guard decides whether the step runs for a given job. A nil guard
	// means the step always runs.
	Guard hcl.Expression

	// Arguments are evaluated per job and decoded into the capability's
	// input struct.
	Arguments map[string]hcl.Expression

	// Timeout bounds a single execution of this step. Zero means the
	// engine-wide default applies.
	Timeout time.Duration
}
