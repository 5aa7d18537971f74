package matrix

import (
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/gridci/internal/guard"
	"github.com/zclconf/go-cty/cty"
)

// Selection records which variant a job picked from one axis.
type Selection struct {
	Axis    string
	Variant string
}

// Job is one fully-resolved combination of variants, one per axis. It is
// immutable after construction; accessors hand out copies where the
// underlying data is mutable.
type Job struct {
	id         string
	selections []Selection
	attrs      map[string]cty.Value
}

// newJob derives the job identity from the variant ids in axis
// declaration order and merges the selected variants' attributes. Each
// axis name is also exposed as an attribute holding the selected variant
// id, so guards can write `job.toolchain == "stable"` without the
// declaration repeating the id inside the attribute map.
func newJob(selections []Selection, attrs map[string]cty.Value) *Job {
	ids := make([]string, len(selections))
	merged := make(map[string]cty.Value, len(attrs)+len(selections))
	for name, val := range attrs {
		merged[name] = val
	}
	for i, sel := range selections {
		ids[i] = sel.Variant
		merged[sel.Axis] = cty.StringVal(sel.Variant)
	}
	return &Job{
		id:         strings.Join(ids, "/"),
		selections: selections,
		attrs:      merged,
	}
}

// ID returns the derived unique identity of the job: the selected
// variant ids joined in axis declaration order.
func (j *Job) ID() string {
	return j.id
}

// Selections returns the per-axis variant choices in declaration order.
func (j *Job) Selections() []Selection {
	out := make([]Selection, len(j.selections))
	copy(out, j.selections)
	return out
}

// Attr returns a single job attribute by name.
func (j *Job) Attr(name string) (cty.Value, bool) {
	val, ok := j.attrs[name]
	return val, ok
}

// EvalContext builds the HCL evaluation context for this job: the merged
// attributes under `job`, the process-wide constants under `const`, and
// the guard function table.
func (j *Job) EvalContext(constants map[string]cty.Value) *hcl.EvalContext {
	if constants == nil {
		constants = map[string]cty.Value{}
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"job":   cty.ObjectVal(j.attrs),
			"const": cty.ObjectVal(constants),
		},
		Functions: guard.Functions(),
	}
}
