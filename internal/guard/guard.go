package guard

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// EvalError reports a guard expression that could not be resolved to a
// boolean for a specific job, most commonly a reference to an attribute
// the job does not carry. Callers are expected to fail closed: treat the
// guard as false, surface the diagnostic, and keep the run alive.
type EvalError struct {
	Summary string
	Diags   hcl.Diagnostics
}

// Error implements the error interface for EvalError.
func (e *EvalError) Error() string {
	if len(e.Diags) == 0 {
		return e.Summary
	}
	return fmt.Sprintf("%s: %s", e.Summary, e.Diags.Error())
}

// Evaluate resolves a guard expression against the provided evaluation
// context and returns its boolean result. A nil expression means the
// step is unguarded and always runs.
//
// The result is strict: diagnostics, a null result, or a value that
// cannot convert to bool all return an *EvalError. The caller decides
// whether that error is fatal; the step runner treats it as guard=false.
func Evaluate(expr hcl.Expression, evalCtx *hcl.EvalContext) (bool, error) {
	if expr == nil {
		return true, nil
	}

	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return false, &EvalError{Summary: "guard expression failed to evaluate", Diags: diags}
	}
	if val.IsNull() {
		return false, &EvalError{Summary: "guard expression evaluated to null"}
	}

	boolVal, err := convert.Convert(val, cty.Bool)
	if err != nil {
		return false, &EvalError{
			Summary: fmt.Sprintf("guard expression produced %s, not bool", val.Type().FriendlyName()),
		}
	}
	return boolVal.True(), nil
}
