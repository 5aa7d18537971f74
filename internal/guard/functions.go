package guard

import (
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// strContainsFunc reports whether one string contains another. The cty
// stdlib has no substring test, so it is defined here the same way the
// stdlib defines its own string functions.
var strContainsFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "haystack", Type: cty.String},
		{Name: "needle", Type: cty.String},
	},
	Type: function.StaticReturnType(cty.Bool),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		return cty.BoolVal(strings.Contains(args[0].AsString(), args[1].AsString())), nil
	},
})

// Functions returns the function table available to guard and argument
// expressions. The set is intentionally small: string predicates and
// formatting cover everything a matrix declaration needs.
func Functions() map[string]function.Function {
	return map[string]function.Function{
		"strcontains": strContainsFunc,
		"lower":       stdlib.LowerFunc,
		"upper":       stdlib.UpperFunc,
		"format":      stdlib.FormatFunc,
		"regex":       stdlib.RegexFunc,
	}
}
