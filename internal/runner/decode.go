package runner

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// decodeArguments evaluates a step's argument expressions against the
// job's evaluation context and populates the capability's input struct.
// Fields are matched by their `grid` tag, falling back to the lowercased
// field name. Arguments absent from the declaration leave the field at
// its zero value; each capability validates its own required inputs. An
// argument matching no field is a declaration error (usually a typo),
// caught here rather than surfacing later as a missing required input.
func decodeArguments(inputStruct any, args map[string]hcl.Expression, evalCtx *hcl.EvalContext) error {
	structVal := reflect.ValueOf(inputStruct)
	if structVal.Kind() != reflect.Ptr || structVal.IsNil() {
		return fmt.Errorf("capability input must be a non-nil pointer")
	}
	structVal = structVal.Elem()
	structType := structVal.Type()

	consumed := make(map[string]bool, len(args))
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		fieldVal := structVal.Field(i)
		if !fieldVal.CanSet() {
			continue
		}

		name := strings.ToLower(field.Name)
		if tag := field.Tag.Get("grid"); tag != "" {
			name = strings.Split(tag, ",")[0]
		}

		expr, provided := args[name]
		if !provided {
			continue
		}
		consumed[name] = true

		val, diags := expr.Value(evalCtx)
		if diags.HasErrors() {
			return fmt.Errorf("argument %q failed to evaluate: %s", name, diags.Error())
		}

		if err := setField(fieldVal, val); err != nil {
			return fmt.Errorf("argument %q: %w", name, err)
		}
	}

	var unknown []string
	for name := range args {
		if !consumed[name] {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("unknown arguments: %s", strings.Join(unknown, ", "))
	}
	return nil
}

// setField converts a cty value into a supported Go field type. The set
// of types mirrors what capability inputs actually use: strings, bools,
// integers, and string slices. Null is rejected up front: convert maps
// null to a null of the target type, and unwrapping that would panic.
func setField(fieldVal reflect.Value, val cty.Value) error {
	if val.IsNull() {
		return fmt.Errorf("value is null")
	}

	switch fieldVal.Kind() {
	case reflect.String:
		conv, err := convert.Convert(val, cty.String)
		if err != nil {
			return err
		}
		fieldVal.SetString(conv.AsString())

	case reflect.Bool:
		conv, err := convert.Convert(val, cty.Bool)
		if err != nil {
			return err
		}
		fieldVal.SetBool(conv.True())

	case reflect.Int, reflect.Int64:
		conv, err := convert.Convert(val, cty.Number)
		if err != nil {
			return err
		}
		n, _ := conv.AsBigFloat().Int64()
		fieldVal.SetInt(n)

	case reflect.Slice:
		if fieldVal.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice element type %s", fieldVal.Type().Elem())
		}
		conv, err := convert.Convert(val, cty.List(cty.String))
		if err != nil {
			return err
		}
		var out []string
		for it := conv.ElementIterator(); it.Next(); {
			idx, elem := it.Element()
			if elem.IsNull() {
				return fmt.Errorf("element %s is null", idx.AsBigFloat().String())
			}
			out = append(out, elem.AsString())
		}
		fieldVal.Set(reflect.ValueOf(out))

	default:
		return fmt.Errorf("unsupported input field type %s", fieldVal.Type())
	}
	return nil
}
