// Package guard evaluates per-step predicates against a job's attribute
// set. Guards are ordinary HCL expressions, so equality, containment,
// negation, and and/or/not composition all come from the expression
// language itself; this package contributes the evaluation contract
// (strict boolean result, typed errors) and the function table available
// to guard and argument expressions.
package guard
