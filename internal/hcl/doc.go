// Package hcl loads matrix declarations written in HCL and translates
// them into the format-agnostic config model. Guards and argument values
// are captured as raw expressions for per-job evaluation; everything
// else (constants, variant attributes, timeouts) is resolved and
// validated at load time so a malformed declaration fails before any job
// is dispatched.
package hcl
