// Package runner executes the shared pipeline template for one job:
// steps in declared order, each gated by its guard, short-circuiting the
// rest of the job on the first failure. Every error a capability can
// produce is converted into a terminal run result at this boundary; the
// coordinator above only ever observes completed results, never raised
// faults.
package runner
