// Package coordinator runs all expanded jobs to completion under a
// failure-isolation policy: jobs execute concurrently up to a worker
// limit, one job's failure has no effect on any sibling, and cancelling
// the run stops dispatch while letting in-flight jobs reach a clean
// terminal state.
package coordinator
