// Package archive wraps a job's built binary into its release archive.
// Format selection is a total, deterministic function of the job's OS
// family: the windows family gets a zip archive, every other family a
// gzip-compressed tarball.
package archive
