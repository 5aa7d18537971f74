// Package config defines the format-agnostic model of a build matrix
// declaration: the axes, the exclusion rules, the step pipeline, and the
// process-wide constants. Loaders for concrete formats translate their
// input into this model; the rest of the engine never touches the
// underlying configuration syntax.
package config
