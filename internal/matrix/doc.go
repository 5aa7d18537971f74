// Package matrix expands a declared set of axes into the cartesian
// product of job descriptors. A job descriptor is immutable once built:
// it carries a derived identity, the variant selection that produced it,
// and the merged attribute map that guards and argument templates
// evaluate against.
package matrix
