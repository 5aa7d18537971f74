package hcl

import (
	"github.com/hashicorp/hcl/v2"
)

// matrixFile is the top-level structure of a matrix declaration file.
type matrixFile struct {
	Constants []*constantsBlock `hcl:"constants,block"`
	Axes      []*axisBlock      `hcl:"axis,block"`
	Excludes  []*excludeBlock   `hcl:"exclude,block"`
	Steps     []*stepBlock      `hcl:"step,block"`
}

// constantsBlock holds process-wide constants available to every
// expression as `const.<name>`.
type constantsBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// axisBlock is one matrix dimension with its ordered variants.
type axisBlock struct {
	Name     string          `hcl:"name,label"`
	Variants []*variantBlock `hcl:"variant,block"`
}

// variantBlock is one labeled option within an axis.
type variantBlock struct {
	ID         string         `hcl:"id,label"`
	Attributes hcl.Expression `hcl:"attributes,optional"`
}

// excludeBlock removes matching combinations from the expanded product.
type excludeBlock struct {
	When hcl.Expression `hcl:"when"`
}

// stepBlock is one ordered step of the shared pipeline template.
type stepBlock struct {
	Name       string          `hcl:"name,label"`
	Capability string          `hcl:"capability"`
	Guard      hcl.Expression  `hcl:"guard,optional"`
	Timeout    string          `hcl:"timeout,optional"`
	Arguments  *argumentsBlock `hcl:"arguments,block"`
}

// argumentsBlock carries the step's argument expressions, evaluated
// per job at execution time.
type argumentsBlock struct {
	Body hcl.Body `hcl:",remain"`
}
