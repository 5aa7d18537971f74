package matrix

import (
	"context"
	"fmt"

	"github.com/vk/gridci/internal/config"
	"github.com/vk/gridci/internal/ctxlog"
	"github.com/vk/gridci/internal/guard"
	"github.com/zclconf/go-cty/cty"
)

// Expand produces the full cartesian product of the declared axes as job
// descriptors, in declaration order (the last axis varies fastest), then
// filters out combinations matched by an exclusion rule.
//
// An axis with zero variants is a valid degenerate case: the product is
// empty, surfaced as a warning rather than an error. A malformed
// exclusion expression is a configuration error and aborts expansion;
// unlike step guards there is no single job to fail closed for.
func Expand(ctx context.Context, model *config.Model) ([]*Job, error) {
	logger := ctxlog.FromContext(ctx)

	for _, axis := range model.Axes {
		if len(axis.Variants) == 0 {
			logger.Warn("Axis has no variants; matrix expands to zero jobs.", "axis", axis.Name)
			return nil, nil
		}
	}
	if len(model.Axes) == 0 {
		logger.Warn("No axes declared; matrix expands to zero jobs.")
		return nil, nil
	}

	var jobs []*Job
	indices := make([]int, len(model.Axes))
	for {
		job := jobAt(model.Axes, indices)

		excluded, err := matchesExclusion(model, job)
		if err != nil {
			return nil, fmt.Errorf("evaluating exclusion for job %s: %w", job.ID(), err)
		}
		if excluded {
			logger.Debug("Combination removed by exclusion rule.", "job", job.ID())
		} else {
			jobs = append(jobs, job)
		}

		if !advance(model.Axes, indices) {
			break
		}
	}
	return jobs, nil
}

// jobAt builds the job descriptor for one point of the product.
func jobAt(axes []*config.Axis, indices []int) *Job {
	selections := make([]Selection, len(axes))
	attrs := make(map[string]cty.Value)
	for i, axis := range axes {
		variant := axis.Variants[indices[i]]
		selections[i] = Selection{Axis: axis.Name, Variant: variant.ID}
		for name, val := range variant.Attributes {
			attrs[name] = val
		}
	}
	return newJob(selections, attrs)
}

// advance increments the odometer over the axes, rightmost digit first.
// It returns false once every combination has been visited.
func advance(axes []*config.Axis, indices []int) bool {
	for i := len(indices) - 1; i >= 0; i-- {
		indices[i]++
		if indices[i] < len(axes[i].Variants) {
			return true
		}
		indices[i] = 0
	}
	return false
}

func matchesExclusion(model *config.Model, job *Job) (bool, error) {
	for _, excl := range model.Excludes {
		matched, err := guard.Evaluate(excl.When, job.EvalContext(model.Constants))
		if err != nil {
			return false, err
		}
		if matched {
			return true, nil
		}
	}
	return false, nil
}
