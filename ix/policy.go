package ix

import (
	"github.com/teranos/joulebench/errors"
	"github.com/teranos/joulebench/results"
)

// Policy names as used in configuration
const (
	PolicyLast = "last"
	PolicyMean = "mean"
)

// MetricsPolicy picks the counters stored for an entry from its runs
type MetricsPolicy interface {
	Name() string
	Select(runs []results.Run) results.Metrics
}

// LastRunMetrics stores the counters of the most recent run.
// No runs, or a last run without metrics, yields all zeros.
type LastRunMetrics struct{}

func (LastRunMetrics) Name() string { return PolicyLast }

func (LastRunMetrics) Select(runs []results.Run) results.Metrics {
	if len(runs) == 0 || runs[len(runs)-1].Metrics == nil {
		return results.Metrics{}
	}
	return *runs[len(runs)-1].Metrics
}

// MeanRunMetrics stores the integer mean of each counter over the runs
// that carry metrics.
type MeanRunMetrics struct{}

func (MeanRunMetrics) Name() string { return PolicyMean }

func (MeanRunMetrics) Select(runs []results.Run) results.Metrics {
	var sum results.Metrics
	n := int64(0)
	for _, run := range runs {
		if run.Metrics == nil {
			continue
		}
		sum.Comparisons += run.Metrics.Comparisons
		sum.Swaps += run.Metrics.Swaps
		sum.Iterations += run.Metrics.Iterations
		sum.MemoryAccesses += run.Metrics.MemoryAccesses
		n++
	}
	if n == 0 {
		return results.Metrics{}
	}
	return results.Metrics{
		Comparisons:    sum.Comparisons / n,
		Swaps:          sum.Swaps / n,
		Iterations:     sum.Iterations / n,
		MemoryAccesses: sum.MemoryAccesses / n,
	}
}

// PolicyByName resolves a configured policy name. Empty means last.
func PolicyByName(name string) (MetricsPolicy, error) {
	switch name {
	case "", PolicyLast:
		return LastRunMetrics{}, nil
	case PolicyMean:
		return MeanRunMetrics{}, nil
	default:
		return nil, errors.NewInvalidRequestError("unknown metrics policy %q", name)
	}
}
