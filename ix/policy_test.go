package ix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/joulebench/results"
)

func TestLastRunMetrics(t *testing.T) {
	policy := LastRunMetrics{}

	assert.Equal(t, results.Metrics{}, policy.Select(nil))
	assert.Equal(t, results.Metrics{}, policy.Select([]results.Run{{Metrics: &results.Metrics{Comparisons: 5}}, {}}),
		"last run without metrics yields zeros")

	got := policy.Select([]results.Run{
		{Metrics: &results.Metrics{Comparisons: 1, Swaps: 1}},
		{Metrics: &results.Metrics{Comparisons: 9965, Swaps: 1000}},
	})
	assert.Equal(t, results.Metrics{Comparisons: 9965, Swaps: 1000}, got)
}

func TestMeanRunMetrics(t *testing.T) {
	policy := MeanRunMetrics{}

	assert.Equal(t, results.Metrics{}, policy.Select([]results.Run{{}, {}}))

	got := policy.Select([]results.Run{
		{Metrics: &results.Metrics{Comparisons: 10, Iterations: 3}},
		{},
		{Metrics: &results.Metrics{Comparisons: 21, Iterations: 4}},
	})
	assert.Equal(t, results.Metrics{Comparisons: 15, Iterations: 3}, got, "integer mean over runs carrying metrics")
}

func TestPolicyByName(t *testing.T) {
	p, err := PolicyByName("")
	require.NoError(t, err)
	assert.Equal(t, PolicyLast, p.Name())

	p, err = PolicyByName("mean")
	require.NoError(t, err)
	assert.Equal(t, PolicyMean, p.Name())

	_, err = PolicyByName("median")
	assert.Error(t, err)
}
