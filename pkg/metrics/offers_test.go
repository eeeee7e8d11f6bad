package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestOfferMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOfferMetrics(reg)
	m.ObserveDuration("calculate", 250*time.Millisecond)
	m.IncFailure("calculate")
	m.IncApplied("percent_off")
	m.IncApplied("percent_off")
	m.IncCache("hit")

	mfs, err := reg.Gather()
	require.NoError(t, err)

	got, err := fetchCounterValue(mfs, "offers_operation_failures_total", "operation", "calculate")
	require.NoError(t, err)
	require.Equal(t, float64(1), got)

	got, err = fetchCounterValue(mfs, "offers_applied_total", "offer_type", "percent_off")
	require.NoError(t, err)
	require.Equal(t, float64(2), got)

	got, err = fetchCounterValue(mfs, "offers_cache_lookups_total", "result", "hit")
	require.NoError(t, err)
	require.Equal(t, float64(1), got)

	sum, err := fetchHistogramSum(mfs, "offers_operation_duration_seconds", "operation", "calculate")
	require.NoError(t, err)
	require.Greater(t, sum, float64(0))
}

func TestOfferMetricsEmptyLabelIsUnknown(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOfferMetrics(reg)
	m.IncApplied("")

	mfs, err := reg.Gather()
	require.NoError(t, err)
	got, err := fetchCounterValue(mfs, "offers_applied_total", "offer_type", "unknown")
	require.NoError(t, err)
	require.Equal(t, float64(1), got)
}

func TestOfferMetricsNilSafe(t *testing.T) {
	var nilMetrics *OfferMetrics
	require.NotPanics(t, func() {
		nilMetrics.ObserveDuration("calculate", time.Second)
		nilMetrics.IncFailure("calculate")
		nilMetrics.IncApplied("amount_off")
		nilMetrics.IncCache("miss")
	})

	unregistered := NewOfferMetrics(nil)
	require.NotPanics(t, func() {
		unregistered.IncApplied("free_item")
	})
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
