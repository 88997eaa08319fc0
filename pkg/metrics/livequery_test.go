package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestLiveQueryMetricsExportsSeries(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewLiveQueryMetrics(reg)
	collection := "products"

	metrics.ObserveFetch(collection, 120*time.Millisecond)
	metrics.IncFetchError(collection)
	metrics.IncStaleDiscard(collection)
	metrics.WatcherStarted(collection)
	metrics.WatcherStarted(collection)
	metrics.WatcherStopped(collection)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "livequery_fetches_total", "collection", collection); err != nil {
		t.Fatalf("fetch fetches: %v", err)
	} else if got != 1 {
		t.Fatalf("expected fetches=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "livequery_fetch_errors_total", "collection", collection); err != nil {
		t.Fatalf("fetch errors: %v", err)
	} else if got != 1 {
		t.Fatalf("expected errors=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "livequery_stale_discards_total", "collection", collection); err != nil {
		t.Fatalf("fetch discards: %v", err)
	} else if got != 1 {
		t.Fatalf("expected discards=1, got %f", got)
	}

	if got, err := fetchGaugeValue(mfs, "livequery_watchers", "collection", collection); err != nil {
		t.Fatalf("fetch watchers: %v", err)
	} else if got != 1 {
		t.Fatalf("expected watchers=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "livequery_fetch_duration_seconds", "collection", collection); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestLiveQueryMetricsNilSafe(t *testing.T) {
	var metrics *LiveQueryMetrics
	metrics.ObserveFetch("orders", time.Second)
	metrics.IncFetchError("orders")
	metrics.IncStaleDiscard("orders")
	metrics.WatcherStarted("orders")
	metrics.WatcherStopped("orders")
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

func fetchGaugeValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetGauge().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("gauge %q missing label %s=%s", name, label, value)
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
