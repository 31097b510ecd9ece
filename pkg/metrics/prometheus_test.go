package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorderCounters(t *testing.T) {
	r := NewWithRegistry(prometheus.NewRegistry())

	r.RecordCacheLookup("geocode", true)
	r.RecordCacheLookup("geocode", true)
	r.RecordCacheLookup("geocode", false)
	r.RecordExternalCall("nominatim", "ok")
	r.RecordScanEvents("day", 12)
	r.RecordError("provider")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.cacheLookups.WithLabelValues("geocode", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.cacheLookups.WithLabelValues("geocode", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.externalCalls.WithLabelValues("nominatim", "ok")))
	assert.Equal(t, 12.0, testutil.ToFloat64(r.scanEvents.WithLabelValues("day")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("provider")))
}

func TestRecorderLatency(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewWithRegistry(reg)
	r.RecordLatency("transit_scan", 0.2)

	n, err := testutil.GatherAndCount(reg, "astro_operation_duration_seconds")
	assert.NoError(t, err)
	assert.Equal(t, 1, n)
}
