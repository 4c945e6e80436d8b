package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveSubmission("succeeded", 20*time.Millisecond)
	m.ObserveSubmission("succeeded", 30*time.Millisecond)
	m.ObserveSubmission("duplicate", 10*time.Millisecond)
	m.SetDepartmentCount("DESIGN", 4)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.submissions.WithLabelValues("succeeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.submissions.WithLabelValues("duplicate")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.departments.WithLabelValues("DESIGN")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.duration))
}
