package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTimer(t *testing.T) {
	timer := NewTimer()

	require.NotNil(t, timer)
	assert.False(t, timer.start.IsZero())
	assert.Less(t, time.Since(timer.start), time.Second)
}

func TestTimerDuration(t *testing.T) {
	timer := NewTimer()

	sleep := 10 * time.Millisecond
	time.Sleep(sleep)

	duration := timer.Duration()
	assert.GreaterOrEqual(t, duration, sleep)
}

func TestTimerObserveDuration(t *testing.T) {
	histogram := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name: "test_observe_duration_seconds",
		Help: "test histogram",
	})

	timer := NewTimer()
	time.Sleep(time.Millisecond)
	timer.ObserveDuration(histogram)

	assert.Greater(t, timer.Duration(), time.Duration(0))
}

func TestTimerObserveDurationVec(t *testing.T) {
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name: "test_observe_duration_vec_seconds",
		Help: "test histogram vec",
	}, []string{"tag"})

	timer := NewTimer()
	time.Sleep(time.Millisecond)
	timer.ObserveDurationVec(vec, "GEO")

	assert.Greater(t, timer.Duration(), time.Duration(0))
}
