package metrics

import (
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
)

// TestNewTimer tests timer creation
func TestNewTimer(t *testing.T) {
	timer := NewTimer()

	if timer == nil {
		t.Fatal("NewTimer() returned nil")
	}

	if timer.start.IsZero() {
		t.Error("NewTimer() start time is zero")
	}
}

// TestTimerDuration tests duration measurement
func TestTimerDuration(t *testing.T) {
	timer := NewTimer()

	sleepDuration := 20 * time.Millisecond
	time.Sleep(sleepDuration)

	duration := timer.Duration()

	if duration < sleepDuration {
		t.Errorf("Timer.Duration() = %v, want >= %v", duration, sleepDuration)
	}
}

// histogramSampleCount reads back the sample count currently recorded on a
// plain (unlabeled) Histogram, via the same DTO the Prometheus HTTP handler
// serializes from.
func histogramSampleCount(t *testing.T, h interface {
	Write(*dto.Metric) error
}) uint64 {
	t.Helper()
	var m dto.Metric
	if err := h.Write(&m); err != nil {
		t.Fatalf("Write: %v", err)
	}
	return m.GetHistogram().GetSampleCount()
}

// TestTimerObserveDuration exercises ObserveDuration against
// SubstateCommitDuration, the real histogram the kernel times its track
// commit with, rather than a throwaway test metric.
func TestTimerObserveDuration(t *testing.T) {
	before := histogramSampleCount(t, SubstateCommitDuration)

	timer := NewTimer()
	time.Sleep(5 * time.Millisecond)
	timer.ObserveDuration(SubstateCommitDuration)

	after := histogramSampleCount(t, SubstateCommitDuration)
	if after != before+1 {
		t.Errorf("SubstateCommitDuration sample count = %d, want %d", after, before+1)
	}

	if d := timer.Duration(); d < 5*time.Millisecond {
		t.Errorf("Timer.Duration() = %v, want >= 5ms", d)
	}
}

// histogramVecSampleCount reads back the sample count for one label
// combination of ModuleHookDuration.
func histogramVecSampleCount(t *testing.T, label string) uint64 {
	t.Helper()
	var m dto.Metric
	if err := ModuleHookDuration.WithLabelValues(label).(interface {
		Write(*dto.Metric) error
	}).Write(&m); err != nil {
		t.Fatalf("Write: %v", err)
	}
	return m.GetHistogram().GetSampleCount()
}

// TestTimerObserveDurationVec exercises ObserveDurationVec against
// ModuleHookDuration, the real histogram the kernel times its on_init and
// on_teardown pipeline rounds with.
func TestTimerObserveDurationVec(t *testing.T) {
	before := histogramVecSampleCount(t, "on_init")

	timer := NewTimer()
	time.Sleep(5 * time.Millisecond)
	timer.ObserveDurationVec(ModuleHookDuration, "on_init")

	after := histogramVecSampleCount(t, "on_init")
	if after != before+1 {
		t.Errorf("ModuleHookDuration{hook=on_init} sample count = %d, want %d", after, before+1)
	}
}

// TestTimerMultipleCalls tests that Duration can be called multiple times
// and reports a monotonically increasing elapsed time.
func TestTimerMultipleCalls(t *testing.T) {
	timer := NewTimer()

	time.Sleep(10 * time.Millisecond)
	duration1 := timer.Duration()

	time.Sleep(10 * time.Millisecond)
	duration2 := timer.Duration()

	if duration2 <= duration1 {
		t.Errorf("second Duration() call should be longer: first=%v, second=%v", duration1, duration2)
	}
}

// TestMultipleTimers tests that multiple timers run independently, the way
// invokeRoot runs separate metrics.NewTimer() timers for the whole
// transaction and for its on_init, on_teardown and commit steps.
func TestMultipleTimers(t *testing.T) {
	timer1 := NewTimer()
	time.Sleep(15 * time.Millisecond)

	timer2 := NewTimer()
	time.Sleep(15 * time.Millisecond)

	duration1 := timer1.Duration()
	duration2 := timer2.Duration()

	if duration1 <= duration2 {
		t.Errorf("timer1 should be running longer: timer1=%v, timer2=%v", duration1, duration2)
	}
}
