package threshold

import (
	"math"
	"testing"

	"enersense/domain/sensitivity"
	"enersense/internal/testkit"
)

func stepData(n int, breakpoint, low, high float64) (xs, ys []float64) {
	xs = make([]float64, n)
	ys = make([]float64, n)
	for i := range xs {
		xs[i] = 10 * (float64(i) + 0.5) / float64(n)
		if xs[i] < breakpoint {
			ys[i] = low
		} else {
			ys[i] = high
		}
	}
	return xs, ys
}

func TestAnalyze_TreeFindsStepBreakpoint(t *testing.T) {
	xs, ys := stepData(100, 5.0, 0, 10)
	x := testkit.Matrix("supply_temp", xs)
	y := testkit.Matrix("cooling_energy", ys)

	a := NewAnalyzer()
	batch, err := a.Analyze(x, y, sensitivity.ThresholdConfig{DetectionMethod: sensitivity.DetectTree})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(batch.Results) < 2 {
		t.Fatalf("expected at least 2 segments for a step function, got %d", len(batch.Results))
	}

	foundBreak := false
	criticalAfterJump := false
	for _, r := range batch.Results {
		if bp, ok := r.Metadata["breakpoint_value"]; ok {
			foundBreak = true
			if math.Abs(bp-5.0) > 0.5 {
				t.Errorf("breakpoint should be within 0.5 of 5.0, got %g", bp)
			}
			if r.Meta("is_critical_region", 0) == 1 {
				criticalAfterJump = true
			}
		}
	}
	if !foundBreak {
		t.Fatal("no breakpoint detected on a clean step function")
	}
	if !criticalAfterJump {
		t.Error("segment after the jump should be flagged critical")
	}
}

func TestAnalyze_NoBreakpointEmitsWholeRangeSegment(t *testing.T) {
	n := 60
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
		ys[i] = 7.5 // constant output: nothing to split on
	}
	x := testkit.Matrix("p", xs)
	y := testkit.Matrix("o", ys)

	a := NewAnalyzer()
	batch, err := a.Analyze(x, y, sensitivity.ThresholdConfig{DetectionMethod: sensitivity.DetectTree})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(batch.Results) != 1 {
		t.Fatalf("expected exactly one whole-range segment, got %d", len(batch.Results))
	}
	res := batch.Results[0]
	if res.Meta("segment_index", -1) != 0 {
		t.Errorf("expected segment_index 0, got %g", res.Meta("segment_index", -1))
	}
	if res.Meta("is_critical_region", 1) != 0 {
		t.Error("whole-range segment must not be critical")
	}
	if _, ok := res.Metadata["breakpoint_value"]; ok {
		t.Error("whole-range segment must not carry a breakpoint value")
	}
}

func TestAnalyze_PELTFindsMeanShift(t *testing.T) {
	xs, ys := stepData(120, 6.0, 0, 20)
	x := testkit.Matrix("p", xs)
	y := testkit.Matrix("o", ys)

	a := NewAnalyzer()
	batch, err := a.Analyze(x, y, sensitivity.ThresholdConfig{DetectionMethod: sensitivity.DetectPELT})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(batch.Results) < 2 {
		t.Fatalf("expected at least 2 segments from the changepoint search, got %d", len(batch.Results))
	}
}

func TestAnalyze_CUSUMFindsMeanShift(t *testing.T) {
	xs, ys := stepData(120, 4.0, 0, 15)
	x := testkit.Matrix("p", xs)
	y := testkit.Matrix("o", ys)

	a := NewAnalyzer()
	batch, err := a.Analyze(x, y, sensitivity.ThresholdConfig{DetectionMethod: sensitivity.DetectStatistical})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(batch.Results) < 2 {
		t.Fatalf("expected at least 2 segments from CUSUM detection, got %d", len(batch.Results))
	}
}

func TestAnalyze_UnknownDetectionMethodIsSkipRecorded(t *testing.T) {
	xs, ys := stepData(100, 5.0, 0, 10)
	x := testkit.Matrix("p", xs)
	y := testkit.Matrix("o", ys)

	a := NewAnalyzer()
	batch, err := a.Analyze(x, y, sensitivity.ThresholdConfig{DetectionMethod: sensitivity.DetectionMethod("wavelet")})
	if err != nil {
		t.Fatalf("Analyze should collect, not fail: %v", err)
	}
	if len(batch.Results) != 0 || len(batch.Skips) != 1 {
		t.Errorf("expected 0 results and 1 skip, got %d and %d", len(batch.Results), len(batch.Skips))
	}
}

func TestAnalyze_TooFewSamplesIsSkipped(t *testing.T) {
	xs, ys := stepData(10, 5.0, 0, 10)
	x := testkit.Matrix("p", xs)
	y := testkit.Matrix("o", ys)

	a := NewAnalyzer()
	batch, err := a.Analyze(x, y, sensitivity.DefaultThresholdConfig())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(batch.Skips) != 1 {
		t.Errorf("expected 1 skip below 2x min segment size, got %d", len(batch.Skips))
	}
}

func TestDetectNonlinearThresholds_ParabolaMinimum(t *testing.T) {
	n := 100
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := range xs {
		xs[i] = 10 * float64(i) / float64(n-1)
		d := xs[i] - 5
		ys[i] = d * d
	}
	x := testkit.Matrix("setpoint", xs)
	y := testkit.Matrix("energy", ys)

	a := NewAnalyzer()
	batch, err := a.DetectNonlinearThresholds(x, y, sensitivity.DefaultThresholdConfig())
	if err != nil {
		t.Fatalf("DetectNonlinearThresholds failed: %v", err)
	}
	if len(batch.Results) == 0 {
		t.Fatal("expected a critical point for a parabola")
	}

	found := false
	for _, r := range batch.Results {
		cp := r.Meta("critical_point", math.NaN())
		if math.Abs(cp-5.0) < 0.1 {
			found = true
			if kind := r.Labels["critical_point_type"]; kind != "minimum" {
				t.Errorf("parabola vertex should be a minimum, got %q", kind)
			}
		}
	}
	if !found {
		t.Error("no critical point near the parabola vertex at 5.0")
	}
}
