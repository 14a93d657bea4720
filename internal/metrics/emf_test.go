package metrics

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := SetOutput(&buf)
	t.Cleanup(func() { SetOutput(prev) })
	return &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	if strings.Count(buf.String(), "\n") != 1 {
		t.Fatalf("expected exactly one line, got %q", buf.String())
	}
	var doc map[string]any
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("invalid EMF line: %v\n%s", err, buf.String())
	}
	return doc
}

func TestNewAddsFunctionDimension(t *testing.T) {
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "auralens-api")

	r := New("TestNamespace")
	if r.dimensions[functionDimension] != "auralens-api" {
		t.Errorf("FunctionName dimension = %q", r.dimensions[functionDimension])
	}
}

func TestFlushDocument(t *testing.T) {
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "")
	buf := captureOutput(t)
	prevNow := now
	now = func() time.Time { return time.UnixMilli(1700000000000) }
	t.Cleanup(func() { now = prevNow })

	New(Namespace).
		Dimension("Result", "success").
		Metric("GenerationMs", 1234.5, UnitMilliseconds).
		Count("GenerationResult").
		Property("model", "gemini-2.5-flash-image").
		Flush()

	doc := decodeLine(t, buf)
	if doc["Result"] != "success" || doc["GenerationMs"] != 1234.5 || doc["GenerationResult"] != float64(1) {
		t.Errorf("unexpected values: %v", doc)
	}
	if doc["model"] != "gemini-2.5-flash-image" {
		t.Errorf("model property = %v", doc["model"])
	}

	meta := doc["_aws"].(map[string]any)
	if meta["Timestamp"] != float64(1700000000000) {
		t.Errorf("Timestamp = %v", meta["Timestamp"])
	}
	cw := meta["CloudWatchMetrics"].([]any)[0].(map[string]any)
	if cw["Namespace"] != Namespace {
		t.Errorf("Namespace = %v", cw["Namespace"])
	}
	defs := cw["Metrics"].([]any)
	if len(defs) != 2 || defs[0].(map[string]any)["Name"] != "GenerationMs" || defs[1].(map[string]any)["Unit"] != "Count" {
		t.Errorf("metric definitions should be sorted by name: %v", defs)
	}
	dims := cw["Dimensions"].([]any)[0].([]any)
	if len(dims) != 1 || dims[0] != "Result" {
		t.Errorf("Dimensions = %v", dims)
	}
}

func TestFlushWithoutMetricsWritesNothing(t *testing.T) {
	buf := captureOutput(t)

	New("Test").Dimension("Op", "noop").Property("id", "x").Flush()

	if buf.Len() != 0 {
		t.Errorf("expected no output, got: %s", buf.String())
	}
}

func TestMetricKeepsLastValue(t *testing.T) {
	r := New("Test").Metric("Duration", 100, UnitMilliseconds).Metric("Duration", 5, UnitNone)

	if r.fields["Duration"] != float64(5) || r.units["Duration"] != UnitNone {
		t.Errorf("Duration = %v %v", r.fields["Duration"], r.units["Duration"])
	}
}

func TestEMFObserver(t *testing.T) {
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "")
	buf := captureOutput(t)

	EMFObserver{Model: "m"}.ObserveGeneration("empty_result", 250*time.Millisecond)

	doc := decodeLine(t, buf)
	if doc["Result"] != "empty_result" {
		t.Errorf("Result = %v", doc["Result"])
	}
	if doc["GenerationMs"] != float64(250) {
		t.Errorf("GenerationMs = %v", doc["GenerationMs"])
	}
	if doc["model"] != "m" {
		t.Errorf("model = %v", doc["model"])
	}
}
