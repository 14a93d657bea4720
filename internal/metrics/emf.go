// Package metrics records generation metrics in two forms: CloudWatch Embedded Metric
// Format (EMF) lines for the Lambda deployment, and Prometheus collectors for the
// long-running web server.
//
// EMF lines are plain JSON written to stdout; CloudWatch extracts the metrics from the
// log stream, so recording costs no API call.
//
// See: https://docs.aws.amazon.com/AmazonCloudWatch/latest/monitoring/CloudWatch_Embedded_Metric_Format_Specification.html
package metrics

import (
	"encoding/json"
	"io"
	"maps"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Namespace is the CloudWatch namespace for all AuraLens metrics.
const Namespace = "AuraLens"

// Unit is a CloudWatch metric unit.
type Unit string

const (
	UnitMilliseconds Unit = "Milliseconds"
	UnitCount        Unit = "Count"
	UnitBytes        Unit = "Bytes"
	UnitNone         Unit = "None"
)

// functionDimension is added automatically inside Lambda.
const functionDimension = "FunctionName"

type metricDef struct {
	Name string `json:"Name"`
	Unit Unit   `json:"Unit"`
}

type metricDirective struct {
	Namespace  string      `json:"Namespace"`
	Dimensions [][]string  `json:"Dimensions"`
	Metrics    []metricDef `json:"Metrics"`
}

type awsMetadata struct {
	Timestamp         int64             `json:"Timestamp"`
	CloudWatchMetrics []metricDirective `json:"CloudWatchMetrics"`
}

var (
	outMu sync.Mutex
	out   io.Writer = os.Stdout

	now = time.Now
)

// SetOutput redirects EMF lines (stdout by default) and returns the previous writer.
func SetOutput(w io.Writer) io.Writer {
	outMu.Lock()
	defer outMu.Unlock()
	prev := out
	out = w
	return prev
}

// Recorder collects one EMF document. Use one per operation; it is not safe for
// concurrent use.
type Recorder struct {
	namespace  string
	dimensions map[string]string
	units      map[string]Unit
	fields     map[string]any
}

// New starts a document in namespace. Inside Lambda the function name becomes a
// dimension.
func New(namespace string) *Recorder {
	r := &Recorder{
		namespace:  namespace,
		dimensions: map[string]string{},
		units:      map[string]Unit{},
		fields:     map[string]any{},
	}
	if fn := os.Getenv("AWS_LAMBDA_FUNCTION_NAME"); fn != "" {
		r.dimensions[functionDimension] = fn
	}
	return r
}

// Dimension adds a filterable attribute to every metric in the document.
func (r *Recorder) Dimension(key, value string) *Recorder {
	r.dimensions[key] = value
	return r
}

// Metric records value under name. Recording the same name twice keeps the last value.
func (r *Recorder) Metric(name string, value float64, unit Unit) *Recorder {
	r.units[name] = unit
	r.fields[name] = value
	return r
}

// Count records name with value 1.
func (r *Recorder) Count(name string) *Recorder {
	return r.Metric(name, 1, UnitCount)
}

// Property adds a searchable field that is not a metric.
func (r *Recorder) Property(key string, value any) *Recorder {
	r.fields[key] = value
	return r
}

// Flush writes the document as a single line. A recorder without metrics writes nothing.
func (r *Recorder) Flush() {
	if len(r.units) == 0 {
		return
	}

	data, err := json.Marshal(r.document())
	if err != nil {
		log.Warn().Err(err).Msg("Failed to marshal EMF document")
		return
	}
	data = append(data, '\n')

	outMu.Lock()
	defer outMu.Unlock()
	if _, err := out.Write(data); err != nil {
		log.Warn().Err(err).Msg("Failed to write EMF document")
	}
}

func (r *Recorder) document() map[string]any {
	defs := make([]metricDef, 0, len(r.units))
	for _, name := range slices.Sorted(maps.Keys(r.units)) {
		defs = append(defs, metricDef{Name: name, Unit: r.units[name]})
	}

	doc := make(map[string]any, len(r.dimensions)+len(r.fields)+1)
	for k, v := range r.fields {
		doc[k] = v
	}
	for k, v := range r.dimensions {
		doc[k] = v
	}
	doc["_aws"] = awsMetadata{
		Timestamp: now().UnixMilli(),
		CloudWatchMetrics: []metricDirective{{
			Namespace:  r.namespace,
			Dimensions: [][]string{slices.Sorted(maps.Keys(r.dimensions))},
			Metrics:    defs,
		}},
	}
	return doc
}
