package metrics

import "time"

// EMFObserver emits one EMF line per generation. It satisfies chat.Observer.
type EMFObserver struct {
	// Model is attached as a property so results can be split by model in Logs Insights.
	Model string
}

// ObserveGeneration records the latency and result of one generation call.
func (o EMFObserver) ObserveGeneration(result string, d time.Duration) {
	rec := New(Namespace).
		Dimension("Result", result).
		Metric("GenerationMs", float64(d.Milliseconds()), UnitMilliseconds).
		Count("GenerationResult")
	if o.Model != "" {
		rec.Property("model", o.Model)
	}
	rec.Flush()
}
