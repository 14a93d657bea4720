package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fpang/auralens/internal/metrics"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// ProbeModel is the text model used to probe a key. It is cheap and available on the
// free tier, unlike the image models.
const ProbeModel = "gemini-2.5-flash-lite"

// Prober is the slice of *genai.Models needed to probe a key.
type Prober interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Status is the verdict of a credential probe.
type Status int

const (
	StatusOK Status = iota
	StatusMissing
	StatusRejected
	StatusUnreachable
	StatusThrottled
	StatusUnknown
)

var statusNames = map[Status]string{
	StatusOK:          "ok",
	StatusMissing:     "missing",
	StatusRejected:    "rejected",
	StatusUnreachable: "unreachable",
	StatusThrottled:   "throttled",
	StatusUnknown:     "unknown",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

var statusSummaries = map[Status]string{
	StatusMissing:     "no API key configured",
	StatusRejected:    "API key was rejected",
	StatusUnreachable: "Gemini API could not be reached",
	StatusThrottled:   "API quota exceeded or rate limited",
	StatusUnknown:     "API key probe failed",
}

// ProbeError explains why a credential probe did not succeed.
type ProbeError struct {
	Status Status
	Err    error
}

func (e *ProbeError) Error() string {
	summary := statusSummaries[e.Status]
	if summary == "" {
		summary = statusSummaries[StatusUnknown]
	}
	if e.Err != nil {
		return summary + ": " + e.Err.Error()
	}
	return summary
}

func (e *ProbeError) Unwrap() error {
	return e.Err
}

// StatusOf returns the probe status carried by err: StatusOK for nil and
// StatusUnknown for errors that did not come from a probe.
func StatusOf(err error) Status {
	if err == nil {
		return StatusOK
	}
	var probeErr *ProbeError
	if errors.As(err, &probeErr) {
		return probeErr.Status
	}
	return StatusUnknown
}

// ValidateAPIKey spends one tiny text request to find out whether cred works. It is a
// startup diagnostic; generation never depends on it. A nil return means the key is
// usable, otherwise the error is a *ProbeError.
func ValidateAPIKey(ctx context.Context, cred Credential, prober Prober) error {
	if !cred.Present() {
		return &ProbeError{Status: StatusMissing}
	}

	log.Debug().Str("model", ProbeModel).Str("source", cred.Source()).Msg("Probing API key")

	start := time.Now()
	resp, err := prober.GenerateContent(ctx, ProbeModel, genai.Text("hi"), nil)
	elapsed := time.Since(start)

	var probeErr *ProbeError
	switch {
	case err != nil:
		probeErr = &ProbeError{Status: classify(err), Err: err}
	case resp == nil || len(resp.Candidates) == 0:
		probeErr = &ProbeError{Status: StatusUnknown, Err: errors.New("empty response")}
	}

	result := StatusOK.String()
	if probeErr != nil {
		result = probeErr.Status.String()
	}
	recordProbe(result, elapsed)

	if probeErr != nil {
		log.Error().Err(probeErr.Err).Str("status", result).Dur("duration", elapsed).Msg("API key probe failed")
		return probeErr
	}
	log.Info().Dur("duration", elapsed).Msg("API key probe succeeded")
	return nil
}

func recordProbe(result string, elapsed time.Duration) {
	metrics.New(metrics.Namespace).
		Dimension("Result", result).
		Metric("ApiKeyProbeMs", float64(elapsed.Milliseconds()), metrics.UnitMilliseconds).
		Count("ApiKeyProbe").
		Flush()
}

// statusByCode maps HTTP status codes reported by the API to a probe status.
var statusByCode = map[int]Status{
	400: StatusRejected,
	401: StatusRejected,
	403: StatusRejected,
	429: StatusThrottled,
	500: StatusUnreachable,
	502: StatusUnreachable,
	503: StatusUnreachable,
	504: StatusUnreachable,
}

// statusMarkers classifies errors without a status code. Checked in order, lowercase.
var statusMarkers = []struct {
	status  Status
	markers []string
}{
	{StatusRejected, []string{"api key not valid", "invalid api key", "api_key_invalid", "permission denied"}},
	{StatusThrottled, []string{"quota", "resource exhausted", "rate limit"}},
	{StatusUnreachable, []string{"connection", "network", "timeout", "dial", "no such host", "unreachable"}},
}

func classify(err error) Status {
	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		if s, ok := statusByCode[apiErr.Code]; ok {
			return s
		}
		return StatusUnknown
	}

	text := strings.ToLower(err.Error())
	for _, entry := range statusMarkers {
		for _, m := range entry.markers {
			if strings.Contains(text, m) {
				return entry.status
			}
		}
	}
	return StatusUnknown
}
