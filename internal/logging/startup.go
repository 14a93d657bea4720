package logging

import (
	"maps"
	"os"
	"runtime"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Startup describes how a binary came up. It is logged once, as a single event, so a
// cold start can be read from one CloudWatch line.
type Startup struct {
	Name         string
	Version      string
	InitDuration time.Duration

	// Params maps a label to the SSM parameter path it was read from. Values are never
	// recorded here.
	Params   map[string]string
	Features map[string]bool
	Settings map[string]string
}

// Log emits the startup event at info level.
func (s Startup) Log() {
	s.write(log.Info())
}

func (s Startup) write(evt *zerolog.Event) {
	evt = evt.Object("app", appInfo{name: s.Name, version: s.Version})

	if fn := os.Getenv("AWS_LAMBDA_FUNCTION_NAME"); fn != "" {
		evt = evt.Dict("lambda", zerolog.Dict().
			Str("functionName", fn).
			Str("version", os.Getenv("AWS_LAMBDA_FUNCTION_VERSION")).
			Str("region", os.Getenv("AWS_REGION")).
			Str("memoryMB", os.Getenv("AWS_LAMBDA_FUNCTION_MEMORY_SIZE")).
			Str("logGroup", os.Getenv("AWS_LAMBDA_LOG_GROUP_NAME")))
	}
	if len(s.Params) > 0 {
		evt = evt.Object("ssmParams", sortedStrings(s.Params))
	}
	if len(s.Features) > 0 {
		evt = evt.Object("features", sortedBools(s.Features))
	}
	if len(s.Settings) > 0 {
		evt = evt.Object("config", sortedStrings(s.Settings))
	}
	if s.InitDuration > 0 {
		evt = evt.Dur("initDuration", s.InitDuration)
	}
	evt.Msg("Startup complete")
}

type appInfo struct {
	name    string
	version string
}

func (a appInfo) MarshalZerologObject(e *zerolog.Event) {
	e.Str("name", a.name).
		Str("goVersion", runtime.Version()).
		Str("arch", runtime.GOARCH).
		Str("logLevel", ParseLevel(os.Getenv("GEMINI_LOG_LEVEL")).String())
	if a.version != "" {
		e.Str("version", a.version)
	}
}

type sortedStrings map[string]string

func (m sortedStrings) MarshalZerologObject(e *zerolog.Event) {
	for _, k := range slices.Sorted(maps.Keys(m)) {
		e.Str(k, m[k])
	}
}

type sortedBools map[string]bool

func (m sortedBools) MarshalZerologObject(e *zerolog.Event) {
	for _, k := range slices.Sorted(maps.Keys(m)) {
		e.Bool(k, m[k])
	}
}

// EnvOrDefault returns the named environment variable, or defaultVal when it is empty.
func EnvOrDefault(envVar, defaultVal string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	return defaultVal
}
