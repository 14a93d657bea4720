// Package session owns the request state of one user working on one photo.
//
// A Session walks Idle -> Pending -> Succeeded | Failed and back to Idle on Reset.
// At most one generation is in flight per session. There is no cancellation: a run
// that outlives a Reset (or a newer run) still finishes, but its result is dropped.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/auralens/internal/chat"
	"github.com/fpang/auralens/internal/filehandler"
)

// State is the generation request state of a session.
type State int

const (
	Idle State = iota
	Pending
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

var (
	// ErrBusy is returned when a generation is already in flight.
	ErrBusy = errors.New("a photo is already being processed")
	// ErrNothingToRetry is returned by Retry unless the last run failed.
	ErrNothingToRetry = errors.New("nothing to retry")
)

// APIKeyHint is shown next to errors about the API key.
const APIKeyHint = "Tip: if running locally, ensure GEMINI_API_KEY is set in your environment or .env file."

// Generator produces the outcome for one encoded photo. *chat.Generator satisfies it.
type Generator interface {
	Generate(ctx context.Context, payload filehandler.EncodedPayload) chat.Outcome
}

// Snapshot is a copy of a session's visible state.
type Snapshot struct {
	ID           string    `json:"id"`
	State        State     `json:"state"`
	FileName     string    `json:"fileName,omitempty"`
	OriginalURL  string    `json:"originalUrl,omitempty"`
	ProcessedURL string    `json:"processedUrl,omitempty"`
	Error        string    `json:"error,omitempty"`
	Hint         string    `json:"hint,omitempty"`
	CanRetry     bool      `json:"canRetry"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Run is one accepted generation, created by Start or Restart and consumed by Execute.
type Run struct {
	epoch     uint64
	candidate filehandler.UploadCandidate
}

// Session is safe for concurrent use.
type Session struct {
	id  string
	gen Generator
	now func() time.Time

	mu           sync.Mutex
	state        State
	epoch        uint64
	candidate    *filehandler.UploadCandidate
	originalURL  string
	processedURL string
	errMsg       string
	updatedAt    time.Time
}

// New creates an idle session.
func New(id string, gen Generator) *Session {
	s := &Session{id: id, gen: gen, now: time.Now}
	s.updatedAt = s.now()
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Start validates c and, when accepted, moves the session to Pending.
// A *filehandler.ValidationError leaves the session untouched.
func (s *Session) Start(c filehandler.UploadCandidate) (*Run, error) {
	if err := filehandler.ValidateDefault(c); err != nil {
		log.Debug().Str("session", s.id).Err(err).Msg("Upload rejected")
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Pending {
		return nil, ErrBusy
	}
	s.candidate = &c
	return s.beginLocked(c), nil
}

// Restart re-runs the retained photo after a failure.
func (s *Session) Restart() (*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Failed || s.candidate == nil {
		return nil, ErrNothingToRetry
	}
	return s.beginLocked(*s.candidate), nil
}

func (s *Session) beginLocked(c filehandler.UploadCandidate) *Run {
	s.epoch++
	s.state = Pending
	s.originalURL = ""
	s.processedURL = ""
	s.errMsg = ""
	s.updatedAt = s.now()

	log.Info().
		Str("session", s.id).
		Str("file", c.Name).
		Str("media_type", c.MediaType).
		Int64("size_bytes", c.Size).
		Uint64("epoch", s.epoch).
		Msg("Generation started")
	return &Run{epoch: s.epoch, candidate: c}
}

// Execute encodes the run's photo, generates the result and records it, unless the
// run was superseded in the meantime. It always returns the current snapshot.
func (s *Session) Execute(ctx context.Context, run *Run) Snapshot {
	payload, err := filehandler.Encode(ctx, run.candidate)
	if err != nil {
		log.Error().Err(err).Str("session", s.id).Msg("Failed to encode photo")
		s.complete(run, chat.Failure(chat.NormalizeErrorMessage(chat.MessageOf(err))))
		return s.Snapshot()
	}

	s.withCurrent(run, func() { s.originalURL = payload.DataURL() })
	s.complete(run, s.gen.Generate(ctx, payload))
	return s.Snapshot()
}

// SelectFile runs the whole pipeline for c and waits for the result.
func (s *Session) SelectFile(ctx context.Context, c filehandler.UploadCandidate) (Snapshot, error) {
	run, err := s.Start(c)
	if err != nil {
		return s.Snapshot(), err
	}
	return s.Execute(ctx, run), nil
}

// Retry re-runs the retained photo and waits for the result.
func (s *Session) Retry(ctx context.Context) (Snapshot, error) {
	run, err := s.Restart()
	if err != nil {
		return s.Snapshot(), err
	}
	return s.Execute(ctx, run), nil
}

// Reset discards everything, including a run still in flight, and returns to Idle.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.state = Idle
	s.candidate = nil
	s.originalURL = ""
	s.processedURL = ""
	s.errMsg = ""
	s.updatedAt = s.now()
	log.Debug().Str("session", s.id).Msg("Session reset")
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:           s.id,
		State:        s.state,
		OriginalURL:  s.originalURL,
		ProcessedURL: s.processedURL,
		Error:        s.errMsg,
		CanRetry:     s.state == Failed && s.candidate != nil,
		UpdatedAt:    s.updatedAt,
	}
	if s.candidate != nil {
		snap.FileName = s.candidate.Name
	}
	if s.state == Failed && strings.Contains(s.errMsg, "API Key") {
		snap.Hint = APIKeyHint
	}
	return snap
}

func (s *Session) complete(run *Run, out chat.Outcome) {
	applied := s.withCurrent(run, func() {
		if out.Succeeded() {
			s.state = Succeeded
			s.processedURL = out.ImageURL()
			s.errMsg = ""
		} else {
			s.state = Failed
			s.processedURL = ""
			s.errMsg = out.Message()
		}
		s.updatedAt = s.now()
	})
	if !applied {
		log.Info().
			Str("session", s.id).
			Uint64("epoch", run.epoch).
			Msg("Discarding result of superseded run")
	}
}

func (s *Session) withCurrent(run *Run, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if run.epoch != s.epoch {
		return false
	}
	fn()
	return true
}
