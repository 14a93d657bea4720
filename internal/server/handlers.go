package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/fpang/auralens/internal/assets"
	"github.com/fpang/auralens/internal/chat"
	"github.com/fpang/auralens/internal/filehandler"
	"github.com/fpang/auralens/internal/session"
)

type healthResponse struct {
	Status        string `json:"status"`
	Model         string `json:"model,omitempty"`
	Version       string `json:"version,omitempty"`
	PromptVersion string `json:"promptVersion"`
	Credential    bool   `json:"credential"`
	Sessions      int    `json:"sessions"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, healthResponse{
		Status:        "ok",
		Model:         s.opts.Model,
		Version:       s.opts.Version,
		PromptVersion: assets.StylePromptVersion,
		Credential:    s.opts.CredentialPresent,
		Sessions:      s.store.Len(),
	})
}

// handleGenerate runs the whole pipeline for one photo and answers with the result.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	c, err := readUpload(w, r)
	if err != nil {
		s.respondUploadError(w, err)
		return
	}

	sess := session.New(middleware.GetReqID(r.Context()), s.opts.Generator)
	snap, err := sess.SelectFile(context.WithoutCancel(r.Context()), c)
	if err != nil {
		s.respondUploadError(w, err)
		return
	}

	status := http.StatusOK
	if snap.State == session.Failed {
		status = http.StatusBadGateway
	}
	respondJSON(w, status, snap)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.store.Create()
	log.Debug().Str("session", sess.ID()).Msg("Session created")
	respondJSON(w, http.StatusCreated, sess.Snapshot())
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.store.Delete(chi.URLParam(r, "id")) {
		httpError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleUpload accepts a photo and starts its generation in the background.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	c, err := readUpload(w, r)
	if err != nil {
		s.respondUploadError(w, err)
		return
	}

	run, err := sess.Start(c)
	if err != nil {
		s.respondUploadError(w, err)
		return
	}
	s.execute(r, sess, run)
	respondJSON(w, http.StatusAccepted, sess.Snapshot())
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	run, err := sess.Restart()
	if err != nil {
		httpError(w, http.StatusConflict, err.Error())
		return
	}
	s.execute(r, sess, run)
	respondJSON(w, http.StatusAccepted, sess.Snapshot())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess.Reset()
	respondJSON(w, http.StatusOK, sess.Snapshot())
}

// execute runs a generation detached from the request: it always runs to completion.
func (s *Server) execute(r *http.Request, sess *session.Session, run *session.Run) {
	ctx := context.WithoutCancel(r.Context())
	s.runs.Go(func() {
		snap := sess.Execute(ctx, run)
		log.Debug().Str("session", sess.ID()).Stringer("state", snap.State).Msg("Background generation finished")
	})
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, ok := s.store.Get(chi.URLParam(r, "id"))
	if !ok {
		httpError(w, http.StatusNotFound, "session not found")
	}
	return sess, ok
}

func (s *Server) respondUploadError(w http.ResponseWriter, err error) {
	var valErr *filehandler.ValidationError
	var ioErr *filehandler.IOError
	switch {
	case errors.As(err, &valErr):
		httpError(w, http.StatusUnprocessableEntity, valErr.Message)
	case errors.Is(err, session.ErrBusy):
		httpError(w, http.StatusConflict, err.Error())
	case errors.As(err, &ioErr):
		log.Error().Err(err).Msg("Failed to read upload")
		httpError(w, http.StatusBadRequest, chat.MsgProcessingFailure)
	default:
		httpError(w, http.StatusBadRequest, err.Error())
	}
}
