package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/cors"
	"github.com/samber/lo"

	"github.com/racetagger/raceident/log"
	"github.com/racetagger/raceident/pkg/ingest"
	"github.com/racetagger/raceident/pkg/model"
	"github.com/racetagger/raceident/pkg/processing/resolver"
	"github.com/racetagger/raceident/pkg/processing/session"
	"github.com/racetagger/raceident/version"
)

// Server is the JSON/HTTP frontend of the engine. It is deliberately
// thin: session registry plus the synchronous resolve call; rosters and
// detection documents travel in the request body.
type Server struct {
	manager *session.Manager
	l       *log.Logger
}

type Option func(*Server)

func WithLogger(arg *log.Logger) Option {
	return func(s *Server) {
		s.l = arg
	}
}

func NewServer(manager *session.Manager, opts ...Option) *Server {
	ret := &Server{
		manager: manager,
		l:       log.Default().Named("api"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Handler builds the routing table. CORS is wide open; the server sits
// behind the studio's reverse proxy.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /v1/sessions", s.handleListSessions)
	mux.HandleFunc("POST /v1/sessions", s.handleStartSession)
	mux.HandleFunc("DELETE /v1/sessions/{id}", s.handleEndSession)
	mux.HandleFunc("POST /v1/sessions/{id}/resolve", s.handleResolve)
	mux.HandleFunc("GET /v1/sessions/{id}/corrections", s.handleCorrections)
	mux.HandleFunc("POST /v1/breakdown", s.handleBreakdown)
	return cors.AllowAll().Handler(mux)
}

type sessionInfo struct {
	ID      string    `json:"id"`
	Sport   string    `json:"sport"`
	Started time.Time `json:"started"`
}

func sessionToInfo(sess *session.Session, _ int) sessionInfo {
	return sessionInfo{ID: sess.ID, Sport: sess.Sport, Started: sess.Started}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}

func (s *Server) handleListSessions(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, lo.Map(s.manager.Sessions(), sessionToInfo))
}

type startSessionRequest struct {
	Sport string `json:"sport"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	sess, err := s.manager.Start(r.Context(), req.Sport)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, sessionToInfo(sess, 0))
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.End(r.PathValue("id")); err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type resolveRequest struct {
	AIResult         json.RawMessage `json:"aiResult"`
	Roster           model.Roster    `json:"roster"`
	RestrictToRoster bool            `json:"restrictToRoster"`
	Neighbors        []string        `json:"neighbors"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	sess, err := s.manager.Get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	var req resolveRequest
	if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	aiResult, err := ingest.ParseResult(req.AIResult)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	result := sess.Resolve(&resolver.Request{
		AIResult:         aiResult,
		Roster:           &req.Roster,
		RestrictToRoster: req.RestrictToRoster,
		Neighbors:        req.Neighbors,
	})
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCorrections(w http.ResponseWriter, r *http.Request) {
	sess, err := s.manager.Get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sess.Corrections())
}

func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	var cand model.MatchCandidate
	if err := json.NewDecoder(r.Body).Decode(&cand); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resolver.GetScoreBreakdown(&cand))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.l.Warn("writing response", log.ErrorField(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.l.Error("request failed", log.ErrorField(err))
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
