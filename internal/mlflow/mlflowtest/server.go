// Package mlflowtest provides an in-process MLflow tracking server for tests.
// It implements the registry and run endpoints the mlflow package calls.
package mlflowtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/capstone-project/mlreg/internal/mlflow"
)

// Endpoint paths, relative to the tracking URI.
const (
	PathCreateRegisteredModel = "/api/2.0/mlflow/registered-models/create"
	PathGetRegisteredModel    = "/api/2.0/mlflow/registered-models/get"
	PathCreateModelVersion    = "/api/2.0/mlflow/model-versions/create"
	PathGetModelVersion       = "/api/2.0/mlflow/model-versions/get"
	PathTransitionStage       = "/api/2.0/mlflow/model-versions/transition-stage"
	PathSearchModelVersions   = "/api/2.0/mlflow/model-versions/search"
	PathGetRun                = "/api/2.0/mlflow/runs/get"
	PathVersion               = "/version"
)

type failure struct {
	status  int
	code    string
	message string
}

// Server is a fake tracking server. Configure it before issuing requests.
type Server struct {
	*httptest.Server

	// Prefix is prepended to every path, e.g. "/owner/repo.mlflow".
	Prefix string

	mu            sync.Mutex
	token         string
	serverVersion string
	models        map[string]bool
	versions      map[string][]*mlflow.ModelVersion
	runs          map[string]string
	pendingPolls  int
	failReady     bool
	failures      map[string]failure
	requests      []string
	transitions   []mlflow.TransitionStageRequest
}

// NewServer starts a fake server mounted under prefix.
func NewServer(prefix string) *Server {
	s := &Server{
		Prefix:        strings.TrimRight(prefix, "/"),
		serverVersion: "2.8.1",
		models:        make(map[string]bool),
		versions:      make(map[string][]*mlflow.ModelVersion),
		runs:          make(map[string]string),
		failures:      make(map[string]failure),
	}
	s.Server = httptest.NewServer(s)
	return s
}

// TrackingURI returns the URI clients should use.
func (s *Server) TrackingURI() string {
	return s.URL + s.Prefix
}

// RequireToken rejects requests whose basic-auth user or password differs
// from token.
func (s *Server) RequireToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// SetServerVersion sets what /version reports.
func (s *Server) SetServerVersion(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.serverVersion = v
}

// AddModel pre-creates a registered model.
func (s *Server) AddModel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.models[name] = true
}

// AddRun makes runs/get answer for runID with the given artifact root.
func (s *Server) AddRun(runID, artifactURI string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[runID] = artifactURI
}

// PendingPolls makes the next n model-versions/get calls report
// PENDING_REGISTRATION.
func (s *Server) PendingPolls(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingPolls = n
}

// FailReady makes polled versions end in FAILED_REGISTRATION.
func (s *Server) FailReady() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failReady = true
}

// Fail makes path answer with an MLflow error.
func (s *Server) Fail(path string, status int, code, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = failure{status: status, code: code, message: message}
}

// RequestCount returns how many requests hit path.
func (s *Server) RequestCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.requests {
		if p == path {
			n++
		}
	}
	return n
}

// Requests returns every path requested so far.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// Versions returns copies of the stored versions of name.
func (s *Server) Versions(name string) []mlflow.ModelVersion {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]mlflow.ModelVersion, 0, len(s.versions[name]))
	for _, mv := range s.versions[name] {
		out = append(out, *mv)
	}
	return out
}

// Transitions returns the transition-stage requests received.
func (s *Server) Transitions() []mlflow.TransitionStageRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]mlflow.TransitionStageRequest(nil), s.transitions...)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error_code": code, "message": message})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, s.Prefix)
	s.requests = append(s.requests, path)

	if s.token != "" {
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.token || pass != s.token {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Unauthorized"))
			return
		}
	}
	if f, ok := s.failures[path]; ok {
		writeError(w, f.status, f.code, f.message)
		return
	}

	switch path {
	case PathVersion:
		w.Write([]byte(s.serverVersion))

	case PathCreateRegisteredModel:
		var body struct {
			Name string `json:"name"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if s.models[body.Name] {
			writeError(w, http.StatusBadRequest, mlflow.ErrorCodeResourceAlreadyExists,
				"Registered Model (name="+body.Name+") already exists.")
			return
		}
		s.models[body.Name] = true
		writeJSON(w, map[string]any{"registered_model": mlflow.RegisteredModel{Name: body.Name}})

	case PathGetRegisteredModel:
		name := r.URL.Query().Get("name")
		if !s.models[name] {
			writeError(w, http.StatusNotFound, mlflow.ErrorCodeResourceDoesNotExist, "Registered Model with name="+name+" not found")
			return
		}
		writeJSON(w, map[string]any{"registered_model": mlflow.RegisteredModel{Name: name}})

	case PathGetRun:
		runID := r.URL.Query().Get("run_id")
		uri, ok := s.runs[runID]
		if !ok {
			writeError(w, http.StatusNotFound, mlflow.ErrorCodeResourceDoesNotExist, "Run '"+runID+"' not found")
			return
		}
		writeJSON(w, map[string]any{"run": mlflow.Run{Info: mlflow.RunInfo{RunID: runID, ArtifactURI: uri}}})

	case PathCreateModelVersion:
		var body mlflow.CreateModelVersionRequest
		json.NewDecoder(r.Body).Decode(&body)
		if !s.models[body.Name] {
			writeError(w, http.StatusNotFound, mlflow.ErrorCodeResourceDoesNotExist, "Registered Model with name="+body.Name+" not found")
			return
		}
		mv := &mlflow.ModelVersion{
			Name:         body.Name,
			Version:      strconv.Itoa(len(s.versions[body.Name]) + 1),
			Source:       body.Source,
			RunID:        body.RunID,
			CurrentStage: "None",
			Status:       mlflow.StatusPendingRegistration,
		}
		s.versions[body.Name] = append(s.versions[body.Name], mv)
		writeJSON(w, map[string]any{"model_version": mv})

	case PathGetModelVersion:
		mv := s.find(r.URL.Query().Get("name"), r.URL.Query().Get("version"))
		if mv == nil {
			writeError(w, http.StatusNotFound, mlflow.ErrorCodeResourceDoesNotExist, "Model Version not found")
			return
		}
		switch {
		case s.pendingPolls > 0:
			s.pendingPolls--
		case s.failReady:
			mv.Status = mlflow.StatusFailedRegistration
			mv.StatusMessage = "artifact not found"
		default:
			mv.Status = mlflow.StatusReady
		}
		writeJSON(w, map[string]any{"model_version": mv})

	case PathTransitionStage:
		var body mlflow.TransitionStageRequest
		json.NewDecoder(r.Body).Decode(&body)
		s.transitions = append(s.transitions, body)
		mv := s.find(body.Name, body.Version)
		if mv == nil {
			writeError(w, http.StatusNotFound, mlflow.ErrorCodeResourceDoesNotExist, "Model Version not found")
			return
		}
		if body.ArchiveExistingVersions {
			for _, other := range s.versions[body.Name] {
				if other != mv && other.CurrentStage == body.Stage {
					other.CurrentStage = "Archived"
				}
			}
		}
		mv.CurrentStage = body.Stage
		writeJSON(w, map[string]any{"model_version": mv})

	case PathSearchModelVersions:
		name := strings.TrimPrefix(r.URL.Query().Get("filter"), "name=")
		name = strings.Trim(name, `'"`)
		out := make([]*mlflow.ModelVersion, 0, len(s.versions[name]))
		out = append(out, s.versions[name]...)
		writeJSON(w, map[string]any{"model_versions": out})

	default:
		http.NotFound(w, r)
	}
}

func (s *Server) find(name, version string) *mlflow.ModelVersion {
	for _, mv := range s.versions[name] {
		if mv.Version == version {
			return mv
		}
	}
	return nil
}
