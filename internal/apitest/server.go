// Package apitest provides an in-memory Applications API gateway for tests.
// It serves every route of the route table with grpc-gateway style JSON
// errors and records each request it receives.
package apitest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"k8s.io/apimachinery/pkg/types"
	logf "sigs.k8s.io/controller-runtime/pkg/log"

	appsv1 "github.com/ia-eknorr/gitops-apps/api/v1"
	"github.com/ia-eknorr/gitops-apps/internal/route"
)

const (
	maxPayloadBytes = 1 << 20 // 1 MiB

	// gRPC status codes used in error bodies.
	codeInvalidArgument = 3
	codeNotFound        = 5
	codeAlreadyExists   = 6
	codeUnauthenticated = 16

	// DeviceCode, UserCode and AccessToken are what the fake GitHub device flow hands out.
	DeviceCode  = "device-code-1"
	UserCode    = "ABCD-1234"
	AccessToken = "gho_fake_access_token"
)

// Recorded is a request received by the server.
type Recorded struct {
	Method string
	Verb   string
	Path   string
	Query  url.Values
	Body   []byte
	Header http.Header

	// Received is when the server read the request.
	Received time.Time
}

type failure struct {
	status  int
	code    int
	message string
}

// Server is a fake gateway. Configure its exported fields before issuing requests.
type Server struct {
	*httptest.Server

	// RequireToken, when set, makes every route except the auth routes
	// demand "Authorization: token <RequireToken>".
	RequireToken string

	// SessionToken is returned by Authenticate.
	SessionToken string

	// PendingPolls is how many status polls report authorization_pending
	// before the device code is granted.
	PendingPolls int

	// SlowDownPolls is how many status polls report slow_down, after the
	// pending ones.
	SlowDownPolls int

	// DenyDeviceCode makes status polls report access_denied.
	DenyDeviceCode bool

	mu       sync.Mutex
	apps     map[types.NamespacedName]appsv1.Application
	commits  map[string][]appsv1.Commit
	objects  map[string][]appsv1.UnstructuredObject
	children map[string][]appsv1.UnstructuredObject
	failures map[string]failure
	polls    int
	requests []Recorded
}

// NewServer starts a fake gateway. Callers must Close it.
func NewServer() *Server {
	s := &Server{
		SessionToken: "session-token",
		apps:         make(map[types.NamespacedName]appsv1.Application),
		commits:      make(map[string][]appsv1.Commit),
		objects:      make(map[string][]appsv1.UnstructuredObject),
		children:     make(map[string][]appsv1.UnstructuredObject),
		failures:     make(map[string]failure),
	}

	handlers := map[string]http.HandlerFunc{
		appsv1.MethodAuthenticate:         s.authenticate,
		appsv1.MethodListApplications:     s.listApplications,
		appsv1.MethodGetApplication:       s.getApplication,
		appsv1.MethodListCommits:          s.listCommits,
		appsv1.MethodGetReconciledObjects: s.getReconciledObjects,
		appsv1.MethodGetChildObjects:      s.getChildObjects,
		appsv1.MethodGetGithubDeviceCode:  s.getGithubDeviceCode,
		appsv1.MethodGetGithubAuthStatus:  s.getGithubAuthStatus,
		appsv1.MethodAddApplication:       s.addApplication,
	}

	mux := http.NewServeMux()
	for _, rt := range route.All() {
		mux.HandleFunc(rt.Verb+" "+rt.Path, s.wrap(rt.Method, handlers[rt.Method]))
	}
	s.Server = httptest.NewServer(mux)
	return s
}

// AddApplication seeds an application.
func (s *Server) AddApplication(app appsv1.Application) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apps[app.Key()] = app
}

// SetCommits seeds the commit history of an application, newest first.
func (s *Server) SetCommits(name string, commits []appsv1.Commit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commits[name] = commits
}

// SetReconciledObjects seeds the objects produced by an automation.
func (s *Server) SetReconciledObjects(automationName string, objs []appsv1.UnstructuredObject) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[automationName] = objs
}

// SetChildObjects seeds the children of the object with parentUID.
func (s *Server) SetChildObjects(parentUID string, objs []appsv1.UnstructuredObject) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.children[parentUID] = objs
}

// FailNext makes the next call of method fail with status and message.
func (s *Server) FailNext(method string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method] = failure{status: status, code: grpcCode(status), message: message}
}

// Requests returns a copy of every request received so far.
func (s *Server) Requests() []Recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.requests)
}

// LastRequest returns the most recent request for method.
func (s *Server) LastRequest(method string) (Recorded, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.requests) - 1; i >= 0; i-- {
		if s.requests[i].Method == method {
			return s.requests[i], true
		}
	}
	return Recorded{}, false
}

func (s *Server) wrap(method string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logf.FromContext(r.Context()).WithName("apitest")

		body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read body")
			return
		}

		s.mu.Lock()
		s.requests = append(s.requests, Recorded{
			Method:   method,
			Verb:     r.Method,
			Path:     r.URL.Path,
			Query:    r.URL.Query(),
			Body:     body,
			Header:   r.Header.Clone(),
			Received: time.Now(),
		})
		f, failing := s.failures[method]
		delete(s.failures, method)
		s.mu.Unlock()

		if failing {
			writeStatus(w, f.status, f.code, f.message)
			return
		}

		if s.RequireToken != "" && !isAuthRoute(method) {
			if r.Header.Get("Authorization") != "token "+s.RequireToken {
				writeStatus(w, http.StatusUnauthorized, codeUnauthenticated, "unauthenticated")
				return
			}
		}

		log.V(1).Info("serving", "method", method, "path", r.URL.Path)
		r.Body = io.NopCloser(bytes.NewReader(body))
		next(w, r)
	}
}

func isAuthRoute(method string) bool {
	switch method {
	case appsv1.MethodAuthenticate, appsv1.MethodGetGithubDeviceCode, appsv1.MethodGetGithubAuthStatus:
		return true
	}
	return false
}

func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) {
	var req appsv1.AuthenticateRequest
	if !decode(w, r, &req) {
		return
	}
	if req.AccessToken == "" {
		writeStatus(w, http.StatusBadRequest, codeInvalidArgument, "access token is required")
		return
	}
	if provider := r.PathValue("providerName"); provider != "github" {
		writeStatus(w, http.StatusBadRequest, codeInvalidArgument, fmt.Sprintf("unknown provider %q", provider))
		return
	}
	writeJSON(w, http.StatusOK, appsv1.AuthenticateResponse{Token: s.SessionToken})
}

func (s *Server) listApplications(w http.ResponseWriter, r *http.Request) {
	ns := r.URL.Query().Get("namespace")

	s.mu.Lock()
	var out []appsv1.Application
	for key, app := range s.apps {
		if ns == "" || key.Namespace == ns {
			out = append(out, app)
		}
	}
	s.mu.Unlock()

	slices.SortFunc(out, func(a, b appsv1.Application) int {
		return strings.Compare(a.Key().String(), b.Key().String())
	})
	writeJSON(w, http.StatusOK, appsv1.ListApplicationsResponse{Applications: out})
}

func (s *Server) getApplication(w http.ResponseWriter, r *http.Request) {
	app, ok := s.find(r.PathValue("name"), r.URL.Query().Get("namespace"))
	if !ok {
		writeStatus(w, http.StatusNotFound, codeNotFound, fmt.Sprintf("application %q not found", r.PathValue("name")))
		return
	}
	writeJSON(w, http.StatusOK, appsv1.GetApplicationResponse{Application: &app})
}

func (s *Server) listCommits(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if _, ok := s.find(name, r.URL.Query().Get("namespace")); !ok {
		writeStatus(w, http.StatusNotFound, codeNotFound, fmt.Sprintf("application %q not found", name))
		return
	}

	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	page, _ := strconv.Atoi(r.URL.Query().Get("pageToken"))

	s.mu.Lock()
	all := s.commits[name]
	s.mu.Unlock()

	if pageSize <= 0 {
		pageSize = len(all)
	}
	start := min(page*pageSize, len(all))
	end := min(start+pageSize, len(all))

	res := appsv1.ListCommitsResponse{Commits: all[start:end]}
	if end < len(all) {
		res.NextPageToken = int32(page + 1)
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) getReconciledObjects(w http.ResponseWriter, r *http.Request) {
	var req appsv1.GetReconciledObjectsRequest
	if !decode(w, r, &req) {
		return
	}
	if req.AutomationKind != "" && !req.AutomationKind.Valid() {
		writeStatus(w, http.StatusBadRequest, codeInvalidArgument, fmt.Sprintf("unknown automation kind %q", req.AutomationKind))
		return
	}

	s.mu.Lock()
	objs := s.objects[r.PathValue("automationName")]
	s.mu.Unlock()

	var out []appsv1.UnstructuredObject
	for _, obj := range objs {
		if len(req.Kinds) == 0 || slices.ContainsFunc(req.Kinds, func(k appsv1.GroupVersionKind) bool {
			return obj.GroupVersionKind != nil && *obj.GroupVersionKind == k
		}) {
			out = append(out, obj)
		}
	}
	writeJSON(w, http.StatusOK, appsv1.GetReconciledObjectsResponse{Objects: out})
}

func (s *Server) getChildObjects(w http.ResponseWriter, r *http.Request) {
	var req appsv1.GetChildObjectsRequest
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	objs := s.children[req.ParentUID]
	s.mu.Unlock()

	var out []appsv1.UnstructuredObject
	for _, obj := range objs {
		if req.GroupVersionKind == nil || (obj.GroupVersionKind != nil && obj.GroupVersionKind.Kind == req.GroupVersionKind.Kind) {
			out = append(out, obj)
		}
	}
	writeJSON(w, http.StatusOK, appsv1.GetChildObjectsResponse{Objects: out})
}

func (s *Server) getGithubDeviceCode(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, appsv1.GetGithubDeviceCodeResponse{
		UserCode:      UserCode,
		DeviceCode:    DeviceCode,
		ValidationURI: "https://github.com/login/device",
	})
}

func (s *Server) getGithubAuthStatus(w http.ResponseWriter, r *http.Request) {
	var req appsv1.GetGithubAuthStatusRequest
	if !decode(w, r, &req) {
		return
	}
	if req.DeviceCode != DeviceCode {
		writeJSON(w, http.StatusOK, appsv1.GetGithubAuthStatusResponse{Error: "expired_token"})
		return
	}
	if s.DenyDeviceCode {
		writeJSON(w, http.StatusOK, appsv1.GetGithubAuthStatusResponse{Error: "access_denied"})
		return
	}

	s.mu.Lock()
	s.polls++
	pending := s.polls <= s.PendingPolls
	slowDown := !pending && s.polls <= s.PendingPolls+s.SlowDownPolls
	s.mu.Unlock()

	switch {
	case pending:
		writeJSON(w, http.StatusOK, appsv1.GetGithubAuthStatusResponse{Error: "authorization_pending"})
		return
	case slowDown:
		writeJSON(w, http.StatusOK, appsv1.GetGithubAuthStatusResponse{Error: "slow_down"})
		return
	}
	writeJSON(w, http.StatusOK, appsv1.GetGithubAuthStatusResponse{AccessToken: AccessToken})
}

func (s *Server) addApplication(w http.ResponseWriter, r *http.Request) {
	var req appsv1.AddApplicationRequest
	if !decode(w, r, &req) {
		return
	}

	app := appsv1.Application{
		Name:           req.Name,
		Namespace:      req.Namespace,
		URL:            req.URL,
		Path:           req.Path,
		DeploymentType: appsv1.AutomationKindKustomize,
	}

	s.mu.Lock()
	if _, exists := s.apps[app.Key()]; exists {
		s.mu.Unlock()
		writeStatus(w, http.StatusConflict, codeAlreadyExists, fmt.Sprintf("application %q already exists", req.Name))
		return
	}
	s.apps[app.Key()] = app
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, appsv1.AddApplicationResponse{Success: true, Application: &app})
}

func (s *Server) find(name, namespace string) (appsv1.Application, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if namespace != "" {
		app, ok := s.apps[types.NamespacedName{Namespace: namespace, Name: name}]
		return app, ok
	}
	for key, app := range s.apps {
		if key.Name == name {
			return app, true
		}
	}
	return appsv1.Application{}, false
}

func decode(w http.ResponseWriter, r *http.Request, into any) bool {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		writeStatus(w, http.StatusBadRequest, codeInvalidArgument, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

func grpcCode(status int) int {
	switch status {
	case http.StatusBadRequest:
		return codeInvalidArgument
	case http.StatusUnauthorized:
		return codeUnauthenticated
	case http.StatusNotFound:
		return codeNotFound
	case http.StatusConflict:
		return codeAlreadyExists
	default:
		return 2 // Unknown
	}
}

func writeStatus(w http.ResponseWriter, status, code int, message string) {
	writeJSON(w, status, map[string]any{
		"code":    code,
		"message": message,
		"details": []any{},
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeStatus(w, status, grpcCode(status), message)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
