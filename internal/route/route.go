// Package route maps Applications API methods onto HTTP calls.
//
// Each method is bound once to a verb and a path template. Build turns a
// request record into the concrete call: path parameters are substituted
// from the request's JSON fields, GET calls carry the remaining fields as a
// query string and POST calls carry the whole record as a JSON body.
package route

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	appsv1 "github.com/ia-eknorr/gitops-apps/api/v1"
)

var (
	// ErrUnknownMethod is returned by Lookup for a method with no route.
	ErrUnknownMethod = errors.New("unknown method")

	// ErrMissingPathParam is returned by Build when a path parameter is absent or empty.
	ErrMissingPathParam = errors.New("missing path parameter")
)

// Route binds an API method to an HTTP verb and path template.
type Route struct {
	Method string
	Verb   string

	// Path is the template, e.g. /v1/applications/{name}/commits.
	Path string

	// Body is true when the request record is sent as a JSON body.
	Body bool

	params []string
}

// PathParams returns the parameter names of the path template, in order.
func (r Route) PathParams() []string {
	return append([]string(nil), r.params...)
}

var paramPattern = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

func bind(method, verb, path string) Route {
	rt := Route{Method: method, Verb: verb, Path: path, Body: verb != http.MethodGet}
	for _, m := range paramPattern.FindAllStringSubmatch(path, -1) {
		rt.params = append(rt.params, m[1])
	}
	return rt
}

var routes = []Route{
	bind(appsv1.MethodAuthenticate, http.MethodPost, "/v1/authenticate/{providerName}"),
	bind(appsv1.MethodListApplications, http.MethodGet, "/v1/applications"),
	bind(appsv1.MethodGetApplication, http.MethodGet, "/v1/applications/{name}"),
	bind(appsv1.MethodListCommits, http.MethodGet, "/v1/applications/{name}/commits"),
	bind(appsv1.MethodGetReconciledObjects, http.MethodPost, "/v1/applications/{automationName}/reconciled_objects"),
	bind(appsv1.MethodGetChildObjects, http.MethodPost, "/v1/applications/child_objects"),
	bind(appsv1.MethodGetGithubDeviceCode, http.MethodGet, "/v1/applications/auth_providers/github"),
	bind(appsv1.MethodGetGithubAuthStatus, http.MethodPost, "/v1/applications/auth_providers/github/status"),
	bind(appsv1.MethodAddApplication, http.MethodPost, "/v1/applications"),
}

var byMethod = func() map[string]Route {
	m := make(map[string]Route, len(routes))
	for _, rt := range routes {
		m[rt.Method] = rt
	}
	return m
}()

// Lookup returns the route bound to method.
func Lookup(method string) (Route, error) {
	rt, ok := byMethod[method]
	if !ok {
		return Route{}, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
	return rt, nil
}

// All returns every route in declaration order.
func All() []Route {
	out := make([]Route, len(routes))
	copy(out, routes)
	return out
}

// Call is the HTTP description of one API invocation.
type Call struct {
	Verb  string
	Path  string
	Query url.Values
	Body  []byte
}

// URL returns the path with the encoded query string, if any.
func (c Call) URL() string {
	if len(c.Query) == 0 {
		return c.Path
	}
	return c.Path + "?" + c.Query.Encode()
}

// Build produces the call for req on rt. req must JSON-encode to an object.
func Build(rt Route, req any) (Call, error) {
	doc, err := json.Marshal(req)
	if err != nil {
		return Call{}, fmt.Errorf("encoding %s request: %w", rt.Method, err)
	}
	if req == nil || string(doc) == "null" {
		doc = []byte("{}")
	}
	if !gjson.ValidBytes(doc) || !gjson.ParseBytes(doc).IsObject() {
		return Call{}, fmt.Errorf("encoding %s request: not a JSON object", rt.Method)
	}

	path, err := expandPath(rt, doc)
	if err != nil {
		return Call{}, err
	}

	call := Call{Verb: rt.Verb, Path: path}
	if rt.Body {
		call.Body = doc
		return call, nil
	}

	for _, p := range rt.params {
		doc, err = sjson.DeleteBytes(doc, p)
		if err != nil {
			return Call{}, fmt.Errorf("removing path parameter %q: %w", p, err)
		}
	}
	call.Query = url.Values{}
	flatten("", gjson.ParseBytes(doc), call.Query)
	return call, nil
}

func expandPath(rt Route, doc []byte) (string, error) {
	path := rt.Path
	for _, p := range rt.params {
		v := gjson.GetBytes(doc, p)
		if !v.Exists() || v.String() == "" {
			return "", fmt.Errorf("%w %q for %s", ErrMissingPathParam, p, rt.Method)
		}
		path = strings.ReplaceAll(path, "{"+p+"}", url.PathEscape(v.String()))
	}
	return path, nil
}

// flatten writes v into q the way grpc-gateway reads query parameters:
// nested fields are dot-joined and repeated fields repeat the key.
func flatten(prefix string, v gjson.Result, q url.Values) {
	switch {
	case v.IsObject():
		v.ForEach(func(key, child gjson.Result) bool {
			name := key.String()
			if prefix != "" {
				name = prefix + "." + name
			}
			flatten(name, child, q)
			return true
		})
	case v.IsArray():
		v.ForEach(func(_, child gjson.Result) bool {
			flatten(prefix, child, q)
			return true
		})
	case v.Type == gjson.Null:
	default:
		if prefix != "" {
			q.Add(prefix, v.String())
		}
	}
}
