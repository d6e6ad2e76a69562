// Package policy holds the table of routes that require a bearer token.
package policy

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Named presets selectable through ACCESS_PROFILE.
const (
	ProfileDefault = "default"
	ProfileStrict  = "strict"
	ProfileOpen    = "open"
)

// Route identifies a registered endpoint by verb and path template.
type Route struct {
	Method string
	Path   string
}

func (r Route) String() string {
	return r.Method + " " + r.Path
}

// alwaysProtected routes are in every preset; no profile opens them.
var alwaysProtected = []Route{
	{Method: http.MethodGet, Path: "/manageUsers"},
}

var presets = map[string][]Route{
	ProfileDefault: {},
	ProfileStrict: {
		{Method: http.MethodGet, Path: "/users"},
		{Method: http.MethodGet, Path: "/allclasses"},
		{Method: http.MethodGet, Path: "/selectedClasses"},
		{Method: http.MethodGet, Path: "/enrolledClasses"},
	},
	ProfileOpen: {},
}

var knownMethods = map[string]struct{}{
	http.MethodGet:    {},
	http.MethodPost:   {},
	http.MethodPut:    {},
	http.MethodPatch:  {},
	http.MethodDelete: {},
}

// Policy is an immutable set of protected routes.
type Policy struct {
	profile string
	routes  map[Route]struct{}
}

// New builds a policy from a preset name plus extra "METHOD /path" entries.
// An empty profile selects the default preset.
func New(profile string, entries []string) (*Policy, error) {
	profile = strings.ToLower(strings.TrimSpace(profile))
	if profile == "" {
		profile = ProfileDefault
	}
	base, ok := presets[profile]
	if !ok {
		return nil, fmt.Errorf("unknown access profile %q", profile)
	}

	p := &Policy{profile: profile, routes: make(map[Route]struct{}, len(alwaysProtected)+len(base)+len(entries))}
	for _, r := range alwaysProtected {
		p.routes[r] = struct{}{}
	}
	for _, r := range base {
		p.routes[r] = struct{}{}
	}
	for _, entry := range entries {
		if strings.TrimSpace(entry) == "" {
			continue
		}
		r, err := ParseRoute(entry)
		if err != nil {
			return nil, err
		}
		p.routes[r] = struct{}{}
	}
	return p, nil
}

// ParseRoute parses an entry of the form "GET /path".
func ParseRoute(entry string) (Route, error) {
	fields := strings.Fields(entry)
	if len(fields) != 2 {
		return Route{}, fmt.Errorf("protected route %q: want \"METHOD /path\"", entry)
	}
	method := strings.ToUpper(fields[0])
	if _, ok := knownMethods[method]; !ok {
		return Route{}, fmt.Errorf("protected route %q: unsupported method %s", entry, fields[0])
	}
	path := fields[1]
	if !strings.HasPrefix(path, "/") {
		return Route{}, fmt.Errorf("protected route %q: path must start with /", entry)
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return Route{Method: method, Path: path}, nil
}

// Profile reports the preset the policy was built from.
func (p *Policy) Profile() string {
	return p.profile
}

// Protects reports whether method and path require a valid token. Path is
// the registered template, e.g. /allclasses/:id.
func (p *Policy) Protects(method, path string) bool {
	if p == nil {
		return false
	}
	_, ok := p.routes[Route{Method: strings.ToUpper(method), Path: path}]
	return ok
}

// Routes lists the protected routes sorted by path then method.
func (p *Policy) Routes() []Route {
	if p == nil {
		return nil
	}
	out := make([]Route, 0, len(p.routes))
	for r := range p.routes {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Method < out[j].Method
	})
	return out
}

// Strings renders Routes for logging.
func (p *Policy) Strings() []string {
	routes := p.Routes()
	out := make([]string, len(routes))
	for i, r := range routes {
		out[i] = r.String()
	}
	return out
}
