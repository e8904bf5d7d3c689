package auth

import (
	"net/http"
	"strings"
)

// DefaultExemptPaths never require a token.
var DefaultExemptPaths = []string{"/healthz", "/metrics", "/api/v1/auth/login"}

// rule grants access to paths matching path (exact) or prefix. Reads are
// GET and HEAD; writes are every other method.
type rule struct {
	path   string
	prefix string
	read   Role
	write  Role
}

func (r rule) matches(path string) bool {
	if r.path != "" && path == r.path {
		return true
	}
	return r.prefix != "" && strings.HasPrefix(path, r.prefix)
}

// dashboardRules are evaluated in order; the first match wins.
var dashboardRules = []rule{
	{path: "/api/v1/audit", read: RoleAdmin, write: RoleAdmin},
	{path: "/api/v1/clients", prefix: "/api/v1/clients/", read: RoleViewer, write: RoleAdmin},
	{prefix: "/api/v1/reports/export.", read: RoleOperator, write: RoleOperator},
	{path: "/api/v1/reports/archive", read: RoleOperator, write: RoleOperator},
	{prefix: "/api/", read: RoleViewer, write: RoleOperator},
}

// Policy determines required roles by request.
type Policy struct {
	ExemptPaths    map[string]struct{}
	ExemptPrefixes []string
	rules          []rule
}

// NewDefaultPolicy builds the dashboard policy with extra exemptions.
func NewDefaultPolicy(exemptPaths []string, exemptPrefixes []string) Policy {
	set := make(map[string]struct{}, len(exemptPaths)+len(DefaultExemptPaths))
	for _, path := range append(append([]string{}, DefaultExemptPaths...), exemptPaths...) {
		set[path] = struct{}{}
	}
	return Policy{ExemptPaths: set, ExemptPrefixes: exemptPrefixes, rules: dashboardRules}
}

// IsExempt returns true when a request skips authentication. CORS
// preflights are always exempt.
func (p Policy) IsExempt(r *http.Request) bool {
	if r == nil || r.Method == http.MethodOptions {
		return true
	}
	if _, ok := p.ExemptPaths[r.URL.Path]; ok {
		return true
	}
	for _, prefix := range p.ExemptPrefixes {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}
	return false
}

// RequiredRole resolves the role a request needs. ok is false for paths
// outside the API, which are served without a token.
func (p Policy) RequiredRole(r *http.Request) (Role, bool) {
	if r == nil {
		return "", false
	}
	rules := p.rules
	if rules == nil {
		rules = dashboardRules
	}
	for _, candidate := range rules {
		if !candidate.matches(r.URL.Path) {
			continue
		}
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			return candidate.read, true
		}
		return candidate.write, true
	}
	return "", false
}
