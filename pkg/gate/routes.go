package gate

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/gorilla/mux"
	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/tenantgate/pkg/httputil"
)

// ErrInvalidRouteTable wraps every route table validation failure
var ErrInvalidRouteTable = errors.New("invalid route table")

// Access is the authentication policy of a route, independent of its roles
type Access string

const (
	// AccessPublic admits everyone
	AccessPublic Access = "public"
	// AccessGuest admits only anonymous users (sign-in, sign-up)
	AccessGuest Access = "guest"
	// AccessAuth admits only authenticated users
	AccessAuth Access = "auth"
)

// Route is one guarded path
type Route struct {
	Path    string   `yaml:"path"`
	Methods []string `yaml:"methods,omitempty"`
	Access  Access   `yaml:"access,omitempty"`
	// Roles are permission keys; empty means any authenticated user
	Roles     []string `yaml:"roles,omitempty"`
	FullMatch bool     `yaml:"full_match,omitempty"`
	// Redirect overrides the sign-in path (auth) or default path (guest)
	Redirect string `yaml:"redirect,omitempty"`
}

// RouteTable lists guarded routes, typically loaded from routes.yaml:
//
//	routes:
//	  - path: /signin
//	    access: guest
//	  - path: /companies/{company_id}/employees
//	    roles: [can_view_employees]
//	  - path: /companies/{company_id}/work-hours
//	    methods: [PUT]
//	    roles: [can_edit, can_edit_work_hours]
//	    full_match: true
type RouteTable struct {
	Routes []Route `yaml:"routes"`
}

// LoadRouteTable reads and validates a YAML route table
func LoadRouteTable(path string) (*RouteTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read route table: %w", err)
	}
	return ParseRouteTable(data)
}

// ParseRouteTable parses and validates a YAML route table. Routes without an
// access policy default to auth.
func ParseRouteTable(data []byte) (*RouteTable, error) {
	var table RouteTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse route table: %w", err)
	}

	for i := range table.Routes {
		if table.Routes[i].Access == "" {
			table.Routes[i].Access = AccessAuth
		}
		for j, method := range table.Routes[i].Methods {
			table.Routes[i].Methods[j] = strings.ToUpper(method)
		}
	}

	if err := table.Validate(); err != nil {
		return nil, err
	}
	return &table, nil
}

// Validate checks every route
func (t *RouteTable) Validate() error {
	var errs []error
	for i, route := range t.Routes {
		if !strings.HasPrefix(route.Path, "/") {
			errs = append(errs, fmt.Errorf("route %d: path %q must start with /", i, route.Path))
		}
		switch route.Access {
		case AccessPublic, AccessAuth:
		case AccessGuest:
			if len(route.Roles) > 0 {
				errs = append(errs, fmt.Errorf("route %d (%s): guest routes cannot require roles", i, route.Path))
			}
		default:
			errs = append(errs, fmt.Errorf("route %d (%s): unknown access %q", i, route.Path, route.Access))
		}
		if route.Redirect != "" && !IsLocalPath(route.Redirect) {
			errs = append(errs, fmt.Errorf("route %d (%s): redirect %q must be a local path", i, route.Path, route.Redirect))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidRouteTable, errors.Join(errs...))
	}
	return nil
}

// Register mounts every route on router in front of handler. Role-guarded
// routes also require authentication, so anonymous users are redirected to
// sign in rather than shown the unauthorized view.
func (t *RouteTable) Register(router *mux.Router, m *Middleware, handler http.Handler) {
	for _, route := range t.Routes {
		var guards []func(http.Handler) http.Handler
		switch route.Access {
		case AccessGuest:
			guards = append(guards, m.RequireGuest(route.Redirect))
		case AccessAuth:
			guards = append(guards, m.RequireAuth(route.Redirect))
		}
		if len(route.Roles) > 0 {
			guards = append(guards, m.RequireRoles(route.Roles, route.FullMatch))
		}

		r := router.Handle(route.Path, httputil.Chain(guards...)(handler))
		if len(route.Methods) > 0 {
			r.Methods(route.Methods...)
		}
	}
}
