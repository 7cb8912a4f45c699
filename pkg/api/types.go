package api

import (
	"context"
	"net/http"

	"github.com/platinummonkey/tenantgate/pkg/catalog"
	"github.com/platinummonkey/tenantgate/pkg/gate"
)

// CatalogService is the permission catalog cache as seen by the handlers
type CatalogService interface {
	GetPermissions(ctx context.Context, token string) (catalog.Catalog, error)
	Clear(ctx context.Context) error
}

// GrantDecoder expands a grant string into permission keys
type GrantDecoder interface {
	DecodeOrEmpty(ctx context.Context, token, codes string) []string
}

// Authorizer decides a role check for the request session
type Authorizer interface {
	Decide(r *http.Request, companyID string, roles []string, fullMatch bool) (gate.Decision, error)
}

// PermissionsResponse is the body of GET /api/permissions
type PermissionsResponse struct {
	Language    string                          `json:"lang"`
	Permissions catalog.Catalog                 `json:"permissions"`
	Categories  map[string][]catalog.Definition `json:"categories"`
}

// LanguageRequest is the body of PUT /api/language
type LanguageRequest struct {
	Language string `json:"lang"`
}

// LanguageResponse reports the active language
type LanguageResponse struct {
	Language string `json:"lang"`
	Changed  bool   `json:"changed"`
}

// CompanyPermissionsResponse lists the keys the caller holds for one company
type CompanyPermissionsResponse struct {
	CompanyID   string   `json:"company_id"`
	Permissions []string `json:"permissions"`
	SuperAdmin  bool     `json:"super_admin"`
}

// AuthorizeRequest is the body of POST /api/authorize
type AuthorizeRequest struct {
	CompanyID string   `json:"company_id"`
	Roles     []string `json:"roles"`
	FullMatch bool     `json:"full_match"`
}

// AuthorizeResponse carries the resolved decision
type AuthorizeResponse struct {
	CompanyID string        `json:"company_id"`
	Decision  gate.Decision `json:"decision"`
	Allowed   bool          `json:"allowed"`
}
