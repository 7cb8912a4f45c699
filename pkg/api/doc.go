// Package api exposes the permission catalog and role checks over HTTP.
//
// Routes:
//
//	GET  /api/permissions                         catalog for the active language
//	POST /api/permissions/cache/clear             drop the persisted catalog
//	GET  /api/language                            active display language
//	PUT  /api/language                            switch language (clears the cache)
//	GET  /api/companies/{company_id}/permissions  caller's keys for a company
//	POST /api/authorize                           run a role check for the caller
//
// Handlers read the caller from the session stored by session.Middleware.
// Clearing the cache and switching the language affect every tenant, so they
// need a caller holding the admin code (the super-admin code by default) in
// some grant: anonymous callers get 401, others 403. POST /api/authorize
// needs a signed-in caller.
// A catalog that cannot be fetched is reported as 502; there is no fallback
// to a stale copy.
package api
