// Package httputil provides HTTP utilities for standardized request/response handling.
//
// # Response Helpers
//
//	httputil.WriteJSON(w, http.StatusOK, data)
//	httputil.WriteSuccess(w, catalog)
//	httputil.WriteForbidden(w, "insufficient permissions")
//
// Errors are always written as {"error": "..."}.
//
// # Request Parsing
//
//	var req LanguageRequest
//	if !httputil.ParseJSONOrError(w, r, &req) {
//		return // Error response already written
//	}
//	companyID, ok := httputil.ParsePathStringOrError(w, r, "company_id")
//
// A body cut off by MaxBytesMiddleware is answered with 413 instead of 400.
//
// # Middleware
//
//	httputil.Chain(
//		httputil.RequestIDMiddleware,
//		httputil.LoggingMiddleware(logger),
//		httputil.RecoveryMiddleware(logger),
//		httputil.MaxBytesMiddleware(1<<20),
//	)
//
// RequestIDMiddleware must run first so later middleware and handlers can log
// the request ID through observability.FromContext.
package httputil
