// Package httputil provides HTTP utilities shared by the preview server.
//
// # Response Helpers
//
//	httputil.WriteJSON(w, http.StatusOK, node)
//	httputil.WriteNotFoundError(w, "no syntax at /Foo")
//	httputil.WriteServiceUnavailable(w, "site is rebuilding")
//
// # Request Parsing
//
//	path, ok := httputil.RequireQuery(w, r, "path")
//	if !ok {
//		return // Error response already written
//	}
//	recursive, err := httputil.ParseQueryBool(r, "recursive", false)
//
// # Middleware
//
//	httputil.Chain(
//		httputil.RequestIDMiddleware,
//		httputil.LoggingMiddleware(logger),
//		httputil.RecoveryMiddleware(logger),
//	)
package httputil
