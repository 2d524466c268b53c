// Package httputil provides the JSON response and request helpers used by
// every admin API handler.
//
// Handlers write responses through these helpers instead of calling
// http.ResponseWriter directly, so that all endpoints share one error
// envelope and internal errors are logged but never echoed to clients.
package httputil
