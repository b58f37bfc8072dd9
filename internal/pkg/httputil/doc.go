// Package httputil provides small helpers for writing consistent JSON
// responses across all HTTP handlers.
package httputil
