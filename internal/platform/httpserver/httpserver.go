// Package httpserver builds the storefront HTTP server with timeouts suited
// to short cart requests.
package httpserver

import (
	"net/http"
	"time"
)

// New builds the server. Per-request deadlines are enforced by the router's
// timeout middleware; these bounds protect the listener itself.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
