package httpserver

import (
	"net/http"
	"time"
)

// New builds the portal's HTTP server. The workflow API answers small JSON
// requests quickly; the write timeout leaves headroom for a save that
// re-validates the roster against a slow identity directory.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
