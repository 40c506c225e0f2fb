package httpkit

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Param reads a path parameter from the request's route context
func Param(r *http.Request, name string) string { return chi.URLParam(r, name) }

// Query reads a query string parameter, empty when absent
func Query(r *http.Request, name string) string { return r.URL.Query().Get(name) }
