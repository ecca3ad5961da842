package handler

import "net/http"

// Route binds a method and path pattern to a handler.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}

// Routes is the route table served by cmd/server.
func Routes(entities *EntityHandler, health *HealthHandler) []Route {
	return []Route{
		{http.MethodGet, "/health", health.Health},
		{http.MethodGet, "/odm/models", entities.Models},
		{http.MethodGet, "/odm/entities/{model}", entities.List},
		{http.MethodGet, "/odm/entity/{ref}", entities.Get},
		{http.MethodPatch, "/odm/entity/{ref}", entities.Update},
		{http.MethodDelete, "/odm/entity/{ref}", entities.Delete},
		{http.MethodPost, "/odm/entity/{model}", entities.Create},
	}
}

// NewRouter registers routes on a fresh ServeMux.
func NewRouter(routes []Route) *http.ServeMux {
	mux := http.NewServeMux()
	for _, rt := range routes {
		mux.HandleFunc(rt.Method+" "+rt.Pattern, rt.Handler)
	}
	return mux
}
