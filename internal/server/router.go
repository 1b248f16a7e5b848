package server

import (
	"net/http"
)

// BasicRouter provides HTTP routing over [http.ServeMux] with middleware
// support. Route patterns are the method-qualified patterns handlers expose
// through [Handler.Routes].
type BasicRouter struct {
	mux         *http.ServeMux
	middlewares []Middleware
}

func NewBasicRouter() *BasicRouter {
	return &BasicRouter{mux: http.NewServeMux()}
}

// Use appends middleware to the stack. Middleware applies to every route,
// including those registered before the call.
func (r *BasicRouter) Use(middleware ...Middleware) {
	r.middlewares = append(r.middlewares, middleware...)
}

// Handle registers a handler for a single pattern.
func (r *BasicRouter) Handle(pattern string, handler http.Handler) {
	r.mux.Handle(pattern, handler)
}

// Handler registers every route a Handler serves.
func (r *BasicRouter) Handler(handler Handler) {
	for _, pattern := range handler.Routes() {
		r.mux.Handle(pattern, handler)
	}
}

// ServeHTTP applies the middleware stack in reverse registration order, so
// the first middleware added is the outermost wrapper.
func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	var handler http.Handler = r.mux
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		handler = r.middlewares[i](handler)
	}
	handler.ServeHTTP(w, req)
}
