package router

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"
)

// --- ANSI color codes ---
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
)

type HandlerFunc func(http.ResponseWriter, *http.Request)

// route is one registered path with its handlers per method.
type route struct {
	pattern  string
	segments []string
	handlers map[string]HandlerFunc
}

// Router dispatches on exact paths first, then on wildcard patterns in
// registration order.
type Router struct {
	mux       *http.ServeMux
	exact     map[string]*route
	wildcards []*route
}

func New() *Router {
	r := &Router{
		mux:   http.NewServeMux(),
		exact: make(map[string]*route),
	}
	r.mux.HandleFunc("/", r.dispatch)
	return r
}

func (r *Router) dispatch(w http.ResponseWriter, req *http.Request) {
	start := time.Now()
	lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

	h, allowed := r.lookup(req.Method, req.URL.Path)
	switch {
	case h != nil:
		h(lrw, req)
	case len(allowed) > 0:
		// Path exists but method not allowed
		lrw.Header().Set("Allow", strings.Join(allowed, ", "))
		http.Error(lrw, "Method Not Allowed", http.StatusMethodNotAllowed)
	default:
		http.Error(lrw, "Not Found", http.StatusNotFound)
	}

	log.Printf("%s[%s]%s %s%s%s %s %s%d%s %s(%v)%s",
		colorCyan, start.Format("2006-01-02 15:04:05"), colorReset,
		methodColor(req.Method), req.Method, colorReset,
		req.URL.Path,
		statusColor(lrw.statusCode), lrw.statusCode, colorReset,
		colorBlue, time.Since(start), colorReset,
	)
}

// lookup returns the handler for method and path. When no handler matches,
// it returns the methods registered on the first matching path instead.
func (r *Router) lookup(method, path string) (HandlerFunc, []string) {
	var allowed []string
	if rt, ok := r.exact[path]; ok {
		if h, ok := rt.handlers[method]; ok {
			return h, nil
		}
		allowed = rt.methods()
	}

	segments := split(path)
	for _, rt := range r.wildcards {
		if !rt.match(segments) {
			continue
		}
		if h, ok := rt.handlers[method]; ok {
			return h, nil
		}
		if allowed == nil {
			allowed = rt.methods()
		}
	}
	return nil, allowed
}

func (rt *route) methods() []string {
	out := make([]string, 0, len(rt.handlers))
	for m := range rt.handlers {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// match reports whether request segments fit the pattern. "*" matches one
// segment; a trailing "*" matches any number of remaining segments.
func (rt *route) match(request []string) bool {
	pattern := rt.segments
	if n := len(pattern); n > 0 && pattern[n-1] == "*" {
		if len(request) < n-1 {
			return false
		}
		return matchSegments(request[:n-1], pattern[:n-1])
	}
	if len(request) != len(pattern) {
		return false
	}
	return matchSegments(request, pattern)
}

func matchSegments(request, pattern []string) bool {
	for i, p := range pattern {
		if p != "*" && request[i] != p {
			return false
		}
	}
	return true
}

func split(path string) []string {
	return strings.Split(strings.Trim(path, "/"), "/")
}

// matchWildcardRoute checks if a request path matches a wildcard route pattern
func matchWildcardRoute(requestPath, routePattern string) bool {
	rt := &route{segments: split(routePattern)}
	return rt.match(split(requestPath))
}

// --- Register paths ---
func (r *Router) register(method, path string, handler HandlerFunc) {
	rt := r.find(path)
	if rt == nil {
		rt = &route{pattern: path, segments: split(path), handlers: make(map[string]HandlerFunc)}
		if strings.Contains(path, "*") {
			r.wildcards = append(r.wildcards, rt)
		} else {
			r.exact[path] = rt
		}
	}
	rt.handlers[method] = handler
}

func (r *Router) find(path string) *route {
	if rt, ok := r.exact[path]; ok {
		return rt
	}
	for _, rt := range r.wildcards {
		if rt.pattern == path {
			return rt
		}
	}
	return nil
}

func (r *Router) GET(path string, handler HandlerFunc)   { r.register(http.MethodGet, path, handler) }
func (r *Router) POST(path string, handler HandlerFunc)  { r.register(http.MethodPost, path, handler) }
func (r *Router) PUT(path string, handler HandlerFunc)   { r.register(http.MethodPut, path, handler) }
func (r *Router) PATCH(path string, handler HandlerFunc) { r.register(http.MethodPatch, path, handler) }
func (r *Router) DELETE(path string, handler HandlerFunc) {
	r.register(http.MethodDelete, path, handler)
}

// Handle registers an http.Handler, e.g. a documentation UI, for GET.
func (r *Router) Handle(path string, h http.Handler) {
	r.register(http.MethodGet, path, h.ServeHTTP)
}

// ServeHTTP makes the router usable as an http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// --- Start server ---

// Start serves until ctx is done, then shuts down gracefully.
func (r *Router) Start(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: r.mux, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("🚀 Server started on %shttp://localhost%s%s", colorGreen, addr, colorReset)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Printf("🛑 Shutting down server on %s", addr)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// --- Logging response writer to capture status codes ---
type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

// --- Color helpers ---
func statusColor(code int) string {
	switch {
	case code >= 200 && code < 300:
		return colorGreen
	case code >= 300 && code < 400:
		return colorCyan
	case code >= 400 && code < 500:
		return colorYellow
	default:
		return colorRed
	}
}

func methodColor(method string) string {
	switch method {
	case http.MethodGet:
		return colorGreen
	case http.MethodPost:
		return colorBlue
	case http.MethodPut, http.MethodPatch:
		return colorYellow
	case http.MethodDelete:
		return colorRed
	default:
		return colorCyan
	}
}
