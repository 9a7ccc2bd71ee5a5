package api

import (
	"context"
	"log/slog"
	"net"
	"strings"
	"sync"
)

// Request is one parsed command line.
type Request struct {
	Ctx    context.Context
	Params map[string]string
	// Args holds the whitespace separated words after the path.
	Args []string
	// Payload is everything after the path, with surrounding space trimmed.
	Payload string
}

// Response carries the single JSON line written back to the client.
type Response struct {
	JSON string
}

// HandlerFunc handles a request/response route. A returned error is written
// to the client as {"error": "..."}.
type HandlerFunc func(req *Request, res *Response, logger *slog.Logger) error

// StreamHandlerFunc takes ownership of conn for a long-lived route.
type StreamHandlerFunc func(conn net.Conn, params map[string]string, logger *slog.Logger) error

type route[T any] struct {
	pattern  string
	segments []string
	handler  T
}

// Router maps lower-case slash separated paths to handlers. A segment
// written as {name} matches any value and is passed in Request.Params.
type Router struct {
	mu      sync.RWMutex
	routes  []route[HandlerFunc]
	streams []route[StreamHandlerFunc]
}

func NewRouter() *Router { return &Router{} }

// Register adds a request/response route.
func (r *Router) Register(pattern string, h HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, newRoute(pattern, h))
}

// RegisterStream adds a streaming route.
func (r *Router) RegisterStream(pattern string, h StreamHandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.streams = append(r.streams, newRoute(pattern, h))
}

// Match returns the request/response handler for path and its parameters.
func (r *Router) Match(path string) (HandlerFunc, map[string]string) {
	h, params, _ := r.match(path)
	return h, params
}

func (r *Router) match(path string) (HandlerFunc, map[string]string, string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lookup(r.routes, path)
}

// MatchStream returns the streaming handler for path and its parameters.
func (r *Router) MatchStream(path string) (StreamHandlerFunc, map[string]string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, params, _ := lookup(r.streams, path)
	return h, params
}

func newRoute[T any](pattern string, h T) route[T] {
	pattern = strings.ToLower(strings.Trim(pattern, "/"))
	return route[T]{pattern: pattern, segments: strings.Split(pattern, "/"), handler: h}
}

func lookup[T any](routes []route[T], path string) (T, map[string]string, string) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for _, rt := range routes {
		if params, ok := matchSegments(rt.segments, parts); ok {
			return rt.handler, params, rt.pattern
		}
	}
	var zero T
	return zero, nil, ""
}

func matchSegments(pattern, parts []string) (map[string]string, bool) {
	if len(pattern) != len(parts) {
		return nil, false
	}
	params := map[string]string{}
	for i, seg := range pattern {
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			if parts[i] == "" {
				return nil, false
			}
			params[seg[1:len(seg)-1]] = parts[i]
			continue
		}
		if seg != parts[i] {
			return nil, false
		}
	}
	return params, true
}
