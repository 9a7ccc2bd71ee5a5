package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/url"
	"strings"

	"github.com/Alia5/winbridge/internal/metrics"
)

// Server implements a small line based TCP API for driving the bridge.
//
// Each request is one line: a path followed by an optional payload. Each
// response is one line of JSON, or an empty line for handlers without output.
// Stream routes take over the connection after the request line.
type Server struct {
	addr   string
	ln     net.Listener
	logger *slog.Logger
	router *Router
	config ServerConfig
}

// New creates a control API server listening on addr once started.
func New(addr string, config ServerConfig, logger *slog.Logger) *Server {
	return &Server{
		addr:   addr,
		logger: logger,
		config: config,
		router: NewRouter(),
	}
}

// Router returns the router used by the API server so callers can register handlers.
func (a *Server) Router() *Router { return a.router }

// Config returns the server configuration.
func (a *Server) Config() ServerConfig { return a.config }

// Addr returns the listening address once started, or the configured one.
func (a *Server) Addr() string {
	if a.ln != nil {
		return a.ln.Addr().String()
	}
	return a.addr
}

// Start listens on the configured address and serves incoming API commands.
func (a *Server) Start() error {
	ln, err := net.Listen("tcp", a.addr)
	if err != nil {
		return err
	}
	a.ln = ln
	a.logger.Info("API listening", "addr", ln.Addr().String())
	go a.serve()
	return nil
}

// Close stops the API server.
func (a *Server) Close() {
	if a.ln != nil {
		_ = a.ln.Close()
	}
}

func (a *Server) serve() {
	for {
		c, err := a.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				a.logger.Info("API server stopped")
				return
			}
			a.logger.Info("API accept error", "error", err)
			return
		}
		go a.handleConn(c)
	}
}

func writeError(w io.Writer, msg string) {
	problem := map[string]string{"error": msg}
	problemJSON, _ := json.Marshal(problem)
	fmt.Fprintf(w, "%s\n", string(problemJSON))
}

func writeOK(w io.Writer, rest string) {
	if rest == "" {
		fmt.Fprintln(w)
	} else {
		fmt.Fprintf(w, "%s\n", rest)
	}
}

// ParseLine splits a command line into its lower-cased, unescaped path, the
// argument words and the raw payload.
func ParseLine(line string) (path string, args []string, payload string) {
	line = strings.TrimSpace(line)
	path, payload, _ = strings.Cut(line, " ")
	path = strings.ToLower(path)
	if p, err := url.PathUnescape(path); err == nil {
		path = p
	}
	payload = strings.TrimSpace(payload)
	return path, strings.Fields(payload), payload
}

func (a *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	connCtx, connCancel := context.WithCancel(context.Background())
	defer connCancel()

	connLogger := a.logger.With("remote", conn.RemoteAddr().String())
	r := bufio.NewReader(conn)
	w := conn
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			if err != io.EOF {
				connLogger.Error("read api line", "error", err)
			}
			return
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		path, args, payload := ParseLine(line)
		connLogger.Debug("api cmd", "path", path)

		if h, params, pattern := a.router.match(path); h != nil {
			req := &Request{Ctx: connCtx, Params: params, Args: args, Payload: payload}
			res := &Response{}
			if err := h(req, res, connLogger); err != nil {
				connLogger.Error("api handler error", "path", path, "error", err)
				metrics.Get().APIRequests.WithLabelValues(pattern, "error").Inc()
				writeError(w, err.Error())
				continue
			}
			connLogger.Debug("api handler success", "path", path)
			metrics.Get().APIRequests.WithLabelValues(pattern, "ok").Inc()
			writeOK(w, res.JSON)
			continue
		}

		if sh, params := a.router.MatchStream(path); sh != nil {
			connLogger.Info("api stream begin", "path", path)
			// Stream handler takes ownership of connection
			if err := sh(&bufferedConn{Conn: conn, r: r}, params, connLogger); err != nil {
				connLogger.Error("api stream handler error", "path", path, "error", err)
				writeError(w, err.Error())
			}
			connLogger.Info("api stream end", "path", path)
			return
		}

		connLogger.Error("api unknown path", "path", path)
		metrics.Get().APIRequests.WithLabelValues("unknown", "error").Inc()
		writeError(w, "unknown path")
	}
}

// bufferedConn hands stream handlers any bytes already buffered after the
// request line.
type bufferedConn struct {
	net.Conn
	r *bufio.Reader
}

func (c *bufferedConn) Read(p []byte) (int, error) { return c.r.Read(p) }
