// Package devserver serves a project's web directory for live development
// inside the native shell.
package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/go-webshell/webshell/cmd/webshell/internal/config"
)

// ConfigPath serves the dev variant of the manifest.
const ConfigPath = "/__webshell/config"

const shutdownTimeout = 5 * time.Second

// Options configures a dev server.
type Options struct {
	// Addr is the listen address, e.g. ":5173".
	Addr string

	// Config is the manifest variant reported at ConfigPath.
	Config *config.Config

	// RuntimePath, when set, is served as /webshell.js.
	RuntimePath string

	Logger zerolog.Logger
}

// Server serves a web directory with SPA fallback and no caching.
type Server struct {
	dir    string
	opts   Options
	router chi.Router
}

// New returns a server for dir.
func New(dir string, opts Options) (*Server, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat web directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	s := &Server{dir: dir, opts: opts}
	s.router = s.newRouter()
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) newRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(noCache)
	r.Use(requestLogger(s.opts.Logger))

	r.Get(ConfigPath, s.handleConfig)
	if s.opts.RuntimePath != "" {
		r.Get("/webshell.js", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
			http.ServeFile(w, r, s.opts.RuntimePath)
		})
	}
	r.Get("/*", s.handleStatic)
	r.Head("/*", s.handleStatic)
	return r
}

func (s *Server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	if s.opts.Config == nil {
		http.Error(w, "no manifest", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(s.opts.Config)
}

// handleStatic serves files from the web directory. Paths without a file
// extension that do not exist fall back to index.html so client-side
// routers work.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	clean := path.Clean("/" + r.URL.Path)
	full := filepath.Join(s.dir, filepath.FromSlash(clean))

	info, err := os.Stat(full)
	switch {
	case err == nil && info.IsDir():
		index := filepath.Join(full, "index.html")
		if _, err := os.Stat(index); err == nil {
			http.ServeFile(w, r, index)
			return
		}
	case err == nil:
		http.ServeFile(w, r, full)
		return
	}

	if path.Ext(clean) != "" {
		http.NotFound(w, r)
		return
	}
	index := filepath.Join(s.dir, "index.html")
	if _, err := os.Stat(index); err != nil {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, index)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
// ready, if non-nil, receives the bound address once listening.
func (s *Server) ListenAndServe(ctx context.Context, ready chan<- string) error {
	addr := s.opts.Addr
	if addr == "" {
		addr = ":0"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	bound := ln.Addr().String()
	s.opts.Logger.Info().
		Str("event", "devserver.started").
		Str("addr", bound).
		Str("dir", s.dir).
		Msg("dev server listening")
	if ready != nil {
		ready <- bound
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down dev server: %w", err)
	}
	s.opts.Logger.Info().Str("event", "devserver.stopped").Msg("dev server stopped")
	return nil
}

func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Cache-Control", "no-store, no-cache, must-revalidate")
		h.Set("Pragma", "no-cache")
		h.Set("Expires", "0")
		next.ServeHTTP(w, r)
	})
}

func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			ev := logger.Debug()
			if status >= 400 {
				ev = logger.Warn()
			}
			ev.Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("took", time.Since(start)).
				Msg("request")
		})
	}
}

// LANHost returns the first non-loopback IPv4 address of this machine, so
// a device on the same network can reach the dev server. Falls back to
// "localhost".
func LANHost() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "localhost"
	}
	for _, a := range addrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok || ipnet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipnet.IP.To4(); ip4 != nil && !ip4.IsLinkLocalUnicast() {
			return ip4.String()
		}
	}
	return "localhost"
}

// URL builds the dev server URL a device should load.
func URL(host, boundAddr string) string {
	_, port, err := net.SplitHostPort(boundAddr)
	if err != nil {
		port = strings.TrimPrefix(boundAddr, ":")
	}
	return "http://" + net.JoinHostPort(host, port)
}
