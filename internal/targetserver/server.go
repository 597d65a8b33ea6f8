// Package targetserver serves static files so there is something local to
// point a load test at.
package targetserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultAddr matches the address the original target server bound to.
const DefaultAddr = "127.0.0.1:8080"

var contentTypes = map[string]string{
	".html": "text/html",
	".css":  "text/css",
	".js":   "application/javascript",
	".ico":  "image/x-icon",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".svg":  "image/svg+xml",
	".json": "application/json",
}

// ContentType maps a file name to the Content-Type the server sends for it.
func ContentType(name string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// Handler serves files below root.
type Handler struct {
	root   string
	logger *zap.Logger
}

// NewHandler returns a Handler rooted at dir. A nil logger discards logs.
func NewHandler(dir string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{root: dir, logger: logger}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := h.logger.With(zap.String("method", r.Method), zap.String("path", r.URL.Path))

	if r.Method != http.MethodGet {
		log.Debug("method not allowed")
		w.Header().Set("Allow", http.MethodGet)
		writeText(w, http.StatusMethodNotAllowed, "Method not allowed!")
		return
	}

	// r.URL.Path already excludes the query string.
	requested := r.URL.Path
	if requested == "/" || requested == "" {
		requested = "/index.html"
	}
	// Clean against "/" so ".." can never climb above root.
	filePath := filepath.Join(h.root, filepath.FromSlash(path.Clean("/"+requested)))

	info, err := os.Stat(filePath)
	if err != nil || !info.Mode().IsRegular() {
		log.Debug("file not found", zap.String("file", filePath))
		writeText(w, http.StatusNotFound, "File not found!")
		return
	}

	contents, err := os.ReadFile(filePath)
	if err != nil {
		log.Warn("read file failed", zap.String("file", filePath), zap.Error(err))
		writeText(w, http.StatusInternalServerError, "Error reading file")
		return
	}

	w.Header().Set("Content-Type", ContentType(filePath))
	w.Header().Set("Content-Length", strconv.Itoa(len(contents)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(contents); err != nil {
		log.Warn("write response failed", zap.Error(err))
		return
	}
	log.Debug("served file", zap.String("file", filePath), zap.Int("bytes", len(contents)))
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// Server runs a Handler until its context is cancelled.
type Server struct {
	srv    *http.Server
	logger *zap.Logger
}

// New builds a Server for addr serving dir.
func New(addr, dir string, logger *zap.Logger) (*Server, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("web root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("web root %s is not a directory", dir)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if addr == "" {
		addr = DefaultAddr
	}
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           NewHandler(dir, logger),
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}, nil
}

// Serve accepts connections on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.Serve(ln)
	}()
	s.logger.Info("target server listening", zap.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown target server: %w", err)
	}
	s.logger.Info("target server stopped")
	return nil
}

// ListenAndServe binds the configured address and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.srv.Addr, err)
	}
	return s.Serve(ctx, ln)
}
