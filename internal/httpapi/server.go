// Package httpapi exposes the arena over HTTP: JSON endpoints for running
// games, a PNG board view, and a websocket stream for live watchers.
package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/park285/atomic-chess-arena/internal/arena"
	"github.com/park285/atomic-chess-arena/pkg/atomicdto"
)

const maxJSONBodyBytes int64 = 1 << 20

// Server wires the HTTP layer to the arena service and the watcher hub.
type Server struct {
	svc    *arena.Service
	hub    *Hub
	logger *zap.Logger

	srvMu sync.Mutex
	srv   *http.Server
}

// NewServer builds the server and registers its hub as the service's
// live-update publisher.
func NewServer(svc *arena.Service, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		svc:    svc,
		hub:    NewHub(logger),
		logger: logger,
	}
	svc.SetPublisher(s.hub.Publish)
	return s
}

// Listen starts the HTTP server and blocks until it stops.
func (s *Server) Listen(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}

	s.srvMu.Lock()
	s.srv = srv
	s.srvMu.Unlock()
	defer func() {
		s.srvMu.Lock()
		s.srv = nil
		s.srvMu.Unlock()
	}()

	s.logger.Info("http_listen", zap.String("addr", addr))
	err := srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close attempts a graceful shutdown of the HTTP server.
func (s *Server) Close(ctx context.Context) error {
	s.srvMu.Lock()
	srv := s.srv
	s.srvMu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// Handler builds the route table. Exposed so tests can mount it on a
// httptest server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/games", s.withJSON(s.handleStart))
	mux.HandleFunc("GET /v1/games/{room}", s.withJSON(s.handleStatus))
	mux.HandleFunc("POST /v1/games/{room}/moves", s.withJSON(s.handleMove))
	mux.HandleFunc("POST /v1/games/{room}/resign", s.withJSON(s.handleResign))
	mux.HandleFunc("GET /v1/games/{room}/archive", s.withJSON(s.handleArchive))
	mux.HandleFunc("GET /v1/games/{room}/board.png", s.handleBoardPNG)
	mux.HandleFunc("GET /v1/games/{room}/live", s.handleLive)
	mux.HandleFunc("GET /v1/sessions/{id}", s.withJSON(s.handleSession))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return s.withLogging(mux)
}

// withLogging records one line per request the way the rest of the
// service logs, method and path and status and elapsed time.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lw := &loggingWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(lw, r)
		s.logger.Info("http_request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", lw.status),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

type loggingWriter struct {
	http.ResponseWriter
	status int
}

func (w *loggingWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Unwrap lets http.ResponseController reach the real writer, which the
// websocket upgrade needs to hijack the connection.
func (w *loggingWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

func (w *loggingWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return hj.Hijack()
}

func (w *loggingWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *Server) withJSON(h func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if r.Body != nil && r.Body != http.NoBody {
			r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
		}
		h(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// writeError maps a domain error onto a status code and the error
// envelope. Anything else is an internal failure the caller cannot fix.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var de *atomicdto.DomainError
	if errors.As(err, &de) {
		writeJSON(w, statusForCode(de.Code), atomicdto.ErrorResponse{Error: de})
		return
	}
	s.logger.Error("http_internal_error",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeJSON(w, http.StatusInternalServerError, atomicdto.ErrorResponse{
		Error: &atomicdto.DomainError{Code: "internal", Message: "internal error"},
	})
}

// statusForCode picks the response status. Codes the switch does not
// know are engine move rejections.
func statusForCode(code string) int {
	switch code {
	case arena.CodeNoSession:
		return http.StatusNotFound
	case arena.CodeInvalidRequest:
		return http.StatusBadRequest
	case arena.CodeConflict, arena.CodeSessionExists:
		return http.StatusConflict
	default:
		return http.StatusUnprocessableEntity
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, atomicdto.ErrorResponse{
				Error: &atomicdto.DomainError{Code: "request_too_large", Message: "request too large"},
			})
			return err
		}
		writeJSON(w, http.StatusBadRequest, atomicdto.ErrorResponse{
			Error: &atomicdto.DomainError{Code: "invalid_json", Message: "invalid json"},
		})
		return err
	}
	return nil
}
