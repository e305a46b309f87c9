// Package server exposes a host over HTTP.
//
// Routes:
//
//	POST   /sessions                 open a source (JSON host.OpenRequest)
//	GET    /sessions/{id}            session geometry and layout
//	GET    /sessions/{id}/frames/{n} one converted frame, raw storage order
//	DELETE /sessions/{id}            close a session
//	GET    /healthz                  liveness
//
// Frame bodies are the plane rows without stride padding; the X-Frame-*
// headers carry the geometry needed to interpret them.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/vsbridge/bridge"
	"github.com/opd-ai/vsbridge/host"
)

// Frame response headers.
const (
	HeaderWidth  = "X-Frame-Width"
	HeaderHeight = "X-Frame-Height"
	HeaderFormat = "X-Frame-Format"
	HeaderIndex  = "X-Frame-Index"
)

// SessionResponse describes an open session.
type SessionResponse struct {
	ID        string `json:"id"`
	Producer  string `json:"producer"`
	Format    string `json:"format"`
	Mode      string `json:"mode"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	NumFrames int    `json:"num_frames"`
	FPSNum    uint32 `json:"fps_num"`
	FPSDen    uint32 `json:"fps_den"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server routes HTTP requests to a host.
type Server struct {
	host   *host.Host
	router *mux.Router
}

// New builds the router for h.
func New(h *host.Host) *Server {
	s := &Server{host: h, router: mux.NewRouter()}

	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/sessions", s.handleOpen).Methods(http.MethodPost)
	s.router.HandleFunc("/sessions/{id}", s.handleInfo).Methods(http.MethodGet)
	s.router.HandleFunc("/sessions/{id}", s.handleClose).Methods(http.MethodDelete)
	s.router.HandleFunc("/sessions/{id}/frames/{n:[0-9]+}", s.handleFrame).Methods(http.MethodGet)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.WithFields(logrus.Fields{
			"function": "Server.ListenAndServe",
			"addr":     addr,
		}).Info("HTTP frame server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve %s: %w", addr, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		logrus.WithFields(logrus.Fields{
			"function": "Server.ListenAndServe",
			"addr":     addr,
		}).Info("Shutting down HTTP frame server")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"sessions": s.host.Sessions()})
}

func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	var req host.OpenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	handle, err := s.host.OpenSource(req)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	resp, err := s.describe(handle)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	handle, err := host.ParseHandle(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	resp, err := s.describe(handle)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) describe(handle host.Handle) (SessionResponse, error) {
	info, err := s.host.Info(handle)
	if err != nil {
		return SessionResponse{}, err
	}
	g := info.Geometry
	return SessionResponse{
		ID:        handle.String(),
		Producer:  info.Producer,
		Format:    g.Format.String(),
		Mode:      info.Mode.String(),
		Width:     g.Width,
		Height:    g.Height,
		NumFrames: g.NumFrames,
		FPSNum:    g.FPSNum,
		FPSDen:    g.FPSDen,
	}, nil
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	handle, err := host.ParseHandle(vars["id"])
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	n, err := strconv.Atoi(vars["n"])
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("frame index %q: %w", vars["n"], err))
		return
	}

	buf, err := s.host.Frame(handle, n)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	body := buf.Bytes()
	g := buf.Geometry
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.Header().Set(HeaderWidth, strconv.Itoa(g.Width))
	w.Header().Set(HeaderHeight, strconv.Itoa(g.Height))
	w.Header().Set(HeaderFormat, g.Format.String())
	w.Header().Set(HeaderIndex, strconv.Itoa(n))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Server.handleFrame",
			"frame":    n,
			"error":    err.Error(),
		}).Warn("Failed to write frame response")
	}
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	handle, err := host.ParseHandle(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err := s.host.Close(handle); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, host.ErrUnknownHandle):
		return http.StatusNotFound
	case errors.Is(err, host.ErrNoSource), errors.Is(err, host.ErrUnsupportedEncoding):
		return http.StatusBadRequest
	case errors.Is(err, host.ErrHostClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, bridge.ErrFrameFetch), errors.Is(err, bridge.ErrTranscode):
		return http.StatusBadGateway
	case errors.Is(err, bridge.ErrSessionClosed):
		return http.StatusGone
	case errors.Is(err, bridge.ErrEngineInit),
		errors.Is(err, bridge.ErrScriptEvaluation),
		errors.Is(err, bridge.ErrOutputNode),
		errors.Is(err, bridge.ErrInfiniteLength),
		errors.Is(err, bridge.ErrVariableFormat),
		errors.Is(err, bridge.ErrVariableFrameRate),
		errors.Is(err, bridge.ErrFrameRateOverflow),
		errors.Is(err, bridge.ErrUnsupportedFormat),
		errors.Is(err, bridge.ErrInvalidDimensions):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "writeJSON",
			"error":    err.Error(),
		}).Warn("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	logrus.WithFields(logrus.Fields{
		"function": "writeError",
		"status":   status,
		"error":    err.Error(),
	}).Debug("Request failed")
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}
