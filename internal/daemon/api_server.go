package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"safora/internal/api"
	"safora/internal/config"
	"safora/internal/logging"
)

const maxInvokeBody = 64 << 10

type apiServer struct {
	bind    string
	logger  *slog.Logger
	daemon  *Daemon
	handler http.Handler

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	if cfg == nil || d == nil {
		return nil
	}
	bind := strings.TrimSpace(cfg.API.Bind)
	if bind == "" {
		return nil
	}

	srv := &apiServer{
		bind:   bind,
		logger: logging.NewComponentLogger(logger, "api-server"),
		daemon: d,
	}
	srv.handler = srv.routes(cfg.API.Token)
	return srv
}

func (s *apiServer) routes(token string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", authMiddleware(token, s.handleStatus))
	mux.HandleFunc("/api/invoke", authMiddleware(token, s.handleInvoke))
	mux.HandleFunc("/api/presence", authMiddleware(token, s.handlePresence))
	mux.HandleFunc("/api/notices", authMiddleware(token, s.handleNotices))
	mux.HandleFunc("/api/capabilities", authMiddleware(token, s.handleCapabilities))
	mux.HandleFunc("/api/capabilities/", authMiddleware(token, s.handleCapability))
	return mux
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener
	// http.Server is single-use after Shutdown.
	server := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	s.server = server

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.ErrorWithContext(s.log(), "api server error", "api_server_failed", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
		s.server = nil
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// addr reports the bound listener address, or "" before start.
func (s *apiServer) addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, s.daemon.Status(r.Context()).Payload())
}

func (s *apiServer) handleInvoke(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req api.InvokeRequest
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxInvokeBody))
	decoder.UseNumber()
	if err := decoder.Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Channel) == "" || strings.TrimSpace(req.Operation) == "" {
		s.writeError(w, http.StatusBadRequest, "channel and operation are required")
		return
	}
	req.Args = normalizeNumbers(req.Args)

	inv := api.ToInvocation(req)
	res := s.daemon.Invoke(r.Context(), req.Channel, inv)
	s.writeJSON(w, http.StatusOK, api.FromResult(res, inv.CorrelationID))
}

func (s *apiServer) handlePresence(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	rec, err := s.daemon.Presence(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromPresence(rec))
}

func (s *apiServer) handleNotices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	list, err := s.daemon.Notices(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.NoticeListResponse{Notices: api.FromNotices(list)})
}

func (s *apiServer) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	caps, err := s.daemon.Capabilities(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, caps)
}

// handleCapability serves /api/capabilities/{name}, /{name}/requests,
// /{name}/grant, and /{name}/deny.
func (s *apiServer) handleCapability(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/capabilities/"), "/")
	name, action, _ := strings.Cut(rest, "/")
	if name == "" || strings.Contains(action, "/") {
		s.writeError(w, http.StatusNotFound, "capability not found")
		return
	}

	switch action {
	case "":
		if r.Method != http.MethodGet {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		c, err := s.daemon.Capability(r.Context(), name)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, c)
	case "requests":
		if r.Method != http.MethodGet {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		list, err := s.daemon.AuthorizationRequests(r.Context(), name)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, list)
	case "grant", "deny":
		if r.Method != http.MethodPost {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		c, err := s.daemon.ResolveAuthorization(r.Context(), name, action == "grant")
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, c)
	default:
		s.writeError(w, http.StatusNotFound, "capability action not found")
	}
}

// normalizeNumbers turns json.Number arguments into float64 so HTTP callers
// see the same argument types as IPC callers.
func normalizeNumbers(args map[string]any) map[string]any {
	for k, v := range args {
		if n, ok := v.(json.Number); ok {
			if f, err := n.Float64(); err == nil {
				args[k] = f
			}
		}
	}
	return args
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return logging.NewNop()
}
