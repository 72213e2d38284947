package daemon

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"lotscan/internal/api"
	"lotscan/internal/auditlog"
	"lotscan/internal/capture"
	"lotscan/internal/config"
	"lotscan/internal/geo"
	"lotscan/internal/identity"
	"lotscan/internal/locations"
	"lotscan/internal/logging"
	"lotscan/internal/media/frames"
	"lotscan/internal/recognition"
	"lotscan/internal/scanner"
	"lotscan/internal/vin"
)

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	srv := &apiServer{
		bind:   bind,
		logger: logging.NewComponentLogger(logger, "api"),
		daemon: d,
	}

	token := cfg.Paths.APIToken
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", authMiddleware(token, srv.handleStatus))
	mux.HandleFunc("/api/log", authMiddleware(token, srv.handleLog))
	mux.HandleFunc("/api/locations", authMiddleware(token, srv.handleLocations))
	mux.HandleFunc("/api/sessions", authMiddleware(token, srv.handleSessions))
	mux.HandleFunc("/api/sessions/", authMiddleware(token, srv.handleSessionAction))

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil || s.bind == "" {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil || s.server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// Addr returns the bound listener address, empty until start.
func (s *apiServer) Addr() string {
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
	status := s.daemon.Status()
	payload := api.DaemonStatus{
		Running:        status.Running,
		PID:            status.PID,
		AuditLogPath:   status.AuditLogPath,
		LockFilePath:   status.LockFilePath,
		ActiveSessions: s.sessionStatuses(r.Context(), status.Sessions),
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleLog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var (
		records []auditlog.Record
		err     error
	)
	if sessionID := strings.TrimSpace(r.URL.Query().Get("session")); sessionID != "" {
		records, err = s.daemon.store.BySession(r.Context(), sessionID)
	} else {
		records, err = s.daemon.store.QueryAll(r.Context())
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.LogResponse{Records: records})
}

func (s *apiServer) handleLocations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	active := s.daemon.cfg.ActiveLocations()
	names := make([]string, 0, len(active))
	for _, loc := range active {
		names = append(names, loc.Name)
	}
	s.writeJSON(w, http.StatusOK, api.LocationListResponse{Locations: names})
}

func (s *apiServer) handleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		recent, err := s.daemon.store.RecentSessions(r.Context(), 20)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		payload := api.SessionListResponse{
			Active: s.sessionStatuses(r.Context(), s.daemon.manager.Active()),
			Recent: recent,
		}
		s.writeJSON(w, http.StatusOK, payload)
	case http.MethodPost:
		var req api.StartSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		user := identity.Context{UserID: req.UserID, UserEmail: req.UserEmail}
		sess, err := s.daemon.manager.Start(r.Context(), req.Location, user)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, s.sessionStatus(r.Context(), sess))
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleSessionAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	sessionID, action, ok := strings.Cut(rest, "/")
	if !ok || sessionID == "" {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}

	if action == "finish" {
		summary, err := s.daemon.manager.Finish(r.Context(), sessionID)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.SummaryResponse{Summary: summary})
		return
	}

	sess, err := s.daemon.manager.Get(sessionID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	switch action {
	case "capture":
		s.handleCapture(w, r, sess)
	case "confirm":
		s.handleConfirm(w, r, sess)
	case "retry":
		s.handleRetry(w, r, sess)
	default:
		s.writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *apiServer) handleCapture(w http.ResponseWriter, r *http.Request, sess *capture.Session) {
	var req api.CaptureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	coordinator, err := s.coordinator(sess, req.Method)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	input := capture.Input{
		Text:      req.Text,
		VideoPath: req.VideoPath,
		ImageRef:  req.ImageRef,
	}
	if req.ImageBase64 != "" {
		image, err := base64.StdEncoding.DecodeString(req.ImageBase64)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid image encoding")
			return
		}
		input.Image = image
	}
	if req.Fix != nil {
		input.Fix = &geo.Fix{Latitude: req.Fix.Latitude, Longitude: req.Fix.Longitude}
	}

	if err := coordinator.Begin(); err != nil {
		s.writeDomainError(w, err)
		return
	}
	if err := coordinator.Submit(r.Context(), input); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.CaptureResponse{Snapshot: coordinator.Snapshot()})
}

func (s *apiServer) handleConfirm(w http.ResponseWriter, r *http.Request, sess *capture.Session) {
	var req api.MethodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	coordinator, err := s.coordinator(sess, req.Method)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := coordinator.Confirm(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.ConfirmResponse{Result: result, Snapshot: coordinator.Snapshot()})
}

func (s *apiServer) handleRetry(w http.ResponseWriter, r *http.Request, sess *capture.Session) {
	var req api.MethodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	coordinator, err := s.coordinator(sess, req.Method)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	coordinator.Retry()
	s.writeJSON(w, http.StatusOK, api.CaptureResponse{Snapshot: coordinator.Snapshot()})
}

func (s *apiServer) coordinator(sess *capture.Session, method string) (*capture.Coordinator, error) {
	parsed := auditlog.Method(strings.ToLower(strings.TrimSpace(method)))
	if !parsed.Valid() {
		return nil, fmt.Errorf("unknown capture method %q", method)
	}
	return sess.Coordinator(parsed)
}

func (s *apiServer) sessionStatuses(ctx context.Context, sessions []*capture.Session) []api.SessionStatus {
	statuses := make([]api.SessionStatus, 0, len(sessions))
	for _, sess := range sessions {
		statuses = append(statuses, s.sessionStatus(ctx, sess))
	}
	return statuses
}

func (s *apiServer) sessionStatus(ctx context.Context, sess *capture.Session) api.SessionStatus {
	count, err := s.daemon.store.CountBySession(ctx, sess.ID)
	if err != nil {
		s.logger.Warn("count session records", logging.Error(err),
			logging.String(logging.FieldSessionID, sess.ID))
	}
	return api.SessionStatus{
		SessionID:    sess.ID,
		Location:     sess.Location,
		StartedAt:    sess.StartedAt,
		Records:      count,
		Coordinators: sess.Snapshots(),
	}
}

// writeDomainError maps the capture error taxonomy onto HTTP statuses.
func (s *apiServer) writeDomainError(w http.ResponseWriter, err error) {
	var invalid *vin.InvalidIdentifierError
	switch {
	case errors.Is(err, capture.ErrUnknownSession):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, locations.ErrUnknownLocation):
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &invalid):
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, scanner.ErrDuplicateIdentifier):
		s.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, capture.ErrInvalidTransition), errors.Is(err, capture.ErrNoPendingCandidate):
		s.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, capture.ErrAbandoned):
		s.writeError(w, http.StatusGone, err.Error())
	case errors.Is(err, recognition.ErrUnavailable):
		s.writeError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, recognition.ErrEmpty):
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, frames.ErrDecode):
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, geo.ErrUnavailable):
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}
