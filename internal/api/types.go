// Package api defines the wire types exchanged over the daemon HTTP API.
package api

import (
	"time"

	"lotscan/internal/auditlog"
	"lotscan/internal/capture"
)

// DaemonStatus reports daemon runtime information.
type DaemonStatus struct {
	Running        bool            `json:"running"`
	PID            int             `json:"pid"`
	AuditLogPath   string          `json:"audit_log_path"`
	LockFilePath   string          `json:"lock_file_path"`
	ActiveSessions []SessionStatus `json:"active_sessions"`
}

// SessionStatus describes one active session and its coordinators.
type SessionStatus struct {
	SessionID    string             `json:"session_id"`
	Location     string             `json:"location"`
	StartedAt    time.Time          `json:"started_at"`
	Records      int                `json:"records"`
	Coordinators []capture.Snapshot `json:"coordinators"`
}

// StartSessionRequest opens a new audit session.
type StartSessionRequest struct {
	Location  string `json:"location"`
	UserID    string `json:"user_id"`
	UserEmail string `json:"user_email"`
}

// Fix is a device-supplied coordinate fix.
type Fix struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// CaptureRequest submits input to one capture coordinator. Text carries
// manual entries, ImageBase64 a camera or uploaded still, VideoPath a
// server-side video asset.
type CaptureRequest struct {
	Method      string `json:"method"`
	Text        string `json:"text,omitempty"`
	ImageBase64 string `json:"image_base64,omitempty"`
	VideoPath   string `json:"video_path,omitempty"`
	ImageRef    string `json:"image_ref,omitempty"`
	Fix         *Fix   `json:"fix,omitempty"`
}

// CaptureResponse returns the coordinator state after a submit.
type CaptureResponse struct {
	Snapshot capture.Snapshot `json:"snapshot"`
}

// MethodRequest addresses one coordinator of a session.
type MethodRequest struct {
	Method string `json:"method"`
}

// ConfirmResponse reports what a confirm persisted.
type ConfirmResponse struct {
	Result   capture.ConfirmResult `json:"result"`
	Snapshot capture.Snapshot      `json:"snapshot"`
}

// SummaryResponse is the summary returned when a session finishes.
type SummaryResponse struct {
	Summary capture.Summary `json:"summary"`
}

// LogResponse lists audit log records, most recent first.
type LogResponse struct {
	Records []auditlog.Record `json:"records"`
}

// SessionListResponse lists active sessions and recent log summaries.
type SessionListResponse struct {
	Active []SessionStatus           `json:"active"`
	Recent []auditlog.SessionSummary `json:"recent"`
}

// LocationListResponse lists the locations offered for session start.
type LocationListResponse struct {
	Locations []string `json:"locations"`
}

// ErrorResponse carries an API error message.
type ErrorResponse struct {
	Error string `json:"error"`
}
