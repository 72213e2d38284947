package auditlog

import (
	"fmt"
	"time"
)

// Method identifies how a candidate identifier was acquired.
type Method string

const (
	MethodCamera Method = "camera"
	MethodUpload Method = "upload"
	MethodManual Method = "manual"
	MethodVideo  Method = "video"
)

// Valid reports whether the method is one of the recognized capture methods.
func (m Method) Valid() bool {
	switch m {
	case MethodCamera, MethodUpload, MethodManual, MethodVideo:
		return true
	}
	return false
}

// Methods lists every recognized capture method.
func Methods() []Method {
	return []Method{MethodCamera, MethodUpload, MethodManual, MethodVideo}
}

// Record is one accepted scan in the audit log. Immutable once appended.
type Record struct {
	ID         string    `json:"id"`
	VIN        string    `json:"vin"`
	SessionID  string    `json:"session_id"`
	Location   string    `json:"location"`
	CapturedAt time.Time `json:"captured_at"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	ImageRef   string    `json:"image_ref,omitempty"`
	Method     Method    `json:"method"`
	UserID     string    `json:"user_id"`
	UserEmail  string    `json:"user_email"`
}

// Validate checks the structural invariants every appended record must hold.
func (r *Record) Validate() error {
	switch {
	case r.ID == "":
		return fmt.Errorf("record: missing id")
	case r.VIN == "":
		return fmt.Errorf("record: missing vin")
	case r.SessionID == "":
		return fmt.Errorf("record: missing session id")
	case r.Location == "":
		return fmt.Errorf("record: missing location")
	case r.CapturedAt.IsZero():
		return fmt.Errorf("record: missing capture time")
	case !r.Method.Valid():
		return fmt.Errorf("record: unknown method %q", r.Method)
	case r.UserID == "":
		return fmt.Errorf("record: missing user id")
	}
	return nil
}

// SessionSummary aggregates one session's presence in the audit log.
type SessionSummary struct {
	SessionID string    `json:"session_id"`
	Location  string    `json:"location"`
	Records   int       `json:"records"`
	StartedAt time.Time `json:"started_at"`
	LastScan  time.Time `json:"last_scan"`
}
