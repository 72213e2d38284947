// Package identity carries the acting user through the capture pipeline.
// The core never authenticates; the surrounding session layer supplies this
// context and records are stamped with it verbatim.
package identity

import "strings"

// Context identifies the agent performing captures in a session.
type Context struct {
	UserID    string `json:"user_id"`
	UserEmail string `json:"user_email"`
}

// Valid reports whether the context names a user.
func (c Context) Valid() bool {
	return strings.TrimSpace(c.UserID) != ""
}
