package realtime

import (
	"time"
)

// User is the identity resolved from the data store during the handshake.
type User struct {
	ID          string
	DisplayName string
	Roles       []string
}

// Session binds an authenticated user to one live connection.
// It exists in exactly one process and is never persisted.
type Session struct {
	User        User
	ConnID      string
	ConnectedAt time.Time
}

// HasRole reports whether the session carries the given role.
func (s Session) HasRole(role string) bool {
	for _, r := range s.User.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// PresenceRecord is the cluster-wide online status of a user.
// The value stored in the broker identifies the owning process, not the
// socket, which has no meaning outside that process.
type PresenceRecord struct {
	UserID   string    `json:"user_id"`
	NodeID   string    `json:"node_id"`
	Online   bool      `json:"online"`
	LastSeen time.Time `json:"last_seen"`
}

// Location is the geo position attached to a user, used to derive the
// location room a connection belongs to.
type Location struct {
	Latitude  float64 `json:"latitude" validate:"min=-90,max=90"`
	Longitude float64 `json:"longitude" validate:"min=-180,max=180"`
	City      string  `json:"city" validate:"required"`
	State     string  `json:"state"`
	Country   string  `json:"country"`
}
