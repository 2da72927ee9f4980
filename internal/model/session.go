package model

import "time"

// Session binds a web UI client to a user identity with an expiration,
// per spec.md §4.8.
type Session struct {
	ID        string                 `json:"id"`
	UserID    string                 `json:"userId"`
	ExpiresAt time.Time              `json:"expiresAt"`
	CreatedAt time.Time              `json:"createdAt"`
	IPAddress string                 `json:"ipAddress,omitempty"`
	UserAgent string                 `json:"userAgent,omitempty"`
	Metadata  map[string]interface{} `json:"metadata"`
}

// Expired reports whether the session has passed its expiry at instant now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
