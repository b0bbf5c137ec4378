package model

import "time"

// Session is the server-side record behind an admin's session cookie.
// Token is the opaque credential issued by the backend.
type Session struct {
	Token    string
	IssuedAt time.Time
}
