package cart

import "github.com/google/uuid"

// Identity names whose cart a session operates on. Every visitor carries a
// cookie id; authenticated visitors additionally carry a user id, which then
// takes precedence for ownership scoping.
type Identity struct {
	UserID   *uuid.UUID
	CookieID string
}

// IsGuest reports whether the identity has no authenticated user.
func (i Identity) IsGuest() bool {
	return i.UserID == nil
}

// Key returns the stable identity discriminator used for cache keys and
// event attribution.
func (i Identity) Key() string {
	if i.UserID != nil {
		return i.UserID.String()
	}
	return i.CookieID
}
