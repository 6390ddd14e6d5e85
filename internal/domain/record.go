package domain

import (
	"time"
)

type ActivityType string

const (
	ActivityProfile ActivityType = "profile"
	ActivityPost    ActivityType = "post"
	ActivityZap     ActivityType = "zap"
)

// Location is a resolved position for a user. Method records how the backend
// resolved it (e.g. "nip05", "ip"). Fallback methods mark placeholder
// positions that must not count as real locations.
type Location struct {
	Latitude   float64
	Longitude  float64
	Confidence float64
	Method     string
	Country    string
}

// IsFallback reports whether the location is a placeholder the backend
// assigned when it could not resolve a real position.
func (l Location) IsFallback() bool {
	return l.Method == "fallback" || l.Method == "default"
}

// Valid reports whether the location may be counted as a real resolved
// position: coordinates present and non-zero, and not a fallback.
func (l Location) Valid() bool {
	if l.Latitude == 0 && l.Longitude == 0 {
		return false
	}
	return !l.IsFallback()
}

// UserRecord is one tracked Nostr user sighting. ID is the user's public key
// and is immutable once created. LastSeen is client-observed: it is stamped
// every time the record is confirmed present in a fetch response.
type UserRecord struct {
	ID string

	DisplayName string
	About       string
	PictureURL  string

	Location *Location

	ActivityType ActivityType

	LastSeen time.Time
}

// HasValidLocation reports whether the record carries a real resolved location.
func (r UserRecord) HasValidLocation() bool {
	return r.Location != nil && r.Location.Valid()
}
