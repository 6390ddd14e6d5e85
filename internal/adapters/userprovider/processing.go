package userprovider

import (
	"github.com/arbadacarbaYK/sociostr/internal/domain"
)

// Malformed backend input is normalized to safe defaults rather than
// rejected: an unknown activity falls back to profile, a useless location
// becomes no location at all.

func activityFromRaw(raw string) domain.ActivityType {
	switch raw {
	case "post":
		return domain.ActivityPost
	case "zap":
		return domain.ActivityZap
	default:
		return domain.ActivityProfile
	}
}

func locationFromRaw(raw *RawLocation) *domain.Location {
	if raw == nil {
		return nil
	}
	if raw.Latitude == 0 && raw.Longitude == 0 {
		// Zero-valued coordinates mean "no resolved location"
		return nil
	}
	return &domain.Location{
		Latitude:   raw.Latitude,
		Longitude:  raw.Longitude,
		Confidence: raw.Confidence,
		Method:     raw.Method,
		Country:    raw.Country,
	}
}

func recordFromRaw(raw RawUser, location *domain.Location) domain.UserRecord {
	displayName := raw.DisplayName
	if displayName == "" {
		displayName = raw.Name
	}

	return domain.UserRecord{
		ID:           raw.Pubkey,
		DisplayName:  displayName,
		About:        raw.About,
		PictureURL:   raw.Picture,
		Location:     location,
		ActivityType: activityFromRaw(raw.ActivityType),
	}
}
