package domaintest

import (
	"time"

	"github.com/arbadacarbaYK/sociostr/internal/domain"
)

type recordBuilder struct {
	record *domain.UserRecord
}

func (rb *recordBuilder) WithDisplayName(name string) *recordBuilder {
	rb.record.DisplayName = name
	return rb
}

func (rb *recordBuilder) WithActivity(activity domain.ActivityType) *recordBuilder {
	rb.record.ActivityType = activity
	return rb
}

func (rb *recordBuilder) WithLocation(lat, lon float64, method string) *recordBuilder {
	rb.record.Location = &domain.Location{
		Latitude:   lat,
		Longitude:  lon,
		Confidence: 1,
		Method:     method,
	}
	return rb
}

func (rb *recordBuilder) WithCountry(country string) *recordBuilder {
	if rb.record.Location == nil {
		rb.record.Location = &domain.Location{}
	}
	rb.record.Location.Country = country
	return rb
}

func (rb *recordBuilder) WithFallbackLocation() *recordBuilder {
	rb.record.Location = &domain.Location{
		Latitude:  20,
		Longitude: 0,
		Method:    "fallback",
	}
	return rb
}

func (rb *recordBuilder) Build() domain.UserRecord {
	return *rb.record
}

func NewRecordBuilder(id string, lastSeen time.Time) *recordBuilder {
	record := &domain.UserRecord{
		ID:           id,
		ActivityType: domain.ActivityProfile,
		LastSeen:     lastSeen,
	}
	return &recordBuilder{
		record: record,
	}
}
