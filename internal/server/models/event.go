package models

import "time"

// Audience values for an event.
const (
	AudienceBatch   = "batch"
	AudienceGroup   = "group"
	AudienceAlumnae = "alumnae"
)

// Event is an announcement addressed to all alumnae, one batch, or a named group.
// Date is stored at day precision; Time is "HH:MM".
type Event struct {
	ID                string
	Title             string
	Description       string
	Date              time.Time
	Time              string
	Location          string
	DetailsURL        string
	OrganizerName     string
	OrganizerEmail    string
	OrganizerPhone    string
	Audience          string
	BatchYear         *int
	GroupName         string
	CreatedBy         string
	CreatedByUsername string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// EventFilter narrows an event search. Zero fields do not filter.
// When Year is zero only events on or after From are returned.
type EventFilter struct {
	Keyword   string
	Year      int
	Location  string
	BatchYear int
	From      time.Time
}
