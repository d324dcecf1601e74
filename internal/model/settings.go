package model

import (
	"time"
)

// Settings holds practice-wide presentation settings. It is treated as an
// immutable value: readers get a copy attached to their request context.
type Settings struct {
	AppName  string `db:"app_name" json:"app_name"`
	Currency string `db:"currency" json:"currency"`
	Timezone string `db:"timezone" json:"timezone"`
}

// Location resolves Timezone, falling back to UTC.
func (s Settings) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
