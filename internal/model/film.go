package model

import "time"

// Film is a catalog entry.  DurationMinutes drives the derived end time of
// every screening of the film, so it must be positive.
//
// Fields:
//  ID              – primary key identifier.
//  Title           – display title.
//  DurationMinutes – runtime in minutes, excluding the cleanup buffer.
//  Rating          – age rating label (free-form, e.g. "PG-13").
//  Active          – whether the film may be scheduled.
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Film struct {
	ID              uint64    `json:"id"`
	Title           string    `json:"title"`
	DurationMinutes int       `json:"duration_minutes"`
	Rating          string    `json:"rating"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
