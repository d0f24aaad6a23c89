// Package models defines the cinema point-of-sale entities: seats, accounts,
// concession products and sales. Every entity is versioned: a mutation is a
// new row carrying the same ID and a higher Version.
package models

import "time"

// Meta carries the version bookkeeping shared by every stored entity.
type Meta struct {
	// ID is the logical identifier shared by all versions of an entity.
	ID string

	// Version increases by one with every stored mutation of ID.
	Version int64

	// CreatedAt is the creation time of the first version.
	CreatedAt time.Time

	// UpdatedAt is the time this version was written. It never decreases
	// from one version to the next.
	UpdatedAt time.Time

	// Deleted marks a soft-deleted version; history before it stays queryable.
	Deleted bool
}

// NewMeta returns the bookkeeping of a first version created at now.
func NewMeta(id string, now time.Time) Meta {
	return Meta{ID: id, Version: 1, CreatedAt: now, UpdatedAt: now}
}

// Next returns the bookkeeping of the version that follows m.
// UpdatedAt is clamped so versions stay ordered even if the clock steps back.
func (m Meta) Next(now time.Time) Meta {
	if now.Before(m.UpdatedAt) {
		now = m.UpdatedAt
	}
	return Meta{ID: m.ID, Version: m.Version + 1, CreatedAt: m.CreatedAt, UpdatedAt: now, Deleted: m.Deleted}
}
