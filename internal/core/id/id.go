// Package id provides identifier helpers.
//
// Entities use opaque int64 keys assigned by the database. Append-only system
// rows (outbox messages) use UUIDv7 so they sort by creation time without a
// sequence.
package id

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// EventID identifies append-only system records.
type EventID = uuid.UUID

// NewEvent generates a new UUIDv7 (time-ordered UUID).
func NewEvent() EventID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to V4 if V7 fails (should never happen)
		return uuid.New()
	}
	return id
}

// Parse converts a decimal string to a positive entity id.
func Parse(s string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse id %q: %w", s, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("parse id %q: must be positive", s)
	}
	return v, nil
}

// Format renders an entity id for audit and log fields.
func Format(v int64) string {
	return strconv.FormatInt(v, 10)
}

// Unique returns ids with duplicates and non-positive values removed, preserving order.
func Unique(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, v := range ids {
		if v <= 0 {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
