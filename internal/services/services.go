// Package services implements the permission checked operations behind the
// API handlers. Every mutation runs its permission check inside the same
// transaction as the change it guards.
package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

// ErrInvalid is returned for requests that fail validation.
var ErrInvalid = errors.New("invalid request")

func invalid(field string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrInvalid, field, err)
}

// ListOptions selects a window of a list result. A zero Limit returns every
// row from Offset on.
type ListOptions struct {
	Offset int
	Limit  int
}

func (o ListOptions) apply(q *gorm.DB) *gorm.DB {
	if o.Offset > 0 {
		q = q.Offset(o.Offset)
	}
	if o.Limit > 0 {
		q = q.Limit(o.Limit)
	}
	return q
}

// ParseIDList parses a comma separated list of IDs such as "7,9". Blank
// entries are ignored and duplicates keep their first position.
func ParseIDList(s string) ([]uint, error) {
	var ids []uint
	seen := make(map[uint]struct{})
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		id, err := strconv.ParseUint(part, 10, 0)
		if err != nil || id == 0 {
			return nil, fmt.Errorf("%w: invalid document ID %q", ErrInvalid, part)
		}
		if _, ok := seen[uint(id)]; ok {
			continue
		}
		seen[uint(id)] = struct{}{}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

func dedupe(ids []uint) []uint {
	out := make([]uint, 0, len(ids))
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
