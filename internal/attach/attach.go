// Package attach derives the "attached" and "attachable" lists for a parent entity
// (meals on a menu, ingredients on a meal) from a catalog snapshot.
package attach

import (
	"errors"
	"slices"
	"strings"
)

// Item is anything with a stable identity and a display name.
type Item interface {
	ItemID() int64
	DisplayName() string
}

// Complement returns every element of all whose identity does not appear in attached,
// in the relative order of all.
func Complement[T Item](all, attached []T) []T {
	seen := make(map[int64]struct{}, len(attached))
	for _, it := range attached {
		seen[it.ItemID()] = struct{}{}
	}
	out := make([]T, 0, len(all))
	for _, it := range all {
		if _, ok := seen[it.ItemID()]; ok {
			continue
		}
		out = append(out, it)
	}
	return out
}

// FilterByPrefix returns the subsequence of items whose display name starts with query,
// compared case-insensitively. An empty query returns items unchanged.
func FilterByPrefix[T Item](items []T, query string) []T {
	if query == "" {
		return items
	}
	q := strings.ToLower(query)
	out := make([]T, 0, len(items))
	for _, it := range items {
		if strings.HasPrefix(strings.ToLower(it.DisplayName()), q) {
			out = append(out, it)
		}
	}
	return out
}

// SortByName returns a copy of items ordered by display name (case-sensitive, stable).
func SortByName[T Item](items []T) []T {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b T) int {
		return strings.Compare(a.DisplayName(), b.DisplayName())
	})
	return out
}

// Contains reports whether id is present in items.
func Contains[T Item](items []T, id int64) bool {
	return slices.IndexFunc(items, func(it T) bool { return it.ItemID() == id }) >= 0
}

// Order controls how the attachable side is presented.
type Order int

const (
	OrderByName Order = iota
	OrderCatalog
)

func (o Order) String() string {
	switch o {
	case OrderCatalog:
		return "catalog"
	default:
		return "name"
	}
}

// ParseOrder accepts "name" (default) or "catalog".
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "name", "alpha":
		return OrderByName, nil
	case "catalog":
		return OrderCatalog, nil
	default:
		return OrderByName, errors.New("unknown order: " + s + " (expected name|catalog)")
	}
}
