package attach

import (
	"errors"
	"fmt"
	"slices"
)

// ErrNotMovable is returned when an item cannot move to the requested side.
var ErrNotMovable = errors.New("item is not movable")

// View keeps the attached/unattached partition of one parent's catalog snapshot.
//
// Every item of the catalog is on exactly one side. Items attached to the parent but
// missing from the catalog stay on the attached side.
type View[T Item] struct {
	Order Order

	all      []T
	attached []T
}

// Snapshot is a pre-mutation copy used to roll back an optimistic move.
type Snapshot[T Item] struct {
	all      []T
	attached []T
}

func NewView[T Item](all, attached []T) *View[T] {
	return &View[T]{
		all:      slices.Clone(all),
		attached: slices.Clone(attached),
	}
}

// Reset replaces both sides with freshly fetched data.
func (v *View[T]) Reset(all, attached []T) {
	v.all = slices.Clone(all)
	v.attached = slices.Clone(attached)
}

func (v *View[T]) All() []T { return slices.Clone(v.all) }

// Attached returns the attached side in the order it was fetched / attached.
func (v *View[T]) Attached() []T { return slices.Clone(v.attached) }

// Unattached returns the complement, ordered according to v.Order.
func (v *View[T]) Unattached() []T {
	out := Complement(v.all, v.attached)
	if v.Order == OrderByName {
		return SortByName(out)
	}
	return out
}

// Filter always filters the full unattached set, never a previous filtered result.
func (v *View[T]) Filter(query string) []T {
	return FilterByPrefix(v.Unattached(), query)
}

func (v *View[T]) Snapshot() Snapshot[T] {
	return Snapshot[T]{all: slices.Clone(v.all), attached: slices.Clone(v.attached)}
}

func (v *View[T]) Restore(s Snapshot[T]) {
	v.all = slices.Clone(s.all)
	v.attached = slices.Clone(s.attached)
}

// Attach moves the catalog item with id to the attached side and returns the state
// before the move.
func (v *View[T]) Attach(id int64) (Snapshot[T], error) {
	if Contains(v.attached, id) {
		return Snapshot[T]{}, fmt.Errorf("attach %d: %w (already attached)", id, ErrNotMovable)
	}
	idx := slices.IndexFunc(v.all, func(it T) bool { return it.ItemID() == id })
	if idx < 0 {
		return Snapshot[T]{}, fmt.Errorf("attach %d: %w (not in catalog)", id, ErrNotMovable)
	}
	snap := v.Snapshot()
	v.attached = append(v.attached, v.all[idx])
	return snap, nil
}

// Detach moves the item with id back to the unattached side.
func (v *View[T]) Detach(id int64) (Snapshot[T], error) {
	idx := slices.IndexFunc(v.attached, func(it T) bool { return it.ItemID() == id })
	if idx < 0 {
		return Snapshot[T]{}, fmt.Errorf("detach %d: %w (not attached)", id, ErrNotMovable)
	}
	snap := v.Snapshot()
	it := v.attached[idx]
	v.attached = slices.Delete(v.attached, idx, idx+1)
	if !Contains(v.all, id) {
		// Keep the item reachable so a detach never loses it.
		v.all = append(v.all, it)
	}
	return snap, nil
}

// Add inserts a newly created item into the catalog and, when attached is set, onto the
// attached side.
func (v *View[T]) Add(it T, attached bool) {
	if !Contains(v.all, it.ItemID()) {
		v.all = append(v.all, it)
	}
	if attached && !Contains(v.attached, it.ItemID()) {
		v.attached = append(v.attached, it)
	}
}

// Lookup finds an item on either side.
func (v *View[T]) Lookup(id int64) (T, bool) {
	for _, it := range v.attached {
		if it.ItemID() == id {
			return it, true
		}
	}
	for _, it := range v.all {
		if it.ItemID() == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}
