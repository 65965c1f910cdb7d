package agora

import (
	"sync"
)

// Item is anything a Collection can hold. Ids are opaque, stable, assigned
// by the server, and never reused within a collection.
type Item interface {
	ItemID() string
}

// Order controls where created items land.
type Order int

const (
	// OrderNewestFirst prepends created items; post and comment feeds.
	OrderNewestFirst Order = iota
	// OrderOldestFirst appends created items; reply threads.
	OrderOldestFirst
)

// Collection is the client-side materialized view of one fetched resource
// list. Change events merge into it by id; the merge is idempotent and
// order-independent under duplicate delivery, which is all the transport
// guarantees.
//
// The local-edit conflict policy is explicit: an item marked as being edited
// is never overwritten in place. The incoming update is parked and applied
// when the edit mark clears, so a remote update cannot clobber a form the
// user still has open.
type Collection[T Item] struct {
	mu      sync.Mutex
	order   Order
	items   []T
	editing map[string]struct{}
	pending map[string]T
}

// NewCollection returns an empty collection with the given insert order.
func NewCollection[T Item](order Order) *Collection[T] {
	return &Collection[T]{
		order:   order,
		editing: make(map[string]struct{}),
		pending: make(map[string]T),
	}
}

// Reset replaces the contents wholesale, as after a fresh fetch. Edit marks
// and parked updates are cleared; they belonged to the previous view.
func (c *Collection[T]) Reset(items []T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make([]T, len(items))
	copy(c.items, items)
	c.editing = make(map[string]struct{})
	c.pending = make(map[string]T)
}

// Items returns a copy of the current contents in display order.
func (c *Collection[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of items held.
func (c *Collection[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Get returns the item with the given id, if present.
func (c *Collection[T]) Get(id string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.find(id); i >= 0 {
		return c.items[i], true
	}
	var zero T
	return zero, false
}

// ApplyCreated merges a Created event. A duplicate id is skipped: the
// creator's own fetch may have raced with the event, and re-delivery must
// not duplicate entries. Returns whether the collection changed.
func (c *Collection[T]) ApplyCreated(item T) bool {
	id := item.ItemID()
	if id == "" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.find(id) >= 0 {
		return false
	}

	if c.order == OrderNewestFirst {
		c.items = append([]T{item}, c.items...)
	} else {
		c.items = append(c.items, item)
	}
	return true
}

// ApplyUpdated merges an Updated event: replace in place, preserving
// position. An id not present is a no-op; the item belongs to some other
// page of results. An id marked editing parks the update instead.
func (c *Collection[T]) ApplyUpdated(item T) bool {
	id := item.ItemID()
	if id == "" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.find(id)
	if i < 0 {
		return false
	}

	if _, dirty := c.editing[id]; dirty {
		c.pending[id] = item
		return false
	}

	c.items[i] = item
	return true
}

// ApplyDeleted removes the entry with the given id. Absent id is a no-op, so
// a Deleted followed by a re-delivered Updated leaves the item gone. Any
// edit mark or parked update for the id dies with it.
func (c *Collection[T]) ApplyDeleted(id string) bool {
	if id == "" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.find(id)
	if i < 0 {
		return false
	}

	c.items = append(c.items[:i], c.items[i+1:]...)
	delete(c.editing, id)
	delete(c.pending, id)
	return true
}

// MarkEditing flags an item as having a local edit in progress, pausing
// in-place updates for it.
func (c *Collection[T]) MarkEditing(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.editing[id] = struct{}{}
}

// ClearEditing drops the edit flag and applies the latest parked update, if
// one arrived while the flag was set.
func (c *Collection[T]) ClearEditing(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.editing, id)

	item, ok := c.pending[id]
	if !ok {
		return
	}
	delete(c.pending, id)

	if i := c.find(id); i >= 0 {
		c.items[i] = item
	}
}

// find returns the index of id, or -1. Collections are view-sized, so a
// linear scan beats maintaining an index map across prepends.
func (c *Collection[T]) find(id string) int {
	for i := range c.items {
		if c.items[i].ItemID() == id {
			return i
		}
	}
	return -1
}
