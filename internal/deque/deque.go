// Package deque implements the intrusive doubly-linked sequence the
// dynamic pool uses to track live and finished workers. It is
// intrusive in the sense that push returns a *Node the caller keeps
// and later presents back to Delete for O(1) removal — there is no
// scan to find the element being removed.
package deque

import "aesdsocket/internal/xerrors"

// Node is an opaque handle to one element. Callers must not read or
// write its fields; it exists only to be round-tripped back into
// Delete.
type Node[T any] struct {
	next, prev *Node[T]
	value      T
	owner      *Deque[T]
}

// Deque is an ordered sequence of values with O(1) push-to-tail,
// pop-from-head, peek-head, and delete-by-handle. It does not own the
// memory of T; callers manage that themselves. A zero-value Deque is
// ready to use.
type Deque[T any] struct {
	head, tail *Node[T]
	size       int
}

// PushBack appends value to the tail and returns a handle that later
// identifies exactly this node to Delete.
func (d *Deque[T]) PushBack(value T) *Node[T] {
	n := &Node[T]{value: value, owner: d}
	if d.tail == nil {
		d.head, d.tail = n, n
	} else {
		n.prev = d.tail
		d.tail.next = n
		d.tail = n
	}
	d.size++
	return n
}

// PopFront removes and returns the head element. Returns
// xerrors.ErrInvalidState if the deque is empty.
func (d *Deque[T]) PopFront() (T, error) {
	var zero T
	if d.head == nil {
		return zero, xerrors.ErrInvalidState
	}
	n := d.head
	d.removeNode(n)
	return n.value, nil
}

// PeekFront returns the head element without removing it. Returns
// xerrors.ErrInvalidState if the deque is empty.
func (d *Deque[T]) PeekFront() (T, error) {
	var zero T
	if d.head == nil {
		return zero, xerrors.ErrInvalidState
	}
	return d.head.value, nil
}

// Delete removes the node identified by handle in O(1), regardless of
// whether it is the sole element, the head, the tail, or interior.
// Returns xerrors.ErrInvalidState for a nil handle or one that belongs
// to a different deque (already removed, or created elsewhere).
func (d *Deque[T]) Delete(handle *Node[T]) error {
	if handle == nil || handle.owner != d {
		return xerrors.ErrInvalidState
	}
	d.removeNode(handle)
	handle.owner = nil
	return nil
}

func (d *Deque[T]) removeNode(n *Node[T]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		d.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		d.tail = n.prev
	}
	n.next, n.prev = nil, nil
	n.owner = nil
	d.size--
}

// Size returns the number of elements currently held.
func (d *Deque[T]) Size() int {
	return d.size
}

// PopAll removes and returns every element, head to tail, leaving the
// deque empty. Used by the pool destroyer to snapshot a deque's
// contents before releasing the lock to join them.
func (d *Deque[T]) PopAll() []T {
	out := make([]T, 0, d.size)
	for d.head != nil {
		v, _ := d.PopFront()
		out = append(out, v)
	}
	return out
}
