package kernel

// Node is an intrusive doubly linked list node, meant to be embedded as a
// value field inside the record it links (a TCB, an Event waiter, a Timer).
// It never allocates on its own: the owning record's own allocation carries
// it.
type Node[T any] struct {
	prev, next *Node[T]
	owner      *T
	list       *List[T]
}

// Owner returns the record this node is embedded in.
func (n *Node[T]) Owner() *T { return n.owner }

// Linked reports whether the node currently belongs to some list.
func (n *Node[T]) Linked() bool { return n.list != nil }

// List is a doubly linked circular list with a sentinel head: init,
// insert-first, insert-last, remove, remove-first, first, count, all O(1);
// count is tracked incrementally rather than by walking.
type List[T any] struct {
	sentinel Node[T]
	count    int
}

// Init prepares an empty list. The zero value of List is not usable because
// the sentinel must point to itself.
func (l *List[T]) Init() {
	l.sentinel.prev = &l.sentinel
	l.sentinel.next = &l.sentinel
	l.sentinel.list = l
	l.count = 0
}

// Count returns the number of linked nodes.
func (l *List[T]) Count() int { return l.count }

// Empty reports whether the list has no members.
func (l *List[T]) Empty() bool { return l.count == 0 }

// InsertFirst links owner's node at the head of the list.
func (l *List[T]) InsertFirst(n *Node[T], owner *T) {
	l.insertAfter(&l.sentinel, n, owner)
}

// InsertLast links owner's node at the tail of the list.
func (l *List[T]) InsertLast(n *Node[T], owner *T) {
	l.insertAfter(l.sentinel.prev, n, owner)
}

func (l *List[T]) insertAfter(at, n *Node[T], owner *T) {
	if n.list != nil {
		panic("kernel: node inserted while already linked to a list")
	}
	n.owner = owner
	n.list = l
	n.prev = at
	n.next = at.next
	at.next.prev = n
	at.next = n
	l.count++
}

// Remove unlinks n from whatever list it belongs to. A no-op if n is not
// linked, so callers do not need to guard every Remove with a membership
// check.
func (l *List[T]) Remove(n *Node[T]) {
	if n.list == nil {
		return
	}
	if n.list != l {
		panic("kernel: node removed from a list it does not belong to")
	}
	n.prev.next = n.next
	n.next.prev = n.prev
	n.prev = nil
	n.next = nil
	n.list = nil
	l.count--
}

// RemoveFirst unlinks and returns the head owner, or nil if the list is
// empty.
func (l *List[T]) RemoveFirst() *T {
	f := l.First()
	if f == nil {
		return nil
	}
	l.Remove(l.sentinel.next)
	return f
}

// First returns the head owner without unlinking it, or nil if empty.
func (l *List[T]) First() *T {
	if l.sentinel.next == &l.sentinel {
		return nil
	}
	return l.sentinel.next.owner
}

// MoveToTail relinks n, which must already belong to l, from its current
// position to the tail. Used by the tick handler's round-robin rotation
// without paying for a Remove+InsertLast owner lookup.
func (l *List[T]) MoveToTail(n *Node[T]) {
	if n.list != l {
		panic("kernel: MoveToTail on a node not linked to this list")
	}
	if n == l.sentinel.prev {
		return
	}
	n.prev.next = n.next
	n.next.prev = n.prev
	n.prev = l.sentinel.prev
	n.next = &l.sentinel
	l.sentinel.prev.next = n
	l.sentinel.prev = n
}
