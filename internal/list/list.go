// Package list implements an intrusive doubly-linked list.
//
// Unlike container/list, the linkage lives inside the listed elements: a Node
// is embedded in the struct it links, so membership changes never allocate and
// erasure by reference is O(1). The list owns no element memory and never
// copies elements.
//
// The zero List is ready for use. A Node may be on at most one list at a time;
// linking a node that is already listed, or removing a node from a list it is
// not on, is a caller bug and panics.
package list

// A Node is the linkage embedded in a listed element. Value carries the owner,
// typically a pointer back to the struct that embeds the node.
type Node[T any] struct {
	prev, next *Node[T]
	list       *List[T]
	Value      T
}

// Next returns the following node, or nil at the end of the list.
func (n *Node[T]) Next() *Node[T] {
	if n.list == nil || n.next == &n.list.root {
		return nil
	}
	return n.next
}

// Prev returns the preceding node, or nil at the front of the list.
func (n *Node[T]) Prev() *Node[T] {
	if n.list == nil || n.prev == &n.list.root {
		return nil
	}
	return n.prev
}

// Listed reports whether the node is currently on a list.
func (n *Node[T]) Listed() bool { return n.list != nil }

// A List links Nodes through a sentinel root. The zero value is an empty list.
type List[T any] struct {
	root Node[T]
	len  int
}

func (l *List[T]) lazyInit() {
	if l.root.next == nil {
		l.root.next = &l.root
		l.root.prev = &l.root
	}
}

// Len returns the number of listed nodes. O(1).
func (l *List[T]) Len() int { return l.len }

// Empty reports whether the list has no nodes.
func (l *List[T]) Empty() bool { return l.len == 0 }

// Front returns the first node, or nil when the list is empty.
func (l *List[T]) Front() *Node[T] {
	if l.len == 0 {
		return nil
	}
	return l.root.next
}

// Back returns the last node, or nil when the list is empty.
func (l *List[T]) Back() *Node[T] {
	if l.len == 0 {
		return nil
	}
	return l.root.prev
}

// PushFront links n at the front of the list.
func (l *List[T]) PushFront(n *Node[T]) {
	l.insert(n, &l.root)
}

// PushBack links n at the back of the list.
func (l *List[T]) PushBack(n *Node[T]) {
	l.lazyInit()
	l.insert(n, l.root.prev)
}

// PopFront unlinks and returns the first node, or nil when the list is empty.
func (l *List[T]) PopFront() *Node[T] {
	n := l.Front()
	if n != nil {
		l.Remove(n)
	}
	return n
}

// Remove unlinks n from the list. The node's links are cleared so a stale
// reference cannot walk back into the list.
func (l *List[T]) Remove(n *Node[T]) {
	if n.list != l {
		panic("list: remove of node from a different list")
	}
	n.prev.next = n.next
	n.next.prev = n.prev
	n.prev = nil
	n.next = nil
	n.list = nil
	l.len--
}

func (l *List[T]) insert(n, at *Node[T]) {
	if n.list != nil {
		panic("list: insert of already-listed node")
	}
	l.lazyInit()
	n.prev = at
	n.next = at.next
	n.prev.next = n
	n.next.prev = n
	n.list = l
	l.len++
}
