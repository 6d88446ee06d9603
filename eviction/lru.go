// This file implements LRU eviction.

package eviction

// lruNode is one tracked key inside the recency list.
type lruNode struct {
	key  string
	prev *lruNode // towards head (more recent)
	next *lruNode // towards tail (less recent)
}

// lru keeps a doubly-linked recency list plus a key index, giving O(1)
// touch, insert and evict.
type lru struct {
	nodes map[string]*lruNode

	// head is the most recently used key, tail the least.
	head *lruNode
	tail *lruNode
}

func newLRU() *lru {
	return &lru{nodes: make(map[string]*lruNode)}
}

// OnGet marks the key as most recently used.
func (l *lru) OnGet(k string) {
	if n, ok := l.nodes[k]; ok {
		l.moveToFront(n)
	}
}

// OnPut inserts a new key at the front. An overwrite counts as a use.
func (l *lru) OnPut(k string) {
	if n, ok := l.nodes[k]; ok {
		l.moveToFront(n)
		return
	}
	n := &lruNode{key: k}
	l.nodes[k] = n
	l.addFront(n)
}

// Evict removes and returns the least recently used key.
func (l *lru) Evict() string {
	if l.tail == nil {
		return ""
	}
	k := l.tail.key
	l.unlink(l.tail)
	delete(l.nodes, k)
	return k
}

func (l *lru) Remove(k string) {
	if n, ok := l.nodes[k]; ok {
		l.unlink(n)
		delete(l.nodes, k)
	}
}

func (l *lru) Len() int { return len(l.nodes) }

func (l *lru) addFront(n *lruNode) {
	n.prev = nil
	n.next = l.head
	if l.head != nil {
		l.head.prev = n
	}
	l.head = n
	if l.tail == nil {
		l.tail = n
	}
}

func (l *lru) unlink(n *lruNode) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	n.prev, n.next = nil, nil
}

func (l *lru) moveToFront(n *lruNode) {
	if l.head == n {
		return
	}
	l.unlink(n)
	l.addFront(n)
}
