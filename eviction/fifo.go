// This file implements FIFO eviction.

package eviction

import "container/list"

type fifo struct {
	// order holds keys oldest first.
	order *list.List

	// elems indexes order so Remove is O(1).
	elems map[string]*list.Element
}

func newFIFO() *fifo {
	return &fifo{
		order: list.New(),
		elems: make(map[string]*list.Element),
	}
}

// OnGet is ignored: FIFO only cares about insertion order.
func (f *fifo) OnGet(string) {}

// OnPut appends k. The store removes a key before writing it again, so
// an overwrite goes to the back like a new insert.
func (f *fifo) OnPut(k string) {
	if _, ok := f.elems[k]; ok {
		return
	}
	f.elems[k] = f.order.PushBack(k)
}

// Evict pops the oldest key.
func (f *fifo) Evict() string {
	e := f.order.Front()
	if e == nil {
		return ""
	}
	k := f.order.Remove(e).(string)
	delete(f.elems, k)
	return k
}

func (f *fifo) Remove(k string) {
	if e, ok := f.elems[k]; ok {
		f.order.Remove(e)
		delete(f.elems, k)
	}
}

func (f *fifo) Len() int { return len(f.elems) }
