// This file implements LFU eviction.

package eviction

type lfuNode struct {
	key  string
	freq int // reads + 1
}

type lfu struct {
	nodes map[string]*lfuNode

	// freqMap groups keys by read count.
	freqMap map[int]map[string]*lfuNode

	// minFreq is the smallest populated bucket, or 0 when empty.
	minFreq int
}

func newLFU() *lfu {
	return &lfu{
		nodes:   make(map[string]*lfuNode),
		freqMap: make(map[int]map[string]*lfuNode),
	}
}

// OnGet moves the key one bucket up.
func (l *lfu) OnGet(k string) {
	n, ok := l.nodes[k]
	if !ok {
		return
	}

	old := n.freq
	n.freq++
	l.unbucket(old, k)
	l.bucket(n)

	if l.minFreq == old && l.freqMap[old] == nil {
		l.minFreq = n.freq
	}
}

// OnPut starts a key at frequency 1. The store removes a key before
// writing it again, so an overwrite starts over at 1.
func (l *lfu) OnPut(k string) {
	if _, ok := l.nodes[k]; ok {
		return
	}
	n := &lfuNode{key: k, freq: 1}
	l.nodes[k] = n
	l.bucket(n)
	l.minFreq = 1
}

// Evict removes an arbitrary key from the lowest-frequency bucket.
func (l *lfu) Evict() string {
	for k := range l.freqMap[l.minFreq] {
		l.unbucket(l.minFreq, k)
		delete(l.nodes, k)
		if l.freqMap[l.minFreq] == nil {
			l.recomputeMin()
		}
		return k
	}
	return ""
}

func (l *lfu) Remove(k string) {
	n, ok := l.nodes[k]
	if !ok {
		return
	}
	l.unbucket(n.freq, k)
	delete(l.nodes, k)
	if n.freq == l.minFreq && l.freqMap[n.freq] == nil {
		l.recomputeMin()
	}
}

func (l *lfu) Len() int { return len(l.nodes) }

func (l *lfu) bucket(n *lfuNode) {
	if l.freqMap[n.freq] == nil {
		l.freqMap[n.freq] = make(map[string]*lfuNode)
	}
	l.freqMap[n.freq][n.key] = n
}

// unbucket removes k from bucket f and drops the bucket once empty.
func (l *lfu) unbucket(f int, k string) {
	delete(l.freqMap[f], k)
	if len(l.freqMap[f]) == 0 {
		delete(l.freqMap, f)
	}
}

func (l *lfu) recomputeMin() {
	l.minFreq = 0
	for f := range l.freqMap {
		if l.minFreq == 0 || f < l.minFreq {
			l.minFreq = f
		}
	}
}
