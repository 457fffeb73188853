/*
Package dictionary implements the static prefix index the engine answers
completion queries from.

Words are compiled once into a flat transition table: every trie node is a
record in a single arena slice and child edges live in one shared, rune-sorted
transition slice addressed by (first, count). After Build returns, nothing is
ever mutated, so any number of goroutines can query the index without locks.

One index is built per script; the engine owns a Kannada and a Latin instance.
*/
package dictionary

import (
	"container/heap"
	"sort"
)

// Entry is one dictionary word with its corpus frequency.
type Entry struct {
	Word      string
	Frequency uint32
}

// node is a single record in the arena. freq is meaningful only when
// terminal is set.
type node struct {
	first    int32
	count    int32
	freq     uint32
	terminal bool
}

// transition is one child edge, owned by exactly one parent node.
type transition struct {
	r     rune
	child int32
}

// Index is the frozen prefix index. The zero value is an empty, usable index.
type Index struct {
	nodes   []node
	trans   []transition
	entries []Entry // frequency desc, word asc; backs fuzzy scans and TopEntries
}

// builderNode is the mutable shape used only during Build.
type builderNode struct {
	children map[rune]int32
	freq     uint32
	terminal bool
}

// Build compiles entries into a frozen index. Duplicate words keep the last
// frequency seen. Runs in O(total codepoints) plus the final ordering sort.
func Build(entries []Entry) *Index {
	b := []builderNode{{}}
	for _, e := range entries {
		if e.Word == "" {
			continue
		}
		cur := int32(0)
		for _, r := range e.Word {
			if b[cur].children == nil {
				b[cur].children = make(map[rune]int32, 2)
			}
			next, ok := b[cur].children[r]
			if !ok {
				next = int32(len(b))
				b = append(b, builderNode{})
				b[cur].children[r] = next
			}
			cur = next
		}
		b[cur].terminal = true
		b[cur].freq = e.Frequency
	}

	ix := &Index{nodes: make([]node, len(b))}
	for i := range b {
		kids := b[i].children
		first := int32(len(ix.trans))
		for r, child := range kids {
			ix.trans = append(ix.trans, transition{r: r, child: child})
		}
		seg := ix.trans[first:]
		sort.Slice(seg, func(a, c int) bool { return seg[a].r < seg[c].r })
		ix.nodes[i] = node{
			first:    first,
			count:    int32(len(kids)),
			freq:     b[i].freq,
			terminal: b[i].terminal,
		}
	}

	ix.entries = dedupEntries(entries)
	sortByFrequency(ix.entries)
	return ix
}

// dedupEntries keeps the last occurrence of repeated words, mirroring the
// builder's overwrite behavior.
func dedupEntries(entries []Entry) []Entry {
	seen := make(map[string]int, len(entries))
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Word == "" {
			continue
		}
		if i, ok := seen[e.Word]; ok {
			out[i].Frequency = e.Frequency
			continue
		}
		seen[e.Word] = len(out)
		out = append(out, e)
	}
	return out
}

// sortByFrequency orders entries by frequency descending, ties lexicographic.
func sortByFrequency(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Frequency != entries[j].Frequency {
			return entries[i].Frequency > entries[j].Frequency
		}
		return entries[i].Word < entries[j].Word
	})
}

// Len reports how many words the index holds.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// TopEntries returns the n highest-frequency words. The returned slice
// aliases internal storage and must not be mutated.
func (ix *Index) TopEntries(n int) []Entry {
	if n > len(ix.entries) {
		n = len(ix.entries)
	}
	if n < 0 {
		n = 0
	}
	return ix.entries[:n]
}

// descend walks prefix from the root, returning the reached node index or -1.
func (ix *Index) descend(prefix string) int32 {
	if len(ix.nodes) == 0 {
		return -1
	}
	cur := int32(0)
	for _, r := range prefix {
		n := ix.nodes[cur]
		seg := ix.trans[n.first : n.first+n.count]
		lo, hi := 0, len(seg)
		for lo < hi {
			mid := (lo + hi) / 2
			if seg[mid].r < r {
				lo = mid + 1
			} else {
				hi = mid
			}
		}
		if lo >= len(seg) || seg[lo].r != r {
			return -1
		}
		cur = seg[lo].child
	}
	return cur
}

// Contains reports whether word is stored as a full dictionary word.
func (ix *Index) Contains(word string) bool {
	n := ix.descend(word)
	return n >= 0 && ix.nodes[n].terminal
}

// Frequency returns the stored frequency of word, 0 when absent.
func (ix *Index) Frequency(word string) uint32 {
	n := ix.descend(word)
	if n < 0 || !ix.nodes[n].terminal {
		return 0
	}
	return ix.nodes[n].freq
}

// Completions returns up to limit words starting with prefix, ordered by
// frequency descending with lexicographic tie-breaks. Unknown prefixes
// yield an empty, non-nil result; Completions never fails.
func (ix *Index) Completions(prefix string, limit int) []Entry {
	if limit <= 0 {
		return []Entry{}
	}
	start := ix.descend(prefix)
	if start < 0 {
		return []Entry{}
	}

	h := make(topHeap, 0, limit)

	// Iterative subtree walk with an explicit stack so adversarially long
	// dictionary entries cannot exhaust goroutine stacks.
	type frame struct {
		node  int32
		depth int
		r     rune
	}
	stack := []frame{{node: start, depth: 0, r: 0}}
	word := []rune(prefix)
	base := len(word)

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.depth == 0 {
			word = word[:base]
		} else {
			word = word[:base+f.depth-1]
			word = append(word, f.r)
		}

		n := ix.nodes[f.node]
		if n.terminal {
			h.offer(Entry{Word: string(word), Frequency: n.freq}, limit)
		}
		for i := n.first + n.count - 1; i >= n.first; i-- {
			t := ix.trans[i]
			stack = append(stack, frame{node: t.child, depth: f.depth + 1, r: t.r})
		}
	}

	return h.sorted()
}

// topHeap keeps the best `limit` entries seen so far. The root is the worst
// retained entry, so a better candidate replaces it in O(log n).
type topHeap []Entry

func (h topHeap) Len() int { return len(h) }

// Less orders the heap so the weakest entry sits at the root: lower
// frequency first, then reverse-lexicographic among equals.
func (h topHeap) Less(i, j int) bool {
	if h[i].Frequency != h[j].Frequency {
		return h[i].Frequency < h[j].Frequency
	}
	return h[i].Word > h[j].Word
}

func (h topHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *topHeap) Push(x any) { *h = append(*h, x.(Entry)) }

func (h *topHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

func worse(a, b Entry) bool {
	if a.Frequency != b.Frequency {
		return a.Frequency < b.Frequency
	}
	return a.Word > b.Word
}

func (h *topHeap) offer(e Entry, limit int) {
	if len(*h) < limit {
		heap.Push(h, e)
		return
	}
	if worse((*h)[0], e) {
		(*h)[0] = e
		heap.Fix(h, 0)
	}
}

// sorted drains the heap into frequency-descending order.
func (h *topHeap) sorted() []Entry {
	out := make([]Entry, len(*h))
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(h).(Entry)
	}
	return out
}
