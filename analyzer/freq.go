package analyzer

import "sort"

// counter is a frequency map that remembers insertion order so that ranking
// is deterministic: ties break toward the value seen first in document order.
type counter[K comparable] struct {
	counts map[K]int
	order  []K
}

func newCounter[K comparable]() *counter[K] {
	return &counter[K]{counts: map[K]int{}}
}

func (c *counter[K]) Add(k K) {
	if _, seen := c.counts[k]; !seen {
		c.order = append(c.order, k)
	}
	c.counts[k]++
}

func (c *counter[K]) AddN(k K, n int) {
	if _, seen := c.counts[k]; !seen {
		c.order = append(c.order, k)
	}
	c.counts[k] += n
}

func (c *counter[K]) Len() int { return len(c.order) }

func (c *counter[K]) Count(k K) int { return c.counts[k] }

// Ranked returns the keys ordered by descending frequency.
func (c *counter[K]) Ranked() []K {
	out := make([]K, len(c.order))
	copy(out, c.order)
	sort.SliceStable(out, func(i, j int) bool {
		return c.counts[out[i]] > c.counts[out[j]]
	})
	return out
}

// Top returns at most n ranked keys.
func (c *counter[K]) Top(n int) []K {
	ranked := c.Ranked()
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func truncate[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
