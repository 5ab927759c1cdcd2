package intake

import (
	"hash/fnv"
	"sort"
	"sync"
)

const defaultStripes = 64

// Stripes serializes work per key with a fixed pool of mutexes. Distinct keys
// may share a stripe; that only costs concurrency.
type Stripes struct {
	mus []sync.Mutex
}

func NewStripes(n int) *Stripes {
	if n <= 0 {
		n = defaultStripes
	}
	return &Stripes{mus: make([]sync.Mutex, n)}
}

func (s *Stripes) index(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(s.mus)))
}

// Lock acquires the stripes of every non-empty key in a fixed order and
// returns the matching unlock.
func (s *Stripes) Lock(keys ...string) (unlock func()) {
	seen := make(map[int]struct{}, len(keys))
	idx := make([]int, 0, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		i := s.index(k)
		if _, dup := seen[i]; dup {
			continue
		}
		seen[i] = struct{}{}
		idx = append(idx, i)
	}
	sort.Ints(idx)
	for _, i := range idx {
		s.mus[i].Lock()
	}
	return func() {
		for j := len(idx) - 1; j >= 0; j-- {
			s.mus[idx[j]].Unlock()
		}
	}
}
