package batch

import (
	"fmt"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/cespare/xxhash/v2"
)

// Bloom filter sizing for URL deduplication.
const (
	seenExpectedURLs      = 10000
	seenFalsePositiveRate = 0.01
)

// Seen tracks URLs that were already scheduled. It is backed by a Bloom
// filter, so a URL may rarely be reported as seen when it was not; it is
// never reported unseen after being added.
type Seen struct {
	mu sync.Mutex
	f  *bloom.BloomFilter
}

// NewSeen creates a Seen set sized for n expected URLs with the given
// false positive rate.
func NewSeen(n uint, fpRate float64) *Seen {
	return &Seen{f: bloom.NewWithEstimates(n, fpRate)}
}

// Add records url and reports whether it was new.
func (s *Seen) Add(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.f.TestOrAddString(url)
}

// Test reports whether url might have been added.
func (s *Seen) Test(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.TestString(url)
}

// EstimatedCount returns the approximate number of URLs added.
func (s *Seen) EstimatedCount() uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return uint(s.f.ApproximatedSize())
}

// ContentHash returns the hex xxhash of content.
func ContentHash(content string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(content))
}
