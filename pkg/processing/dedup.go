package processing

import (
	"image"
	"sync"

	"github.com/corona10/goimagehash"
)

// DefaultDedupThreshold is the maximum Hamming distance between two
// difference hashes below which images count as perceptual duplicates.
const DefaultDedupThreshold = 10

// DuplicateFilter spots perceptually identical photos within one batch using
// difference hashing. Safe for concurrent use.
type DuplicateFilter struct {
	mu        sync.Mutex
	threshold int
	hashes    []*goimagehash.ImageHash
}

// NewDuplicateFilter creates a filter. A non-positive threshold selects
// DefaultDedupThreshold.
func NewDuplicateFilter(threshold int) *DuplicateFilter {
	if threshold <= 0 {
		threshold = DefaultDedupThreshold
	}
	return &DuplicateFilter{threshold: threshold}
}

// IsDuplicate reports whether img is perceptually identical to a previously
// seen image. When the image is accepted as unique its hash is recorded for
// future comparisons. Hashing failures accept the image: losing a photo is
// worse than keeping a duplicate.
func (f *DuplicateFilter) IsDuplicate(img image.Image) bool {
	hash, err := goimagehash.DifferenceHash(img)
	if err != nil {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, h := range f.hashes {
		dist, err := hash.Distance(h)
		if err == nil && dist < f.threshold {
			return true
		}
	}

	f.hashes = append(f.hashes, hash)
	return false
}

// Seen returns how many unique images the filter has recorded.
func (f *DuplicateFilter) Seen() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.hashes)
}
