package frontier

import (
	"sync"
	"sync/atomic"

	"github.com/JakeFAU/wikifilm-crawler/internal/crawler"
)

// VisitedSet records every URL scheduled during one run. It only grows.
type VisitedSet struct {
	seen sync.Map
	size atomic.Int64
}

// NewVisitedSet returns an empty set.
func NewVisitedSet() *VisitedSet {
	return &VisitedSet{}
}

// MarkIfNew stores the target if it has not been seen before and returns true.
// The check and the insert are a single atomic step.
func (v *VisitedSet) MarkIfNew(target crawler.URLTarget) bool {
	if target == "" {
		return false
	}
	_, loaded := v.seen.LoadOrStore(target, struct{}{})
	if !loaded {
		v.size.Add(1)
	}
	return !loaded
}

// Contains reports whether the target was already scheduled.
func (v *VisitedSet) Contains(target crawler.URLTarget) bool {
	_, ok := v.seen.Load(target)
	return ok
}

// Len returns the number of distinct targets.
func (v *VisitedSet) Len() int {
	return int(v.size.Load())
}
