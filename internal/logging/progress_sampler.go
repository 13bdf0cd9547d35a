package logging

import (
	"strings"
	"sync"
)

// ProgressSampler thins progress logs to one line per bucket crossing, plus
// one whenever a new run starts. It is safe for concurrent use; a nil sampler
// logs everything.
type ProgressSampler struct {
	mu         sync.Mutex
	bucketSize float64
	lastRun    string
	lastBucket int
}

// NewProgressSampler returns a sampler with the given bucket width in percent
// points. Non-positive widths fall back to 10.
func NewProgressSampler(bucketSize float64) *ProgressSampler {
	if bucketSize <= 0 {
		bucketSize = 10
	}
	return &ProgressSampler{bucketSize: bucketSize, lastBucket: -1}
}

// ShouldLog records percent for runID and reports whether it is worth a line.
func (s *ProgressSampler) ShouldLog(percent float64, runID string) bool {
	if s == nil {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	newRun := false
	if runID = strings.TrimSpace(runID); runID != "" && runID != s.lastRun {
		s.lastRun, s.lastBucket = runID, -1
		newRun = true
	}
	if percent < 0 {
		return newRun
	}
	bucket := int(min(percent, 100) / s.bucketSize)
	if bucket <= s.lastBucket {
		return newRun
	}
	s.lastBucket = bucket
	return true
}

// Reset forgets the last run and bucket.
func (s *ProgressSampler) Reset() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.lastRun, s.lastBucket = "", -1
	s.mu.Unlock()
}
