package enrichment_test

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"marquee/internal/omdb"
	"marquee/internal/testsupport"
)

// fakeSource answers every title with synthetic metadata and a poster URL.
type fakeSource struct {
	mu          sync.Mutex
	metaCalls   map[string]int
	imageCalls  map[string]int
	missing     map[string]bool
	brokenImage map[string]bool
	delay       func(title string) time.Duration
	gate        chan struct{}
	started     chan struct{}

	inFlight atomic.Int32
	peak     atomic.Int32
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		metaCalls:   make(map[string]int),
		imageCalls:  make(map[string]int),
		missing:     make(map[string]bool),
		brokenImage: make(map[string]bool),
	}
}

func posterURL(title string) string {
	return "https://img.example.test/" + strings.ReplaceAll(strings.ToLower(title), " ", "-") + ".jpg"
}

func (f *fakeSource) FetchMetadata(ctx context.Context, title, year string) (*omdb.Metadata, bool) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.peak.Load()
		if n <= peak || f.peak.CompareAndSwap(peak, n) {
			break
		}
	}

	f.mu.Lock()
	f.metaCalls[title]++
	missing := f.missing[title]
	f.mu.Unlock()

	if f.started != nil {
		select {
		case f.started <- struct{}{}:
		default:
		}
	}
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, false
		}
	}
	if f.delay != nil {
		time.Sleep(f.delay(title))
	}
	if missing {
		return nil, false
	}
	return &omdb.Metadata{
		Title:     title,
		Year:      year,
		Plot:      "Plot of " + title,
		Director:  "Director of " + title,
		Actors:    "Cast of " + title,
		Rating:    "7.5",
		Runtime:   "120 min",
		Genre:     "Sci-Fi",
		PosterURL: posterURL(title),
	}, true
}

func (f *fakeSource) FetchImage(_ context.Context, url string) (omdb.Image, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.imageCalls[url]++
	if f.brokenImage[url] {
		return omdb.Image{}, false
	}
	return omdb.Image{Data: testsupport.FakeImage(byte(len(url)), 32), ContentType: "image/jpeg"}, true
}

func (f *fakeSource) calls() (meta, images int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.metaCalls {
		meta += n
	}
	for _, n := range f.imageCalls {
		images += n
	}
	return meta, images
}

func (f *fakeSource) metaCallsFor(title string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.metaCalls[title]
}
