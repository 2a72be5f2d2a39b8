// Package cache memoizes backend results per document for the lifetime of a session.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/csheth/paperdistill/internal/metrics"
)

// Kind names the operation a cached result belongs to.
type Kind string

const (
	KindAbstractSummary Kind = "abstract-summary"
	KindPaperSummary    Kind = "paper-summary"
	KindQAAnswer        Kind = "qa-answer"
	KindFullText        Kind = "full-text"
)

// Key identifies a result by document, operation and canonical parameters.
type Key struct {
	DocumentID string
	Kind       Kind
	Params     string
}

func (k Key) String() string {
	return k.DocumentID + "|" + string(k.Kind) + "|" + k.Params
}

// AbstractKey is the key of an abstract summary requested by percent.
func AbstractKey(documentID string, percent int) Key {
	return Key{DocumentID: documentID, Kind: KindAbstractSummary, Params: fmt.Sprintf("percent=%d", percent)}
}

// AbstractMaxLengthKey is the key of an abstract summary requested by an explicit max length.
func AbstractMaxLengthKey(documentID string, maxLength int) Key {
	return Key{DocumentID: documentID, Kind: KindAbstractSummary, Params: fmt.Sprintf("max_length=%d", maxLength)}
}

// PaperKey is the key of a paper summary.
func PaperKey(documentID string, paragraphs int, complexity string) Key {
	return Key{DocumentID: documentID, Kind: KindPaperSummary, Params: fmt.Sprintf("paragraphs=%d,complexity=%s", paragraphs, complexity)}
}

// QAKey uses the question text verbatim so distinct questions never collide.
func QAKey(documentID, question string) Key {
	return Key{DocumentID: documentID, Kind: KindQAAnswer, Params: question}
}

// FullTextKey is the key of a document's extracted body.
func FullTextKey(documentID string) Key {
	return Key{DocumentID: documentID, Kind: KindFullText}
}

// Result is an immutable cached value.
type Result struct {
	Key       Key
	Text      string
	CreatedAt time.Time
}

// ComputeFunc produces the value for a missing key.
type ComputeFunc func(ctx context.Context) (string, error)

// Option customises a Cache.
type Option func(*Cache)

// WithRecorder reports hits and misses to rec.
func WithRecorder(rec metrics.Recorder) Option {
	return func(c *Cache) {
		if rec != nil {
			c.recorder = rec
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// Cache is safe for concurrent use. At most one computation per key runs at a time.
type Cache struct {
	mu          sync.Mutex
	entries     map[string]map[Key]Result
	generations map[string]uint64
	flights     singleflight.Group
	recorder    metrics.Recorder
	now         func() time.Time
}

func New(opts ...Option) *Cache {
	c := &Cache{
		entries:     map[string]map[Key]Result{},
		generations: map[string]uint64{},
		recorder:    metrics.Nop{},
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrCompute returns the cached result for key or runs compute once to fill it.
// Concurrent callers for the same key share a single computation, which runs
// detached from any one caller's cancellation; each caller stops waiting when
// its own ctx is done. Failed computations are not stored.
func (c *Cache) GetOrCompute(ctx context.Context, key Key, compute ComputeFunc) (Result, error) {
	if res, ok := c.Peek(key); ok {
		c.recorder.CacheLookup(string(key.Kind), true)
		return res, nil
	}
	c.recorder.CacheLookup(string(key.Kind), false)

	gen := c.generation(key.DocumentID)
	shared := context.WithoutCancel(ctx)
	flight := fmt.Sprintf("%s#%d", key, gen)
	ch := c.flights.DoChan(flight, func() (any, error) {
		if res, ok := c.Peek(key); ok {
			return res, nil
		}
		text, err := compute(shared)
		if err != nil {
			return nil, err
		}
		res := Result{Key: key, Text: text, CreatedAt: c.now()}
		c.store(res, gen)
		return res, nil
	})

	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case out := <-ch:
		if out.Err != nil {
			return Result{}, out.Err
		}
		return out.Val.(Result), nil
	}
}

// Put stores res, overwriting any existing entry for its key.
func (c *Cache) Put(res Result) {
	if res.CreatedAt.IsZero() {
		res.CreatedAt = c.now()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.putLocked(res)
}

// Peek returns the stored result without computing.
func (c *Cache) Peek(key Key) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	res, ok := c.entries[key.DocumentID][key]
	return res, ok
}

// Invalidate drops every entry for documentID and returns how many were removed.
// Computations already in flight for the document finish but are not stored.
func (c *Cache) Invalidate(documentID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries[documentID])
	delete(c.entries, documentID)
	c.generations[documentID]++
	return n
}

// Len reports the number of stored results.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, byKey := range c.entries {
		total += len(byKey)
	}
	return total
}

func (c *Cache) generation(documentID string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[documentID]
}

func (c *Cache) store(res Result, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[res.Key.DocumentID] != gen {
		return
	}
	c.putLocked(res)
}

func (c *Cache) putLocked(res Result) {
	byKey, ok := c.entries[res.Key.DocumentID]
	if !ok {
		byKey = map[Key]Result{}
		c.entries[res.Key.DocumentID] = byKey
	}
	byKey[res.Key] = res
}
