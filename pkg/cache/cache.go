// Package cache provides ExpiringCache, the keyed, time-invalidated store
// that sits in front of every lexical lookup.
//
// A cache is a thin configuration of a name, a fetch function and an expiry.
// Values are held in memory and written through a Persister after every
// successful fetch so the next process can start warm. The whole cache is
// persisted as one record under its name.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/OFFIS-RIT/lexgraph/pkg/logger"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/singleflight"
)

// DefaultExpiry is used when Params.Expiry is zero.
const DefaultExpiry = 7 * 24 * time.Hour

var (
	// ErrFetch wraps every error returned by a fetch function.
	ErrFetch = errors.New("cache: fetch failed")
	// ErrNotFound is returned by a Persister that holds no record for a name.
	ErrNotFound = errors.New("cache: record not found")
)

// Persister stores the encoded record of a cache under its name.
type Persister interface {
	Load(ctx context.Context, name string) ([]byte, error)
	Save(ctx context.Context, name string, data []byte) error
}

// FetchFunc produces the value for key. Single-valued caches use the empty
// key.
type FetchFunc[T any] func(ctx context.Context, key string) (T, error)

// Event is reported to an Observer for every Get.
type Event string

const (
	EventHit   Event = "hit"
	EventMiss  Event = "miss"
	EventError Event = "error"
)

// Observer receives cache events. Duration is the fetch time for misses
// and errors and zero for hits.
type Observer interface {
	Observe(name string, event Event, duration time.Duration)
}

// Entry is one cached value and the time it was fetched.
type Entry[T any] struct {
	Value       T         `msgpack:"value"`
	LastUpdated time.Time `msgpack:"last_updated"`
}

type record[T any] struct {
	Entries map[string]Entry[T] `msgpack:"entries"`
}

// Params configures a new ExpiringCache. Name and Fetch are required.
type Params[T any] struct {
	Name      string
	Fetch     FetchFunc[T]
	Expiry    time.Duration
	Persister Persister
	Observer  Observer
	Clock     func() time.Time
}

// ExpiringCache holds values per key and refetches a value once it is older
// than the expiry. It is safe for concurrent use; concurrent misses for the
// same key share one fetch.
type ExpiringCache[T any] struct {
	name      string
	fetch     FetchFunc[T]
	expiry    time.Duration
	persister Persister
	observer  Observer
	now       func() time.Time

	mu      sync.Mutex
	entries map[string]Entry[T]
	saveMu  sync.Mutex
	group   singleflight.Group
}

// New creates a cache and loads its previously persisted record. A missing,
// unreadable or undecodable record leaves the cache empty.
func New[T any](ctx context.Context, params Params[T]) (*ExpiringCache[T], error) {
	if params.Name == "" {
		return nil, errors.New("cache: name is required")
	}
	if params.Fetch == nil {
		return nil, fmt.Errorf("cache %s: fetch function is required", params.Name)
	}
	expiry := params.Expiry
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	now := params.Clock
	if now == nil {
		now = time.Now
	}

	c := &ExpiringCache[T]{
		name:      params.Name,
		fetch:     params.Fetch,
		expiry:    expiry,
		persister: params.Persister,
		observer:  params.Observer,
		now:       now,
		entries:   make(map[string]Entry[T]),
	}
	c.load(ctx)
	return c, nil
}

// Name returns the name the cache is persisted under.
func (c *ExpiringCache[T]) Name() string { return c.name }

// Expiry returns the age after which a value is refetched.
func (c *ExpiringCache[T]) Expiry() time.Duration { return c.expiry }

func (c *ExpiringCache[T]) load(ctx context.Context) {
	if c.persister == nil {
		return
	}
	data, err := c.persister.Load(ctx, c.name)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logger.Debug("[Cache] Could not read persisted record, starting empty", "store", c.name, "err", err)
		}
		return
	}

	var rec record[T]
	if err := msgpack.Unmarshal(data, &rec); err != nil {
		logger.Debug("[Cache] Persisted record is corrupt, starting empty", "store", c.name, "err", err)
		return
	}
	if rec.Entries != nil {
		c.entries = rec.Entries
	}
	logger.Debug("[Cache] Loaded persisted record", "store", c.name, "entries", len(c.entries))
}

func (c *ExpiringCache[T]) expired(e Entry[T]) bool {
	return c.now().Sub(e.LastUpdated) > c.expiry
}

func (c *ExpiringCache[T]) lookup(key string) (Entry[T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || c.expired(e) {
		return e, false
	}
	return e, true
}

// Get returns the value for key, fetching it when none is held or the held
// one has expired. A failed fetch returns an error wrapping ErrFetch; the
// expired value is not returned in that case.
func (c *ExpiringCache[T]) Get(ctx context.Context, key string) (T, error) {
	if e, ok := c.lookup(key); ok {
		c.observe(EventHit, 0)
		return e.Value, nil
	}
	return c.do(ctx, key, false)
}

// Refresh fetches the value for key regardless of its age.
func (c *ExpiringCache[T]) Refresh(ctx context.Context, key string) (T, error) {
	return c.do(ctx, key, true)
}

// Keys returns the keys currently held, expired or not, in sorted order.
func (c *ExpiringCache[T]) Keys() []string {
	c.mu.Lock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	c.mu.Unlock()
	sort.Strings(keys)
	return keys
}

// Invalidate drops the in-memory value for key so the next Get fetches.
// The persisted record is rewritten on that fetch.
func (c *ExpiringCache[T]) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

func (c *ExpiringCache[T]) do(ctx context.Context, key string, force bool) (T, error) {
	flightKey := key
	if force {
		flightKey = "\x00force\x00" + key
	}
	v, err, _ := c.group.Do(flightKey, func() (any, error) {
		if !force {
			if e, ok := c.lookup(key); ok {
				return e.Value, nil
			}
		}
		return c.fetchAndStore(ctx, key)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

func (c *ExpiringCache[T]) fetchAndStore(ctx context.Context, key string) (T, error) {
	start := c.now()
	value, err := c.fetch(ctx, key)
	took := c.now().Sub(start)
	if err != nil {
		c.observe(EventError, took)
		var zero T
		return zero, fmt.Errorf("%w: store %s key %q: %w", ErrFetch, c.name, key, err)
	}
	c.observe(EventMiss, took)

	c.mu.Lock()
	c.entries[key] = Entry[T]{Value: value, LastUpdated: c.now()}
	c.mu.Unlock()

	c.save(ctx)
	return value, nil
}

// save persists the current record. Failures are logged and the fetched
// value is still served.
func (c *ExpiringCache[T]) save(ctx context.Context) {
	if c.persister == nil {
		return
	}
	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	c.mu.Lock()
	data, err := msgpack.Marshal(record[T]{Entries: c.entries})
	c.mu.Unlock()
	if err != nil {
		logger.Warn("[Cache] Failed to encode record", "store", c.name, "err", err)
		return
	}
	if err := c.persister.Save(ctx, c.name, data); err != nil {
		logger.Warn("[Cache] Failed to persist record", "store", c.name, "err", err)
	}
}

func (c *ExpiringCache[T]) observe(event Event, d time.Duration) {
	if c.observer != nil {
		c.observer.Observe(c.name, event, d)
	}
}
