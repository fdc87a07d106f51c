package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/OFFIS-RIT/lexgraph/pkg/cache"

	"github.com/redis/go-redis/v9"
)

type fakeKV struct {
	values map[string]string
	ttls   map[string]time.Duration
}

func (f *fakeKV) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeKV) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.values[key] = string(value.([]byte))
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func TestRedisPersister(t *testing.T) {
	ctx := context.Background()
	kv := &fakeKV{values: map[string]string{}, ttls: map[string]time.Duration{}}
	p := NewRedisPersister(NewRedisPersisterParams{Client: kv, Prefix: "lexgraph:", TTL: time.Hour})

	if _, err := p.Load(ctx, "dis"); !errors.Is(err, cache.ErrNotFound) {
		t.Fatalf("Load: err = %v, want ErrNotFound", err)
	}
	if err := p.Save(ctx, "dis", []byte{0x81, 0x01}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if kv.ttls["lexgraph:dis.cache"] != time.Hour {
		t.Fatalf("ttl = %v", kv.ttls["lexgraph:dis.cache"])
	}
	got, err := p.Load(ctx, "dis")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 2 || got[0] != 0x81 || got[1] != 0x01 {
		t.Fatalf("Load = %v", got)
	}
}

func TestRedisPersisterBackingCache(t *testing.T) {
	ctx := context.Background()
	kv := &fakeKV{values: map[string]string{}, ttls: map[string]time.Duration{}}
	p := NewRedisPersister(NewRedisPersisterParams{Client: kv})
	calls := 0
	fetch := func(_ context.Context, key string) (int, error) {
		calls++
		return len(key), nil
	}

	for i := 0; i < 2; i++ {
		c, err := cache.New(ctx, cache.Params[int]{Name: "len", Fetch: fetch, Persister: p})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		got, err := c.Get(ctx, "chat")
		if err != nil || got != 4 {
			t.Fatalf("Get = %d, %v", got, err)
		}
	}
	if calls != 1 {
		t.Fatalf("fetch calls = %d, want 1", calls)
	}
}
