package redis

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type scanPage struct {
	keys []string
	next uint64
}

// stubClient answers the commands CacheStore issues from in-memory state.
type stubClient struct {
	redis.Cmdable
	values   map[string]string
	getErr   error
	pages    map[uint64]scanPage
	cursors  []uint64
	match    string
	unlinked [][]string
	sets     int
}

func (s *stubClient) Get(_ context.Context, key string) *redis.StringCmd {
	if s.getErr != nil {
		return redis.NewStringResult("", s.getErr)
	}
	v, ok := s.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (s *stubClient) Set(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	s.sets++
	return redis.NewStatusResult("OK", nil)
}

func (s *stubClient) Scan(_ context.Context, cursor uint64, match string, _ int64) *redis.ScanCmd {
	s.cursors = append(s.cursors, cursor)
	s.match = match
	p := s.pages[cursor]
	return redis.NewScanCmdResult(p.keys, p.next, nil)
}

func (s *stubClient) Unlink(_ context.Context, keys ...string) *redis.IntCmd {
	s.unlinked = append(s.unlinked, keys)
	return redis.NewIntResult(int64(len(keys)), nil)
}

func TestCacheStore_Get(t *testing.T) {
	client := &stubClient{values: map[string]string{"users:id:u1": `{"id":"u1"}`}}
	store := NewCacheStore(client)
	ctx := context.Background()

	b, ok, err := store.Get(ctx, "users:id:u1")
	if err != nil || !ok || string(b) != `{"id":"u1"}` {
		t.Fatalf("expected hit, got %q %v %v", b, ok, err)
	}

	b, ok, err = store.Get(ctx, "users:id:missing")
	if err != nil || ok || b != nil {
		t.Fatalf("expected clean miss, got %q %v %v", b, ok, err)
	}
}

func TestCacheStore_Get_BackendError(t *testing.T) {
	boom := errors.New("connection refused")
	store := NewCacheStore(&stubClient{getErr: boom})

	_, ok, err := store.Get(context.Background(), "users:id:u1")
	if !errors.Is(err, boom) || ok {
		t.Fatalf("expected wrapped backend error, got %v %v", ok, err)
	}
}

func TestCacheStore_Set_SkipsNonPositiveTTL(t *testing.T) {
	client := &stubClient{}
	store := NewCacheStore(client)

	if err := store.Set(context.Background(), "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if client.sets != 0 {
		t.Fatalf("expected no SET for zero ttl, got %d", client.sets)
	}
	if err := store.Set(context.Background(), "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if client.sets != 1 {
		t.Fatalf("expected one SET, got %d", client.sets)
	}
}

func TestCacheStore_DeletePrefix_WalksEveryCursor(t *testing.T) {
	client := &stubClient{pages: map[uint64]scanPage{
		0:  {keys: []string{"appointments:today:2026-03-10"}, next: 17},
		17: {next: 42},
		42: {keys: []string{"appointments:today:2026-03-11", "appointments:today:2026-03-12"}, next: 0},
	}}
	store := NewCacheStore(client)

	if err := store.DeletePrefix(context.Background(), "appointments:today:"); err != nil {
		t.Fatalf("DeletePrefix returned error: %v", err)
	}
	if !slices.Equal(client.cursors, []uint64{0, 17, 42}) {
		t.Fatalf("unexpected cursor walk: %v", client.cursors)
	}
	if client.match != "appointments:today:*" {
		t.Fatalf("unexpected match pattern %q", client.match)
	}
	if len(client.unlinked) != 2 || len(client.unlinked[1]) != 2 {
		t.Fatalf("expected two UNLINK batches skipping the empty page, got %v", client.unlinked)
	}
}
