package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced time source for expiry tests.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestStoreSetGet(t *testing.T) {
	s := New[string]("test")

	s.Set("k", "v")
	got, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", got)

	// Overwrite is unconditional.
	s.Set("k", "v2")
	got, ok = s.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v2", got)

	_, ok = s.Get("absent")
	assert.False(t, ok)
}

func TestStoreExpiry(t *testing.T) {
	clock := newFakeClock()
	s := New[int]("test", WithClock[int](clock.Now), WithDefaultTTL[int](time.Hour))

	s.Set("k", 42)

	clock.Advance(time.Hour) // exactly at TTL is still valid
	got, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, 42, got)

	clock.Advance(time.Second)
	_, ok = s.Get("k")
	assert.False(t, ok, "entry past its TTL must read as a miss")

	// The expired entry was evicted by the read.
	assert.Equal(t, 0, s.Status().TotalEntries)
}

func TestStoreTTLOverride(t *testing.T) {
	clock := newFakeClock()
	s := New[int]("test", WithClock[int](clock.Now))

	s.SetWithTTL("short", 1, time.Minute)
	s.Set("long", 2)

	clock.Advance(2 * time.Minute)
	assert.False(t, s.Has("short"))
	assert.True(t, s.Has("long"))
}

func TestStoreClearAll(t *testing.T) {
	clock := newFakeClock()
	s := New[string]("test", WithClock[string](clock.Now))

	for i := 0; i < 5; i++ {
		s.Set(fmt.Sprintf("k%d", i), "v")
	}

	n := s.ClearAll()
	assert.Equal(t, 5, n)
	assert.Equal(t, 0, s.Status().TotalEntries)
	assert.Equal(t, clock.Now(), s.Status().LastClearedAt)

	assert.Equal(t, 0, s.ClearAll(), "clearing an empty store evicts nothing")
}

func TestStoreClearByPrefix(t *testing.T) {
	s := New[string]("test")

	s.Set("history|XAUUSD|nonCommercial|156", "a")
	s.Set("history|XAUUSD|commercial|156", "b")
	s.Set("history|EURUSD|nonCommercial|156", "c")

	n := s.ClearByPrefix("history|XAUUSD|")
	assert.Equal(t, 2, n)
	assert.False(t, s.Has("history|XAUUSD|nonCommercial|156"))
	assert.True(t, s.Has("history|EURUSD|nonCommercial|156"))
}

func TestStatusDoesNotEvict(t *testing.T) {
	clock := newFakeClock()
	s := New[int]("test", WithClock[int](clock.Now), WithDefaultTTL[int](time.Minute))

	s.Set("live", 1)
	clock.Advance(30 * time.Second)
	s.Set("fresh", 2)
	clock.Advance(45 * time.Second) // "live" is now 75s old, expired

	st := s.Status()
	assert.Equal(t, 2, st.TotalEntries)
	assert.Equal(t, 1, st.ValidEntries)
	assert.Equal(t, 1, st.ExpiredEntries)
	assert.Equal(t, "live", st.OldestKey)
	assert.Equal(t, "fresh", st.NewestKey)

	// Status is read-only: the expired entry is still resident.
	again := s.Status()
	assert.Equal(t, 2, again.TotalEntries)

	// A read finally evicts it.
	_, ok := s.Get("live")
	assert.False(t, ok)
	assert.Equal(t, 1, s.Status().TotalEntries)
}

func TestStatusEntryDetail(t *testing.T) {
	clock := newFakeClock()
	s := New[int]("test", WithClock[int](clock.Now), WithDefaultTTL[int](time.Hour))

	s.Set("k", 1)
	clock.Advance(15 * time.Minute)

	st := s.Status()
	require.Len(t, st.Entries, 1)
	e := st.Entries[0]
	assert.Equal(t, "k", e.Key)
	assert.Equal(t, 15*time.Minute, e.Age)
	assert.Equal(t, time.Hour, e.TTL)
	assert.Equal(t, 45*time.Minute, e.ExpiresIn)
	assert.False(t, e.Expired)
}

func TestStoreConcurrentAccess(t *testing.T) {
	s := New[int]("test")

	done := make(chan struct{})
	for g := 0; g < 8; g++ {
		go func(g int) {
			defer func() { done <- struct{}{} }()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", i%17)
				s.Set(key, g)
				s.Get(key)
				if i%50 == 0 {
					s.Status()
				}
			}
		}(g)
	}
	for g := 0; g < 8; g++ {
		<-done
	}
}
