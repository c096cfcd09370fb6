package scheduler

import (
	"sync"
	"testing"
)

func TestRoundRobin_Select(t *testing.T) {
	tests := []struct {
		name string
		size int
		n    int
	}{
		{name: "single worker", size: 1, n: 5},
		{name: "four workers", size: 4, n: 17},
		{name: "more workers than requests", size: 8, n: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewRoundRobin(tt.size)
			for k := range tt.n {
				if got := s.Select(""); got != k%tt.size {
					t.Fatalf("request %d: expected worker %d, got %d", k, k%tt.size, got)
				}
			}
		})
	}
}

func TestRoundRobin_ConcurrentBalance(t *testing.T) {
	const (
		size       = 4
		goroutines = 8
		perG       = 250
	)

	s := NewRoundRobin(size)
	counts := make([]int, size)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for range goroutines {
		wg.Go(func() {
			for range perG {
				idx := s.Select("")
				mu.Lock()
				counts[idx]++
				mu.Unlock()
			}
		})
	}
	wg.Wait()

	want := goroutines * perG / size
	for i, c := range counts {
		if c != want {
			t.Errorf("worker %d: expected %d selections, got %d", i, want, c)
		}
	}
}

func TestRoundRobin_PanicsOnEmpty(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for size 0")
		}
	}()
	NewRoundRobin(0)
}

func TestAffinity_Select(t *testing.T) {
	s := NewAffinity(5)

	t.Run("same key same worker", func(t *testing.T) {
		first := s.Select("tile:3:-2")
		for range 10 {
			if got := s.Select("tile:3:-2"); got != first {
				t.Fatalf("expected %d, got %d", first, got)
			}
		}
	})

	t.Run("index within range", func(t *testing.T) {
		for _, k := range []string{"a", "b", "c", "tile:0:0", "tile:100:-100"} {
			if got := s.Select(k); got < 0 || got >= 5 {
				t.Errorf("key %q: index %d out of range", k, got)
			}
		}
	})

	t.Run("empty key falls back to round robin", func(t *testing.T) {
		s := NewAffinity(3)
		for k := range 6 {
			if got := s.Select(""); got != k%3 {
				t.Fatalf("request %d: expected %d, got %d", k, k%3, got)
			}
		}
	})
}

func TestFnvHash(t *testing.T) {
	// Reference values for 32-bit FNV-1a.
	tests := map[string]uint32{
		"":  2166136261,
		"a": 0xe40c292c,
	}
	for in, want := range tests {
		if got := fnvHash(in); got != want {
			t.Errorf("fnvHash(%q) = %#x, want %#x", in, got, want)
		}
	}
}
