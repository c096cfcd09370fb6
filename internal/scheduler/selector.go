package scheduler

import "sync/atomic"

// Selector picks the index of the worker that receives the next request.
// Implementations must be safe for concurrent use.
type Selector interface {
	// Select returns a worker index in [0, size). key is the request's
	// affinity key and may be empty.
	Select(key string) int
}

// roundRobin distributes requests over all workers in submission order:
// the k-th call (0-indexed) returns k mod size.
type roundRobin struct {
	counter atomic.Uint64 // Number of selections made so far.
	size    uint64
}

// NewRoundRobin returns a Selector cycling over size workers.
// It panics if size is not positive.
func NewRoundRobin(size int) Selector {
	if size <= 0 {
		panic("scheduler: round robin size must be positive")
	}
	return &roundRobin{size: uint64(size)}
}

func (r *roundRobin) Select(string) int {
	return int((r.counter.Add(1) - 1) % r.size)
}

// affinity routes requests sharing a key to the same worker. Requests with an
// empty key fall back to round robin.
type affinity struct {
	fallback *roundRobin
	size     uint32
}

// NewAffinity returns a Selector hashing keys onto size workers.
// It panics if size is not positive.
func NewAffinity(size int) Selector {
	if size <= 0 {
		panic("scheduler: affinity size must be positive")
	}
	return &affinity{
		fallback: &roundRobin{size: uint64(size)},
		size:     uint32(size),
	}
}

func (a *affinity) Select(key string) int {
	if key == "" {
		return a.fallback.Select(key)
	}
	return int(fnvHash(key) % a.size)
}

// fnvHash is 32-bit FNV-1a.
func fnvHash(key string) uint32 {
	const (
		offset32 = 2166136261
		prime32  = 16777619
	)

	hash := uint32(offset32)
	for i := 0; i < len(key); i++ {
		hash ^= uint32(key[i])
		hash *= prime32
	}
	return hash
}
