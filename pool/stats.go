package pool

// Stats is a point-in-time snapshot of pool activity.
type Stats struct {
	Workers      int    `json:"workers"`
	ReadyWorkers int    `json:"readyWorkers"`
	Pending      int    `json:"pending"`
	Dispatched   uint64 `json:"dispatched"`
	Resolved     uint64 `json:"resolved"`
	Rejected     uint64 `json:"rejected"`
	Destroyed    bool   `json:"destroyed"`
}

// Stats returns a snapshot of the pool's counters.
func (p *WorkerPool) Stats() Stats {
	ready := 0
	for _, h := range p.workers {
		if h.ready.isOpen() {
			ready++
		}
	}

	return Stats{
		Workers:      len(p.workers),
		ReadyWorkers: ready,
		Pending:      p.pending.len(),
		Dispatched:   p.dispatched.Load(),
		Resolved:     p.resolved.Load(),
		Rejected:     p.rejected.Load(),
		Destroyed:    p.destroyed.Load(),
	}
}
