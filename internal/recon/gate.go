package recon

import (
	"sync"

	"superca/internal/domain"
)

// Gate serialises reconciliation per taxpayer and filing period. A second
// run started while one is in flight is rejected rather than queued, since
// the caller can simply retry once the first finishes.
type Gate struct {
	mu    sync.Mutex
	inUse map[string]struct{}
}

func NewGate() *Gate {
	return &Gate{inUse: make(map[string]struct{})}
}

func key(taxpayerID, filingPeriod string) string {
	return taxpayerID + "|" + filingPeriod
}

func (g *Gate) TryAcquire(taxpayerID, filingPeriod string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	k := key(taxpayerID, filingPeriod)
	if _, held := g.inUse[k]; held {
		return domain.ErrReconInProgress
	}
	g.inUse[k] = struct{}{}
	return nil
}

func (g *Gate) Release(taxpayerID, filingPeriod string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inUse, key(taxpayerID, filingPeriod))
}
