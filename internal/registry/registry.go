// internal/registry/registry.go
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rovshanmuradov/token-sniper/internal/domain"
)

var (
	ErrAlreadyOpen = errors.New("position already open for token")
	ErrNotOpen     = errors.New("position is not open")
)

const DefaultClosedHistory = 100

// Registry holds the discovered set and the open positions. All access is
// serialized by one lock; positions handed out are copies.
type Registry struct {
	mu         sync.RWMutex
	discovered map[string]time.Time
	open       map[string]*domain.Position
	closed     []*domain.Position
	maxClosed  int
}

// New creates an empty registry keeping up to closedHistory recently closed
// positions for display.
func New(closedHistory int) *Registry {
	if closedHistory <= 0 {
		closedHistory = DefaultClosedHistory
	}
	return &Registry{
		discovered: make(map[string]time.Time),
		open:       make(map[string]*domain.Position),
		maxClosed:  closedHistory,
	}
}

// InsertDiscovered marks address as seen. It returns false if it already was.
func (r *Registry) InsertDiscovered(address string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.discovered[address]; ok {
		return false
	}
	r.discovered[address] = time.Now()
	return true
}

func (r *Registry) IsDiscovered(address string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.discovered[address]
	return ok
}

func (r *Registry) DiscoveredCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.discovered)
}

// OpenPosition registers p under its token address.
func (r *Registry) OpenPosition(p *domain.Position) error {
	if p == nil {
		return fmt.Errorf("%w: nil position", domain.ErrInvalidPosition)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.open[p.TokenAddress]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyOpen, p.TokenAddress)
	}
	r.open[p.TokenAddress] = p.Clone()
	return nil
}

// CloseRequest describes a terminal transition.
type CloseRequest struct {
	State     domain.PositionState
	ExitPrice float64
	Reason    string
	Receipt   string
	ClosedAt  time.Time
}

// ClosePosition removes the position and records the terminal state. The
// first close wins; any later call returns ErrNotOpen.
func (r *Registry) ClosePosition(address string, req CloseRequest) (*domain.Position, error) {
	if !req.State.Terminal() {
		return nil, fmt.Errorf("close with non-terminal state %q", req.State)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.open[address]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotOpen, address)
	}
	delete(r.open, address)

	p.State = req.State
	p.ExitPrice = req.ExitPrice
	p.CloseReason = req.Reason
	p.CloseReceipt = req.Receipt
	p.ClosedAt = req.ClosedAt
	if p.ClosedAt.IsZero() {
		p.ClosedAt = time.Now()
	}

	r.closed = append(r.closed, p)
	if len(r.closed) > r.maxClosed {
		r.closed = r.closed[len(r.closed)-r.maxClosed:]
	}
	return p.Clone(), nil
}

// Position returns a copy of the open position for address.
func (r *Registry) Position(address string) (*domain.Position, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.open[address]
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

// SnapshotOpenPositions returns copies ordered by opening time.
func (r *Registry) SnapshotOpenPositions() []*domain.Position {
	r.mu.RLock()
	out := make([]*domain.Position, 0, len(r.open))
	for _, p := range r.open {
		out = append(out, p.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].OpenedAt.Before(out[j].OpenedAt)
	})
	return out
}

func (r *Registry) OpenCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.open)
}

// RecentClosed returns copies of the closed positions, newest first.
func (r *Registry) RecentClosed() []*domain.Position {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Position, 0, len(r.closed))
	for i := len(r.closed) - 1; i >= 0; i-- {
		out = append(out, r.closed[i].Clone())
	}
	return out
}
