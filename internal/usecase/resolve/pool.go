package resolve

import (
	"context"
	"sync"

	"github.com/corvid-health/termmap/internal/domain"
)

// Pool hands out resolvers with exclusive ownership. A caller must
// Acquire before resolving and Release when done; a resolver is never
// held by two callers at once.
type Pool struct {
	resolvers chan *Resolver
	size      int

	mu     sync.Mutex
	closed bool
}

// NewPool builds size resolvers up front using factory.
func NewPool(size int, factory func() *Resolver) *Pool {
	if size < 1 {
		size = 1
	}
	p := &Pool{
		resolvers: make(chan *Resolver, size),
		size:      size,
	}
	for i := 0; i < size; i++ {
		p.resolvers <- factory()
	}
	return p
}

// Size returns the pool capacity.
func (p *Pool) Size() int { return p.size }

// Acquire blocks until a resolver is free, the context is canceled, or
// the pool is closed.
func (p *Pool) Acquire(ctx context.Context) (*Resolver, error) {
	select {
	case r, ok := <-p.resolvers:
		if !ok {
			return nil, domain.ErrPoolClosed
		}
		return r, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns a resolver to the pool. Releasing into a closed pool
// drops the resolver.
func (p *Pool) Release(r *Resolver) {
	if r == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.resolvers <- r
}

// Close marks the pool closed. Pending and future Acquire calls fail
// with ErrPoolClosed once the remaining resolvers drain.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.resolvers)
}
