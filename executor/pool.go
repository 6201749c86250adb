// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package executor

import (
	"github.com/sourcegraph/conc/pool"
)

// Pool delivers completion callbacks on a bounded goroutine pool, handing
// them off the transport goroutine.
type Pool struct {
	pool *pool.Pool
}

// PoolOption configures a [Pool].
type PoolOption func(*Pool)

// MaxGoroutines bounds the number of goroutines delivering callbacks.
func MaxGoroutines(n int) PoolOption {
	return func(p *Pool) {
		p.pool = p.pool.WithMaxGoroutines(n)
	}
}

// NewPool initializes a [Pool].
func NewPool(opts ...PoolOption) *Pool {
	p := &Pool{
		pool: pool.New(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Execute hands f to the pool without blocking on its completion.
func (p *Pool) Execute(f func()) {
	p.pool.Go(f)
}

// Wait blocks until all handed off callbacks have run. Call it during
// shutdown once no further completions will be enqueued.
func (p *Pool) Wait() {
	p.pool.Wait()
}
