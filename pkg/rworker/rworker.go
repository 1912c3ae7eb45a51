// Package rworker runs jobs concurrently under a fixed limit.
package rworker

import "sync"

// Group runs jobs in goroutines, at most limit at a time, and collects
// their errors.
type Group struct {
	wg   sync.WaitGroup
	rate chan struct{}

	mtx  sync.Mutex
	errs []error
}

// New returns a group running up to limit jobs at once; limits below one
// are raised to one.
func New(limit int) *Group {
	if limit < 1 {
		limit = 1
	}
	return &Group{rate: make(chan struct{}, limit)}
}

// Go starts fn as soon as a slot is free. It does not block.
func (g *Group) Go(fn func() error) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		g.rate <- struct{}{}
		defer func() { <-g.rate }()

		if err := fn(); err != nil {
			g.mtx.Lock()
			g.errs = append(g.errs, err)
			g.mtx.Unlock()
		}
	}()
}

// Wait blocks until every started job returned and hands back their
// errors in completion order.
func (g *Group) Wait() []error {
	g.wg.Wait()
	g.mtx.Lock()
	defer g.mtx.Unlock()
	errs := g.errs
	g.errs = nil
	return errs
}
