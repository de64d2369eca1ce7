package facade

// Pool is a semaphore that bounds how many facade commands run at once
// ("N folder walkers" becomes "N concurrent facade commands"). A caller
// still waits for its own command's result; the scan handlers only enqueue
// onto the scan coordinator and do not go through the pool.
type Pool struct {
	sem chan struct{}
}

// NewPool builds a Pool allowing up to size concurrent jobs.
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{sem: make(chan struct{}, size)}
}

// Submit dispatches fn onto the pool and awaits its completion signal, per
// spec.md §5 "Command worker": the caller's own goroutine never runs fn
// directly, only waits on a result channel, so it never holds the store
// connection across a suspension point.
func Submit[T any](p *Pool, fn func() (T, error)) (T, error) {
	type result struct {
		val T
		err error
	}
	out := make(chan result, 1)

	p.sem <- struct{}{}
	go func() {
		defer func() { <-p.sem }()
		v, err := fn()
		out <- result{v, err}
	}()

	r := <-out
	return r.val, r.err
}
