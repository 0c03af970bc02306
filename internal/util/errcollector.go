package util

import "sync"

// ErrorCollector listens for errors reported by worker goroutines and
// buffers them until Stop is called, the same role vslc/src/util/perror.go
// plays for its parallel optimisation pass. internal/compiler's pipeline
// uses one of these for per-function concurrent checking because
// errgroup.Group.Wait only ever returns the first error, and spec.md §7
// requires the driver to report every candidate tried, not just the first
// goroutine to fail.
type ErrorCollector struct {
	listen chan error
	stop   chan struct{}
	mu     sync.Mutex
	errs   []error
}

const defaultBufferSize = 16

func NewErrorCollector(n int) *ErrorCollector {
	if n < 1 {
		n = defaultBufferSize
	}
	ec := &ErrorCollector{
		listen: make(chan error),
		stop:   make(chan struct{}),
		errs:   make([]error, 0, n),
	}
	go ec.run()
	return ec
}

func (ec *ErrorCollector) run() {
	for {
		select {
		case err := <-ec.listen:
			ec.mu.Lock()
			ec.errs = append(ec.errs, err)
			ec.mu.Unlock()
		case <-ec.stop:
			return
		}
	}
}

// Append sends err to the collector. nil errors are ignored.
func (ec *ErrorCollector) Append(err error) {
	if err != nil {
		ec.listen <- err
	}
}

// Len returns the number of errors buffered so far.
func (ec *ErrorCollector) Len() int {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	return len(ec.errs)
}

// Stop terminates the listener goroutine. Must be called exactly once.
func (ec *ErrorCollector) Stop() {
	close(ec.stop)
}

// Errors returns a snapshot of all errors collected so far, in arrival order.
func (ec *ErrorCollector) Errors() []error {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	out := make([]error, len(ec.errs))
	copy(out, ec.errs)
	return out
}
