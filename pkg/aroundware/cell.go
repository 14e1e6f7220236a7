// Package aroundware provides the request-pipeline interception core: a
// single-resolution completion primitive, a per-request aroundware object
// combining it with pre/post hooks, and the interceptor that splices an
// aroundware between the server's upstream completion callback and the
// downstream handler's completion callback.
package aroundware

import (
	"sync"

	"github.com/reactorhq/aroundware/pkg/common"
)

// cellState tracks the resolution state of a CompletionCell.
type cellState int

const (
	// stateUnresolved means the cell has not been resolved yet.
	stateUnresolved cellState = iota
	// stateSucceeded means the cell was resolved with a success value.
	stateSucceeded
	// stateFailed means the cell was resolved with a failure value.
	stateFailed
)

// CompletionCell is a single-assignment, observe-many completion primitive.
// It resolves at most once, with either a success Result or a failure error.
// Observers registered before resolution fire in registration order exactly
// once when resolution occurs; observers registered after resolution fire
// immediately and synchronously with the stored outcome. An observer of the
// non-matching kind never fires.
//
// Resolving an already-resolved cell is an idempotent no-op: the stored
// outcome is unchanged and no observer re-fires. A cell that never resolves
// simply never fires its observers; liveness is the resolver's
// responsibility, not the cell's.
//
// The cell carries a small mutex so the at-most-once guarantee holds even
// when the resolution arrives from another goroutine (a timer or I/O
// completion). Observers fire outside the lock.
type CompletionCell struct {
	mu        sync.Mutex
	state     cellState
	value     *common.Result
	err       error
	successes []func(*common.Result)
	failures  []func(error)
}

// NewCompletionCell creates an unresolved CompletionCell.
func NewCompletionCell() *CompletionCell {
	return &CompletionCell{}
}

// Succeed resolves the cell with a success value and fires the registered
// success observers in registration order. If the cell is already resolved,
// Succeed is a no-op.
func (c *CompletionCell) Succeed(res *common.Result) {
	c.mu.Lock()
	if c.state != stateUnresolved {
		c.mu.Unlock()
		return
	}
	c.state = stateSucceeded
	c.value = res
	observers := c.successes
	c.successes = nil
	c.failures = nil
	c.mu.Unlock()

	for _, observer := range observers {
		observer(res)
	}
}

// Fail resolves the cell with a failure value and fires the registered
// failure observers in registration order. If the cell is already resolved,
// Fail is a no-op.
func (c *CompletionCell) Fail(err error) {
	c.mu.Lock()
	if c.state != stateUnresolved {
		c.mu.Unlock()
		return
	}
	c.state = stateFailed
	c.err = err
	observers := c.failures
	c.successes = nil
	c.failures = nil
	c.mu.Unlock()

	for _, observer := range observers {
		observer(err)
	}
}

// OnSuccess registers a success observer. If the cell is already resolved
// with a success value, the observer fires immediately and synchronously with
// the stored value. If the cell resolved with a failure, the observer never
// fires.
func (c *CompletionCell) OnSuccess(observer func(*common.Result)) {
	c.mu.Lock()
	switch c.state {
	case stateUnresolved:
		c.successes = append(c.successes, observer)
		c.mu.Unlock()
	case stateSucceeded:
		value := c.value
		c.mu.Unlock()
		observer(value)
	default:
		c.mu.Unlock()
	}
}

// OnFailure registers a failure observer. If the cell is already resolved
// with a failure value, the observer fires immediately and synchronously with
// the stored error. If the cell resolved with a success, the observer never
// fires.
func (c *CompletionCell) OnFailure(observer func(error)) {
	c.mu.Lock()
	switch c.state {
	case stateUnresolved:
		c.failures = append(c.failures, observer)
		c.mu.Unlock()
	case stateFailed:
		err := c.err
		c.mu.Unlock()
		observer(err)
	default:
		c.mu.Unlock()
	}
}

// Resolved reports whether the cell has been resolved with either outcome.
func (c *CompletionCell) Resolved() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state != stateUnresolved
}
