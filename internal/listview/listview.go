// Package listview holds the state of a resource list view, independent of
// how the list is rendered.
package listview

import (
	"context"
	"errors"
	"sync"

	"github.com/ghaggin/naviplus-admin/internal/api"
	"github.com/ghaggin/naviplus-admin/internal/middleware"
)

var (
	// ErrLoginRequired means the view must send the user to login. The token
	// store has already been cleared when it follows a 401.
	ErrLoginRequired     = errors.New("login required")
	ErrStale             = errors.New("response discarded after unmount")
	ErrCreateUnsupported = errors.New("list does not support create")
)

type State int

const (
	Unauthenticated State = iota
	Loading
	Ready
	Failed
	Redirected
)

var stateNames = [...]string{"unauthenticated", "loading", "ready", "failed", "redirected"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

type FetchFunc[T any] func(ctx context.Context) ([]T, error)

type CreateFunc[T, In any] func(ctx context.Context, in In) (T, error)

// View is a point in time copy of a controller's state.
type View[T any] struct {
	State State
	Items []T
	Err   string
}

// Controller drives one mounted list view. Items are replaced wholesale on
// mount and only ever appended to afterwards.
type Controller[T, In any] struct {
	guard  *middleware.Guard
	store  middleware.TokenStore
	fetch  FetchFunc[T]
	create CreateFunc[T, In]

	mu    sync.Mutex
	gen   uint64
	state State
	items []T
	err   string
}

// New returns a controller; create may be nil for read-only lists.
func New[T, In any](store middleware.TokenStore, fetch FetchFunc[T], create CreateFunc[T, In]) *Controller[T, In] {
	return &Controller[T, In]{
		guard:  middleware.NewGuard(store),
		store:  store,
		fetch:  fetch,
		create: create,
	}
}

// Mount loads the collection. It returns ErrLoginRequired without touching
// the network when the session holds no token.
func (c *Controller[T, In]) Mount(ctx context.Context) error {
	if c.guard.Check(ctx) == middleware.RedirectLogin {
		c.mu.Lock()
		c.gen++
		c.state = Redirected
		c.mu.Unlock()
		return ErrLoginRequired
	}

	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.state = Loading
	c.err = ""
	c.mu.Unlock()

	items, err := c.fetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		return ErrStale
	}

	if err != nil {
		return c.failLocked(ctx, err, true)
	}

	c.items = items
	c.state = Ready
	return nil
}

// Create posts in and appends the returned record. On failure the items are
// left exactly as they were.
func (c *Controller[T, In]) Create(ctx context.Context, in In) (T, error) {
	var zero T
	if c.create == nil {
		return zero, ErrCreateUnsupported
	}

	c.mu.Lock()
	if c.guard.Check(ctx) == middleware.RedirectLogin {
		c.gen++
		c.state = Redirected
		c.mu.Unlock()
		return zero, ErrLoginRequired
	}
	gen := c.gen
	c.mu.Unlock()

	item, err := c.create(ctx, in)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		return zero, ErrStale
	}

	if err != nil {
		return zero, c.failLocked(ctx, err, false)
	}

	c.items = append(c.items, item)
	return item, nil
}

// failLocked applies err. A 401 always clears the store and redirects; other
// errors mark the view failed only when they come from loading.
func (c *Controller[T, In]) failLocked(ctx context.Context, err error, loading bool) error {
	if api.IsAuthError(err) {
		c.store.Clear(ctx)
		c.gen++
		c.state = Redirected
		return ErrLoginRequired
	}

	if loading {
		c.state = Failed
		c.err = api.Message(err)
	}
	return err
}

// Unmount drops any response still in flight.
func (c *Controller[T, In]) Unmount() {
	c.mu.Lock()
	c.gen++
	c.mu.Unlock()
}

func (c *Controller[T, In]) Snapshot() View[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := make([]T, len(c.items))
	copy(items, c.items)

	return View[T]{
		State: c.state,
		Items: items,
		Err:   c.err,
	}
}
