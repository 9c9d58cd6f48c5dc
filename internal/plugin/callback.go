package plugin

// DefaultPriority is the dispatch priority of callbacks that do not
// carry an explicit one. Lower values dispatch first.
const DefaultPriority = 10

// Func is a plain event callback. A bare Func is a valid value in a
// plugin's Callbacks map and carries the default priority.
type Func func(args ...any) (any, error)

// MethodFunc is an event callback defined method-style: the owning
// plugin instance arrives as the first argument when the callback is
// bound. Plugins use method callbacks when the handler is declared
// away from the instance it operates on.
type MethodFunc func(owner any, args ...any) (any, error)

// Callback wraps a callable with a dispatch priority. Callbacks built
// from a MethodFunc must be bound to their owner before invocation;
// the dispatcher performs the bind step when it retrieves callbacks
// from a plugin instance.
type Callback struct {
	priority int
	fn       Func
	method   MethodFunc
}

// CallbackOption configures a Callback.
type CallbackOption func(*Callback)

// WithPriority sets the dispatch priority. Lower values dispatch
// first; ties keep discovery order.
func WithPriority(priority int) CallbackOption {
	return func(c *Callback) {
		c.priority = priority
	}
}

// NewCallback wraps a plain callable.
func NewCallback(fn Func, opts ...CallbackOption) *Callback {
	c := &Callback{priority: DefaultPriority, fn: fn}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewMethodCallback wraps a method-style callable. The owner is
// supplied later via Bind.
func NewMethodCallback(fn MethodFunc, opts ...CallbackOption) *Callback {
	c := &Callback{priority: DefaultPriority, method: fn}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Priority returns the dispatch priority.
func (c *Callback) Priority() int { return c.priority }

// Bind returns the invocable form of the callback for the given owner.
// For a method callback the owner becomes the implicit first argument,
// exactly as an ordinary method call would pass its receiver. Plain
// callbacks ignore the owner.
func (c *Callback) Bind(owner any) Func {
	if c.method != nil {
		method := c.method
		return func(args ...any) (any, error) {
			return method(owner, args...)
		}
	}
	return c.fn
}

// Call invokes a plain callback directly. Method callbacks must be
// bound first; calling one unbound returns ErrUnboundCallback.
func (c *Callback) Call(args ...any) (any, error) {
	if c.fn == nil {
		return nil, ErrUnboundCallback
	}
	return c.fn(args...)
}
