package registry

// Owner is the element a refresh callback belongs to. A callback whose owner
// is no longer alive is pruned before callbacks run.
type Owner interface {
	Alive() bool
}

// OwnerFunc adapts a function to Owner.
type OwnerFunc func() bool

// Alive implements Owner.
func (f OwnerFunc) Alive() bool { return f() }

type hook struct {
	owner Owner
	fn    func()
}

// Hooks is an ordered list of refresh callbacks. It is not safe for
// concurrent use; the Manager only touches it from its loop.
type Hooks struct {
	entries []hook
}

// Register appends fn. A nil owner is always alive.
func (h *Hooks) Register(owner Owner, fn func()) {
	if fn == nil {
		return
	}
	h.entries = append(h.entries, hook{owner: owner, fn: fn})
}

// Clear drops every callback.
func (h *Hooks) Clear() {
	h.entries = nil
}

// Len returns the number of registered callbacks, stale ones included.
func (h *Hooks) Len() int {
	return len(h.entries)
}

// Run prunes stale callbacks and invokes the rest in registration order.
// It returns the number of callbacks invoked.
func (h *Hooks) Run() int {
	h.prune()
	// Callbacks may register more callbacks; only the current set runs.
	live := append([]hook(nil), h.entries...)
	for _, e := range live {
		e.fn()
	}
	return len(live)
}

func (h *Hooks) prune() {
	kept := h.entries[:0]
	for _, e := range h.entries {
		if e.owner == nil || e.owner.Alive() {
			kept = append(kept, e)
		}
	}
	for i := len(kept); i < len(h.entries); i++ {
		h.entries[i] = hook{}
	}
	h.entries = kept
}
