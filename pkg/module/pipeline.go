package module

// Pipeline holds the fixed, ordered set of modules a kernel was constructed
// with. The order is significant and never reshuffled at runtime: callers
// are expected to put the costing module first, since "the costing module
// is always first for before events and last for after events so it can
// charge for the full cost including other modules' work."
type Pipeline struct {
	modules []SystemModule
}

// NewPipeline returns a pipeline over modules in the given order.
func NewPipeline(modules ...SystemModule) *Pipeline {
	return &Pipeline{modules: modules}
}

// Modules returns the pipeline's modules in declared order.
func (p *Pipeline) Modules() []SystemModule {
	return p.modules
}

// Forward invokes fn for each module in declared order, stopping at the
// first error. It returns how many modules completed fn successfully
// before the failure (or len(modules) if none failed), so the caller can
// reverse-cleanup exactly those via Reverse.
func (p *Pipeline) Forward(fn func(SystemModule) error) (fired int, err error) {
	for i, m := range p.modules {
		if err := fn(m); err != nil {
			return i, err
		}
	}
	return len(p.modules), nil
}

// Reverse invokes fn for the first count modules in reverse order,
// regardless of whether any individual call errors, and returns the first
// error encountered (if any). This is how a short-circuited "before" event
// still gets matching "after" cleanup for modules that already fired.
func (p *Pipeline) Reverse(count int, fn func(SystemModule) error) error {
	var firstErr error
	for i := count - 1; i >= 0; i-- {
		if err := fn(p.modules[i]); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
