package cortex

// Evaluator is the user-supplied closure that scores one network. It
// pushes inputs via net.Evaluate, reads outputs via net.Output and
// calls net.SetFitness at least once.
type Evaluator func(net *Network)

// Context carries the shared collaborators of a task: the immutable
// configuration, the worker pool, the evaluator and the solved
// callback. It is threaded explicitly from Task through Env down to
// every Network; nothing is package-global after setup.
type Context struct {
	Conf *Conf

	// Pool runs evaluations; nil in tests that evaluate directly.
	Pool *Pool

	// Evaluate is the user-supplied evaluator.
	Evaluate Evaluator

	// OnSolved is invoked whenever a network passes the target fitness
	// on the final stage; the callee decides which call counts. May be
	// nil.
	OnSolved func(net *Network)
}

// NewContext returns a context around the given configuration.
func NewContext(conf *Conf) *Context {
	return &Context{Conf: conf}
}
