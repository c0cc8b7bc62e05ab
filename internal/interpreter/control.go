package interpreter

// signal marks the non-local control-flow errors (return/break/
// continue) that statement execution propagates as ordinary Go
// errors, distinguishing them from actual failures so callers can
// tell them apart with errors.As.
type signal interface {
	error
	isSignal()
}

// returnSignal unwinds a function call back to Function.Call carrying
// the returned value.
type returnSignal struct {
	Value any
}

func (r *returnSignal) Error() string { return "return outside function" }
func (r *returnSignal) isSignal()     {}

// breakSignal unwinds to the nearest enclosing loop and stops it.
type breakSignal struct{}

func (b *breakSignal) Error() string { return "break outside loop" }
func (b *breakSignal) isSignal()     {}

// continueSignal unwinds to the nearest enclosing loop and starts its
// next iteration (running the increment first, for a desugared `for`).
type continueSignal struct{}

func (c *continueSignal) Error() string { return "continue outside loop" }
func (c *continueSignal) isSignal()     {}

var (
	_ signal = (*returnSignal)(nil)
	_ signal = (*breakSignal)(nil)
	_ signal = (*continueSignal)(nil)
)
