package rum

import (
	"fmt"
	"runtime/debug"
)

// message used when an asynchronous failure carries no message of its own
const genericErrorMessage = "unhandled rejection"

// ReportError emits one error-trigger envelope immediately. Every field of
// the detail is optional except the message; absence of a stack or source
// never blocks emission.
func (a *Agent) ReportError(detail ErrorDetail) {
	if detail.Message == "" {
		detail.Message = genericErrorMessage
	}
	env := a.envelope(TriggerError)
	env.Error = &detail
	a.transport.deliver(env, hintStandard)
}

// WatchPanic reports a panic unwinding through the caller and then
// re-panics with the original value. The agent only observes host failures,
// it never suppresses them. Use it deferred:
//
//	defer agent.WatchPanic()
func (a *Agent) WatchPanic() {
	r := recover()
	if r == nil {
		return
	}
	a.ReportError(ErrorDetail{
		Message: panicMessage(r),
		Kind:    "panic",
		Stack:   string(debug.Stack()),
	})
	panic(r)
}

// Go runs fn on its own goroutine and reports a returned error or an
// escaped panic as an error-trigger envelope. A panic is re-raised after
// reporting; an error return is only reported, since nothing above the
// goroutine could have handled it anyway.
func (a *Agent) Go(fn func() error) {
	go func() {
		defer a.WatchPanic()
		if err := fn(); err != nil {
			a.ReportError(ErrorDetail{
				Message: err.Error(),
				Kind:    "async",
			})
		}
	}()
}

func panicMessage(r any) string {
	switch v := r.(type) {
	case error:
		return v.Error()
	case string:
		return v
	default:
		if v == nil {
			return genericErrorMessage
		}
		return fmt.Sprint(v)
	}
}
