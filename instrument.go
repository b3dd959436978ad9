package rum

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

const HeaderSessionID = "X-RUM-Session-Id"
const HeaderEndpointID = "X-RUM-Endpoint-Id"

// Doer is the call-style network primitive (http.Client satisfies it).
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// InstrumentTransport wraps the object-style primitive. The wrapped
// transport injects correlation headers and emits one network-call record
// per completed or failed round trip; response and error pass through
// unmodified. Wrapping an already-wrapped transport rewraps the original,
// so applying it twice cannot double-measure.
func InstrumentTransport(rt http.RoundTripper, a *Agent) http.RoundTripper {
	if rt == nil {
		rt = http.DefaultTransport
	}
	if it, ok := rt.(*instrumentedTransport); ok {
		rt = it.base
	}
	return &instrumentedTransport{base: rt, agent: a}
}

type instrumentedTransport struct {
	base  http.RoundTripper
	agent *Agent
}

func (t *instrumentedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.agent.measure(CallTypeXHR, req, t.base.RoundTrip)
}

// InstrumentDoer wraps the call-style primitive, with the same contract as
// InstrumentTransport.
func InstrumentDoer(d Doer, a *Agent) Doer {
	if id, ok := d.(*instrumentedDoer); ok {
		d = id.base
	}
	return &instrumentedDoer{base: d, agent: a}
}

type instrumentedDoer struct {
	base  Doer
	agent *Agent
}

func (d *instrumentedDoer) Do(req *http.Request) (*http.Response, error) {
	return d.agent.measure(CallTypeFetch, req, d.base.Do)
}

// measure runs one instrumented call. Beyond the two added headers it must
// not change anything the application can observe: same response object,
// same error, in particular a transport failure still propagates unchanged.
func (a *Agent) measure(callType string, req *http.Request, do func(*http.Request) (*http.Response, error)) (*http.Response, error) {
	if isSelfResource(req.URL.String(), a.transport.selfPrefixes()) {
		// never instrument the delivery channel's own traffic
		return do(req)
	}
	r2 := req.Clone(req.Context())
	r2.Header.Set(HeaderSessionID, a.identity.SessionID())
	if eid := a.identity.EndpointID(); eid != "" {
		r2.Header.Set(HeaderEndpointID, eid)
	}
	start := a.clock.Now()
	resp, err := do(r2)
	end := a.clock.Now()

	method := req.Method
	if method == "" {
		method = "GET"
	}
	call := NetworkCall{
		ID:           uuid.NewString(),
		Type:         callType,
		Method:       method,
		Endpoint:     req.URL.String(),
		Duration:     float64(end.Sub(start)) / float64(time.Millisecond),
		StartEpochMs: start.UnixMilli(),
		EndEpochMs:   end.UnixMilli(),
		StartTs:      a.origin.Offset(start),
		EndTs:        a.origin.Offset(end),
	}
	switch {
	case err != nil:
		call.Error = err.Error()
		a.emitCall(TriggerException, call)
	case resp.StatusCode >= 400:
		status := resp.StatusCode
		call.Status = &status
		a.emitCall(TriggerError, call)
	default:
		status := resp.StatusCode
		call.Status = &status
		a.emitCall(TriggerAPICall, call)
	}
	return resp, err
}

func (a *Agent) emitCall(trigger Trigger, call NetworkCall) {
	env := a.envelope(trigger)
	env.API = &call
	hint := hintStandard
	if trigger == TriggerAPICall {
		hint = hintBeacon
	}
	a.transport.deliver(env, hint)
}
