package rum

import (
	"context"
	"time"
)

// OnLoad is the host's window-load signal. It emits an environment envelope
// right away, then a page-load vitals envelope after the settle delay, so
// late paint and LCP entries have landed before the snapshot.
func (a *Agent) OnLoad() {
	env := a.envelope(TriggerEnvironment)
	e := a.probe.Environment()
	env.Environment = &e
	a.transport.deliver(env, hintBeacon)
	a.scheduleSettle(a.loadSettle, TriggerPageLoad)
}

// Navigate is the host's route-change signal (programmatic history
// navigation or back/forward). The current URL is updated immediately and a
// vitals envelope is emitted after the navigation settle delay. Settle
// timers are never canceled: a second navigation inside the window schedules
// its own emission, and both fire.
func (a *Agent) Navigate(url string) {
	a.mu.Lock()
	a.location = url
	a.mu.Unlock()
	a.scheduleSettle(a.navSettle, TriggerSPANavigation)
}

// Location returns the URL the agent currently stamps on envelopes.
func (a *Agent) Location() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.location
}

// scheduleSettle emits a vitals envelope once the delay elapses. The timer
// fires regardless of supersession; it is dropped only when the agent shuts
// down first.
func (a *Agent) scheduleSettle(d time.Duration, trigger Trigger) {
	done := a.doneChan()
	if done == nil {
		// agent already shut down; the page is gone
		return
	}
	tm := a.clock.NewTimer(d)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer tm.Stop()
		select {
		case <-tm.Chan():
			a.transport.deliver(a.assemble(trigger), hintBeacon)
		case <-done:
		}
	}()
}

// EndSession emits the session-end envelope. One-shot: however many unload
// signals arrive, only the first emission happens.
func (a *Agent) EndSession() {
	a.endOnce.Do(func() {
		end := a.clock.Now().UnixMilli()
		env := a.envelope(TriggerSessionEnd)
		env.Session = &SessionInfo{
			StartEpochMs: a.startEpochMs,
			EndEpochMs:   end,
			DurationMs:   end - a.startEpochMs,
		}
		a.transport.deliver(env, hintBeacon)
	})
}

// The unload signals a host can wire up directly. Whichever fires first
// ends the session; the rest are no-ops.
func (a *Agent) OnPageHide()         { a.EndSession() }
func (a *Agent) OnVisibilityHidden() { a.EndSession() }
func (a *Agent) OnBeforeUnload()     { a.EndSession() }

// Metric emits a business-metric envelope with an arbitrary name, numeric
// value, and free-form extra fields. Pass-through: no scheduler state is
// involved.
func (a *Agent) Metric(name string, value float64, extra map[string]any) {
	env := a.envelope(TriggerBusinessMetric)
	env.Business = &BusinessMetric{Name: name, Value: value, Extra: extra}
	a.transport.deliver(env, hintBeacon)
}

// run is the heartbeat loop: one beat immediately, then one per interval,
// independent of navigation, until the context is canceled or the agent is
// closed.
func (a *Agent) run(ctx context.Context, done chan struct{}) {
	defer a.wg.Done()
	a.beat()
	tkr := a.clock.NewTicker(a.heartbeatEvery)
	defer tkr.Stop()
	for {
		select {
		case <-ctx.Done():
			a.EndSession()
			a.stop()
			return
		case <-done:
			return
		case <-tkr.Chan():
			a.beat()
		}
	}
}

func (a *Agent) beat() {
	env := a.envelope(TriggerHeartbeat)
	e := a.probe.Environment()
	env.Environment = &e
	a.transport.deliver(env, hintBeacon)
}
