package rum

// envelope stamps the base every emission shares: trigger, wall-clock time,
// current URL, and session identity.
func (a *Agent) envelope(trigger Trigger) Envelope {
	return Envelope{
		Trigger:    trigger,
		Timestamp:  a.clock.Now().UnixMilli(),
		URL:        a.Location(),
		SessionID:  a.identity.SessionID(),
		EndpointID: a.identity.EndpointID(),
	}
}

// assemble snapshots every observation source into one metrics envelope.
// Pure read: navigation timing, vitals, and resources are read at call time
// and nothing is mutated. An absent navigation entry degrades to null
// fields rather than an error.
func (a *Agent) assemble(trigger Trigger) Envelope {
	env := a.envelope(trigger)
	var nav *NavigationTiming
	if a.navFn != nil {
		nav = a.navFn()
	}
	var res []ResourceEntry
	if a.resFn != nil {
		res = filterResources(a.resFn(), a.transport.selfPrefixes())
	}
	env.Metrics = &Metrics{
		Navigation: nav,
		Vitals:     a.monitor.Snapshot(),
		Resources:  res,
	}
	return env
}
