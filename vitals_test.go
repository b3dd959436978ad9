package rum

import "testing"

func TestLayoutShiftAccumulates(t *testing.T) {
	m := NewMonitor()
	m.Ingest(SignalLayoutShift, []Entry{{Value: 0.25}, {Value: 0.5}})
	m.Ingest(SignalLayoutShift, []Entry{{Value: 0.125}})
	if got := m.Snapshot().CumulativeLayoutShift; got != 0.875 {
		t.Fatal("bad layout shift sum", got)
	}
	// shifts right after user input contribute nothing
	m.Ingest(SignalLayoutShift, []Entry{{Value: 10, HadRecentInput: true}})
	if got := m.Snapshot().CumulativeLayoutShift; got != 0.875 {
		t.Fatal("recent-input shift was counted", got)
	}
	// never decreases
	m.Ingest(SignalLayoutShift, []Entry{{Value: 0.125}})
	if got := m.Snapshot().CumulativeLayoutShift; got != 1.0 {
		t.Fatal("bad running sum", got)
	}
}

func TestPaintStoredOnce(t *testing.T) {
	m := NewMonitor()
	m.Ingest(SignalPaint, []Entry{
		{Name: "first-paint", StartTime: 100},
		{Name: "first-contentful-paint", StartTime: 180},
	})
	m.Ingest(SignalPaint, []Entry{
		{Name: "first-paint", StartTime: 900},
		{Name: "first-contentful-paint", StartTime: 950},
	})
	v := m.Snapshot()
	if v.FirstPaint == nil || *v.FirstPaint != 100 {
		t.Fatal("first paint revised", v.FirstPaint)
	}
	if v.FirstContentfulPaint == nil || *v.FirstContentfulPaint != 180 {
		t.Fatal("first contentful paint revised", v.FirstContentfulPaint)
	}
}

func TestLCPLastCandidateWins(t *testing.T) {
	m := NewMonitor()
	m.Ingest(SignalLCP, []Entry{{StartTime: 1000}, {StartTime: 1800}})
	if v := m.Snapshot(); v.LargestContentfulPaint == nil || *v.LargestContentfulPaint != 1800 {
		t.Fatal("want last entry of the batch", v.LargestContentfulPaint)
	}
	m.Ingest(SignalLCP, []Entry{{StartTime: 2400}})
	if v := m.Snapshot(); *v.LargestContentfulPaint != 2400 {
		t.Fatal("later candidate must supersede", *v.LargestContentfulPaint)
	}
}

func TestFirstInputDelayOnce(t *testing.T) {
	m := NewMonitor()
	m.Ingest(SignalFirstInput, []Entry{{StartTime: 100, ProcessingStart: 105}})
	m.Ingest(SignalFirstInput, []Entry{{StartTime: 400, ProcessingStart: 500}})
	if v := m.Snapshot(); v.FirstInputDelay == nil || *v.FirstInputDelay != 5 {
		t.Fatal("bad first input delay", v.FirstInputDelay)
	}
}

func TestInteractionToNextPaint(t *testing.T) {
	m := NewMonitor()
	m.Ingest(SignalEvent, []Entry{{Duration: 10, InteractionID: 3}})
	if v := m.Snapshot(); v.InteractionToNextPaint != nil {
		t.Fatal("short interaction must not count")
	}
	m.Ingest(SignalEvent, []Entry{{Duration: 40}})
	if v := m.Snapshot(); v.InteractionToNextPaint != nil {
		t.Fatal("non-interaction event must not count")
	}
	m.Ingest(SignalEvent, []Entry{{Duration: 40, InteractionID: 3}})
	m.Ingest(SignalEvent, []Entry{{Duration: 80, InteractionID: 9}})
	if v := m.Snapshot(); v.InteractionToNextPaint == nil || *v.InteractionToNextPaint != 80 {
		t.Fatal("want latest qualifying duration", v.InteractionToNextPaint)
	}
}

func TestRegisterNeverDuplicates(t *testing.T) {
	m := NewMonitor()
	seen := map[Signal]int{}
	observe := func(sig Signal, cb func([]Entry)) (func(), error) {
		if sig == SignalLayoutShift {
			return nil, ErrSignalUnsupported
		}
		seen[sig]++
		return func() {}, nil
	}
	m.Register(observe)
	m.Register(observe)
	for _, sig := range []Signal{SignalPaint, SignalLCP, SignalFirstInput, SignalEvent} {
		if seen[sig] != 1 {
			t.Fatal("signal registered more than once", sig, seen[sig])
		}
	}
	// the unsupported vital stays permanently unset, and nothing panicked
	if v := m.Snapshot(); v.CumulativeLayoutShift != 0 {
		t.Fatal("unsupported signal produced data")
	}
}

func TestRegisteredCallbackFeedsMonitor(t *testing.T) {
	m := NewMonitor()
	cbs := map[Signal]func([]Entry){}
	m.Register(func(sig Signal, cb func([]Entry)) (func(), error) {
		cbs[sig] = cb
		return func() {}, nil
	})
	cbs[SignalLCP]([]Entry{{StartTime: 1500}})
	if v := m.Snapshot(); v.LargestContentfulPaint == nil || *v.LargestContentfulPaint != 1500 {
		t.Fatal("callback did not reach the monitor")
	}
}
