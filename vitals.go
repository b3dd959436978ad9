package rum

import "sync"

// Signal names a host performance entry stream a source can observe.
type Signal string

const (
	SignalPaint       Signal = "paint"
	SignalLCP         Signal = "largest-contentful-paint"
	SignalFirstInput  Signal = "first-input"
	SignalEvent       Signal = "event"
	SignalLayoutShift Signal = "layout-shift"
)

// Entry is one host performance entry, already normalized to milliseconds
// since the time origin. Only the fields relevant to the entry's signal are
// populated.
type Entry struct {
	Name            string
	StartTime       float64
	Duration        float64
	ProcessingStart float64
	Value           float64
	HadRecentInput  bool
	InteractionID   int
}

// ObserveFunc hooks a callback into the host's entry stream for one signal.
// It returns an unregister function, or ErrSignalUnsupported (or any error)
// when the host cannot deliver that signal.
type ObserveFunc func(signal Signal, cb func([]Entry)) (func(), error)

// interactions shorter than this never update interaction-to-next-paint
const inpMinDurationMs = 16

// Monitor owns the latest-known value of every vital. Each value is written
// only by its own signal handler and read by the assembler; Snapshot gives a
// consistent copy.
type Monitor struct {
	mu         sync.Mutex
	firstPaint *float64
	fcp        *float64
	lcp        *float64
	fid        *float64
	inp        *float64
	cls        float64
	registered map[Signal]func()
}

func NewMonitor() *Monitor {
	return &Monitor{registered: map[Signal]func(){}}
}

// Register attaches the monitor to every signal the source supports. A
// signal the source rejects stays permanently unobserved and its vital stays
// null; that is degradation, not failure, so Register never returns an
// error. Signals already registered are skipped, so applying Register twice
// cannot double-count.
func (m *Monitor) Register(observe ObserveFunc) {
	for _, sig := range []Signal{SignalPaint, SignalLCP, SignalFirstInput, SignalEvent, SignalLayoutShift} {
		m.mu.Lock()
		_, dup := m.registered[sig]
		m.mu.Unlock()
		if dup {
			continue
		}
		s := sig
		unreg, err := observe(s, func(entries []Entry) {
			m.Ingest(s, entries)
		})
		if err != nil {
			continue
		}
		if unreg == nil {
			unreg = func() {}
		}
		m.mu.Lock()
		m.registered[s] = unreg
		m.mu.Unlock()
	}
}

// Unregister detaches every registered signal. Used when the agent closes.
func (m *Monitor) Unregister() {
	m.mu.Lock()
	regs := m.registered
	m.registered = map[Signal]func(){}
	m.mu.Unlock()
	for _, unreg := range regs {
		unreg()
	}
}

// Ingest applies one batch of entries for a signal. Hosts without callback
// plumbing can feed batches directly.
func (m *Monitor) Ingest(signal Signal, entries []Entry) {
	if len(entries) == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	switch signal {
	case SignalPaint:
		for _, e := range entries {
			// both paints are recorded once and never revised
			if e.Name == "first-paint" && m.firstPaint == nil {
				v := e.StartTime
				m.firstPaint = &v
			}
			if e.Name == "first-contentful-paint" && m.fcp == nil {
				v := e.StartTime
				m.fcp = &v
			}
		}
	case SignalLCP:
		// later candidates supersede earlier ones; the last entry of the
		// batch is the current candidate
		v := entries[len(entries)-1].StartTime
		m.lcp = &v
	case SignalFirstInput:
		if m.fid == nil {
			e := entries[0]
			v := e.ProcessingStart - e.StartTime
			m.fid = &v
		}
	case SignalEvent:
		for _, e := range entries {
			if e.Duration > inpMinDurationMs && e.InteractionID != 0 {
				v := e.Duration
				m.inp = &v
			}
		}
	case SignalLayoutShift:
		for _, e := range entries {
			if !e.HadRecentInput {
				m.cls += e.Value
			}
		}
	}
}

func (m *Monitor) Snapshot() Vitals {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Vitals{
		FirstPaint:             copyFloat(m.firstPaint),
		FirstContentfulPaint:   copyFloat(m.fcp),
		LargestContentfulPaint: copyFloat(m.lcp),
		FirstInputDelay:        copyFloat(m.fid),
		InteractionToNextPaint: copyFloat(m.inp),
		CumulativeLayoutShift:  m.cls,
	}
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
