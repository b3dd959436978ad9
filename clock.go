package rum

import (
	"sync"
	"time"
)

type Ticker interface {
	Chan() <-chan time.Time
	Stop()
}

// Timer fires at most once.
type Timer interface {
	Chan() <-chan time.Time
	Stop()
}

type Clock interface {
	Now() time.Time
	Sleep(time.Duration)
	NewTicker(time.Duration) Ticker
	NewTimer(time.Duration) Timer
}

func NewRealClock() Clock {
	return &RealClock{}
}

type RealClock struct{}

func (r *RealClock) Now() time.Time {
	return time.Now()
}

func (r *RealClock) Sleep(d time.Duration) {
	time.Sleep(d)
}

type RealTicker struct {
	tkr *time.Ticker
}

func (r *RealClock) NewTicker(d time.Duration) Ticker {
	return RealTicker{time.NewTicker(d)}
}

func (t RealTicker) Chan() <-chan time.Time {
	return t.tkr.C
}

func (t RealTicker) Stop() {
	t.tkr.Stop()
}

type RealTimer struct {
	tmr *time.Timer
}

func (r *RealClock) NewTimer(d time.Duration) Timer {
	return RealTimer{time.NewTimer(d)}
}

func (t RealTimer) Chan() <-chan time.Time {
	return t.tmr.C
}

func (t RealTimer) Stop() {
	t.tmr.Stop()
}

// TimeOrigin bridges relative performance timestamps (milliseconds since the
// session began) and wall-clock epoch time. Captured exactly once, when the
// agent starts; every component converts through the same origin.
type TimeOrigin struct {
	wall time.Time
}

func NewTimeOrigin(c Clock) *TimeOrigin {
	return &TimeOrigin{wall: c.Now()}
}

// Epoch converts a millisecond offset from the origin into epoch milliseconds.
func (o *TimeOrigin) Epoch(relMs float64) int64 {
	return o.wall.Add(time.Duration(relMs * float64(time.Millisecond))).UnixMilli()
}

// Offset reports how many milliseconds after the origin the instant falls.
// Durations computed from two offsets are immune to wall-clock skew.
func (o *TimeOrigin) Offset(t time.Time) float64 {
	return float64(t.Sub(o.wall)) / float64(time.Millisecond)
}

type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker
	timers  []*fakeTimer
}

// returns the clock, and a function that advances the clock
func NewFakeClock(now string) (Clock, func(time.Duration)) {
	tm, err := time.Parse(time.RFC3339, now)
	if err != nil {
		panic(err)
	}
	ret := &FakeClock{
		now: tm,
	}
	return ret, ret.Sleep
}

func (f *FakeClock) Now() time.Time {
	// support polling for time to advance
	f.Sleep(time.Millisecond)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *FakeClock) Sleep(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sleepUntil := f.now.Add(d)
	for {
		var tkr *fakeTicker
		for _, t := range f.tickers {
			if tkr == nil || t.next.Before(tkr.next) {
				tkr = t
			}
		}
		var tmr *fakeTimer
		for _, t := range f.timers {
			if tmr == nil || t.when.Before(tmr.when) {
				tmr = t
			}
		}
		if tmr != nil && (tkr == nil || !tkr.next.Before(tmr.when)) {
			// a one-shot fires next
			if tmr.when.After(sleepUntil) {
				f.now = sleepUntil
				return
			}
			f.now = tmr.when
			f.removeTimerLocked(tmr)
			n := f.now
			f.mu.Unlock()
			select {
			case tmr.c <- n:
			default:
			}
			f.mu.Lock()
			continue
		}
		if tkr == nil || tkr.next.After(sleepUntil) {
			f.now = sleepUntil
			return
		}
		f.now = tkr.next
		tkr.next = tkr.next.Add(tkr.d)
		n := f.now
		f.mu.Unlock()
		select {
		case tkr.c <- n:
			// might be blocking, so default out
		default:
		}
		f.mu.Lock()
	}
}

func (f *FakeClock) NewTicker(d time.Duration) Ticker {
	if 0 == d {
		panic("zero interval ticker")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	ret := &fakeTicker{
		d:    d,
		c:    make(chan time.Time, 1),
		f:    f,
		next: f.now.Add(d),
	}
	f.tickers = append(f.tickers, ret)
	return ret
}

func (f *FakeClock) NewTimer(d time.Duration) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()
	ret := &fakeTimer{
		c:    make(chan time.Time, 1),
		f:    f,
		when: f.now.Add(d),
	}
	f.timers = append(f.timers, ret)
	return ret
}

func (f *FakeClock) removeTimerLocked(tm *fakeTimer) {
	for i, z := range f.timers {
		if z == tm {
			copy(f.timers[i:], f.timers[i+1:])
			f.timers = f.timers[:len(f.timers)-1]
			break
		}
	}
}

type fakeTicker struct {
	d    time.Duration
	c    chan time.Time
	f    *FakeClock
	next time.Time
}

func (t *fakeTicker) Chan() <-chan time.Time {
	return t.c
}

func (t *fakeTicker) Stop() {
	// you will crash if you stop it twice!
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	for i, z := range t.f.tickers {
		if z == t {
			copy(t.f.tickers[i:], t.f.tickers[i+1:])
			t.f.tickers = t.f.tickers[:len(t.f.tickers)-1]
			break
		}
	}
	t.f = nil
	// drain any tick
	select {
	case <-t.c:
	default:
	}
}

type fakeTimer struct {
	c    chan time.Time
	f    *FakeClock
	when time.Time
}

func (t *fakeTimer) Chan() <-chan time.Time {
	return t.c
}

func (t *fakeTimer) Stop() {
	// safe to call after firing; the clock already dropped us then
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	t.f.removeTimerLocked(t)
	select {
	case <-t.c:
	default:
	}
}
