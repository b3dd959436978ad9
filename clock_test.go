package rum

import (
	"testing"
	"time"
)

func TestClockReal(t *testing.T) {
	rc := NewRealClock()
	start := rc.Now()
	tkr := rc.NewTicker(10 * time.Millisecond)
	rc.Sleep(20 * time.Millisecond)
	<-tkr.Chan()
	end := rc.Now()
	if end.Sub(start) < 20*time.Millisecond {
		t.Fatal("bad times", start, end)
	}
}

func TestClockFake(t *testing.T) {
	rc, _ := NewFakeClock("2023-04-20T23:20:00Z")
	start := rc.Now()
	tkr := rc.NewTicker(10 * time.Millisecond)
	rc.Sleep(20 * time.Millisecond)
	<-tkr.Chan()
	end := rc.Now()
	if end.Sub(start) < 20*time.Millisecond {
		t.Fatal("bad times", start, end)
	}
}

func TestTimerReal(t *testing.T) {
	rc := NewRealClock()
	tm := rc.NewTimer(10 * time.Millisecond)
	defer tm.Stop()
	start := rc.Now()
	<-tm.Chan()
	if rc.Now().Sub(start) < 10*time.Millisecond {
		t.Fatal("timer fired early")
	}
}

func TestTimerFake(t *testing.T) {
	rc, adv := NewFakeClock("2023-04-20T23:20:00Z")
	tm := rc.NewTimer(50 * time.Millisecond)
	adv(100 * time.Millisecond)
	select {
	case <-tm.Chan():
	default:
		t.Fatal("timer did not fire")
	}
	// one-shot: advancing further must not fire it again
	adv(200 * time.Millisecond)
	select {
	case <-tm.Chan():
		t.Fatal("timer fired twice")
	default:
	}
}

func TestTimerFakeStop(t *testing.T) {
	rc, adv := NewFakeClock("2023-04-20T23:20:00Z")
	tm := rc.NewTimer(100 * time.Millisecond)
	tm.Stop()
	adv(300 * time.Millisecond)
	select {
	case <-tm.Chan():
		t.Fatal("stopped timer fired")
	default:
	}
}

func TestTimeOrigin(t *testing.T) {
	wall := time.UnixMilli(1700000000000)
	o := &TimeOrigin{wall: wall}
	if got := o.Epoch(0); got != 1700000000000 {
		t.Fatal("bad epoch at origin", got)
	}
	if got := o.Epoch(1234); got != 1700000001234 {
		t.Fatal("bad epoch conversion", got)
	}
	if got := o.Offset(wall.Add(250 * time.Millisecond)); got != 250 {
		t.Fatal("bad offset", got)
	}
}
