package rum

import (
	"context"
	"net/http"
	"os"
	"sync"
	"time"
)

const DefaultCollectorURL = "http://localhost:8000"
const DefaultHeartbeatInterval = 15 * time.Second
const DefaultLoadSettleDelay = 1000 * time.Millisecond
const DefaultNavSettleDelay = 300 * time.Millisecond
const MinHeartbeatInterval = time.Second

// Create a new RUM agent for one session. It runs until the context is
// canceled or you call Close(), which ends the session, drains queued
// envelopes, and is safe to call more than once. If the store already holds
// a session (a reload within the same scope), the agent resumes it; only a
// genuinely new session emits a session-start envelope, and it is emitted
// before anything else.
func New(ctx context.Context, opts ...Option) (*Agent, error) {
	ret := &Agent{
		collectorURL: envDefault("RUM_URL", DefaultCollectorURL),
		endpointID:   os.Getenv("RUM_ENDPOINT_ID"),
		httpClient:   http.DefaultClient,
		clock:        NewRealClock(),
		store:        NewMemoryStore(),
		probe:        runtimeProbe{},
		monitor:      NewMonitor(),

		heartbeatEvery: DefaultHeartbeatInterval,
		loadSettle:     DefaultLoadSettleDelay,
		navSettle:      DefaultNavSettleDelay,

		done: make(chan struct{}),
		wg:   &sync.WaitGroup{},
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.errorsURL == "" {
		ret.errorsURL = ret.collectorURL
	}
	ret.origin = NewTimeOrigin(ret.clock)
	ret.identity = newIdentity(ret.store, ret.clock, ret.endpointID)
	tr, err := newTransport(ret.collectorURL, ret.errorsURL, ret.httpClient, ret.clock)
	if err != nil {
		return nil, err
	}
	ret.transport = tr
	if ret.observe != nil {
		ret.monitor.Register(ret.observe)
	}

	startMs, fresh := ret.identity.SessionStart()
	ret.startEpochMs = startMs
	if fresh {
		env := ret.envelope(TriggerSessionStart)
		env.Session = &SessionInfo{StartEpochMs: startMs}
		ret.transport.deliver(env, hintStandard)
	}

	ret.wg.Add(1)
	go ret.run(ctx, ret.done)
	return ret, nil
}

type Agent struct {
	collectorURL string
	errorsURL    string
	endpointID   string
	httpClient   *http.Client
	clock        Clock
	store        Store
	probe        Probe
	observe      ObserveFunc
	navFn        NavigationFunc
	resFn        ResourceFunc

	heartbeatEvery time.Duration
	loadSettle     time.Duration
	navSettle      time.Duration

	identity     *Identity
	origin       *TimeOrigin
	monitor      *Monitor
	transport    *transport
	startEpochMs int64

	mu       sync.Mutex
	location string
	done     chan struct{}
	wg       *sync.WaitGroup
	endOnce  sync.Once
}

// Various options, typically spelled "WithXxxx", can be passed to New().
type Option func(*Agent)

// If you don't specify a collector URL, one is read from RUM_URL, falling
// back to the default. The metrics path is appended automatically.
func WithCollectorURL(url string) Option {
	return func(a *Agent) {
		a.collectorURL = url
	}
}

// Errors go to their own base URL when configured; otherwise they share the
// collector URL.
func WithErrorsURL(url string) Option {
	return func(a *Agent) {
		a.errorsURL = url
	}
}

// If you don't specify an endpoint id, one is read from RUM_ENDPOINT_ID.
// Absent means envelopes simply carry none.
func WithEndpointID(id string) Option {
	return func(a *Agent) {
		a.endpointID = id
	}
}

// You can pass in your own http.Client, for proxies, timeouts, or mocking
// the Transport in unit tests. Do not pass an instrumented client: the
// agent must not measure its own delivery traffic.
func WithHTTPClient(hc *http.Client) Option {
	return func(a *Agent) {
		a.httpClient = hc
	}
}

// You can call NewRealClock() (which is the default) or NewFakeClock() to
// make clocks for the agent. This is mainly helpful for unit testing.
func WithClock(clock Clock) Option {
	return func(a *Agent) {
		a.clock = clock
	}
}

// WithStore sets the session-identity store. Passing nil is allowed and
// means no persistence: every agent gets a fresh session identity.
func WithStore(s Store) Option {
	return func(a *Agent) {
		a.store = s
	}
}

func WithProbe(p Probe) Option {
	return func(a *Agent) {
		a.probe = p
	}
}

// WithObserver hooks the monitor into the host's performance entry streams.
func WithObserver(observe ObserveFunc) Option {
	return func(a *Agent) {
		a.observe = observe
	}
}

func WithNavigationTiming(fn NavigationFunc) Option {
	return func(a *Agent) {
		a.navFn = fn
	}
}

func WithResources(fn ResourceFunc) Option {
	return func(a *Agent) {
		a.resFn = fn
	}
}

// WithLocation sets the URL stamped on envelopes until the first Navigate.
func WithLocation(url string) Option {
	return func(a *Agent) {
		a.location = url
	}
}

// How often heartbeat envelopes go out. The first beats immediately.
func WithHeartbeatInterval(d time.Duration) Option {
	if d < MinHeartbeatInterval {
		d = MinHeartbeatInterval
	}
	return func(a *Agent) {
		a.heartbeatEvery = d
	}
}

// The two settle delays: after window load and after an SPA navigation,
// how long to wait for late performance entries before snapshotting.
func WithSettleDelays(load, nav time.Duration) Option {
	if load <= 0 {
		load = DefaultLoadSettleDelay
	}
	if nav <= 0 {
		nav = DefaultNavSettleDelay
	}
	return func(a *Agent) {
		a.loadSettle = load
		a.navSettle = nav
	}
}

// Monitor exposes the vitals monitor, so hosts without observer callback
// plumbing can feed entry batches with Ingest.
func (a *Agent) Monitor() *Monitor {
	return a.monitor
}

// SessionID is stable for the life of the store scope.
func (a *Agent) SessionID() string {
	return a.identity.SessionID()
}

// Close ends the session (if nothing ended it earlier), stops the
// scheduler, and drains everything queued for delivery. You can Close()
// the agent more than once if you want.
func (a *Agent) Close() error {
	a.EndSession()
	a.stop()
	a.wg.Wait()
	a.monitor.Unregister()
	a.transport.close()
	return nil
}

func (a *Agent) stop() {
	a.mu.Lock()
	if a.done != nil {
		cl := a.done
		a.done = nil
		close(cl)
	}
	a.mu.Unlock()
}

func (a *Agent) doneChan() chan struct{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.done
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
