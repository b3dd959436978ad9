package rum

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
)

const metricsPath = "/rum/page-metrics"
const errorsPath = "/rum/errors"

// the unload-safe channel mirrors the browser beacon budget
const maxBeaconBytes = 64 << 10
const beaconQueueDepth = 256

// standard-path payloads above this are gzipped
const gzipMinBytes = 4 << 10

type channelHint int

const (
	hintStandard channelHint = iota
	// hintBeacon requests the unload-safe path: synchronous enqueue, no
	// response, bounded payload. Used for session end, heartbeats, and
	// routine metrics.
	hintBeacon
)

// transport delivers envelopes to the collector. It never surfaces a
// delivery failure to the host: telemetry loss is acceptable, breaking the
// page is not.
type transport struct {
	metricsURL string
	errorsURL  string
	httpClient *http.Client
	clock      Clock

	mu         sync.Mutex
	allowWrite bool
	queue      chan []byte
	wg         sync.WaitGroup

	warnMu sync.Mutex
	warned map[string]struct{}
}

func newTransport(apiBase, errorsBase string, hc *http.Client, clock Clock) (*transport, error) {
	mu, err := collectorURL(apiBase, metricsPath)
	if err != nil {
		return nil, err
	}
	eu, err := collectorURL(errorsBase, errorsPath)
	if err != nil {
		return nil, err
	}
	t := &transport{
		metricsURL: mu,
		errorsURL:  eu,
		httpClient: hc,
		clock:      clock,
		allowWrite: true,
		warned:     map[string]struct{}{},
		queue:      make(chan []byte, beaconQueueDepth),
	}
	t.wg.Add(1)
	go t.drain()
	return t, nil
}

func collectorURL(base, path string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	return u.String(), nil
}

// selfPrefixes are the URLs the transport itself talks to; resource listings
// exclude anything under them.
func (t *transport) selfPrefixes() []string {
	return []string{t.metricsURL, t.errorsURL}
}

// deliver routes one envelope. Error-bound triggers always take the standard
// path to the errors endpoint; anything else goes to the metrics endpoint,
// over the beacon queue when the hint asks for unload safety.
func (t *transport) deliver(env Envelope, hint channelHint) {
	data, err := json.Marshal(env)
	if err != nil {
		t.warnOnce("marshal", fmt.Sprintf("unsendable envelope %s: %s", env.Trigger, err))
		return
	}
	if env.Trigger.errorBound() {
		t.standard(t.errorsURL, data, true)
		return
	}
	if hint == hintBeacon {
		t.beacon(data)
		return
	}
	t.standard(t.metricsURL, data, false)
}

// beacon is synchronous-enqueue: it returns immediately and the actual I/O
// happens out of band. Oversized payloads and a full queue both drop
// silently; smaller and later payloads are unaffected.
func (t *transport) beacon(data []byte) {
	if len(data) > maxBeaconBytes {
		t.warnOnce("oversize", fmt.Sprintf("dropping beacon payload of %d bytes", len(data)))
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.allowWrite {
		return
	}
	select {
	case t.queue <- data:
	default:
		t.warnOnce("backlog", "beacon queue is backlogged; dropping envelopes")
	}
}

func (t *transport) drain() {
	defer t.wg.Done()
	for data := range t.queue {
		t.post(t.metricsURL, data, false)
	}
}

// standard is fire-and-forget: the caller never waits for the request.
func (t *transport) standard(dest string, data []byte, wantAck bool) {
	t.mu.Lock()
	if !t.allowWrite {
		t.mu.Unlock()
		return
	}
	t.wg.Add(1)
	t.mu.Unlock()
	go func() {
		defer t.wg.Done()
		t.post(dest, data, wantAck)
	}()
}

func (t *transport) post(dest string, data []byte, wantAck bool) {
	body := data
	encoding := ""
	if len(data) > gzipMinBytes {
		if zipped, err := gzipBytes(data); err == nil && len(zipped) < len(data) {
			body = zipped
			encoding = "gzip"
		}
	}
	req, err := http.NewRequest("POST", dest, bytes.NewReader(body))
	if err != nil {
		// this should essentially never happen
		t.warnOnce("request", fmt.Sprintf("cannot build collector request: %s", err))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if encoding != "" {
		req.Header.Set("Content-Encoding", encoding)
	}
	resp, err := t.httpClient.Do(req)
	if err != nil {
		// never retried, never surfaced
		t.warnOnce("send", fmt.Sprintf("collector send failed: %s", err))
		return
	}
	defer resp.Body.Close()
	if !wantAck {
		return
	}
	var ack CollectorAck
	if err := jsonDecode(resp.Body, &ack); err != nil {
		// maybe we got HTML from nginx or something
		t.warnOnce("ack", fmt.Sprintf("collector ack unreadable: %s", err))
		return
	}
	if !ack.Ok {
		t.warnOnce("nack", "collector rejected an error report")
	}
}

// close stops accepting envelopes, drains everything already queued, and
// waits for in-flight standard requests. Safe to call more than once.
func (t *transport) close() {
	t.mu.Lock()
	if t.allowWrite {
		t.allowWrite = false
		close(t.queue)
	}
	t.mu.Unlock()
	t.wg.Wait()
}

// warnOnce keeps delivery noise down: one stderr line per failure class for
// the life of the transport.
func (t *transport) warnOnce(class, msg string) {
	t.warnMu.Lock()
	defer t.warnMu.Unlock()
	if _, has := t.warned[class]; has {
		return
	}
	t.warned[class] = struct{}{}
	fmt.Fprintf(os.Stderr, "%s: rum agent: %s\n", t.clock.Now(), msg)
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
