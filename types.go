package rum

import "encoding/json"

type AgentError string

func (a AgentError) Error() string {
	return string(a)
}

const ErrAgentClosed = AgentError("rum agent closed")
const ErrQueueFull = AgentError("rum agent beacon queue full")
const ErrSendFailed = AgentError("rum agent send failed")
const ErrSignalUnsupported = AgentError("rum agent signal unsupported")

// Trigger discriminates the envelope union: at most one payload field is
// populated per envelope.
type Trigger string

const (
	TriggerSessionStart   Trigger = "session_start"
	TriggerSessionEnd     Trigger = "session_end"
	TriggerPageLoad       Trigger = "page_load"
	TriggerSPANavigation  Trigger = "spa_navigation"
	TriggerHeartbeat      Trigger = "heartbeat"
	TriggerEnvironment    Trigger = "environment"
	TriggerAPICall        Trigger = "api_call"
	TriggerError          Trigger = "error"
	TriggerException      Trigger = "exception"
	TriggerBusinessMetric Trigger = "business_metric"
)

// errorBound reports whether envelopes with this trigger go to the errors
// endpoint rather than the metrics endpoint.
func (t Trigger) errorBound() bool {
	return t == TriggerError || t == TriggerException
}

// Envelope is the unit sent to the collector. Session identity is always
// top-level; the payload fields form a union keyed by Trigger.
type Envelope struct {
	Trigger     Trigger         `json:"trigger"`
	Timestamp   int64           `json:"timestamp"`
	URL         string          `json:"url,omitempty"`
	SessionID   string          `json:"session_id"`
	EndpointID  string          `json:"endpoint_id,omitempty"`
	Metrics     *Metrics        `json:"metrics,omitempty"`
	Error       *ErrorDetail    `json:"error,omitempty"`
	Environment *Environment    `json:"environment,omitempty"`
	Business    *BusinessMetric `json:"business,omitempty"`
	Session     *SessionInfo    `json:"session,omitempty"`
	API         *NetworkCall    `json:"api,omitempty"`
}

// Metrics is the vitals snapshot assembled on demand.
type Metrics struct {
	Navigation *NavigationTiming `json:"navigation"`
	Vitals     Vitals            `json:"vitals"`
	Resources  []ResourceEntry   `json:"resources,omitempty"`
}

// Vitals carries the latest known value per measurement. Every field except
// cumulative_layout_shift is null until first observed; cumulative_layout_shift
// is an additive running sum and starts at zero.
type Vitals struct {
	FirstPaint             *float64 `json:"first_paint"`
	FirstContentfulPaint   *float64 `json:"first_contentful_paint"`
	LargestContentfulPaint *float64 `json:"largest_contentful_paint"`
	FirstInputDelay        *float64 `json:"first_input_delay"`
	InteractionToNextPaint *float64 `json:"interaction_to_next_paint"`
	CumulativeLayoutShift  float64  `json:"cumulative_layout_shift"`
}

// NavigationTiming mirrors the host's navigation timing entry. Fields are
// null when the entry is unavailable.
type NavigationTiming struct {
	DomContentLoaded *float64 `json:"dom_content_loaded"`
	Load             *float64 `json:"load"`
	DomInteractive   *float64 `json:"dom_interactive"`
	TimeToFirstByte  *float64 `json:"time_to_first_byte"`
	ResponseEnd      *float64 `json:"response_end"`
}

type ResourceEntry struct {
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	Duration     float64 `json:"duration"`
	TransferSize *int64  `json:"transfer_size"`
	StartTime    float64 `json:"start_time"`
	ResponseEnd  float64 `json:"response_end"`
}

// The two instrumented primitives keep their historical wire names: the
// call-style shim reports "fetch", the object-style transport shim "xhr".
const (
	CallTypeFetch = "fetch"
	CallTypeXHR   = "xhr"
)

// NetworkCall records one completed or failed instrumented call. Immutable
// once emitted.
type NetworkCall struct {
	ID           string  `json:"id,omitempty"`
	Type         string  `json:"type"`
	Method       string  `json:"method"`
	Endpoint     string  `json:"endpoint"`
	Status       *int    `json:"status"`
	Duration     float64 `json:"duration"`
	StartEpochMs int64   `json:"start_epoch_ms"`
	EndEpochMs   int64   `json:"end_epoch_ms"`
	StartTs      float64 `json:"start_ts"`
	EndTs        float64 `json:"end_ts"`
	Error        string  `json:"error,omitempty"`
}

type ErrorDetail struct {
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
	Source  string `json:"source,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
	Stack   string `json:"stack,omitempty"`
}

// Environment is a point-in-time capability snapshot. Each field is
// independently null when the host cannot report it.
type Environment struct {
	UserAgent           *string  `json:"user_agent"`
	Language            *string  `json:"language"`
	Platform            *string  `json:"platform"`
	DeviceMemory        *float64 `json:"device_memory"`
	HardwareConcurrency *int     `json:"hardware_concurrency"`
	ScreenWidth         *int     `json:"screen_width"`
	ScreenHeight        *int     `json:"screen_height"`
	PixelRatio          *float64 `json:"pixel_ratio"`
	ConnectionType      *string  `json:"connection_type"`
}

type SessionInfo struct {
	StartEpochMs int64 `json:"start_epoch_ms"`
	EndEpochMs   int64 `json:"end_epoch_ms,omitempty"`
	DurationMs   int64 `json:"duration_ms,omitempty"`
}

// BusinessMetric is the pass-through payload of the public metric hook. The
// extra fields are flattened next to name and value on the wire.
type BusinessMetric struct {
	Name  string
	Value float64
	Extra map[string]any
}

func (b BusinessMetric) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(b.Extra)+2)
	for k, v := range b.Extra {
		m[k] = v
	}
	m["name"] = b.Name
	m["value"] = b.Value
	return json.Marshal(m)
}

// CollectorAck is the response body the collector returns on the standard
// delivery path.
type CollectorAck struct {
	Ok bool `json:"ok"`
}
