package remote

// Wire protocol between the adapter and the rendering host: JSON envelopes
// over one websocket per surface. Requests flow host-application -> renderer
// and are answered by request ID; events flow renderer -> host-application
// at any time.

const (
	opCreate = "create"
	opLoad   = "load"
	opClose  = "close"
)

const (
	eventScriptMessage = "script_message"
	eventNavigation    = "navigation"
	eventLoadFailed    = "load_failed"
)

type envelope struct {
	Type     string    `json:"type"` // "request" | "response" | "event"
	Request  *request  `json:"request,omitempty"`
	Response *response `json:"response,omitempty"`
	Event    *event    `json:"event,omitempty"`
}

type request struct {
	RequestID string `json:"request_id"`
	SurfaceID string `json:"surface_id"`
	Op        string `json:"op"`

	// load
	HTML    string `json:"html,omitempty"`
	BaseURL string `json:"base_url,omitempty"`
	Script  string `json:"script,omitempty"`

	// create
	ScriptVersion int `json:"script_version,omitempty"`
}

type response struct {
	RequestID string     `json:"request_id"`
	Error     *wireError `json:"error,omitempty"`
}

type wireError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type event struct {
	SurfaceID string `json:"surface_id"`
	Kind      string `json:"kind"`

	// script_message
	Subject string `json:"subject,omitempty"`
	Payload string `json:"payload,omitempty"`

	// navigation / load_failed
	URL      string `json:"url,omitempty"`
	TopLevel bool   `json:"top_level,omitempty"`
	Reason   string `json:"reason,omitempty"`
}
