package gateway

import "encoding/json"

// Frame types for the WebSocket protocol.
const (
	FrameTypeRequest  = "req"
	FrameTypeResponse = "res"
	FrameTypeEvent    = "event"
)

// Frame is the base envelope for all WebSocket messages.
// The Type field discriminates between request, response, and event frames.
type Frame struct {
	Type string `json:"type"`

	// Request fields
	ID     string          `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`

	// Response fields
	OK      *bool           `json:"ok,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`

	// Event fields
	Event string `json:"event,omitempty"`
	Seq   int64  `json:"seq,omitempty"`

	// Error (response only)
	Error *ErrorShape `json:"error,omitempty"`
}

// ErrorShape is the standard error format in response frames.
type ErrorShape struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Hello is the first event sent to a freshly connected client. The conn id
// is the client's identity for the lifetime of the link; there is no other
// credential.
type Hello struct {
	Protocol int               `json:"protocol"`
	ConnID   string            `json:"connId"`
	Version  string            `json:"version"`
	Roles    map[string]string `json:"roles"` // role name → language
	Methods  []string          `json:"methods"`
}

// JoinParams asks for a role in a session.
type JoinParams struct {
	SessionID string `json:"sessionId"`
}

// JoinResult reports the assigned role and its bound language.
type JoinResult struct {
	SessionID string `json:"sessionId"`
	Role      string `json:"role"`
	Language  string `json:"language"`
}

// SendParams carries a chat or transcript message into the relay.
type SendParams struct {
	SessionID string `json:"sessionId"`
	Text      string `json:"text"`
}

// LanguageParams rebinds the caller's language.
type LanguageParams struct {
	Language string `json:"language"`
}

// SignalParams relays an opaque signaling blob to the peer.
type SignalParams struct {
	SessionID string          `json:"sessionId"`
	Kind      string          `json:"kind"` // "offer" | "answer" | "candidate"
	Payload   json.RawMessage `json:"payload"`
}

// NewRequest creates a request frame.
func NewRequest(id, method string, params any) (Frame, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return Frame{}, err
	}
	return Frame{
		Type:   FrameTypeRequest,
		ID:     id,
		Method: method,
		Params: raw,
	}, nil
}

// NewResponse creates a success response frame.
func NewResponse(id string, payload any) (Frame, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, err
	}
	ok := true
	return Frame{
		Type:    FrameTypeResponse,
		ID:      id,
		OK:      &ok,
		Payload: raw,
	}, nil
}

// NewErrorResponse creates an error response frame.
func NewErrorResponse(id string, errShape ErrorShape) Frame {
	ok := false
	return Frame{
		Type:  FrameTypeResponse,
		ID:    id,
		OK:    &ok,
		Error: &errShape,
	}
}

// NewEvent creates an event frame.
func NewEvent(event string, payload any, seq int64) (Frame, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, err
	}
	return Frame{
		Type:    FrameTypeEvent,
		Event:   event,
		Payload: raw,
		Seq:     seq,
	}, nil
}

// Protocol version supported by this server.
const ProtocolVersion = 1
