package transport

import (
	"github.com/buger/jsonparser"
	"github.com/goccy/go-json"
)

// Wire methods a client may request.
const (
	MethodJoin  = "join"
	MethodLeave = "leave"
)

// Request is a client-to-server frame. Params carries the room name for
// join/leave.
type Request struct {
	ID     string   `json:"id"`
	Method string   `json:"method"`
	Params []string `json:"params,omitempty"`
}

// WireError is the error half of a response frame.
type WireError struct {
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
}

func (e *WireError) Error() string {
	return e.Message
}

// Response answers exactly one Request, correlated by id.
type Response struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *WireError      `json:"error,omitempty"`
}

// Push is a server-initiated frame carrying one change event for one room.
// The payload is left raw; the receiving collection decodes it into its own
// item type.
type Push struct {
	Event   string          `json:"event"`
	Room    string          `json:"room"`
	Payload json.RawMessage `json:"payload"`
}

// FrameKind classifies an incoming frame before full decoding.
type FrameKind int

const (
	KindUnknown FrameKind = iota
	KindResponse
	KindPush
)

// SniffFrame peeks at the top-level keys of a raw frame to decide whether it
// answers a request (has an id) or pushes an event, without paying for a
// full decode of the payload.
func SniffFrame(data []byte) FrameKind {
	if _, err := jsonparser.GetString(data, "id"); err == nil {
		return KindResponse
	}
	if _, err := jsonparser.GetString(data, "event"); err == nil {
		return KindPush
	}
	return KindUnknown
}
