package wsstore

import "encoding/json"

// Frame operations.
const (
	OpSubscribe   = "subscribe"
	OpUnsubscribe = "unsubscribe"
	OpSet         = "set"
	OpDelete      = "delete"

	OpSnapshot = "snapshot"
	OpAck      = "ack"
	OpError    = "error"
)

// Frame is one JSON text message in either direction.
//
// Client to server: subscribe (Sub, Collection), unsubscribe (Sub),
// set (Req, Collection, ID, Data) and delete (Req, Collection, ID).
// Server to client: snapshot (Sub, Docs), ack (Req) and error (Sub or Req, Error).
type Frame struct {
	Op         string                     `json:"op"`
	Sub        string                     `json:"sub,omitempty"`
	Req        string                     `json:"req,omitempty"`
	Collection string                     `json:"collection,omitempty"`
	ID         string                     `json:"id,omitempty"`
	Data       json.RawMessage            `json:"data,omitempty"`
	Docs       map[string]json.RawMessage `json:"docs,omitempty"`
	Token      string                     `json:"token,omitempty"`
	Error      string                     `json:"error,omitempty"`
}
