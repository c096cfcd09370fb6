package protocol

// Message is the envelope of every value a worker sends back. Exactly one
// of the following shapes is populated:
//
//   - Ready message: Ready is true, all other fields are zero
//   - Response: ID and either Payload or Error
//
// Requests travel the other way with their own shape; see EncodeRequest.
type Message struct {
	Ready   bool   `json:"ready,omitempty" msgpack:"ready,omitempty" cbor:"ready,omitempty"`
	ID      uint64 `json:"id,omitempty" msgpack:"id,omitempty" cbor:"id,omitempty"`
	Payload []byte `json:"payload,omitempty" msgpack:"payload,omitempty" cbor:"payload,omitempty"`
	Error   string `json:"error,omitempty" msgpack:"error,omitempty" cbor:"error,omitempty"`
}

// NewReady returns the readiness message a worker sends once it has loaded
// its generation capability.
func NewReady() *Message {
	return &Message{Ready: true}
}

// NewResponse returns a successful response for request id.
func NewResponse(id uint64, payload []byte) *Message {
	return &Message{ID: id, Payload: payload}
}

// NewErrorResponse returns a failed response for request id.
func NewErrorResponse(id uint64, msg string) *Message {
	return &Message{ID: id, Error: msg}
}

// IsReady reports whether m is a readiness message.
func (m *Message) IsReady() bool {
	return m.Ready
}

// Failed reports whether m is a response carrying an error.
func (m *Message) Failed() bool {
	return m.Error != ""
}
